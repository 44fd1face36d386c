// Package ctyutil converts between cty values and plain Go values. The
// planner diffs and the state store persist plain Go values; everything the
// evaluator touches is cty.
package ctyutil

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// ToGo converts a known cty.Value into a plain Go value: primitives become
// string/float64/bool, objects and maps become map[string]any, lists and
// tuples become []any. Null and unknown values convert to nil.
func ToGo(val cty.Value) (any, error) {
	if val == cty.NilVal || !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			converted, err := ToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = converted
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var out []any
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			converted, err := ToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported cty type for conversion: %s", ty.FriendlyName())
	}
}

// ToCty converts a plain Go value (as produced by ToGo or decoded from the
// state snapshot's JSON) back into a cty.Value.
func ToCty(v any) (cty.Value, error) {
	switch tv := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(tv), nil
	case bool:
		return cty.BoolVal(tv), nil
	case float64:
		return cty.NumberFloatVal(tv), nil
	case int:
		return cty.NumberIntVal(int64(tv)), nil
	case int64:
		return cty.NumberIntVal(tv), nil
	case map[string]any:
		if len(tv) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(tv))
		for k, elem := range tv {
			converted, err := ToCty(elem)
			if err != nil {
				return cty.NilVal, fmt.Errorf("attribute %q: %w", k, err)
			}
			attrs[k] = converted
		}
		return cty.ObjectVal(attrs), nil
	case map[string]string:
		attrs := make(map[string]cty.Value, len(tv))
		for k, elem := range tv {
			attrs[k] = cty.StringVal(elem)
		}
		if len(attrs) == 0 {
			return cty.EmptyObjectVal, nil
		}
		return cty.ObjectVal(attrs), nil
	case []any:
		if len(tv) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, 0, len(tv))
		for i, elem := range tv {
			converted, err := ToCty(elem)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems = append(elems, converted)
		}
		return cty.TupleVal(elems), nil
	case []string:
		elems := make([]cty.Value, 0, len(tv))
		for _, elem := range tv {
			elems = append(elems, cty.StringVal(elem))
		}
		if len(elems) == 0 {
			return cty.ListValEmpty(cty.String), nil
		}
		return cty.ListVal(elems), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported Go type for conversion: %T", v)
	}
}

// ObjectFromGoMap converts a map of plain Go values into a cty object,
// in deterministic key order for stable error messages.
func ObjectFromGoMap(m map[string]any) (cty.Value, error) {
	if len(m) == 0 {
		return cty.EmptyObjectVal, nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make(map[string]cty.Value, len(m))
	for _, k := range keys {
		converted, err := ToCty(m[k])
		if err != nil {
			return cty.NilVal, fmt.Errorf("attribute %q: %w", k, err)
		}
		attrs[k] = converted
	}
	return cty.ObjectVal(attrs), nil
}
