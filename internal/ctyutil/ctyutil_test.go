package ctyutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestToGo(t *testing.T) {
	t.Run("primitives", func(t *testing.T) {
		v, err := ToGo(cty.StringVal("vpc-123"))
		require.NoError(t, err)
		assert.Equal(t, "vpc-123", v)

		v, err = ToGo(cty.NumberIntVal(3))
		require.NoError(t, err)
		assert.Equal(t, float64(3), v)

		v, err = ToGo(cty.True)
		require.NoError(t, err)
		assert.Equal(t, true, v)
	})

	t.Run("null and unknown become nil", func(t *testing.T) {
		v, err := ToGo(cty.NullVal(cty.String))
		require.NoError(t, err)
		assert.Nil(t, v)

		v, err = ToGo(cty.UnknownVal(cty.String))
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("collections", func(t *testing.T) {
		obj := cty.ObjectVal(map[string]cty.Value{
			"cidr_block": cty.StringVal("10.0.0.0/16"),
			"tags": cty.ObjectVal(map[string]cty.Value{
				"Name": cty.StringVal("hub"),
			}),
			"subnet_ids": cty.TupleVal([]cty.Value{
				cty.StringVal("subnet-1"), cty.StringVal("subnet-2"),
			}),
		})
		v, err := ToGo(obj)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"cidr_block": "10.0.0.0/16",
			"tags":       map[string]any{"Name": "hub"},
			"subnet_ids": []any{"subnet-1", "subnet-2"},
		}, v)
	})
}

func TestToCtyRoundTrip(t *testing.T) {
	in := map[string]any{
		"id":     "tgw-abc",
		"count":  float64(2),
		"shared": false,
		"routes": []any{
			map[string]any{"dest_cidr": "10.2.0.0/16", "attachment_id": "tgw-attach-1"},
		},
	}
	val, err := ObjectFromGoMap(in)
	require.NoError(t, err)

	back, err := ToGo(val)
	require.NoError(t, err)
	assert.Equal(t, in, back)
}

func TestToCtyUnsupported(t *testing.T) {
	_, err := ToCty(struct{}{})
	assert.Error(t, err)
}
