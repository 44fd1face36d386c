package awsec2

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

func toEC2Tags(tags map[string]string) []types.Tag {
	out := make([]types.Tag, 0, len(tags))
	for k, v := range tags {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	return out
}

func fromEC2Tags(tags []types.Tag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		out[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return out
}

func tagSpec(resourceType types.ResourceType, tags map[string]string) []types.TagSpecification {
	if len(tags) == 0 {
		return nil
	}
	return []types.TagSpecification{{
		ResourceType: resourceType,
		Tags:         toEC2Tags(tags),
	}}
}

// reconcileTags brings the tag set of an existing resource in line with the
// declared one. With purge, tags present on the resource but not declared
// are removed; otherwise they are left alone.
func (c *Client) reconcileTags(ctx context.Context, api *ec2.Client, resourceID string, current, desired map[string]string, purge bool) error {
	var toSet []types.Tag
	for k, v := range desired {
		if cur, ok := current[k]; !ok || cur != v {
			toSet = append(toSet, types.Tag{Key: aws.String(k), Value: aws.String(v)})
		}
	}

	var toUnset []types.Tag
	if purge {
		for k := range current {
			if _, ok := desired[k]; !ok {
				toUnset = append(toUnset, types.Tag{Key: aws.String(k)})
			}
		}
	}

	if len(toSet) > 0 {
		err := withRetry(ctx, func() error {
			_, err := api.CreateTags(ctx, &ec2.CreateTagsInput{
				Resources: []string{resourceID},
				Tags:      toSet,
			})
			return err
		})
		if err != nil {
			return err
		}
	}
	if len(toUnset) > 0 {
		err := withRetry(ctx, func() error {
			_, err := api.DeleteTags(ctx, &ec2.DeleteTagsInput{
				Resources: []string{resourceID},
				Tags:      toUnset,
			})
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}
