package awsec2

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"

	"github.com/netweave/netweave/internal/provider"
)

func TestDiffStrings(t *testing.T) {
	add, remove := diffStrings(
		[]string{"subnet-a", "subnet-b"},
		[]string{"subnet-b", "subnet-c", "subnet-d"},
	)
	assert.Equal(t, []string{"subnet-c", "subnet-d"}, add)
	assert.Equal(t, []string{"subnet-a"}, remove)

	add, remove = diffStrings([]string{"x"}, []string{"x"})
	assert.Empty(t, add)
	assert.Empty(t, remove)
}

func TestVPCTagsIncludeName(t *testing.T) {
	tags := vpcTags(&provider.VPCArgs{
		Name: "hub-vpc",
		Tags: map[string]string{"Env": "prod"},
	})
	assert.Equal(t, map[string]string{"Name": "hub-vpc", "Env": "prod"}, tags)
}

func TestTransitGatewayOptions(t *testing.T) {
	dns := true
	opts := tgwOptions(&provider.TransitGatewayArgs{
		AutoAcceptSharedAttachments:  true,
		DefaultRouteTableAssociation: false,
		DNSSupport:                   &dns,
	})
	assert.Equal(t, types.AutoAcceptSharedAttachmentsValueEnable, opts.AutoAcceptSharedAttachments)
	assert.Equal(t, types.DefaultRouteTableAssociationValueDisable, opts.DefaultRouteTableAssociation)
	assert.Equal(t, types.DnsSupportValueEnable, opts.DnsSupport)

	// Unset dns_support is left to the API default.
	opts = tgwOptions(&provider.TransitGatewayArgs{})
	assert.Empty(t, opts.DnsSupport)
}

func TestTagSpecOmittedWhenEmpty(t *testing.T) {
	assert.Nil(t, tagSpec(types.ResourceTypeVpc, nil))

	spec := tagSpec(types.ResourceTypeSubnet, map[string]string{"Name": "a"})
	assert.Len(t, spec, 1)
	assert.Equal(t, types.ResourceTypeSubnet, spec[0].ResourceType)
	assert.Equal(t, "Name", aws.ToString(spec[0].Tags[0].Key))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&smithy.GenericAPIError{Code: "RequestLimitExceeded"}))
	assert.True(t, isRetryable(&smithy.GenericAPIError{Code: "Throttling"}))
	assert.False(t, isRetryable(&smithy.GenericAPIError{Code: "InvalidVpcID.NotFound"}))
	assert.False(t, isRetryable(errors.New("not an api error")))
}
