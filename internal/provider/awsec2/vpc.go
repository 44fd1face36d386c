package awsec2

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/netweave/netweave/internal/ctxlog"
	"github.com/netweave/netweave/internal/provider"
)

const vpcWaitTimeout = 5 * time.Minute

func (p *Provider) vpcHandler() *provider.Handler {
	return &provider.Handler{
		NewArgs: func() any { return &provider.VPCArgs{} },
		Create: func(ctx context.Context, args any) (*provider.Result, error) {
			return p.createVPC(ctx, args.(*provider.VPCArgs))
		},
		Read: func(ctx context.Context, id string, args any) (*provider.Result, error) {
			return p.readVPC(ctx, id, args.(*provider.VPCArgs))
		},
		Update: func(ctx context.Context, id string, args any) (*provider.Result, error) {
			return p.updateVPC(ctx, id, args.(*provider.VPCArgs))
		},
		Delete: func(ctx context.Context, id string, args any) error {
			return p.deleteVPC(ctx, id, args.(*provider.VPCArgs))
		},
	}
}

// vpcTags is the declared tag set plus the Name tag derived from the
// resource's name argument.
func vpcTags(args *provider.VPCArgs) map[string]string {
	tags := make(map[string]string, len(args.Tags)+1)
	for k, v := range args.Tags {
		tags[k] = v
	}
	tags["Name"] = args.Name
	return tags
}

func (p *Provider) createVPC(ctx context.Context, args *provider.VPCArgs) (*provider.Result, error) {
	logger := ctxlog.FromContext(ctx)
	api := p.client.ec2For(args.Region)

	input := &ec2.CreateVpcInput{
		CidrBlock:         aws.String(args.CIDRBlock),
		TagSpecifications: tagSpec(types.ResourceTypeVpc, vpcTags(args)),
	}
	if args.Tenancy != "" {
		input.InstanceTenancy = types.Tenancy(args.Tenancy)
	}

	var out *ec2.CreateVpcOutput
	err := withRetry(ctx, func() error {
		var err error
		out, err = api.CreateVpc(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	id := aws.ToString(out.Vpc.VpcId)
	logger.Debug("VPC created, waiting for it to become available.", "id", id)

	waiter := ec2.NewVpcAvailableWaiter(api)
	if err := waiter.Wait(ctx, &ec2.DescribeVpcsInput{VpcIds: []string{id}}, vpcWaitTimeout); err != nil {
		return nil, fmt.Errorf("waiting for vpc %s: %w", id, err)
	}

	return p.readVPC(ctx, id, args)
}

func (p *Provider) readVPC(ctx context.Context, id string, args *provider.VPCArgs) (*provider.Result, error) {
	api := p.client.ec2For(args.Region)

	out, err := api.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{VpcIds: []string{id}})
	if err != nil {
		return nil, err
	}
	if len(out.Vpcs) == 0 {
		return nil, fmt.Errorf("vpc %s not found", id)
	}
	vpc := out.Vpcs[0]

	return &provider.Result{
		ID: id,
		Outputs: strOutput(map[string]string{
			"id":    id,
			"state": string(vpc.State),
		}),
	}, nil
}

func (p *Provider) updateVPC(ctx context.Context, id string, args *provider.VPCArgs) (*provider.Result, error) {
	api := p.client.ec2For(args.Region)

	out, err := api.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{VpcIds: []string{id}})
	if err != nil {
		return nil, err
	}
	if len(out.Vpcs) == 0 {
		return nil, fmt.Errorf("vpc %s not found", id)
	}
	vpc := out.Vpcs[0]

	if aws.ToString(vpc.CidrBlock) != args.CIDRBlock {
		return nil, fmt.Errorf("vpc %s: cidr_block cannot be changed in place (is %s, want %s)",
			id, aws.ToString(vpc.CidrBlock), args.CIDRBlock)
	}

	if err := p.client.reconcileTags(ctx, api, id, fromEC2Tags(vpc.Tags), vpcTags(args), true); err != nil {
		return nil, err
	}
	return p.readVPC(ctx, id, args)
}

func (p *Provider) deleteVPC(ctx context.Context, id string, args *provider.VPCArgs) error {
	api := p.client.ec2For(args.Region)
	return withRetry(ctx, func() error {
		_, err := api.DeleteVpc(ctx, &ec2.DeleteVpcInput{VpcId: aws.String(id)})
		return err
	})
}
