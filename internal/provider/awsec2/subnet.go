package awsec2

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/netweave/netweave/internal/provider"
)

const subnetWaitTimeout = 5 * time.Minute

func (p *Provider) subnetHandler() *provider.Handler {
	return &provider.Handler{
		NewArgs: func() any { return &provider.SubnetArgs{} },
		Create: func(ctx context.Context, args any) (*provider.Result, error) {
			return p.createSubnet(ctx, args.(*provider.SubnetArgs))
		},
		Read: func(ctx context.Context, id string, args any) (*provider.Result, error) {
			return p.readSubnet(ctx, id)
		},
		Update: func(ctx context.Context, id string, args any) (*provider.Result, error) {
			return p.updateSubnet(ctx, id, args.(*provider.SubnetArgs))
		},
		Delete: func(ctx context.Context, id string, args any) error {
			return p.deleteSubnet(ctx, id)
		},
	}
}

func (p *Provider) createSubnet(ctx context.Context, args *provider.SubnetArgs) (*provider.Result, error) {
	api := p.client.ec2For("")

	var out *ec2.CreateSubnetOutput
	err := withRetry(ctx, func() error {
		var err error
		out, err = api.CreateSubnet(ctx, &ec2.CreateSubnetInput{
			VpcId:             aws.String(args.VPCID),
			CidrBlock:         aws.String(args.CIDRBlock),
			AvailabilityZone:  aws.String(args.AvailabilityZone),
			TagSpecifications: tagSpec(types.ResourceTypeSubnet, args.Tags),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	id := aws.ToString(out.Subnet.SubnetId)

	waiter := ec2.NewSubnetAvailableWaiter(api)
	if err := waiter.Wait(ctx, &ec2.DescribeSubnetsInput{SubnetIds: []string{id}}, subnetWaitTimeout); err != nil {
		return nil, fmt.Errorf("waiting for subnet %s: %w", id, err)
	}

	return p.readSubnet(ctx, id)
}

func (p *Provider) readSubnet(ctx context.Context, id string) (*provider.Result, error) {
	api := p.client.ec2For("")

	out, err := api.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{SubnetIds: []string{id}})
	if err != nil {
		return nil, err
	}
	if len(out.Subnets) == 0 {
		return nil, fmt.Errorf("subnet %s not found", id)
	}

	return &provider.Result{
		ID: id,
		Outputs: strOutput(map[string]string{
			"id":    id,
			"state": string(out.Subnets[0].State),
		}),
	}, nil
}

func (p *Provider) updateSubnet(ctx context.Context, id string, args *provider.SubnetArgs) (*provider.Result, error) {
	api := p.client.ec2For("")

	out, err := api.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{SubnetIds: []string{id}})
	if err != nil {
		return nil, err
	}
	if len(out.Subnets) == 0 {
		return nil, fmt.Errorf("subnet %s not found", id)
	}
	subnet := out.Subnets[0]

	// Only tags are mutable; a cidr or zone change means the declaration
	// no longer describes this subnet.
	if aws.ToString(subnet.CidrBlock) != args.CIDRBlock {
		return nil, fmt.Errorf("subnet %s: cidr_block cannot be changed in place", id)
	}
	if aws.ToString(subnet.AvailabilityZone) != args.AvailabilityZone {
		return nil, fmt.Errorf("subnet %s: availability_zone cannot be changed in place", id)
	}

	if err := p.client.reconcileTags(ctx, api, id, fromEC2Tags(subnet.Tags), args.Tags, true); err != nil {
		return nil, err
	}
	return p.readSubnet(ctx, id)
}

func (p *Provider) deleteSubnet(ctx context.Context, id string) error {
	api := p.client.ec2For("")
	return withRetry(ctx, func() error {
		_, err := api.DeleteSubnet(ctx, &ec2.DeleteSubnetInput{SubnetId: aws.String(id)})
		return err
	})
}
