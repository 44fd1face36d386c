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

// Transit gateways take minutes to come up; no SDK waiter exists for them,
// so availability is polled.
const tgwWaitTimeout = 10 * time.Minute

func (p *Provider) transitGatewayHandler() *provider.Handler {
	return &provider.Handler{
		NewArgs: func() any { return &provider.TransitGatewayArgs{} },
		Create: func(ctx context.Context, args any) (*provider.Result, error) {
			return p.createTransitGateway(ctx, args.(*provider.TransitGatewayArgs))
		},
		Read: func(ctx context.Context, id string, args any) (*provider.Result, error) {
			return p.readTransitGateway(ctx, id, args.(*provider.TransitGatewayArgs))
		},
		Update: func(ctx context.Context, id string, args any) (*provider.Result, error) {
			return p.updateTransitGateway(ctx, id, args.(*provider.TransitGatewayArgs))
		},
		Delete: func(ctx context.Context, id string, args any) error {
			return p.deleteTransitGateway(ctx, id, args.(*provider.TransitGatewayArgs))
		},
	}
}

func boolToggle[T ~string](v bool, enable, disable T) T {
	if v {
		return enable
	}
	return disable
}

func tgwOptions(args *provider.TransitGatewayArgs) *types.TransitGatewayRequestOptions {
	opts := &types.TransitGatewayRequestOptions{
		AutoAcceptSharedAttachments: boolToggle(args.AutoAcceptSharedAttachments,
			types.AutoAcceptSharedAttachmentsValueEnable, types.AutoAcceptSharedAttachmentsValueDisable),
		DefaultRouteTableAssociation: boolToggle(args.DefaultRouteTableAssociation,
			types.DefaultRouteTableAssociationValueEnable, types.DefaultRouteTableAssociationValueDisable),
		DefaultRouteTablePropagation: boolToggle(args.DefaultRouteTablePropagation,
			types.DefaultRouteTablePropagationValueEnable, types.DefaultRouteTablePropagationValueDisable),
	}
	if args.DNSSupport != nil {
		opts.DnsSupport = boolToggle(*args.DNSSupport,
			types.DnsSupportValueEnable, types.DnsSupportValueDisable)
	}
	return opts
}

func (p *Provider) createTransitGateway(ctx context.Context, args *provider.TransitGatewayArgs) (*provider.Result, error) {
	logger := ctxlog.FromContext(ctx)
	api := p.client.ec2For(args.Region)

	input := &ec2.CreateTransitGatewayInput{
		Options:           tgwOptions(args),
		TagSpecifications: tagSpec(types.ResourceTypeTransitGateway, args.Tags),
	}
	if args.Description != "" {
		input.Description = aws.String(args.Description)
	}

	var out *ec2.CreateTransitGatewayOutput
	err := withRetry(ctx, func() error {
		var err error
		out, err = api.CreateTransitGateway(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	id := aws.ToString(out.TransitGateway.TransitGatewayId)
	logger.Debug("Transit gateway created, waiting for availability.", "id", id)

	err = waitFor(ctx, tgwWaitTimeout, func() (bool, error) {
		tgw, err := p.describeTransitGateway(ctx, api, id)
		if err != nil {
			return false, err
		}
		return tgw.State == types.TransitGatewayStateAvailable, nil
	})
	if err != nil {
		return nil, fmt.Errorf("waiting for transit gateway %s: %w", id, err)
	}

	return p.readTransitGateway(ctx, id, args)
}

func (p *Provider) describeTransitGateway(ctx context.Context, api *ec2.Client, id string) (*types.TransitGateway, error) {
	out, err := api.DescribeTransitGateways(ctx, &ec2.DescribeTransitGatewaysInput{
		TransitGatewayIds: []string{id},
	})
	if err != nil {
		return nil, err
	}
	if len(out.TransitGateways) == 0 {
		return nil, fmt.Errorf("transit gateway %s not found", id)
	}
	return &out.TransitGateways[0], nil
}

func (p *Provider) readTransitGateway(ctx context.Context, id string, args *provider.TransitGatewayArgs) (*provider.Result, error) {
	api := p.client.ec2For(args.Region)

	tgw, err := p.describeTransitGateway(ctx, api, id)
	if err != nil {
		return nil, err
	}
	return &provider.Result{
		ID: id,
		Outputs: strOutput(map[string]string{
			"id":    id,
			"arn":   aws.ToString(tgw.TransitGatewayArn),
			"state": string(tgw.State),
		}),
	}, nil
}

func (p *Provider) updateTransitGateway(ctx context.Context, id string, args *provider.TransitGatewayArgs) (*provider.Result, error) {
	api := p.client.ec2For(args.Region)

	tgw, err := p.describeTransitGateway(ctx, api, id)
	if err != nil {
		return nil, err
	}

	if args.Description != "" && aws.ToString(tgw.Description) != args.Description {
		err := withRetry(ctx, func() error {
			_, err := api.ModifyTransitGateway(ctx, &ec2.ModifyTransitGatewayInput{
				TransitGatewayId: aws.String(id),
				Description:      aws.String(args.Description),
			})
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	if err := p.client.reconcileTags(ctx, api, id, fromEC2Tags(tgw.Tags), args.Tags, args.PurgeTags); err != nil {
		return nil, err
	}
	return p.readTransitGateway(ctx, id, args)
}

func (p *Provider) deleteTransitGateway(ctx context.Context, id string, args *provider.TransitGatewayArgs) error {
	api := p.client.ec2For(args.Region)
	err := withRetry(ctx, func() error {
		_, err := api.DeleteTransitGateway(ctx, &ec2.DeleteTransitGatewayInput{
			TransitGatewayId: aws.String(id),
		})
		return err
	})
	if err != nil {
		return err
	}

	// Deletion is asynchronous; wait until the gateway is gone so a
	// subsequent create of the same declaration does not race it.
	return waitFor(ctx, tgwWaitTimeout, func() (bool, error) {
		out, err := api.DescribeTransitGateways(ctx, &ec2.DescribeTransitGatewaysInput{
			TransitGatewayIds: []string{id},
		})
		if err != nil {
			// A vanished gateway is the success condition.
			return true, nil
		}
		return len(out.TransitGateways) == 0 || out.TransitGateways[0].State == types.TransitGatewayStateDeleted, nil
	})
}
