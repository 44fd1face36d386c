package awsec2

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/netweave/netweave/internal/provider"
)

const attachmentWaitTimeout = 10 * time.Minute

func (p *Provider) attachmentHandler() *provider.Handler {
	return &provider.Handler{
		NewArgs: func() any { return &provider.TGWAttachmentArgs{} },
		Create: func(ctx context.Context, args any) (*provider.Result, error) {
			return p.createAttachment(ctx, args.(*provider.TGWAttachmentArgs))
		},
		Read: func(ctx context.Context, id string, args any) (*provider.Result, error) {
			return p.readAttachment(ctx, id, args.(*provider.TGWAttachmentArgs))
		},
		Update: func(ctx context.Context, id string, args any) (*provider.Result, error) {
			return p.updateAttachment(ctx, id, args.(*provider.TGWAttachmentArgs))
		},
		Delete: func(ctx context.Context, id string, args any) error {
			return p.deleteAttachment(ctx, id, args.(*provider.TGWAttachmentArgs))
		},
	}
}

func (p *Provider) createAttachment(ctx context.Context, args *provider.TGWAttachmentArgs) (*provider.Result, error) {
	api := p.client.ec2For(args.Region)

	var out *ec2.CreateTransitGatewayVpcAttachmentOutput
	err := withRetry(ctx, func() error {
		var err error
		out, err = api.CreateTransitGatewayVpcAttachment(ctx, &ec2.CreateTransitGatewayVpcAttachmentInput{
			TransitGatewayId:  aws.String(args.TransitGatewayID),
			VpcId:             aws.String(args.VPCID),
			SubnetIds:         args.SubnetIDs,
			TagSpecifications: tagSpec(types.ResourceTypeTransitGatewayAttachment, args.Tags),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	id := aws.ToString(out.TransitGatewayVpcAttachment.TransitGatewayAttachmentId)

	err = waitFor(ctx, attachmentWaitTimeout, func() (bool, error) {
		att, err := p.describeAttachment(ctx, api, id)
		if err != nil {
			return false, err
		}
		return att.State == types.TransitGatewayAttachmentStateAvailable, nil
	})
	if err != nil {
		return nil, fmt.Errorf("waiting for attachment %s: %w", id, err)
	}

	return p.readAttachment(ctx, id, args)
}

func (p *Provider) describeAttachment(ctx context.Context, api *ec2.Client, id string) (*types.TransitGatewayVpcAttachment, error) {
	out, err := api.DescribeTransitGatewayVpcAttachments(ctx, &ec2.DescribeTransitGatewayVpcAttachmentsInput{
		TransitGatewayAttachmentIds: []string{id},
	})
	if err != nil {
		return nil, err
	}
	if len(out.TransitGatewayVpcAttachments) == 0 {
		return nil, fmt.Errorf("transit gateway attachment %s not found", id)
	}
	return &out.TransitGatewayVpcAttachments[0], nil
}

func (p *Provider) readAttachment(ctx context.Context, id string, args *provider.TGWAttachmentArgs) (*provider.Result, error) {
	api := p.client.ec2For(args.Region)

	att, err := p.describeAttachment(ctx, api, id)
	if err != nil {
		return nil, err
	}
	return &provider.Result{
		ID: id,
		Outputs: strOutput(map[string]string{
			"id":    id,
			"state": string(att.State),
		}),
	}, nil
}

func (p *Provider) updateAttachment(ctx context.Context, id string, args *provider.TGWAttachmentArgs) (*provider.Result, error) {
	api := p.client.ec2For(args.Region)

	att, err := p.describeAttachment(ctx, api, id)
	if err != nil {
		return nil, err
	}

	add, remove := diffStrings(att.SubnetIds, args.SubnetIDs)
	if len(add) > 0 || len(remove) > 0 {
		err := withRetry(ctx, func() error {
			_, err := api.ModifyTransitGatewayVpcAttachment(ctx, &ec2.ModifyTransitGatewayVpcAttachmentInput{
				TransitGatewayAttachmentId: aws.String(id),
				AddSubnetIds:               add,
				RemoveSubnetIds:            remove,
			})
			return err
		})
		if err != nil {
			return nil, err
		}
		err = waitFor(ctx, attachmentWaitTimeout, func() (bool, error) {
			att, err := p.describeAttachment(ctx, api, id)
			if err != nil {
				return false, err
			}
			return att.State == types.TransitGatewayAttachmentStateAvailable, nil
		})
		if err != nil {
			return nil, fmt.Errorf("waiting for attachment %s after modify: %w", id, err)
		}
	}

	if err := p.client.reconcileTags(ctx, api, id, fromEC2Tags(att.Tags), args.Tags, true); err != nil {
		return nil, err
	}
	return p.readAttachment(ctx, id, args)
}

func (p *Provider) deleteAttachment(ctx context.Context, id string, args *provider.TGWAttachmentArgs) error {
	api := p.client.ec2For(args.Region)
	err := withRetry(ctx, func() error {
		_, err := api.DeleteTransitGatewayVpcAttachment(ctx, &ec2.DeleteTransitGatewayVpcAttachmentInput{
			TransitGatewayAttachmentId: aws.String(id),
		})
		return err
	})
	if err != nil {
		return err
	}

	return waitFor(ctx, attachmentWaitTimeout, func() (bool, error) {
		out, err := api.DescribeTransitGatewayVpcAttachments(ctx, &ec2.DescribeTransitGatewayVpcAttachmentsInput{
			TransitGatewayAttachmentIds: []string{id},
		})
		if err != nil {
			return true, nil
		}
		return len(out.TransitGatewayVpcAttachments) == 0 ||
			out.TransitGatewayVpcAttachments[0].State == types.TransitGatewayAttachmentStateDeleted, nil
	})
}

// diffStrings returns the elements to add to and remove from current so it
// matches desired. Both outputs come back sorted.
func diffStrings(current, desired []string) (add, remove []string) {
	have := make(map[string]struct{}, len(current))
	for _, s := range current {
		have[s] = struct{}{}
	}
	want := make(map[string]struct{}, len(desired))
	for _, s := range desired {
		want[s] = struct{}{}
	}

	for s := range want {
		if _, ok := have[s]; !ok {
			add = append(add, s)
		}
	}
	for s := range have {
		if _, ok := want[s]; !ok {
			remove = append(remove, s)
		}
	}
	sort.Strings(add)
	sort.Strings(remove)
	return add, remove
}
