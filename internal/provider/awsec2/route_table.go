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

const routeTableWaitTimeout = 5 * time.Minute

func (p *Provider) routeTableHandler() *provider.Handler {
	return &provider.Handler{
		NewArgs: func() any { return &provider.TGWRouteTableArgs{} },
		Create: func(ctx context.Context, args any) (*provider.Result, error) {
			return p.createRouteTable(ctx, args.(*provider.TGWRouteTableArgs))
		},
		Read: func(ctx context.Context, id string, args any) (*provider.Result, error) {
			return p.readRouteTable(ctx, id, args.(*provider.TGWRouteTableArgs))
		},
		Update: func(ctx context.Context, id string, args any) (*provider.Result, error) {
			return p.reconcileRouteTable(ctx, id, args.(*provider.TGWRouteTableArgs))
		},
		Delete: func(ctx context.Context, id string, args any) error {
			return p.deleteRouteTable(ctx, id, args.(*provider.TGWRouteTableArgs))
		},
	}
}

// createRouteTable finds or creates the table, then reconciles tags,
// associations and routes. With lookup "tag" an existing table whose tags
// match is adopted instead of creating a duplicate; with lookup "id" the
// declared route_table_id must already exist.
func (p *Provider) createRouteTable(ctx context.Context, args *provider.TGWRouteTableArgs) (*provider.Result, error) {
	logger := ctxlog.FromContext(ctx)
	api := p.client.ec2For(args.Region)

	var existing *types.TransitGatewayRouteTable
	var err error
	switch args.Lookup {
	case "", "tag":
		if len(args.Tags) > 0 {
			existing, err = p.findRouteTableByTags(ctx, api, args.TransitGatewayID, args.Tags)
			if err != nil {
				return nil, err
			}
		}
	case "id":
		if args.RouteTableID == "" {
			return nil, fmt.Errorf("route_table_id is required with lookup \"id\"")
		}
		existing, err = p.describeRouteTable(ctx, api, args.RouteTableID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported lookup %q (want \"tag\" or \"id\")", args.Lookup)
	}

	var id string
	if existing != nil {
		id = aws.ToString(existing.TransitGatewayRouteTableId)
		logger.Debug("Adopting existing transit gateway route table.", "id", id)
	} else {
		var out *ec2.CreateTransitGatewayRouteTableOutput
		err := withRetry(ctx, func() error {
			var err error
			out, err = api.CreateTransitGatewayRouteTable(ctx, &ec2.CreateTransitGatewayRouteTableInput{
				TransitGatewayId:  aws.String(args.TransitGatewayID),
				TagSpecifications: tagSpec(types.ResourceTypeTransitGatewayRouteTable, args.Tags),
			})
			return err
		})
		if err != nil {
			return nil, err
		}
		id = aws.ToString(out.TransitGatewayRouteTable.TransitGatewayRouteTableId)
		logger.Debug("Transit gateway route table created.", "id", id)

		err = waitFor(ctx, routeTableWaitTimeout, func() (bool, error) {
			rtb, err := p.describeRouteTable(ctx, api, id)
			if err != nil {
				return false, err
			}
			return rtb.State == types.TransitGatewayRouteTableStateAvailable, nil
		})
		if err != nil {
			return nil, fmt.Errorf("waiting for route table %s: %w", id, err)
		}
	}

	return p.reconcileRouteTable(ctx, id, args)
}

// reconcileRouteTable drives the table's tags, associations and static
// routes to the declared set.
func (p *Provider) reconcileRouteTable(ctx context.Context, id string, args *provider.TGWRouteTableArgs) (*provider.Result, error) {
	api := p.client.ec2For(args.Region)

	rtb, err := p.describeRouteTable(ctx, api, id)
	if err != nil {
		return nil, err
	}
	if err := p.client.reconcileTags(ctx, api, id, fromEC2Tags(rtb.Tags), args.Tags, args.PurgeTags); err != nil {
		return nil, err
	}
	if err := p.ensureAssociations(ctx, api, id, args.Associations); err != nil {
		return nil, err
	}
	if err := p.ensureRoutes(ctx, api, id, args.Routes); err != nil {
		return nil, err
	}
	return p.readRouteTable(ctx, id, args)
}

func (p *Provider) describeRouteTable(ctx context.Context, api *ec2.Client, id string) (*types.TransitGatewayRouteTable, error) {
	out, err := api.DescribeTransitGatewayRouteTables(ctx, &ec2.DescribeTransitGatewayRouteTablesInput{
		TransitGatewayRouteTableIds: []string{id},
	})
	if err != nil {
		return nil, err
	}
	if len(out.TransitGatewayRouteTables) == 0 {
		return nil, fmt.Errorf("transit gateway route table %s not found", id)
	}
	return &out.TransitGatewayRouteTables[0], nil
}

// findRouteTableByTags looks up a route table on the gateway whose tags
// include every given tag. More than one match is an error: the lookup
// must identify a single table.
func (p *Provider) findRouteTableByTags(ctx context.Context, api *ec2.Client, tgwID string, tags map[string]string) (*types.TransitGatewayRouteTable, error) {
	filters := []types.Filter{{
		Name:   aws.String("transit-gateway-id"),
		Values: []string{tgwID},
	}}
	for k, v := range tags {
		filters = append(filters, types.Filter{
			Name:   aws.String("tag:" + k),
			Values: []string{v},
		})
	}

	out, err := api.DescribeTransitGatewayRouteTables(ctx, &ec2.DescribeTransitGatewayRouteTablesInput{
		Filters: filters,
	})
	if err != nil {
		return nil, err
	}

	var matches []types.TransitGatewayRouteTable
	for _, rtb := range out.TransitGatewayRouteTables {
		if rtb.State != types.TransitGatewayRouteTableStateDeleting && rtb.State != types.TransitGatewayRouteTableStateDeleted {
			matches = append(matches, rtb)
		}
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("tag lookup matched %d route tables on %s, need exactly one", len(matches), tgwID)
	}
}

// ensureAssociations associates the declared attachments and disassociates
// everything else.
func (p *Provider) ensureAssociations(ctx context.Context, api *ec2.Client, id string, attachmentIDs []string) error {
	logger := ctxlog.FromContext(ctx)

	out, err := api.GetTransitGatewayRouteTableAssociations(ctx, &ec2.GetTransitGatewayRouteTableAssociationsInput{
		TransitGatewayRouteTableId: aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("listing associations of %s: %w", id, err)
	}

	current := make([]string, 0, len(out.Associations))
	for _, assoc := range out.Associations {
		if assoc.State == types.TransitGatewayAssociationStateAssociated ||
			assoc.State == types.TransitGatewayAssociationStateAssociating {
			current = append(current, aws.ToString(assoc.TransitGatewayAttachmentId))
		}
	}

	add, remove := diffStrings(current, attachmentIDs)
	for _, attachmentID := range add {
		logger.Debug("Associating attachment.", "routeTable", id, "attachment", attachmentID)
		err := withRetry(ctx, func() error {
			_, err := api.AssociateTransitGatewayRouteTable(ctx, &ec2.AssociateTransitGatewayRouteTableInput{
				TransitGatewayRouteTableId: aws.String(id),
				TransitGatewayAttachmentId: aws.String(attachmentID),
			})
			return err
		})
		if err != nil {
			return fmt.Errorf("associating %s with %s: %w", attachmentID, id, err)
		}
	}
	for _, attachmentID := range remove {
		logger.Debug("Disassociating attachment.", "routeTable", id, "attachment", attachmentID)
		err := withRetry(ctx, func() error {
			_, err := api.DisassociateTransitGatewayRouteTable(ctx, &ec2.DisassociateTransitGatewayRouteTableInput{
				TransitGatewayRouteTableId: aws.String(id),
				TransitGatewayAttachmentId: aws.String(attachmentID),
			})
			return err
		})
		if err != nil {
			return fmt.Errorf("disassociating %s from %s: %w", attachmentID, id, err)
		}
	}

	if len(add) == 0 && len(remove) == 0 {
		return nil
	}
	// Associations transition through "associating"; wait for them to
	// settle before routes reference the attachments.
	return waitFor(ctx, routeTableWaitTimeout, func() (bool, error) {
		out, err := api.GetTransitGatewayRouteTableAssociations(ctx, &ec2.GetTransitGatewayRouteTableAssociationsInput{
			TransitGatewayRouteTableId: aws.String(id),
		})
		if err != nil {
			return false, err
		}
		for _, assoc := range out.Associations {
			if assoc.State == types.TransitGatewayAssociationStateAssociating ||
				assoc.State == types.TransitGatewayAssociationStateDisassociating {
				return false, nil
			}
		}
		return true, nil
	})
}

// ensureRoutes drives the table's static routes to the declared set:
// missing routes are created, routes pointing at the wrong attachment are
// replaced, and undeclared static routes are removed.
func (p *Provider) ensureRoutes(ctx context.Context, api *ec2.Client, id string, routes []provider.TGWRouteArgs) error {
	logger := ctxlog.FromContext(ctx)

	out, err := api.SearchTransitGatewayRoutes(ctx, &ec2.SearchTransitGatewayRoutesInput{
		TransitGatewayRouteTableId: aws.String(id),
		Filters: []types.Filter{{
			Name:   aws.String("type"),
			Values: []string{"static"},
		}},
	})
	if err != nil {
		return fmt.Errorf("listing routes of %s: %w", id, err)
	}

	current := make(map[string]string)
	for _, route := range out.Routes {
		if route.State == types.TransitGatewayRouteStateBlackhole {
			continue
		}
		cidr := aws.ToString(route.DestinationCidrBlock)
		if len(route.TransitGatewayAttachments) > 0 {
			current[cidr] = aws.ToString(route.TransitGatewayAttachments[0].TransitGatewayAttachmentId)
		}
	}

	desired := make(map[string]string, len(routes))
	for _, route := range routes {
		desired[route.DestCIDR] = route.AttachmentID
	}

	for cidr, attachmentID := range desired {
		cur, exists := current[cidr]
		if exists && cur == attachmentID {
			continue
		}
		if exists {
			// Same destination, different attachment: replace.
			if err := p.deleteRoute(ctx, api, id, cidr); err != nil {
				return err
			}
		}
		logger.Debug("Creating static route.", "routeTable", id, "cidr", cidr, "attachment", attachmentID)
		err := withRetry(ctx, func() error {
			_, err := api.CreateTransitGatewayRoute(ctx, &ec2.CreateTransitGatewayRouteInput{
				TransitGatewayRouteTableId: aws.String(id),
				DestinationCidrBlock:       aws.String(cidr),
				TransitGatewayAttachmentId: aws.String(attachmentID),
			})
			return err
		})
		if err != nil {
			return fmt.Errorf("creating route %s in %s: %w", cidr, id, err)
		}
	}

	for cidr := range current {
		if _, ok := desired[cidr]; ok {
			continue
		}
		logger.Debug("Removing undeclared static route.", "routeTable", id, "cidr", cidr)
		if err := p.deleteRoute(ctx, api, id, cidr); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) deleteRoute(ctx context.Context, api *ec2.Client, id, cidr string) error {
	err := withRetry(ctx, func() error {
		_, err := api.DeleteTransitGatewayRoute(ctx, &ec2.DeleteTransitGatewayRouteInput{
			TransitGatewayRouteTableId: aws.String(id),
			DestinationCidrBlock:       aws.String(cidr),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("deleting route %s from %s: %w", cidr, id, err)
	}
	return nil
}

func (p *Provider) readRouteTable(ctx context.Context, id string, args *provider.TGWRouteTableArgs) (*provider.Result, error) {
	api := p.client.ec2For(args.Region)

	rtb, err := p.describeRouteTable(ctx, api, id)
	if err != nil {
		return nil, err
	}
	return &provider.Result{
		ID: id,
		Outputs: strOutput(map[string]string{
			"id":    id,
			"state": string(rtb.State),
		}),
	}, nil
}

// deleteRouteTable disassociates every attachment and then removes the
// table itself.
func (p *Provider) deleteRouteTable(ctx context.Context, id string, args *provider.TGWRouteTableArgs) error {
	api := p.client.ec2For(args.Region)

	if err := p.ensureAssociations(ctx, api, id, nil); err != nil {
		return err
	}
	return withRetry(ctx, func() error {
		_, err := api.DeleteTransitGatewayRouteTable(ctx, &ec2.DeleteTransitGatewayRouteTableInput{
			TransitGatewayRouteTableId: aws.String(id),
		})
		return err
	})
}
