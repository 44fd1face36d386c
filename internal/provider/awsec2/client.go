// Package awsec2 implements the built-in resource types against the AWS
// EC2 control plane: VPCs, subnets, transit gateways, VPC attachments and
// transit gateway route tables.
package awsec2

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// Config selects the AWS account and region the provider talks to. An
// empty field falls back to the ambient AWS environment (env vars, shared
// config, instance role).
type Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Client holds the base AWS configuration plus per-region EC2 clients.
// Resources may pin a region in their arguments; clients for those regions
// are created on first use.
type Client struct {
	base     aws.Config
	endpoint string
	region   string

	mu      sync.Mutex
	clients map[string]*ec2.Client
}

// NewClient loads AWS configuration and prepares the client factory.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	base, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Client{
		base:     base,
		endpoint: cfg.Endpoint,
		region:   base.Region,
		clients:  make(map[string]*ec2.Client),
	}, nil
}

// ec2For returns the EC2 client for a region, creating it on first use.
// An empty region means the configured default.
func (c *Client) ec2For(region string) *ec2.Client {
	if region == "" {
		region = c.region
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[region]; ok {
		return client
	}
	client := ec2.NewFromConfig(c.base, func(o *ec2.Options) {
		o.Region = region
		if c.endpoint != "" {
			o.BaseEndpoint = aws.String(c.endpoint)
		}
	})
	c.clients[region] = client
	return client
}
