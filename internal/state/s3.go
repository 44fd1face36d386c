package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Config configures the S3-compatible state backend. Endpoint may point
// at any S3-compatible object store; when AccessKey is empty the default
// AWS credential chain is used.
type S3Config struct {
	Bucket    string
	Key       string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3Store keeps the snapshot as a single object in a bucket. The run lock
// is a companion object created only when absent; this is advisory, not a
// consistency guarantee.
type S3Store struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Store builds an S3 state store from config.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 state backend requires a bucket")
	}
	if cfg.Key == "" {
		cfg.Key = "netweave.state.json"
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket, key: cfg.Key}, nil
}

func (s *S3Store) lockKey() string {
	return s.key + ".lock"
}

// Load implements Store.
func (s *S3Store) Load(ctx context.Context) (*Snapshot, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return NewSnapshot(), nil
		}
		return nil, fmt.Errorf("fetching state object s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading state object: %w", err)
	}

	snap := NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("decoding state object: %w", err)
	}
	if snap.Resources == nil {
		snap.Resources = make(map[string]*Record)
	}
	return snap, nil
}

// Save implements Store.
func (s *S3Store) Save(ctx context.Context, snap *Snapshot) error {
	snap.Serial++

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("writing state object s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return nil
}

// lockInfo is the content of the lock object, for operators inspecting a
// stuck lock.
type lockInfo struct {
	PID     int       `json:"pid"`
	Host    string    `json:"host"`
	Created time.Time `json:"created"`
}

// Lock implements Store. The existence check then put is not atomic on all
// S3-compatible stores; treat this as advisory protection against the
// common case of two operators applying at once.
func (s *S3Store) Lock(ctx context.Context) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.lockKey()),
	})
	if err == nil {
		return fmt.Errorf("%w (lock object s3://%s/%s exists)", ErrLocked, s.bucket, s.lockKey())
	}
	if !isNotFound(err) {
		return fmt.Errorf("checking lock object: %w", err)
	}

	host, _ := os.Hostname()
	info, err := json.Marshal(lockInfo{PID: os.Getpid(), Host: host, Created: time.Now().UTC()})
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.lockKey()),
		Body:        bytes.NewReader(info),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		if isPreconditionFailed(err) {
			return ErrLocked
		}
		return fmt.Errorf("creating lock object: %w", err)
	}
	return nil
}

// Unlock implements Store.
func (s *S3Store) Unlock(ctx context.Context) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.lockKey()),
	})
	if err != nil {
		return fmt.Errorf("removing lock object: %w", err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey" || code == "404"
	}
	return false
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "PreconditionFailed"
	}
	return false
}
