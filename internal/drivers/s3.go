package drivers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3Options configures an S3Driver. Empty credentials fall back to the
// default AWS chain (environment, shared config, instance role).
type S3Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// S3Driver reads artifacts from S3 or an S3-compatible endpoint
type S3Driver struct {
	endpoint string
	region   string
	logger   *zap.Logger
	client   *s3.Client
}

// NewS3Driver creates a new S3 artifact driver
func NewS3Driver(ctx context.Context, opts S3Options, logger *zap.Logger) (*S3Driver, error) {
	loadOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")
		loadOpts = append(loadOpts, config.WithCredentialsProvider(creds))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			// MinIO and most self-hosted endpoints need path-style addressing
			o.UsePathStyle = true
		}
	})

	logger.Info("s3 driver initialized",
		zap.String("endpoint", opts.Endpoint),
		zap.String("region", opts.Region))

	return &S3Driver{
		endpoint: opts.Endpoint,
		region:   opts.Region,
		logger:   logger,
		client:   client,
	}, nil
}

// Get retrieves data from S3
func (d *S3Driver) Get(ctx context.Context, container, artifact string) (io.ReadCloser, error) {
	result, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(artifact),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound(container, artifact)
		}
		return nil, fmt.Errorf("get object %s/%s: %w", container, artifact, err)
	}

	d.logger.Debug("s3 object opened",
		zap.String("bucket", container),
		zap.String("key", artifact),
		zap.Int64("size", aws.ToInt64(result.ContentLength)))
	return result.Body, nil
}

// Exists checks if an artifact exists
func (d *S3Driver) Exists(ctx context.Context, container, artifact string) (bool, error) {
	_, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(artifact),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head object %s/%s: %w", container, artifact, err)
	}
	return true, nil
}

func isS3NotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
