package publisher

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/desertthunder/cancionero/internal/shared"
)

// S3 uploads to an S3 bucket or to an S3 compatible store such as MinIO.
type S3 struct {
	uploader      *manager.Uploader
	bucket        string
	region        string
	endpoint      string
	publicBaseURL string
}

// NewS3 creates an S3 backend. When an endpoint is set, requests use path-style addressing.
// Without static keys the default AWS credential chain is used.
func NewS3(ctx context.Context, cfg shared.S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 requires a bucket", shared.ErrMissingConfig)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load aws config: %v", shared.ErrInvalidConfig, err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{
		uploader:      manager.NewUploader(client),
		bucket:        cfg.Bucket,
		region:        region,
		endpoint:      endpoint,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (b *S3) Name() string { return shared.PublisherS3 }

// Upload puts obj under its key and returns the object's public URL.
func (b *S3) Upload(ctx context.Context, obj Object) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(obj.Key()),
		Body:   bytes.NewReader(obj.Data),
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}

	if _, err := b.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("%w: failed to upload to s3: %v", shared.ErrRemoteService, err)
	}

	return b.ObjectURL(obj.Key()), nil
}

// ObjectURL returns the public URL of key: under the configured public base URL, under the
// custom endpoint (path style) or on the AWS virtual-hosted domain.
func (b *S3) ObjectURL(key string) string {
	switch {
	case b.publicBaseURL != "":
		return fmt.Sprintf("%s/%s", b.publicBaseURL, key)
	case b.endpoint != "":
		return fmt.Sprintf("%s/%s/%s", b.endpoint, b.bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.bucket, b.region, key)
	}
}
