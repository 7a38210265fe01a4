package s3

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/secondhandhub/marketplace-backend/pkg/config"
)

// Uploader stores media blobs and hands back a public URL.
type Uploader interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error)
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

// Client is a thin wrapper over the aws-sdk-go-v2 S3 client.
type Client struct {
	api      putObjectAPI
	region   string
	endpoint string
}

// New builds the S3 client from static credentials. A custom endpoint
// (minio, localstack) takes precedence over the AWS regional host.
func New(ctx context.Context, cfg config.S3Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	api := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{api: api, region: cfg.Region, endpoint: cfg.Endpoint}, nil
}

// Upload writes the object and returns its public URL.
func (c *Client) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error) {
	if bucket == "" {
		return "", fmt.Errorf("s3 bucket is required")
	}
	if key == "" {
		return "", fmt.Errorf("s3 object key is required")
	}

	input := &awss3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := c.api.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("uploading %s/%s: %w", bucket, key, err)
	}

	return c.PublicURL(bucket, key), nil
}

// PublicURL renders the browser-reachable URL for an object.
func (c *Client) PublicURL(bucket, key string) string {
	if c.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(c.endpoint, "/"), bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, c.region, key)
}

// ObjectKey builds a collision-free key preserving the original extension.
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	now := time.Now().UTC()
	return fmt.Sprintf("%s/%d/%02d/%s%s", prefix, now.Year(), now.Month(), uuid.New(), ext)
}
