// Package storage uploads streams into an S3-compatible bucket. Folders are
// key prefixes marked by a zero-byte "<name>/" object, so a folder id and a
// file id are both plain object keys.
package storage

import (
	"context"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/seedpipe/internal/logging"
)

// Environment variables consulted when no static keys are configured.
const (
	EnvAccessKeyID     = "STORAGE_ACCESS_KEY_ID"
	EnvSecretAccessKey = "STORAGE_SECRET_ACCESS_KEY"
	EnvRegion          = "STORAGE_REGION"
)

// S3API is the subset of the S3 client used here.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
	PutObjectAcl(ctx context.Context, params *s3.PutObjectAclInput, optFns ...func(*s3.Options)) (*s3.PutObjectAclOutput, error)
}

// Presigner signs GET requests. It backs share links on buckets that have
// object ACLs disabled.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// shareLinkTTL is the longest lifetime SigV4 allows for a presigned URL.
const shareLinkTTL = 7 * 24 * time.Hour

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) S3API {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newPresigner = func(api S3API) Presigner {
		switch v := api.(type) {
		case *s3.Client:
			return s3.NewPresignClient(v)
		case Presigner:
			return v
		}
		return nil
	}
)

// Config describes the bucket and how to reach it.
type Config struct {
	AccessKey     string
	SecretKey     string
	Region        string
	Bucket        string
	Endpoint      string
	PublicBaseURL string
	PartSize      int64
}

// Client is safe for concurrent use. The underlying S3 client is created on
// first use and kept for the life of the process.
type Client struct {
	cfg    Config
	logger logging.Logger

	mu  sync.Mutex
	api S3API
}

func New(cfg Config, logger logging.Logger) *Client {
	return &Client{cfg: cfg, logger: logger}
}

// NewWithAPI returns a client that uses api instead of building one.
func NewWithAPI(api S3API, cfg Config, logger logging.Logger) *Client {
	return &Client{cfg: cfg, logger: logger, api: api}
}

// Authorize builds the S3 client once. Credentials come from the configured
// key pair, then the STORAGE_* environment variables, then the AWS default
// chain (environment, shared credentials file, instance role).
func (c *Client) Authorize(ctx context.Context) (S3API, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.api != nil {
		return c.api, nil
	}

	region := c.cfg.Region
	if v := os.Getenv(EnvRegion); region == "" && v != "" {
		region = v
	}

	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	source := "default chain"
	switch {
	case c.cfg.AccessKey != "" && c.cfg.SecretKey != "":
		source = "config"
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.cfg.AccessKey, c.cfg.SecretKey, "")))
	case os.Getenv(EnvAccessKeyID) != "" && os.Getenv(EnvSecretAccessKey) != "":
		source = "environment"
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(os.Getenv(EnvAccessKeyID), os.Getenv(EnvSecretAccessKey), "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, c.wrap("authorize", "", err)
	}

	c.api = newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if c.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	c.logger.Info(ctx, "storage authorized", "bucket", c.cfg.Bucket, "credentials", source)
	return c.api, nil
}

// PublicURL returns the anonymous URL of key.
func (c *Client) PublicURL(key string) string {
	var base string
	switch {
	case c.cfg.PublicBaseURL != "":
		base = strings.TrimRight(c.cfg.PublicBaseURL, "/")
	case c.cfg.Endpoint != "":
		base = strings.TrimRight(c.cfg.Endpoint, "/") + "/" + c.cfg.Bucket
	default:
		region := c.cfg.Region
		if region == "" {
			region = "us-east-1"
		}
		base = "https://" + c.cfg.Bucket + ".s3." + region + ".amazonaws.com"
	}
	return base + "/" + escapeKey(key)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
