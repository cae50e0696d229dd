// Package storage archives exported files to S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	exportapp "github.com/erp/connector/internal/application/export"
	"github.com/erp/connector/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure S3Archiver implements FileArchiver
var _ exportapp.FileArchiver = (*S3Archiver)(nil)

// ObjectAPI is the subset of the S3 client used by the archiver
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3Archiver copies exported CSV files into a bucket under
// <prefix>/<yyyy>/<mm>/<dd>/<file name>.
// It is compatible with any S3-compatible storage (AWS S3, MinIO, etc.)
type S3Archiver struct {
	client ObjectAPI
	bucket string
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

// S3ArchiverOption is a functional option for configuring S3Archiver
type S3ArchiverOption func(*S3Archiver)

// WithLogger sets a custom logger for S3Archiver
func WithLogger(logger *zap.Logger) S3ArchiverOption {
	return func(a *S3Archiver) {
		a.logger = logger
	}
}

// WithClock overrides the clock used to date archive keys
func WithClock(now func() time.Time) S3ArchiverOption {
	return func(a *S3Archiver) {
		a.now = now
	}
}

// WithClient replaces the S3 client
func WithClient(client ObjectAPI) S3ArchiverOption {
	return func(a *S3Archiver) {
		a.client = client
	}
}

// NewS3Archiver creates an archiver from configuration. Without static
// credentials the default AWS credential chain is used.
func NewS3Archiver(cfg *config.StorageConfig, opts ...S3ArchiverOption) (*S3Archiver, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("storage access key id and secret access key must be set together")
	}

	a := &S3Archiver{
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.client != nil {
		return a, nil
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	a.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return a, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (a *S3Archiver) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	a.logger.Info("Creating archive bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Archive uploads the file at absPath and returns its s3:// location
func (a *S3Archiver) Archive(ctx context.Context, absPath string) (string, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to open export file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat export file: %w", err)
	}

	key := a.Key(filepath.Base(absPath))
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	location := "s3://" + a.bucket + "/" + key
	a.logger.Debug("Export file uploaded", zap.String("location", location), zap.Int64("size", info.Size()))
	return location, nil
}

// Key returns the object key a file with the given name is stored under
func (a *S3Archiver) Key(name string) string {
	day := a.now().UTC().Format("2006/01/02")
	if a.prefix == "" {
		return path.Join(day, name)
	}
	return path.Join(a.prefix, day, name)
}

// Bucket returns the bucket name
func (a *S3Archiver) Bucket() string {
	return a.bucket
}
