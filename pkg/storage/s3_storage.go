package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	// PublicURL is the prefix returned to clients; defaults to the bucket URL.
	PublicURL string
}

// S3Storage stores files in an S3-compatible bucket.
type S3Storage struct {
	bucket    string
	publicURL string
	client    *s3.Client
	log       *slog.Logger
	disabled  bool
}

func NewS3Storage(ctx context.Context, cfg S3Config, log *slog.Logger) (*S3Storage, error) {
	logger := log.With("component", "s3-storage")
	st := &S3Storage{
		bucket: strings.TrimSpace(cfg.Bucket),
		log:    logger,
	}
	if st.bucket == "" {
		logger.Warn("MEDIA_S3_BUCKET is not set; uploads will fail until configured")
		st.disabled = true
		return st, nil
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSuffix(strings.TrimSpace(cfg.Endpoint), "/")
	st.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	switch {
	case cfg.PublicURL != "":
		st.publicURL = cfg.PublicURL
	case endpoint != "":
		st.publicURL = endpoint + "/" + st.bucket
	default:
		st.publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", st.bucket, region)
	}

	logger.Info("s3 storage initialized", "bucket", st.bucket, "region", region, "endpoint", endpoint)
	return st, nil
}

func (s *S3Storage) Backend() string { return BackendS3 }

func (s *S3Storage) Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if s.disabled {
		return "", ErrDisabled
	}
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	candidate := key
	for i := 0; ; i++ {
		if i == maxNameAttempts {
			return "", ErrExhausted
		}
		taken, err := s.exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			break
		}
		candidate = alternate(key)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(candidate),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3 put %s: %w", candidate, err)
	}

	s.log.Debug("file stored", "key", candidate, "bytes", size)
	return candidate, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if s.disabled {
		return ErrDisabled
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) URL(key string) string {
	return joinURL(s.publicURL, key)
}

// Health performs a HeadBucket request.
func (s *S3Storage) Health(ctx context.Context) error {
	if s.disabled {
		return ErrDisabled
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func (s *S3Storage) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	var re *awshttp.ResponseError
	if errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("s3 head %s: %w", key, err)
}
