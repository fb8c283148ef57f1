package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// FolderRecordings is the S3 prefix for recording objects.
const FolderRecordings = "recordings"

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	RecordingsBucket     string
	PresignExpireMinutes int
}

// S3 issues pre-signed URLs for recording playback. The platform never moves
// media bytes itself; the delivery service (S3/CDN) does.
type S3 struct {
	client *s3.Client
	cfg    S3Config
	logger *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or the environment
// (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY).
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
	} else if logger != nil {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("S3 client ready", zap.String("region", cfg.Region), zap.String("recordings_bucket", cfg.RecordingsBucket))
	return &S3{
		client: s3.NewFromConfig(awsCfg),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// RecordingsBucket returns the configured recordings bucket name.
func (s *S3) RecordingsBucket() string {
	return s.cfg.RecordingsBucket
}

// PresignExpiry returns the configured presigned URL lifetime.
func (s *S3) PresignExpiry() time.Duration {
	minutes := s.cfg.PresignExpireMinutes
	if minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

// GeneratePresignedDownloadURL returns a pre-signed GET URL for playback.
func (s *S3) GeneratePresignedDownloadURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// RecordingKey builds the S3 object key for an event recording.
func RecordingKey(eventID, recordingID string) string {
	return path.Join(FolderRecordings, eventID, recordingID+".mp4")
}
