package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// FolderExports is the S3 prefix for CSV exports.
	FolderExports = "exports"
	// ContentTypeCSV is used for every export object.
	ContentTypeCSV = "text/csv; charset=utf-8"
)

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ExportsBucket        string
	PresignExpireMinutes int
}

// S3 uploads admin exports and hands out pre-signed download URLs.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or .env (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY).
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ExportsBucket == "" {
		return nil, fmt.Errorf("exports bucket not configured")
	}
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
		logger.Info("S3 client using credentials from .env/config", zap.String("region", cfg.Region), zap.String("exports_bucket", cfg.ExportsBucket))
	} else {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3{
		client:   client,
		uploader: manager.NewUploader(client),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ExportKey returns exports/{kind}/{YYYY-MM-DD}-{uuid}.csv.
func ExportKey(kind string, at time.Time) string {
	return path.Join(FolderExports, kind, at.Format("2006-01-02")+"-"+uuid.NewString()+".csv")
}

// PresignExpire returns the configured presign duration.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}

// UploadExport stores a CSV export and returns a pre-signed GET URL and its expiry.
func (s *S3) UploadExport(ctx context.Context, key string, body []byte) (string, time.Time, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.ExportsBucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(ContentTypeCSV),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("upload: %w", err)
	}
	expires := s.PresignExpire()
	url, err := s.GeneratePresignedDownloadURL(ctx, key, expires)
	if err != nil {
		return "", time.Time{}, err
	}
	s.logger.Info("export uploaded", zap.String("s3_key", key), zap.Int("bytes", len(body)))
	return url, time.Now().Add(expires), nil
}

// GeneratePresignedDownloadURL returns a pre-signed GET URL for an export object.
func (s *S3) GeneratePresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.ExportsBucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}
