package artifact

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/specialistvlad/shipgrid/internal/ctxlog"
)

// S3Store publishes bundles to an S3 bucket under
// <prefix>/<run-id>/<platform>-<arch>/<name>. Region and credentials come
// from the standard SDK chain (environment, profile, instance role).
type S3Store struct {
	bucket   string
	prefix   string
	uploader *manager.Uploader
}

// NewS3Store creates an S3Store for the given bucket and key prefix.
func NewS3Store(ctx context.Context, bucket, prefix string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 store requires a bucket")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)

	return &S3Store{
		bucket:   bucket,
		prefix:   prefix,
		uploader: manager.NewUploader(client),
	}, nil
}

// Publish implements the Store interface by uploading the file and
// returning its s3:// URL as the content reference.
func (s *S3Store) Publish(ctx context.Context, key string, srcPath string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	file, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open bundle %q: %w", srcPath, err)
	}
	defer file.Close()

	contentType := mime.TypeByExtension(filepath.Ext(srcPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectKey := path.Join(s.prefix, key)
	logger.Debug("Uploading bundle to S3.", "bucket", s.bucket, "key", objectKey, "contentType", contentType)

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload of %q failed: %w", objectKey, err)
	}

	return fmt.Sprintf("s3://%s/%s", s.bucket, objectKey), nil
}
