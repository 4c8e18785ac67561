package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sarth-shah20/berth/internal/config"
)

// Push bundles the project and uploads it to s3://bucket/key using the
// ambient AWS credentials (env vars, shared config, instance role).
func Push(ctx context.Context, cfg *config.Config, descriptor, bucket, key string) error {
	var buf bytes.Buffer
	if err := Bundle(&buf, cfg, descriptor); err != nil {
		return err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	uploader := manager.NewUploader(s3.NewFromConfig(awsCfg))
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        &buf,
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		return fmt.Errorf("upload to s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// DefaultKey returns the object key used when none is given:
// <project>/bundle.tar.gz.
func DefaultKey(cfg *config.Config) string {
	return cfg.Name + "/bundle.tar.gz"
}
