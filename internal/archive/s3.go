package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/visadir/internal/config"
	"github.com/JonMunkholm/visadir/internal/core"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the part of the S3 client the archiver uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver uploads archived files to an S3 bucket.
type S3Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
}

var _ core.Archiver = (*S3Archiver)(nil)

// NewS3Archiver creates an archiver over an existing client.
func NewS3Archiver(client ObjectPutter, bucket, prefix string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

// NewS3Client builds an S3 client from the default AWS credential chain.
// A custom endpoint and path-style addressing support MinIO and LocalStack.
func NewS3Client(ctx context.Context, cfg config.ArchiveConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// Archive uploads data and returns an s3:// URI.
func (a *S3Archiver) Archive(ctx context.Context, batchID, fileName string, data []byte) (string, error) {
	key := Key(a.prefix, batchID, fileName, a.now())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("text/tab-separated-values"),
		Metadata: map[string]string{
			"batch-id":  batchID,
			"file-name": sanitizeName(fileName),
		},
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", a.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}
