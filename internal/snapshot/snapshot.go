package snapshot

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/vango-dev/patchwork/internal/config"
	"github.com/vango-dev/patchwork/internal/errors"
)

// PutObjectAPI is the subset of *s3.Client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient creates an S3 client from the default AWS credential chain.
// A non-empty Endpoint switches to path-style addressing, as S3
// compatible stores expect.
func NewClient(ctx context.Context, cfg config.SnapshotConfig) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.New("X001").WithDetail("loading AWS configuration").Wrap(err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Uploader writes documents to a bucket.
type Uploader struct {
	client PutObjectAPI
	bucket string
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(u *Uploader) {
		u.prefix = prefix
	}
}

// WithClock sets the time source used for keys.
func WithClock(now func() time.Time) Option {
	return func(u *Uploader) {
		u.now = now
	}
}

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) {
		u.logger = logger
	}
}

// NewUploader creates an Uploader for bucket.
func NewUploader(client PutObjectAPI, bucket string, opts ...Option) *Uploader {
	u := &Uploader{client: client, bucket: bucket, now: time.Now}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}
	return u
}

// Upload serializes src and stores it under a key derived from name.
// It returns the object key.
func (u *Uploader) Upload(ctx context.Context, name string, src io.WriterTo) (string, error) {
	var buf bytes.Buffer
	if _, err := src.WriteTo(&buf); err != nil {
		return "", errors.New("X001").WithDetailf("rendering %s", name).Wrap(err)
	}

	at := u.now().UTC()
	key := u.prefix + path.Join(name, at.Format("20060102T150405.000000000Z")+".html")
	id := uuid.NewString()

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String("text/html; charset=utf-8"),
		Metadata: map[string]string{
			"snapshot-id":   id,
			"snapshot-name": name,
			"captured-at":   at.Format(time.RFC3339Nano),
			"size":          strconv.Itoa(buf.Len()),
		},
	})
	if err != nil {
		return "", errors.New("X001").
			WithDetailf("s3://%s/%s", u.bucket, key).
			WithSuggestion("Check the bucket name, region and credentials").
			Wrap(err)
	}

	u.logger.Info("snapshot uploaded", "bucket", u.bucket, "key", key, "id", id, "bytes", buf.Len())
	return key, nil
}
