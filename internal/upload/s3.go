package upload

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/local/studydesk/internal/filetype"
	"github.com/local/studydesk/internal/studyapi"
)

// objectUploader is the part of *manager.Uploader the backend needs.
type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Backend stores uploads under <prefix>/<job id>/<file name> in a bucket.
type S3Backend struct {
	uploader objectUploader
	detector *filetype.Detector
	bucket   string
	prefix   string
}

// S3Options configures an S3Backend.
type S3Options struct {
	Bucket string
	Prefix string
	// PartSizeMB overrides the multipart part size; 0 keeps the SDK default.
	PartSizeMB int64
}

// NewS3Backend loads the default AWS config chain and builds a backend.
func NewS3Backend(ctx context.Context, opts S3Options) (*S3Backend, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 upload backend: bucket not configured")
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	cli := s3.NewFromConfig(cfg)
	up := manager.NewUploader(cli, func(u *manager.Uploader) {
		if opts.PartSizeMB > 0 {
			u.PartSize = opts.PartSizeMB * 1024 * 1024
		}
	})
	return newS3Backend(up, opts), nil
}

func newS3Backend(up objectUploader, opts S3Options) *S3Backend {
	return &S3Backend{
		uploader: up,
		detector: filetype.New(),
		bucket:   opts.Bucket,
		prefix:   strings.Trim(opts.Prefix, "/"),
	}
}

func (b *S3Backend) Name() string { return "s3" }

// Key returns the object key for a job and file name.
func (b *S3Backend) Key(jobID, name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	if b.prefix == "" {
		return path.Join(jobID, base)
	}
	return path.Join(b.prefix, jobID, base)
}

func (b *S3Backend) Upload(ctx context.Context, f File) (*studyapi.UploadResult, error) {
	if err := Validate(f); err != nil {
		return nil, err
	}

	info, body, err := b.detector.DetectReader(f, f.Name())
	if err != nil {
		return nil, err
	}

	jobID := NewJobID()
	key := b.Key(jobID, f.Name())

	out, err := b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(info.MIMEType),
		ContentLength: aws.Int64(f.Size()),
		Metadata: map[string]string{
			"name":   f.Name(),
			"job-id": jobID,
		},
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("upload to S3 failed")
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Info().
		Str("key", key).
		Str("location", out.Location).
		Str("content_type", info.MIMEType).
		Msg("uploaded file to S3")

	return &studyapi.UploadResult{
		Message: studyapi.UploadMessage,
		JobID:   jobID,
	}, nil
}
