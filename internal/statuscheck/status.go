package statuscheck

import (
	"context"
	"errors"
	"time"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/local/studydesk/internal/studyapi"
)

// BackendPinger models the minimal study backend capability we need.
type BackendPinger interface {
	Ping(ctx context.Context) (*studyapi.MessageResult, error)
}

// BucketHeader is satisfied by *s3.Client.
type BucketHeader interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Checker aggregates health checks for the gateway and the CLI.
type Checker struct {
	backend       BackendPinger
	uploadBackend string
	s3Bucket      string
	s3            BucketHeader
}

// Options configures the Checker.
type Options struct {
	Backend       BackendPinger
	UploadBackend string
	S3Bucket      string
	// S3 is used for the bucket probe; when nil and S3Bucket is set a client
	// is built from the default AWS config on each check.
	S3 BucketHeader
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	Backend Status `json:"backend"`
	Upload  Status `json:"upload"`
}

// OK reports whether every subsystem is ready.
func (s Summary) OK() bool { return s.Backend.OK && s.Upload.OK }

func New(opts Options) *Checker {
	return &Checker{
		backend:       opts.Backend,
		uploadBackend: opts.UploadBackend,
		s3Bucket:      opts.S3Bucket,
		s3:            opts.S3,
	}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Backend: c.checkBackend(ctx),
		Upload:  c.checkUpload(ctx),
	}
}

func (c *Checker) checkBackend(ctx context.Context) Status {
	if c.backend == nil {
		return Status{OK: false, Message: "client unavailable"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := c.backend.Ping(ctx)
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	msg := "Available"
	if res != nil && res.Message != "" {
		msg = res.Message
	}
	return Status{OK: true, Message: msg}
}

func (c *Checker) checkUpload(ctx context.Context) Status {
	switch c.uploadBackend {
	case "", "simulated":
		return Status{OK: true, Message: "Simulated"}
	case "s3":
	default:
		return Status{OK: false, Message: "Unknown upload backend " + c.uploadBackend}
	}
	if c.s3Bucket == "" {
		return Status{OK: false, Message: "Bucket not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cli := c.s3
	if cli == nil {
		cfg, err := awscfg.LoadDefaultConfig(ctx)
		if err != nil {
			return Status{OK: false, Message: trimError(err)}
		}
		cli = s3.NewFromConfig(cfg)
	}
	if _, err := cli.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &c.s3Bucket}); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
