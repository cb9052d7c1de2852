// Package upload accepts study documents and hands back a job identifier.
//
// The Backend interface hides where the bytes go: SimulatedBackend stands in
// for a real upload path, S3Backend stores the file in a bucket. Callers only
// ever see an *Uploader.
package upload

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/studydesk/internal/metrics"
	"github.com/local/studydesk/internal/studyapi"
)

// Backend stores or simulates storing an uploaded file.
type Backend interface {
	Name() string
	Upload(ctx context.Context, f File) (*studyapi.UploadResult, error)
}

// Validate reports studyapi.ErrInvalidInput for a missing or empty file.
func Validate(f File) error {
	if f == nil {
		return fmt.Errorf("%w: no file given", studyapi.ErrInvalidInput)
	}
	if v := reflect.ValueOf(f); v.Kind() == reflect.Pointer && v.IsNil() {
		return fmt.Errorf("%w: no file given", studyapi.ErrInvalidInput)
	}
	if f.Size() <= 0 {
		return fmt.Errorf("%w: %q is empty", studyapi.ErrInvalidInput, f.Name())
	}
	return nil
}

type Uploader struct {
	backend Backend
}

func NewUploader(b Backend) *Uploader {
	return &Uploader{backend: b}
}

// Backend returns the name of the configured backend.
func (u *Uploader) Backend() string { return u.backend.Name() }

func (u *Uploader) Upload(ctx context.Context, f File) (*studyapi.UploadResult, error) {
	start := time.Now()
	res, err := u.backend.Upload(ctx, f)
	if err != nil {
		result := "error"
		if studyapi.IsInvalidInput(err) {
			result = "invalid"
		}
		metrics.IncUpload(u.backend.Name(), result)
		log.Warn().Err(err).Str("backend", u.backend.Name()).Msg("upload rejected")
		return nil, err
	}
	metrics.IncUpload(u.backend.Name(), "accepted")
	metrics.AddUploadBytes(u.backend.Name(), f.Size())
	log.Info().
		Str("job_id", res.JobID).
		Str("file", f.Name()).
		Int64("size", f.Size()).
		Str("backend", u.backend.Name()).
		Dur("took", time.Since(start)).
		Msg("upload accepted")
	return res, nil
}
