package upload

import (
	"context"
	"time"

	"github.com/local/studydesk/internal/studyapi"
)

// DefaultSimulatedDelay mimics the latency of a real upload.
const DefaultSimulatedDelay = 800 * time.Millisecond

// SimulatedBackend performs no I/O. It waits, validates, and invents a job id.
type SimulatedBackend struct {
	Delay time.Duration
}

func NewSimulatedBackend(delay time.Duration) *SimulatedBackend {
	if delay < 0 {
		delay = 0
	}
	return &SimulatedBackend{Delay: delay}
}

func (s *SimulatedBackend) Name() string { return "simulated" }

func (s *SimulatedBackend) Upload(ctx context.Context, f File) (*studyapi.UploadResult, error) {
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if err := Validate(f); err != nil {
		return nil, err
	}
	return &studyapi.UploadResult{
		Message: studyapi.UploadMessage,
		JobID:   NewJobID(),
	}, nil
}
