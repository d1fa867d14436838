// Package audit implements the session/task audit recorder on the
// structured logger. The relational audit store lives in another service;
// this recorder feeds the same entries into the log stream.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/prompt2insight/backend/internal/domain"
)

// Recorder writes resolution audit entries to the structured log.
type Recorder struct {
	logger *zap.Logger
}

// NewRecorder creates a log-backed audit recorder.
func NewRecorder(logger *zap.Logger) *Recorder {
	return &Recorder{logger: logger}
}

// RecordResolution logs one completed resolution. Best effort only: the
// pipeline does not wait on or react to audit outcomes.
func (r *Recorder) RecordResolution(ctx context.Context, entry domain.ResolutionAudit) {
	attempts := make([]string, 0, len(entry.Attempts))
	for _, attempt := range entry.Attempts {
		status := string(attempt.ErrorKind)
		if attempt.Succeeded {
			status = "ok"
		}
		attempts = append(attempts, string(attempt.SourceID)+":"+status)
	}

	r.logger.Info("resolution completed",
		zap.String("query", entry.Query),
		zap.String("intent", string(entry.Intent)),
		zap.String("source_used", string(entry.SourceUsed)),
		zap.Bool("is_fallback", entry.IsFallback),
		zap.Strings("attempts", attempts),
		zap.Int("products", entry.Products),
		zap.Duration("duration", entry.Duration))
}
