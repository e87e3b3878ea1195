package pipeline

import (
	"context"
	"log/slog"
	"time"

	shared "github.com/mccedddy/EczApp/pkg"
	"github.com/mccedddy/EczApp/pkg/classifier"
	"github.com/mccedddy/EczApp/pkg/types"
)

type Recorder struct {
	db     shared.Database
	now    func() time.Time
	logger *slog.Logger
}

func NewRecorder(db shared.Database, now func() time.Time, logger *slog.Logger) *Recorder {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{db: db, now: now, logger: logger.With("component", "persistence")}
}

// Persist writes result under users/{principal}/skinAnalysis/{isoTimestamp}.
func (r *Recorder) Persist(ctx context.Context, principalID string, result classifier.Result) (*types.AnalysisRecord, error) {
	at := r.now()
	record := &types.AnalysisRecord{
		ID:         ISOTimestamp(at),
		OwnerID:    principalID,
		Result:     map[string]interface{}(result),
		RecordedAt: at,
	}

	if err := r.db.SetAnalysis(ctx, principalID, record); err != nil {
		r.logger.Error("Failed to save analysis", "analysis_id", record.ID, "error", err)
		return nil, &StageError{Kind: KindPersistenceFailed, Op: "write analysis", Err: err}
	}

	r.logger.Info("Analysis saved", "analysis_id", record.ID)
	return record, nil
}

// History returns the principal's most recent analyses, newest first.
func (r *Recorder) History(ctx context.Context, principalID string, limit int) ([]*types.AnalysisRecord, error) {
	return r.db.ListAnalyses(ctx, principalID, limit)
}
