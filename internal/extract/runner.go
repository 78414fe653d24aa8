package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kizuruki/historybowlreview/internal/config"
	"github.com/Kizuruki/historybowlreview/internal/questionbank"
)

// Runner extracts nodes from a batch of questions one request at a time.
type Runner struct {
	Generator Generator
	Taxonomy  string
	MaxTokens int
	// Delay is the pause between consecutive requests.
	Delay  time.Duration
	Logger *zap.Logger
	Now    func() time.Time
}

// Run processes questions in order. A question whose request fails or whose
// payload is malformed is recorded in Skipped and the batch continues.
// Cancelling ctx stops the batch; the partial output is returned with ctx's error.
func (r *Runner) Run(ctx context.Context, source string, questions []questionbank.Question) (*OutputFile, error) {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}
	taxonomy := r.Taxonomy
	if taxonomy == "" {
		taxonomy = config.TaxonomyDivision
	}

	out := &OutputFile{
		RunID:     uuid.NewString(),
		Source:    source,
		Taxonomy:  taxonomy,
		Model:     r.Generator.Model(),
		CreatedAt: now().UnixMilli(),
		Records:   []Record{},
		Skipped:   []Skipped{},
	}
	log = log.With(zap.String("run_id", out.RunID))
	log.Info("extraction started", zap.Int("questions", len(questions)), zap.String("taxonomy", taxonomy))

	for i, q := range questions {
		if i > 0 && r.Delay > 0 {
			if err := sleep(ctx, r.Delay); err != nil {
				return out, err
			}
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		payload, err := r.extractOne(ctx, q, taxonomy)
		if err != nil {
			// A cancelled request is a stop, not a skip.
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			log.Warn("skipping question",
				zap.String("question_id", q.ID),
				zap.Bool("malformed", errors.Is(err, ErrMalformedPayload)),
				zap.Error(err),
			)
			out.Skipped = append(out.Skipped, Skipped{QuestionID: q.ID, Reason: err.Error()})
			continue
		}

		out.Records = append(out.Records, Record{
			QuestionID:    q.ID,
			Quarter:       q.Quarter,
			Nodes:         payload.Nodes,
			Relationships: payload.Relationships,
		})
		log.Debug("question extracted",
			zap.String("question_id", q.ID),
			zap.Int("nodes", len(payload.Nodes)),
			zap.Int("relationships", len(payload.Relationships)),
		)
	}

	log.Info("extraction finished", zap.Int("records", len(out.Records)), zap.Int("skipped", len(out.Skipped)))
	return out, nil
}

func (r *Runner) extractOne(ctx context.Context, q questionbank.Question, taxonomy string) (*Payload, error) {
	text, err := r.Generator.Generate(ctx, NodePrompt(q, taxonomy), r.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generating: %w", err)
	}
	return ParsePayload(text)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
