package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Yashi-Piparsaniya/buildathon/internal/models"
	"github.com/google/uuid"
)

const (
	rawLabelReal = "REAL"
	rawLabelFake = "FAKE"

	// Модель возвращает только метку, без калиброванной вероятности
	modelConfidence = 0.85
)

// ModelGateway wraps the external Classifier with a bounded-time, cancellable
// invocation. The loaded flag is set once at startup and never mutated;
// every request reads it without locking.
type ModelGateway struct {
	classifier Classifier
	loaded     bool
	scratchDir string
}

func NewModelGateway(classifier Classifier, loaded bool) *ModelGateway {
	return &ModelGateway{
		classifier: classifier,
		loaded:     loaded,
		scratchDir: os.TempDir(),
	}
}

func (g *ModelGateway) Loaded() bool {
	return g.loaded && g.classifier != nil
}

// Invoke persists audio to a uniquely named scratch file, runs the classifier
// on its own goroutine and races it against the budget. An overrunning
// classifier is abandoned, not killed: the underlying work may continue, but
// the caller stops waiting. The scratch file is removed on every exit path.
func (g *ModelGateway) Invoke(ctx context.Context, audio []byte, format string, budget time.Duration) models.ModelOutcome {
	if !g.Loaded() {
		return models.ModelOutcome{Status: models.OutcomeUnavailable}
	}

	name := fmt.Sprintf("deepfake_%s.%s", uuid.New().String(), scratchExt(format))
	path := filepath.Join(g.scratchDir, name)
	if err := os.WriteFile(path, audio, 0o600); err != nil {
		return models.ModelOutcome{
			Status: models.OutcomeFailure,
			Err:    fmt.Errorf("could not write scratch file: %w", err),
		}
	}
	defer os.Remove(path)

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	type reply struct {
		label string
		err   error
	}
	done := make(chan reply, 1)
	go func() {
		label, err := g.classifier.Classify(ctx, path)
		done <- reply{label: label, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return models.ModelOutcome{Status: models.OutcomeFailure, Err: r.err}
		}
		return models.ModelOutcome{
			Status:        models.OutcomeSuccess,
			Label:         mapRawLabel(r.label),
			RawConfidence: modelConfidence,
		}
	case <-ctx.Done():
		log.Printf("Model invocation abandoned after %v: %v", budget, ctx.Err())
		return models.ModelOutcome{Status: models.OutcomeTimeout, Err: ctx.Err()}
	}
}

func mapRawLabel(raw string) string {
	if raw == rawLabelReal {
		return models.LabelHuman
	}
	return models.LabelAI
}

// scratchExt keeps the caller-supplied extension but never lets it escape
// the scratch directory or grow unbounded.
func scratchExt(format string) string {
	ext := strings.ToLower(strings.TrimSpace(format))
	var b strings.Builder
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	ext = b.String()
	if ext == "" || len(ext) > 8 {
		return "wav"
	}
	return ext
}
