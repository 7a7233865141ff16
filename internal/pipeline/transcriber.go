// Package pipeline turns finished recordings into transcripts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/whisperd/whisperd/internal/config"
	"github.com/whisperd/whisperd/internal/transcript"
)

// ModelSource yields a usable speech model once loading has finished.
type ModelSource interface {
	Model() (whisper.Model, error)
}

// processFunc runs the speech model over decoded samples. Tests substitute it
// so the pipeline can be exercised without native model weights.
type processFunc func(m whisper.Model, language string, samples []float32) ([]string, error)

// Transcriber decodes one recording at a time into assembled text.
type Transcriber struct {
	cfg     config.WhisperConfig
	source  ModelSource
	logger  *slog.Logger
	process processFunc
}

// NewTranscriber constructs a transcriber reading models from source.
func NewTranscriber(cfg config.WhisperConfig, source ModelSource, logger *slog.Logger) *Transcriber {
	return &Transcriber{cfg: cfg, source: source, logger: logger, process: runWhisper}
}

// Transcribe decodes the WAV file at audioPath and returns the transcript.
// An empty string with a nil error means the recording held no speech.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pcm, err := readPCM16WAV(audioPath)
	if err != nil {
		return "", err
	}
	if pcm.sampleRate != whisper.SampleRate {
		return "", fmt.Errorf("recording sample rate %d does not match model rate %d", pcm.sampleRate, whisper.SampleRate)
	}

	if !hasSpeech(pcm.samples) {
		if t.logger != nil {
			t.logger.Info("no speech detected", "path", audioPath, "samples", len(pcm.samples))
		}
		return "", nil
	}

	m, err := t.source.Model()
	if err != nil {
		return "", err
	}

	started := time.Now()
	segments, err := t.process(m, t.cfg.Language, pcm.samples)
	if err != nil {
		return "", fmt.Errorf("transcribe recording: %w", err)
	}

	text := transcript.Assemble(segments)
	if t.logger != nil {
		t.logger.Info("transcription complete",
			"path", audioPath,
			"segments", len(segments),
			"chars", len(text),
			"duration_ms", time.Since(started).Milliseconds(),
		)
	}
	return text, nil
}

// runWhisper drives the native model over the sample buffer and collects
// segment text in arrival order.
func runWhisper(m whisper.Model, language string, samples []float32) ([]string, error) {
	wctx, err := m.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create decode context: %w", err)
	}

	if language != "" && m.IsMultilingual() {
		if err := wctx.SetLanguage(language); err != nil {
			return nil, fmt.Errorf("set language %q: %w", language, err)
		}
	}
	wctx.SetTranslate(false)
	wctx.SetThreads(uint(runtime.NumCPU()))

	var segments []string
	err = wctx.Process(samples, nil, func(segment whisper.Segment) {
		segments = append(segments, segment.Text)
	}, nil)
	if err != nil {
		return nil, err
	}
	return segments, nil
}
