// Package model loads the whisper speech model once, in the background.
package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/whisperd/whisperd/internal/config"
)

// ErrNotLoaded indicates the readiness signal has not fired yet.
var ErrNotLoaded = errors.New("model not loaded yet")

// loadFunc lets tests substitute the native model constructor.
type loadFunc func(path string) (whisper.Model, error)

// Loader performs one background model load and gates readers on completion.
// The readiness signal fires exactly once, for success and failure alike;
// after that the outcome is immutable for the process lifetime.
type Loader struct {
	ready chan struct{}
	model whisper.Model
	err   error
}

// StartLoad resolves the model file and begins loading it off the caller's
// goroutine so hotkey handling is never blocked by initialization.
func StartLoad(cfg config.WhisperConfig, logger *slog.Logger) *Loader {
	return startLoad(cfg, logger, whisper.New)
}

func startLoad(cfg config.WhisperConfig, logger *slog.Logger, load loadFunc) *Loader {
	l := &Loader{ready: make(chan struct{})}

	go func() {
		defer close(l.ready)

		path, err := ResolveModelPath(cfg.Model)
		if err != nil {
			l.err = err
			logError(logger, cfg.Model, err)
			return
		}

		m, err := load(path)
		if err != nil {
			l.err = fmt.Errorf("load model %q: %w", cfg.Model, err)
			logError(logger, cfg.Model, l.err)
			return
		}

		l.model = m
		if logger != nil {
			// whisper.cpp fixes its compute backend at build time; device and
			// compute_type are recorded for diagnostics only.
			logger.Info("model loaded",
				"model", cfg.Model,
				"path", path,
				"device", cfg.Device,
				"compute_type", cfg.ComputeType,
			)
		}
	}()

	return l
}

// Ready exposes the one-shot readiness signal.
func (l *Loader) Ready() <-chan struct{} {
	return l.ready
}

// Await blocks until the load finishes or ctx is cancelled. It returns the
// load error when the model is permanently unusable.
func (l *Loader) Await(ctx context.Context) error {
	select {
	case <-l.ready:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err reports the load error once the signal has fired, nil before that.
// A nil return therefore means "usable or still loading", which is exactly
// the guard the controller needs for starting a recording.
func (l *Loader) Err() error {
	select {
	case <-l.ready:
		return l.err
	default:
		return nil
	}
}

// Model returns the loaded handle. Callers must observe readiness first.
func (l *Loader) Model() (whisper.Model, error) {
	select {
	case <-l.ready:
		if l.err != nil {
			return nil, l.err
		}
		return l.model, nil
	default:
		return nil, ErrNotLoaded
	}
}

// Close releases the native model if one finished loading.
func (l *Loader) Close() {
	select {
	case <-l.ready:
		if l.model != nil {
			_ = l.model.Close()
		}
	default:
	}
}

func logError(logger *slog.Logger, model string, err error) {
	if logger == nil {
		return
	}
	logger.Error("model load failed", "model", model, "error", err.Error())
}
