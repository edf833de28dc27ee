package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/fellahtech/agri-advisor/internal/observability"
)

// Store owns the live bundle reference. Scoring goroutines read through
// Current and always see a complete bundle; retraining publishes a new one
// via Reload or Swap, which replace the pointer atomically. Single-writer
// discipline: only one goroutine may call Reload/Swap at a time.
type Store struct {
	current atomic.Pointer[Bundle]
	path    string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewStore creates an empty store bound to an artifact path.
func NewStore(path string, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{path: path, logger: logger, metrics: metrics}
}

// LoadInitial loads the artifact file and publishes it. Fatal on error: a
// service configured with a model path must not start without the bundle.
func (s *Store) LoadInitial() error {
	b, err := Load(s.path)
	if err != nil {
		return fmt.Errorf("load initial bundle: %w", err)
	}
	s.current.Store(b)
	s.metrics.BundleLoaded.Set(1)
	s.logger.Info("model bundle loaded",
		"path", s.path, "version", b.Version, "features", len(b.FeatureCols), "crops", len(b.Crops()))
	return nil
}

// Reload re-reads the artifact file and atomically swaps it in. In-flight
// scoring keeps the bundle it already resolved; the swap is only visible to
// subsequent passes. On error the previous bundle stays published.
func (s *Store) Reload() error {
	b, err := Load(s.path)
	if err != nil {
		s.metrics.BundleReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("reload bundle: %w", err)
	}
	s.metrics.BundleReloads.WithLabelValues("success").Inc()
	old := s.current.Swap(b)
	oldVersion := ""
	if old != nil {
		oldVersion = old.Version
	}
	s.logger.Info("model bundle swapped", "old_version", oldVersion, "new_version", b.Version)
	return nil
}

// Swap publishes an already-built bundle.
func (s *Store) Swap(b *Bundle) {
	s.current.Store(b)
	s.metrics.BundleLoaded.Set(1)
}

// Current returns the live bundle, or false when none has been published.
func (s *Store) Current() (*Bundle, bool) {
	b := s.current.Load()
	return b, b != nil
}

// CheckReadiness reports whether a bundle is available to score against.
func (s *Store) CheckReadiness(_ context.Context) error {
	if s.current.Load() == nil {
		return errors.New("model bundle not loaded")
	}
	return nil
}
