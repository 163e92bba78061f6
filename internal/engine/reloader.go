package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"internboard/internal/logging"
)

// Snapshot is one loaded generation of the dataset.
type Snapshot struct {
	Dataset  *Dataset
	Source   string
	LoadedAt time.Time
}

// Reloader owns the dataset lifecycle: it loads on request and hands out the
// current immutable Snapshot. Concurrent reloads share one load, and a failed
// reload keeps the previous Snapshot.
type Reloader struct {
	src    Source
	schema Schema
	logger *slog.Logger

	group   singleflight.Group
	current atomic.Pointer[Snapshot]
}

func NewReloader(src Source, schema Schema, logger *slog.Logger) *Reloader {
	return &Reloader{
		src:    src,
		schema: schema,
		logger: logging.Default(logger).With("component", "reloader"),
	}
}

// Current returns the latest snapshot, or nil before the first load.
func (r *Reloader) Current() *Snapshot {
	return r.current.Load()
}

// Set installs an already built dataset.
func (r *Reloader) Set(ds *Dataset, source string) *Snapshot {
	snap := &Snapshot{Dataset: ds, Source: source, LoadedAt: time.Now()}
	r.current.Store(snap)
	return snap
}

// Reload reads the source again and swaps it in on success.
func (r *Reloader) Reload(ctx context.Context) (*Snapshot, error) {
	v, err, shared := r.group.Do("reload", func() (any, error) {
		ds, err := Load(ctx, r.src, r.schema, r.logger)
		if err != nil {
			return nil, err
		}
		return r.Set(ds, r.src.Path), nil
	})
	if err != nil {
		if r.Current() != nil {
			r.logger.Warn("reload failed, serving previous dataset", "err", err)
		}
		return nil, err
	}
	r.logger.Debug("reload finished", "shared", shared)
	return v.(*Snapshot), nil
}
