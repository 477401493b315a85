// Package tasks implements the periodic maintenance jobs: database
// compaction and audit log retention.
package tasks

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/chmasta/internal/config"
	"github.com/edgard/chmasta/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
	// Clock is used for retention cutoffs; nil means the real clock.
	Clock clockwork.Clock
}

func (d TaskDeps) clock() clockwork.Clock {
	if d.Clock == nil {
		return clockwork.NewRealClock()
	}
	return d.Clock
}
