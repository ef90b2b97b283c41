package archive

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marknutter/rlm/internal/metrics"
	"github.com/marknutter/rlm/internal/pipeline"
	"github.com/marknutter/rlm/internal/store"
	"github.com/marknutter/rlm/internal/transcript"
)

// recentArchiveGuard is how recently a session must have been archived for
// a session-end trigger to skip re-archiving it — a session-end event
// firing moments after a pre-compaction archive already ran is treated as
// redundant, not a request to archive again.
const recentArchiveGuard = 60 * time.Second

// TriggerKind distinguishes the two hook entry points that call into the
// coordinator; only SessionEnd honors the recent-archive guard.
type TriggerKind int

const (
	TriggerPreCompaction TriggerKind = iota
	TriggerSessionEnd
)

// Event carries what the calling hook already knows about the session.
type Event struct {
	Trigger     TriggerKind
	SessionPath string // explicit path, if the hook payload supplied one
	ProjectDir  string // cwd to search/derive a project name from
}

// Result reports what the archival pass actually did.
type Result struct {
	Skipped    bool
	Reason     string
	EntryID    string
	SourceName string
}

// Coordinator runs the at-most-once archival protocol against a session
// log: locate it, compare its size to the last-seen watermark, and if it
// grew, delete the prior episodes for this session and re-ingest the
// whole thing fresh.
type Coordinator struct {
	db       store.Storer
	pipeline *pipeline.Pipeline
	logger   zerolog.Logger
}

func NewCoordinator(db store.Storer, pl *pipeline.Pipeline, logger zerolog.Logger) *Coordinator {
	return &Coordinator{db: db, pipeline: pl, logger: logger}
}

// Archive runs the protocol for ev. It never returns an error for
// conditions that are expected skips (no session file found, watermark
// unchanged) — those come back as Result.Skipped with a Reason.
func (c *Coordinator) Archive(ctx context.Context, ev Event) (*Result, error) {
	sessionPath, err := locateSessionFile(ev)
	if err != nil {
		return &Result{Skipped: true, Reason: err.Error()}, nil
	}

	var result *Result
	err = withLock(ctx, sessionPath, func() error {
		result, err = c.archiveLocked(ctx, ev, sessionPath)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Coordinator) archiveLocked(ctx context.Context, ev Event, sessionPath string) (*Result, error) {
	info, err := os.Stat(sessionPath)
	if err != nil {
		return &Result{Skipped: true, Reason: "session file not found"}, nil
	}

	wm, err := readWatermark(sessionPath)
	if err != nil {
		return nil, err
	}

	if wm != nil {
		if ev.Trigger == TriggerSessionEnd && time.Since(wm.ArchivedAt) < recentArchiveGuard {
			metrics.ArchivalRuns.WithLabelValues("skipped").Inc()
			return &Result{Skipped: true, Reason: "archived recently"}, nil
		}
		if wm.SizeBytes == info.Size() {
			metrics.ArchivalRuns.WithLabelValues("skipped").Inc()
			return &Result{Skipped: true, Reason: "watermark unchanged"}, nil
		}
	}

	sourceName := sessionSourceName(ev, sessionPath)

	prior, err := c.db.FindEntriesBySourceName(sourceName)
	if err != nil {
		return nil, err
	}
	for _, e := range prior {
		if _, err := c.db.DeleteEntry(e.ID); err != nil {
			return nil, err
		}
	}

	rendered, err := transcript.Normalize(sessionPath, c.logger)
	if err != nil {
		return nil, fmt.Errorf("archive: normalize %s: %w", sessionPath, err)
	}

	project := projectName(ev.ProjectDir)
	now := time.Now()
	sessionID := "s_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	baseTags := []string{"conversation", "session", project, now.Format("2006-01-02"), sessionID}
	label := fmt.Sprintf("Session: %s on %s", project, now.Format("2006-01-02"))

	res, err := c.pipeline.SmartRemember(ctx, pipeline.Request{
		Content:    rendered,
		Source:     "session",
		SourceName: sourceName,
		Tags:       baseTags,
		Label:      label,
		Timestamp:  float64(now.Unix()),
		Dedup:      false,
	})
	if err != nil {
		return nil, err
	}

	if err := writeWatermark(sessionPath, time.Now(), info.Size()); err != nil {
		c.logger.Warn().Err(err).Str("path", sessionPath).Msg("archive: failed to write watermark")
	}

	metrics.ArchivalRuns.WithLabelValues("archived").Inc()
	return &Result{EntryID: res.EntryID, SourceName: sourceName}, nil
}

// sessionSourceName derives the source_name episodes from this session
// share, so future archival passes can find and delete-and-replace them.
func sessionSourceName(ev Event, sessionPath string) string {
	project := projectName(ev.ProjectDir)
	return fmt.Sprintf("session:%s:%s", project, filepath.Base(sessionPath))
}

// projectName derives a short project identifier from dir: the basename of
// its innermost Git repository root, falling back to dir's own basename
// when dir isn't inside a Git working tree (spec.md §4.6 step 6).
func projectName(dir string) string {
	if dir == "" {
		wd, err := os.Getwd()
		if err == nil {
			dir = wd
		}
	}
	if dir == "" {
		return "unknown"
	}

	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	if out, err := cmd.Output(); err == nil {
		if top := strings.TrimSpace(string(out)); top != "" {
			return filepath.Base(top)
		}
	}
	return filepath.Base(dir)
}
