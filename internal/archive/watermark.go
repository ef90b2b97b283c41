// Package archive implements the at-most-once session-archival protocol
// (spec.md §4.6): per-session watermark files tracking how much of a
// session log has already been ingested, guarded by an advisory file lock
// so concurrent hook invocations can't double-archive.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const lockTimeout = 10 * time.Second
const lockPollInterval = 25 * time.Millisecond

// watermark is the archival checkpoint for one session file: when it was
// last archived, and its byte size at that time.
type watermark struct {
	ArchivedAt time.Time
	SizeBytes  int64
}

func watermarkPath(sessionPath string) string {
	return sessionPath + ".rlm-archived"
}

// readWatermark parses the two-line watermark format (ISO-8601 timestamp,
// byte size). A missing second line is the legacy one-line format, treated
// the same as no watermark at all — the archive runs unconditionally.
func readWatermark(sessionPath string) (*watermark, error) {
	data, err := os.ReadFile(watermarkPath(sessionPath))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) < 2 {
		return nil, nil
	}

	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(lines[0]))
	if err != nil {
		return nil, nil
	}
	size, err := strconv.ParseInt(strings.TrimSpace(lines[1]), 10, 64)
	if err != nil {
		return nil, nil
	}
	return &watermark{ArchivedAt: ts, SizeBytes: size}, nil
}

func writeWatermark(sessionPath string, archivedAt time.Time, sizeBytes int64) error {
	content := fmt.Sprintf("%s\n%d\n", archivedAt.Format(time.RFC3339), sizeBytes)
	return os.WriteFile(watermarkPath(sessionPath), []byte(content), 0o644)
}

// withLock runs fn while holding an exclusive advisory lock on
// sessionPath's own lock file, so two concurrent hook invocations for the
// same session can't both pass the watermark check and double-archive.
func withLock(ctx context.Context, sessionPath string, fn func() error) error {
	lockPath := filepath.Join(filepath.Dir(sessionPath), "."+filepath.Base(sessionPath)+".rlm.lock")
	lock := flock.New(lockPath)

	timeoutCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	for {
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("archive: acquire lock: %w", err)
		}
		if locked {
			defer func() { _ = lock.Unlock() }()
			return fn()
		}
		select {
		case <-timeoutCtx.Done():
			return fmt.Errorf("archive: timeout waiting for lock on %s", sessionPath)
		default:
			time.Sleep(lockPollInterval)
		}
	}
}
