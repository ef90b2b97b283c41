package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// sessionLogDir is where Claude Code session transcripts live, relative
// to a project directory — used by the mtime-fallback scan when the hook
// event didn't carry an explicit session path.
const sessionLogDir = ".claude/sessions"

// locateSessionFile resolves the session log to archive: the event's own
// path if it supplied one, otherwise the most-recently-modified .jsonl
// file under the project's session log directory.
func locateSessionFile(ev Event) (string, error) {
	if ev.SessionPath != "" {
		if _, err := os.Stat(ev.SessionPath); err != nil {
			return "", fmt.Errorf("archive: session path %s: %w", ev.SessionPath, err)
		}
		return ev.SessionPath, nil
	}

	dir := ev.ProjectDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}

	logDir := filepath.Join(dir, sessionLogDir)
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return "", fmt.Errorf("archive: no session directory at %s: %w", logDir, err)
	}

	type candidate struct {
		path    string
		modTime int64
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{path: filepath.Join(logDir, e.Name()), modTime: info.ModTime().UnixNano()})
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("archive: no session logs found in %s", logDir)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].modTime > candidates[j].modTime })
	return candidates[0].path, nil
}
