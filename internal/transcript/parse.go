package transcript

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

const maxLineSize = 8 * 1024 * 1024

// parseFile reads a session log and returns its turns as the common
// intermediate Message stream, with the schema-specific parsing already
// applied. Malformed lines are logged and skipped rather than failing the
// whole parse — one corrupt record shouldn't sink an otherwise-readable
// transcript.
func parseFile(path string, logger zerolog.Logger) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("transcript: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		schema   string
		sniffed  bool
		messages []Message
		lineNo   int
	)

	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		if !sniffed {
			schema = detectSchema(line)
			sniffed = true
		}

		var (
			msg Message
			ok  bool
			err error
		)
		switch schema {
		case "B":
			msg, ok, err = parseSchemaBLine(line)
		default:
			msg, ok, err = parseSchemaALine(line)
		}
		if err != nil {
			logger.Debug().Err(err).Str("path", path).Int("line", lineNo).Msg("transcript: skipping malformed record")
			continue
		}
		if ok {
			messages = append(messages, msg)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("transcript: scan %s: %w", path, err)
	}
	return messages, nil
}
