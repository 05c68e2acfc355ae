package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Archive reads exported posts from JSON Lines files, one RawPost per
// line. It is the offline producer used for backfills and development.
type Archive struct {
	globs []string
	log   zerolog.Logger
}

// NewArchive creates an archive source from file glob patterns.
func NewArchive(globs []string, log zerolog.Logger) *Archive {
	return &Archive{globs: globs, log: log}
}

func (a *Archive) Name() string { return "archive" }

func (a *Archive) Collect(ctx context.Context) ([]RawPost, error) {
	var all []RawPost

	for _, pattern := range a.globs {
		paths, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad archive glob %q: %w", pattern, err)
		}
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			posts, err := a.readFile(path)
			if err != nil {
				a.log.Warn().Err(err).Str("file", path).Msg("archive file failed")
				continue
			}
			all = append(all, posts...)
		}
	}

	return all, nil
}

func (a *Archive) readFile(path string) ([]RawPost, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer f.Close()

	var posts []RawPost
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var p RawPost
		if err := json.Unmarshal(raw, &p); err != nil {
			a.log.Debug().Err(err).Str("file", path).Int("line", line).Msg("skipping malformed record")
			continue
		}
		posts = append(posts, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read archive %s: %w", path, err)
	}

	return posts, nil
}
