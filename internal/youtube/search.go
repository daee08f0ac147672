// Package youtube wraps yt-dlp for candidate search and media download, and
// ranks search results against the user's query.
package youtube

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Candidate is one search result.
type Candidate struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	ViewCount int64  `json:"view_count"`
}

// Search runs a flat YouTube search and returns up to limit candidates in
// result order.
func Search(ctx context.Context, logger zerolog.Logger, query string, limit int) ([]Candidate, error) {
	if err := checkExecutable(ytDlpExecutable); err != nil {
		return nil, err
	}

	logger.Info().Str("query", query).Int("limit", limit).Msg("searching for candidates")

	output, err := runCommand(ctx, logger, ytDlpExecutable,
		"--dump-json",
		"--flat-playlist",
		"--no-warnings",
		fmt.Sprintf("ytsearch%d:%s", limit, query),
	)
	if err != nil {
		return nil, errors.Wrap(err, "search failed")
	}

	var candidates []Candidate
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var c Candidate
		if err := json.Unmarshal(line, &c); err != nil {
			logger.Warn().Err(err).Msg("skipping unparseable search result")
			continue
		}
		candidates = append(candidates, c)
	}

	logger.Info().Int("count", len(candidates)).Msg("search completed")
	return candidates, nil
}
