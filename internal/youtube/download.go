package youtube

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	videoFormat = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	userAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36"
)

// Download holds the paths produced by a fetch.
type Download struct {
	VideoPath    string
	SubtitlePath string
	WorkDir      string
}

// Downloader fetches videos and their subtitle tracks into per-job work
// directories.
type Downloader struct {
	baseDir string
	logger  zerolog.Logger
}

// NewDownloader creates a Downloader rooted at baseDir.
func NewDownloader(baseDir string, logger zerolog.Logger) *Downloader {
	return &Downloader{
		baseDir: baseDir,
		logger:  logger.With().Str("component", "downloader").Logger(),
	}
}

// Fetch downloads the candidate's video as mp4 along with subtitles in the
// requested language. The subtitle file may be absent when the video carries
// no track for that language; callers degrade gracefully in that case.
func (d *Downloader) Fetch(ctx context.Context, c *Candidate, language string) (*Download, error) {
	if err := checkExecutable(ytDlpExecutable); err != nil {
		return nil, err
	}

	workDir := filepath.Join(d.baseDir, "job-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0750); err != nil {
		return nil, errors.Wrapf(err, "failed to create work directory %s", workDir)
	}

	logger := d.logger.With().Str("video", c.ID).Str("workDir", workDir).Logger()
	logger.Info().Str("title", c.Title).Msg("downloading video")

	outputTemplate := filepath.Join(workDir, fmt.Sprintf("%s.%%(ext)s", c.ID))
	args := []string{
		"-f", videoFormat,
		"--merge-output-format", "mp4",
		"-o", outputTemplate,
		"--no-playlist",
		"--no-warnings",
		"--geo-bypass",
		"--user-agent", userAgent,
		"--referer", "https://www.youtube.com/",
		"--write-subs",
		"--sub-langs", language,
		"--convert-subs", "srt",
		c.URL,
	}

	if _, err := runCommand(ctx, logger, ytDlpExecutable, args...); err != nil {
		return nil, errors.Wrap(err, "download failed")
	}

	videoPath := filepath.Join(workDir, c.ID+".mp4")
	if _, err := os.Stat(videoPath); err != nil {
		return nil, errors.Wrapf(err, "download finished but %s was not created", videoPath)
	}

	dl := &Download{
		VideoPath:    videoPath,
		SubtitlePath: filepath.Join(workDir, fmt.Sprintf("%s.%s.srt", c.ID, language)),
		WorkDir:      workDir,
	}
	logger.Info().Str("path", dl.VideoPath).Msg("download complete")
	return dl, nil
}
