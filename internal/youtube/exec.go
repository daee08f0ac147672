package youtube

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const ytDlpExecutable = "yt-dlp"

// runCommand executes an external command, logging its duration and output on
// failure.
func runCommand(ctx context.Context, logger zerolog.Logger, name string, args ...string) ([]byte, error) {
	logger = logger.With().Str("command", name).Str("args", strings.Join(args, " ")).Logger()
	logger.Debug().Msg("executing command")

	start := time.Now()
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		logger.Error().Dur("duration", time.Since(start)).Err(err).Str("output", string(output)).Msg("command failed")
		return nil, errors.Wrapf(err, "command %s failed: %s", name, string(output))
	}

	logger.Debug().Dur("duration", time.Since(start)).Msg("command finished")
	return output, nil
}

// checkExecutable verifies that name is reachable through PATH.
func checkExecutable(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return errors.Wrapf(err, "executable %s not found in PATH", name)
	}
	return nil
}
