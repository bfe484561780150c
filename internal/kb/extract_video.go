package kb

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const videoExtractTimeout = 2 * time.Minute

// videoExtractor shells out to an external transcript CLI with a safe,
// fixed argv (no shell interpolation of the URL) — the same
// os/exec.CommandContext pattern as the Container Runner, generalized to
// a single-shot command instead of a long-lived process.
type videoExtractor struct {
	cliPath string
}

func newVideoExtractor(cliPath string) Extractor {
	return &videoExtractor{cliPath: cliPath}
}

func (e *videoExtractor) Extract(ctx context.Context, _ string, url string) (*Extracted, error) {
	if e.cliPath == "" {
		return nil, errors.Wrap(ErrExtractionFailed, "video transcript CLI not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, videoExtractTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.cliPath, "--url", url, "--format", "text")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(ErrExtractionFailed, "video transcript CLI failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}

	content := strings.TrimSpace(stdout.String())
	if content == "" {
		return nil, errors.Wrap(ErrExtractionFailed, "video transcript CLI produced no output")
	}

	return &Extracted{Content: content}, nil
}
