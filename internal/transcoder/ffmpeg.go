package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/port"
)

const stderrTail = 512

// FFmpeg shells out to the ffmpeg binary to produce animated previews.
type FFmpeg struct {
	path string
}

var _ port.Transcoder = (*FFmpeg)(nil)

func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path}
}

// Args builds the ffmpeg command line for one rendition. Height follows the
// source aspect ratio, rounded to an even number of pixels.
func Args(inputPath, outputPath string, p port.TranscodeParams) []string {
	filter := "scale=" + strconv.Itoa(p.Width) + ":-2"
	if p.FPS > 0 {
		filter += ",fps=" + strconv.Itoa(p.FPS)
	}
	args := []string{"-hide_banner", "-loglevel", "error", "-i", inputPath, "-vf", filter}
	if p.PixelFormat != "" {
		args = append(args, "-pix_fmt", p.PixelFormat)
	}
	if strings.HasSuffix(strings.ToLower(outputPath), ".webp") {
		args = append(args, "-loop", "0")
	}
	return append(args, "-an", "-y", outputPath)
}

func (f *FFmpeg) Transcode(ctx context.Context, inputPath, outputPath string, p port.TranscodeParams) error {
	if p.Width <= 0 {
		return fmt.Errorf("invalid width %d", p.Width)
	}
	args := Args(inputPath, outputPath, p)
	logger.Debugf(ctx, "running %s %s", f.path, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, f.path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if len(msg) > stderrTail {
			msg = msg[len(msg)-stderrTail:]
		}
		return fmt.Errorf("ffmpeg width=%d: %w: %s", p.Width, err, strings.TrimSpace(msg))
	}
	return nil
}
