package transcoder

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/fhuszti/media-pipeline/internal/port"
)

func TestArgs(t *testing.T) {
	got := Args("in.mp4", "out.webp", port.TranscodeParams{Width: 320, FPS: 10, PixelFormat: "yuv420p"})
	want := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "in.mp4",
		"-vf", "scale=320:-2,fps=10",
		"-pix_fmt", "yuv420p",
		"-loop", "0",
		"-an", "-y", "out.webp",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Args() =\n%v\nwant\n%v", got, want)
	}

	got = Args("in.mp4", "out.gif", port.TranscodeParams{Width: 160})
	want = []string{"-hide_banner", "-loglevel", "error", "-i", "in.mp4", "-vf", "scale=160:-2", "-an", "-y", "out.gif"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Args() =\n%v\nwant\n%v", got, want)
	}
}

// fakeFFmpeg writes a shell script standing in for ffmpeg: it copies the
// input to the last argument, or fails when the input is named "bad".
func fakeFFmpeg(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub needs a POSIX shell")
	}
	script := `#!/bin/sh
in=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-i" ]; then in="$a"; fi
  prev="$a"
  out="$a"
done
case "$in" in
  *bad*) echo "Invalid data found when processing input" >&2; exit 1 ;;
esac
cp "$in" "$out"
`
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestFFmpeg_Transcode(t *testing.T) {
	bin := fakeFFmpeg(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(in, []byte("frames"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "clip@1x.webp")

	f := NewFFmpeg(bin)
	if err := f.Transcode(context.Background(), in, out, port.TranscodeParams{Width: 160, FPS: 10, PixelFormat: "yuv420p"}); err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil || string(b) != "frames" {
		t.Errorf("output = %q (%v)", b, err)
	}
}

func TestFFmpeg_TranscodeFailure(t *testing.T) {
	bin := fakeFFmpeg(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.mp4")
	if err := os.WriteFile(in, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := NewFFmpeg(bin).Transcode(context.Background(), in, filepath.Join(dir, "o.webp"), port.TranscodeParams{Width: 160})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Errorf("error should carry stderr, got %v", err)
	}

	if err := NewFFmpeg(bin).Transcode(context.Background(), in, "o.webp", port.TranscodeParams{}); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestNewFFmpeg_DefaultPath(t *testing.T) {
	if NewFFmpeg("").path != "ffmpeg" {
		t.Error("default path should be ffmpeg")
	}
}
