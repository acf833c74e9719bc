package mock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fhuszti/media-pipeline/internal/port"
)

// Transcoder writes a small fake rendition for every requested width, except
// the ones listed in FailWidths.
type Transcoder struct {
	mu sync.Mutex

	FailWidths map[int]bool

	Calls  []port.TranscodeParams
	Inputs []string
}

var _ port.Transcoder = (*Transcoder)(nil)

func (t *Transcoder) Transcode(ctx context.Context, inputPath, outputPath string, params port.TranscodeParams) error {
	t.mu.Lock()
	t.Calls = append(t.Calls, params)
	t.Inputs = append(t.Inputs, inputPath)
	fail := t.FailWidths[params.Width]
	t.mu.Unlock()

	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if fail {
		return errors.New("transcoder: exit status 1")
	}
	return os.WriteFile(outputPath, []byte(fmt.Sprintf("rendition-%d", params.Width)), 0o600)
}
