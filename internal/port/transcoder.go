package port

import "context"

// TranscodeParams describes one rendition.
type TranscodeParams struct {
	Width       int
	FPS         int
	PixelFormat string
}

// Transcoder turns the file at inputPath into a rendition written to outputPath.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string, params TranscodeParams) error
}
