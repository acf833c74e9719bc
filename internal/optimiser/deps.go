package optimiser

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
	_ "golang.org/x/image/webp"
)

type WebPEncoder interface {
	Encode(img image.Image, quality int, w io.Writer) error
	Decode(r io.Reader) (image.Image, string, error)
}

// webpCodec decodes any registered image format and encodes lossy WebP.
type webpCodec struct{}

func NewWebPCodec() WebPEncoder { return webpCodec{} }

func (webpCodec) Encode(img image.Image, quality int, w io.Writer) error {
	return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
}

func (webpCodec) Decode(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}
