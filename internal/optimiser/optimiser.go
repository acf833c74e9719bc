package optimiser

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	DefaultMaxDimension          = 2048
	DefaultCompressionPercentage = 70
	DefaultVariantQuality        = 75

	minQuality = 30
	maxQuality = 90
)

// Options tunes image compression. Zero values fall back to the defaults.
type Options struct {
	MaxDimension int
	// CompressionPercentage is the share of the original size the encoder aims for.
	CompressionPercentage int
	VariantQuality        int
}

type Optimiser struct {
	codec WebPEncoder
	opts  Options
}

// Result is the outcome of Compress. Image is only set for compressed images
// so variants can be derived without decoding twice.
type Result struct {
	Name     string
	MimeType string
	Data     []byte
	Image    image.Image
}

func (r Result) Size() int64 { return int64(len(r.Data)) }

type Variant struct {
	Suffix   string
	Name     string
	MimeType string
	Data     []byte
}

func NewOptimiser(codec WebPEncoder, opts Options) *Optimiser {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultMaxDimension
	}
	if opts.CompressionPercentage <= 0 || opts.CompressionPercentage > 100 {
		opts.CompressionPercentage = DefaultCompressionPercentage
	}
	if opts.VariantQuality <= 0 {
		opts.VariantQuality = DefaultVariantQuality
	}
	return &Optimiser{codec: codec, opts: opts}
}

// IsCompressible reports whether Compress re-encodes files of this MIME type.
func IsCompressible(mimeType string) bool {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return true
	}
	return false
}

// Compress re-encodes images as WebP fitted into MaxDimension, searching the
// highest quality whose output stays under CompressionPercentage of the
// original size. Other types are returned unchanged.
func (o *Optimiser) Compress(name, mimeType string, r io.Reader) (Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("optimiser: failed to read data: %w", err)
	}
	if !IsCompressible(mimeType) {
		return Result{Name: name, MimeType: mimeType, Data: raw}, nil
	}

	img, _, err := o.codec.Decode(bytes.NewReader(raw))
	if err != nil {
		return Result{}, fmt.Errorf("optimiser: failed to decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() > o.opts.MaxDimension || b.Dy() > o.opts.MaxDimension {
		img = imaging.Fit(img, o.opts.MaxDimension, o.opts.MaxDimension, imaging.Lanczos)
	}

	target := len(raw) * o.opts.CompressionPercentage / 100
	data, err := o.searchQuality(img, target)
	if err != nil {
		return Result{}, err
	}

	return Result{Name: WebPName(name), MimeType: "image/webp", Data: data, Image: img}, nil
}

// searchQuality bisects the quality range. When even the lowest quality
// misses the target, the lowest quality output is kept.
func (o *Optimiser) searchQuality(img image.Image, target int) ([]byte, error) {
	var best []byte
	lo, hi := minQuality, maxQuality
	for lo <= hi {
		q := (lo + hi) / 2
		buf := &bytes.Buffer{}
		if err := o.codec.Encode(img, q, buf); err != nil {
			return nil, fmt.Errorf("optimiser: failed to encode WebP: %w", err)
		}
		if buf.Len() <= target {
			best = buf.Bytes()
			lo = q + 1
			continue
		}
		if q == minQuality {
			best = buf.Bytes()
		}
		hi = q - 1
	}
	return best, nil
}

// Variants downsizes img to each suffix width. Images narrower than a width
// are encoded at their own size.
func (o *Optimiser) Variants(img image.Image, name string, widths map[string]int, suffixes []string) ([]Variant, error) {
	out := make([]Variant, 0, len(suffixes))
	for _, suffix := range suffixes {
		w, ok := widths[suffix]
		if !ok {
			continue
		}
		resized := img
		if img.Bounds().Dx() > w {
			resized = imaging.Resize(img, w, 0, imaging.Lanczos)
		}
		buf := &bytes.Buffer{}
		if err := o.codec.Encode(resized, o.opts.VariantQuality, buf); err != nil {
			return out, fmt.Errorf("optimiser: failed to encode %s variant: %w", suffix, err)
		}
		out = append(out, Variant{
			Suffix:   suffix,
			Name:     VariantName(WebPName(name), suffix),
			MimeType: "image/webp",
			Data:     buf.Bytes(),
		})
	}
	return out, nil
}

func WebPName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ".webp"
}

// VariantName inserts the suffix before the extension: cat.webp → cat@2x.webp.
func VariantName(name, suffix string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + suffix + ext
}
