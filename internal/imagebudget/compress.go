// Package imagebudget re-encodes images so they fit a byte ceiling while
// keeping as much menu text legible as the ceiling allows.
//
// The same Compressor runs on the server before the collaborator call and in
// the CLI client before upload.
package imagebudget

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// OutputMediaType is the media type of every re-encoded result.
const OutputMediaType = "image/jpeg"

// DefaultMaxPixels caps the decoded canvas. Phone photos are 12-50 MP.
const DefaultMaxPixels = 50_000_000

// Observer receives every encoded attempt.
type Observer interface {
	ObserveAttempt(a Attempt, size int, accepted bool)
}

// Result is the outcome of Compress.
type Result struct {
	Data      []byte
	MediaType string
	// Compressed is false when the input already fit and is returned untouched.
	Compressed   bool
	Attempt      Attempt
	OriginalSize int
	Width        int
	Height       int
}

type Compressor struct {
	ladder     Ladder
	lastResort Attempt
	scaler     draw.Scaler
	observer   Observer
	logger     *slog.Logger
	maxPixels  int
}

type Option func(*Compressor)

func WithLadder(l Ladder) Option {
	return func(c *Compressor) { c.ladder = l }
}

func WithLastResort(a Attempt) Option {
	return func(c *Compressor) { c.lastResort = a }
}

func WithObserver(o Observer) Option {
	return func(c *Compressor) { c.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Compressor) { c.logger = l }
}

// WithMaxPixels rejects images whose declared width*height exceeds n.
func WithMaxPixels(n int) Option {
	return func(c *Compressor) { c.maxPixels = n }
}

// New returns a Compressor using DefaultLadder and LastResort unless overridden.
func New(opts ...Option) (*Compressor, error) {
	c := &Compressor{
		ladder:     DefaultLadder,
		lastResort: LastResort,
		scaler:     draw.CatmullRom,
		logger:     slog.Default(),
		maxPixels:  DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.ladder.Validate(); err != nil {
		return nil, err
	}
	if err := c.lastResort.Validate(); err != nil {
		return nil, fmt.Errorf("last resort: %w", err)
	}
	if c.maxPixels <= 0 {
		return nil, fmt.Errorf("imagebudget: max pixels must be positive, got %d", c.maxPixels)
	}
	return c, nil
}

// Compress returns data re-encoded so that len(Result.Data) <= maxBytes.
//
// Input that already fits is returned byte-identical. Otherwise the ladder is
// walked in order and the first fitting attempt wins; the last-resort attempt
// runs only after every rung failed.
func (c *Compressor) Compress(ctx context.Context, data []byte, maxBytes int) (*Result, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidTarget, maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidImage)
	}

	// Dimensions come from the header so an oversized canvas is refused
	// before anything is allocated for it.
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: zero-sized image", ErrInvalidImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(c.maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, c.maxPixels)
	}

	if len(data) <= maxBytes {
		return &Result{
			Data:         data,
			MediaType:    MediaTypeFor(format),
			OriginalSize: len(data),
			Width:        cfg.Width,
			Height:       cfg.Height,
		}, nil
	}

	src, err := decodeOpaque(data)
	if err != nil {
		return nil, err
	}

	best := 0
	try := func(a Attempt) (*Result, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, w, h, err := c.encode(src, a)
		if err != nil {
			return nil, err
		}
		if best == 0 || len(out) < best {
			best = len(out)
		}
		fits := len(out) <= maxBytes
		c.logger.Debug("compression attempt",
			slog.String("attempt", a.String()),
			slog.Int("size", len(out)),
			slog.Int("target", maxBytes),
			slog.Bool("fits", fits),
		)
		if c.observer != nil {
			c.observer.ObserveAttempt(a, len(out), fits)
		}
		if !fits {
			return nil, nil
		}
		return &Result{
			Data:         out,
			MediaType:    OutputMediaType,
			Compressed:   true,
			Attempt:      a,
			OriginalSize: len(data),
			Width:        w,
			Height:       h,
		}, nil
	}

	for _, a := range c.ladder {
		r, err := try(a)
		if err != nil || r != nil {
			return r, err
		}
	}

	r, err := try(c.lastResort)
	if err != nil || r != nil {
		return r, err
	}
	return nil, &ExhaustedError{BestSize: best, Target: maxBytes}
}

func (c *Compressor) encode(src *image.RGBA, a Attempt) ([]byte, int, int, error) {
	w, h := ScaledSize(src.Bounds().Dx(), src.Bounds().Dy(), a.Scale)

	var img image.Image = src
	if w != src.Bounds().Dx() || h != src.Bounds().Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		c.scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: a.Quality}); err != nil {
		return nil, 0, 0, fmt.Errorf("imagebudget: encode %s: %w", a, err)
	}
	return buf.Bytes(), w, h, nil
}

// ScaledSize floors w*scale and h*scale, never going below one pixel.
func ScaledSize(w, h int, scale float64) (int, int) {
	sw := int(float64(w) * scale)
	sh := int(float64(h) * scale)
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return sw, sh
}

// decodeOpaque decodes data, applying EXIF orientation, onto an opaque white
// canvas.
func decodeOpaque(data []byte) (*image.RGBA, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: zero-sized image", ErrInvalidImage)
	}
	return flatten(img), nil
}

// flatten composites img over white so transparent regions do not turn black
// once encoded as JPEG.
func flatten(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Opaque() {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// MediaTypeFor maps an image.DecodeConfig format name to a media type.
func MediaTypeFor(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
