// Package imaging is the in-process raster-image adapter.
package imaging

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // decoder registration

	"github.com/ytget/media-toolkit/internal/adapter"
	"github.com/ytget/media-toolkit/internal/logger"
	"github.com/ytget/media-toolkit/internal/model"
)

// Encoding settings
const (
	JPEGQuality   = 90
	GIFColors     = 256
	tempPattern   = ".media-toolkit-*.tmp"
	progressRead  = 20
	progressDraw  = 60
	progressWrite = 90
)

// Encoders keyed by normalized target format.
var encoders = map[string]func(io.Writer, *image.NRGBA) error{
	"png":  encodePNG,
	"jpg":  encodeJPEG,
	"gif":  encodeGIF,
	"bmp":  encodeBMP,
	"tiff": encodeTIFF,
	"ico":  encodeIcon,
}

// Targets lists the formats this adapter can write.
func Targets() []string {
	return []string{"png", "jpg", "gif", "bmp", "tiff", "ico"}
}

// Converter re-encodes raster images.
type Converter struct {
	log logger.Logger
}

// New creates a Converter.
func New(log logger.Logger) *Converter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Converter{log: log}
}

func (c *Converter) ID() adapter.ID {
	return adapter.RasterImage
}

// Available is always nil: all codecs are compiled in.
func (c *Converter) Available(model.Tools) error {
	return nil
}

// Capable accepts image sources and targets with an in-process encoder.
func (c *Converter) Capable(cat model.Category, target string) bool {
	_, ok := encoders[target]
	return cat == model.CategoryImage && ok
}

// Run decodes req.Input, normalizes it and writes req.Output.
func (c *Converter) Run(ctx context.Context, req adapter.Request, sink adapter.Sink) model.Result {
	id := c.ID().String()

	encode, ok := encoders[req.Target]
	if !ok {
		return model.Failed(id, model.ExecutionFailed(id, fmt.Sprintf("unsupported target %q", req.Target), "", nil))
	}

	src, format, err := decodeFile(req.Input)
	if err != nil {
		return model.Failed(id, model.ExecutionFailed(id, "cannot decode image", "", err))
	}
	sink.Progress(progressRead)
	c.log.Debug("decoded image",
		logger.String("job_id", req.JobID),
		logger.String("format", format),
		logger.Int("width", src.Bounds().Dx()),
		logger.Int("height", src.Bounds().Dy()))

	if err := ctx.Err(); err != nil {
		return model.Failed(id, model.ExecutionFailed(id, "interrupted", "", err))
	}

	img := ToNRGBA(src)
	sink.Progress(progressDraw)

	if err := writeAtomic(req.Output, func(w io.Writer) error { return encode(w, img) }); err != nil {
		return model.Failed(id, model.ExecutionFailed(id, fmt.Sprintf("cannot write %s", req.Target), "", err))
	}
	sink.Progress(progressWrite)

	return model.Succeeded(id, req.Output, fmt.Sprintf("Converted to %s", req.Output))
}

func decodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return image.Decode(f)
}

// ToNRGBA copies any image into a zero-origin non-premultiplied RGBA image.
func ToNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// FlattenOnto composites img over an opaque background color.
func FlattenOnto(img image.Image, bg color.Color) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

func encodePNG(w io.Writer, img *image.NRGBA) error {
	return png.Encode(w, img)
}

// JPEG has no alpha: transparent pixels would otherwise turn black.
func encodeJPEG(w io.Writer, img *image.NRGBA) error {
	return jpeg.Encode(w, FlattenOnto(img, color.White), &jpeg.Options{Quality: JPEGQuality})
}

func encodeGIF(w io.Writer, img *image.NRGBA) error {
	return gif.Encode(w, img, &gif.Options{NumColors: GIFColors})
}

func encodeBMP(w io.Writer, img *image.NRGBA) error {
	return bmp.Encode(w, img)
}

func encodeTIFF(w io.Writer, img *image.NRGBA) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

func encodeIcon(w io.Writer, img *image.NRGBA) error {
	return EncodeICO(w, img, IconSizes)
}

// writeAtomic writes through a temp file in the destination directory so a
// failed encode never leaves a partial file at path.
func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), tempPattern)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
