// Package capture renders the region around a screen point into a fixed-size
// image suitable for text recognition.
package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
)

const (
	DefaultWidth  = 125
	DefaultHeight = 60
	DefaultScale  = 2
)

// ErrEmptyViewport is returned when the scene has no visible area
var ErrEmptyViewport = errors.New("viewport has no visible area")

// Background fills any part of the capture no source covers
var Background = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Source records where the captured pixels came from
type Source string

const (
	SourceVideo Source = "video"
	SourceStill Source = "still"
	SourceBlank Source = "blank"
)

// Image is a captured region. Pixels always has the capturer's output size,
// even when Origin was clipped by a small viewport.
type Image struct {
	Pixels *image.RGBA
	Origin image.Rectangle
	Scale  int
	Source Source
}

// Size returns the pixel dimensions of the capture
func (i *Image) Size() Size {
	b := i.Pixels.Bounds()
	return Size{Width: b.Dx(), Height: b.Dy()}
}

// PNG encodes the capture losslessly
func (i *Image) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, i.Pixels); err != nil {
		return nil, fmt.Errorf("failed to encode capture: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL encodes the capture as a base64 PNG data URL
func (i *Image) DataURL() (string, error) {
	data, err := i.PNG()
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Capturer produces fixed-size captures around a point
type Capturer struct {
	size  Size
	scale int
}

// NewCapturer creates a capturer for regions of the given logical size,
// upscaled by scale. Zero values fall back to the defaults.
func NewCapturer(size Size, scale int) *Capturer {
	if size.Empty() {
		size = Size{Width: DefaultWidth, Height: DefaultHeight}
	}
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Capturer{size: size, scale: scale}
}

// OutputSize is the pixel size of every capture this capturer produces
func (c *Capturer) OutputSize() Size {
	return Size{Width: c.size.Width * c.scale, Height: c.size.Height * c.scale}
}

// Region computes the capture rectangle for point p. The rectangle is
// centered on p and shifted, not re-centered, to stay inside the viewport.
// If the viewport is smaller than the capture on an axis it is clipped.
func (c *Capturer) Region(viewport Size, p image.Point) (image.Rectangle, error) {
	if viewport.Empty() {
		return image.Rectangle{}, ErrEmptyViewport
	}
	x, w := clampAxis(p.X, c.size.Width, viewport.Width)
	y, h := clampAxis(p.Y, c.size.Height, viewport.Height)
	return image.Rect(x, y, x+w, y+h), nil
}

func clampAxis(center, length, limit int) (int, int) {
	if length >= limit {
		return 0, limit
	}
	start := center - length/2
	if start < 0 {
		start = 0
	}
	if start+length > limit {
		start = limit - length
	}
	return start, length
}

// Capture renders the region around p. Video surfaces take precedence over
// still images; when neither covers the region the capture is left filled
// with Background. The only error is an empty viewport.
func (c *Capturer) Capture(scene Scene, p image.Point) (*Image, error) {
	region, err := c.Region(scene.Viewport, p)
	if err != nil {
		return nil, err
	}

	out := c.OutputSize()
	canvas := image.NewRGBA(image.Rect(0, 0, out.Width, out.Height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: Background}, image.Point{}, draw.Src)

	result := &Image{Pixels: canvas, Origin: region, Scale: c.scale, Source: SourceBlank}

	for i := len(scene.Surfaces) - 1; i >= 0; i-- {
		s := scene.Surfaces[i]
		if s.Frame == nil {
			continue
		}
		if c.drawFrom(canvas, region, s.Frame, s.Display) {
			result.Source = SourceVideo
			return result, nil
		}
	}

	for i := len(scene.Elements) - 1; i >= 0; i-- {
		e := scene.Elements[i]
		if e.Image == nil || !p.In(e.Display) {
			continue
		}
		if c.drawFrom(canvas, region, e.Image, e.Display) {
			result.Source = SourceStill
			return result, nil
		}
		break
	}

	slog.Debug("No visual source under capture region, using blank capture", "region", region.String())
	return result, nil
}

// drawFrom samples the part of src shown inside region and draws it, scaled,
// at the matching offset of canvas. src is displayed at display; the ratio of
// its native size to display size maps viewport pixels to source pixels.
func (c *Capturer) drawFrom(canvas *image.RGBA, region image.Rectangle, src image.Image, display image.Rectangle) bool {
	inter := region.Intersect(display)
	if inter.Empty() {
		return false
	}

	bounds := src.Bounds()
	if bounds.Empty() {
		return false
	}
	ratioX := float64(bounds.Dx()) / float64(display.Dx())
	ratioY := float64(bounds.Dy()) / float64(display.Dy())

	srcRect := image.Rect(
		bounds.Min.X+int(math.Floor(float64(inter.Min.X-display.Min.X)*ratioX)),
		bounds.Min.Y+int(math.Floor(float64(inter.Min.Y-display.Min.Y)*ratioY)),
		bounds.Min.X+int(math.Ceil(float64(inter.Max.X-display.Min.X)*ratioX)),
		bounds.Min.Y+int(math.Ceil(float64(inter.Max.Y-display.Min.Y)*ratioY)),
	).Intersect(bounds)
	if srcRect.Empty() {
		return false
	}

	dstRect := image.Rect(
		(inter.Min.X-region.Min.X)*c.scale,
		(inter.Min.Y-region.Min.Y)*c.scale,
		(inter.Max.X-region.Min.X)*c.scale,
		(inter.Max.Y-region.Min.Y)*c.scale,
	)
	draw.CatmullRom.Scale(canvas, dstRect, src, srcRect, draw.Over, nil)
	return true
}
