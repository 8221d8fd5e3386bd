package capture

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/cardlens/cardlens/internal/pngcheck"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// splitFrame is red on the left half and blue on the right half
func splitFrame(w, h int) *image.RGBA {
	img := solid(w, h, red)
	draw.Draw(img, image.Rect(w/2, 0, w, h), &image.Uniform{C: blue}, image.Point{}, draw.Src)
	return img
}

func colorAt(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func TestRegion(t *testing.T) {
	c := NewCapturer(Size{Width: 125, Height: 60}, 2)
	viewport := Size{Width: 1280, Height: 720}

	tests := []struct {
		name     string
		viewport Size
		point    image.Point
		expected image.Rectangle
	}{
		{
			name:     "centered on point",
			viewport: viewport,
			point:    image.Pt(640, 360),
			expected: image.Rect(578, 330, 703, 390),
		},
		{
			name:     "shifted right at left edge",
			viewport: viewport,
			point:    image.Pt(10, 360),
			expected: image.Rect(0, 330, 125, 390),
		},
		{
			name:     "shifted left at right edge",
			viewport: viewport,
			point:    image.Pt(1275, 5),
			expected: image.Rect(1155, 0, 1280, 60),
		},
		{
			name:     "shifted up at bottom edge",
			viewport: viewport,
			point:    image.Pt(640, 719),
			expected: image.Rect(578, 660, 703, 720),
		},
		{
			name:     "point outside viewport stays in bounds",
			viewport: viewport,
			point:    image.Pt(-50, 9000),
			expected: image.Rect(0, 660, 125, 720),
		},
		{
			name:     "clipped by tiny viewport",
			viewport: Size{Width: 100, Height: 40},
			point:    image.Pt(50, 20),
			expected: image.Rect(0, 0, 100, 40),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Region(tt.viewport, tt.point)
			if err != nil {
				t.Fatalf("Region returned error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCaptureEmptyViewport(t *testing.T) {
	c := NewCapturer(Size{}, 0)
	img, err := c.Capture(Scene{}, image.Pt(10, 10))
	if !errors.Is(err, ErrEmptyViewport) {
		t.Fatalf("Expected ErrEmptyViewport, got %v", err)
	}
	if img != nil {
		t.Error("Expected no image for empty viewport")
	}
}

func TestCaptureOutputIsFixedSizePNG(t *testing.T) {
	c := NewCapturer(Size{}, 0)
	if got := c.OutputSize(); got != (Size{Width: 250, Height: 120}) {
		t.Fatalf("Expected default output 250x120, got %+v", got)
	}

	scenes := map[string]Scene{
		"video":      FullFrameScene(solid(1920, 1080, red), Size{Width: 1280, Height: 720}),
		"blank":      {Viewport: Size{Width: 1280, Height: 720}},
		"tiny":       FullFrameScene(solid(64, 32, red), Size{Width: 64, Height: 32}),
		"still only": {Viewport: Size{Width: 800, Height: 600}, Elements: []Element{{Image: solid(10, 10, green), Display: image.Rect(0, 0, 800, 600)}}},
	}

	for name, scene := range scenes {
		t.Run(name, func(t *testing.T) {
			img, err := c.Capture(scene, image.Pt(30, 30))
			if err != nil {
				t.Fatalf("Capture returned error: %v", err)
			}
			data, err := img.PNG()
			if err != nil {
				t.Fatalf("PNG returned error: %v", err)
			}
			if !pngcheck.ValidBytes(data, 250, 120) {
				t.Error("capture did not encode to a 250x120 PNG")
			}
			url, err := img.DataURL()
			if err != nil {
				t.Fatalf("DataURL returned error: %v", err)
			}
			if !pngcheck.Valid(url, 250, 120) {
				t.Error("data URL did not validate")
			}
		})
	}
}

func TestCaptureSamplesVideoUsingNativeRatio(t *testing.T) {
	// 1920x1080 frame shown at 960x540: one viewport pixel is two frame pixels
	frame := splitFrame(1920, 1080)
	scene := FullFrameScene(frame, Size{Width: 960, Height: 540})

	c := NewCapturer(Size{Width: 100, Height: 50}, 2)
	img, err := c.Capture(scene, image.Pt(480, 270))
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if img.Source != SourceVideo {
		t.Fatalf("Expected video source, got %s", img.Source)
	}
	if img.Origin != image.Rect(430, 245, 530, 295) {
		t.Fatalf("unexpected origin %v", img.Origin)
	}

	// the split sits in the middle of the capture
	if got := colorAt(img.Pixels, 20, 50); got != red {
		t.Errorf("Expected red on the left, got %v", got)
	}
	if got := colorAt(img.Pixels, 180, 50); got != blue {
		t.Errorf("Expected blue on the right, got %v", got)
	}
}

func TestCaptureVideoPartiallyCoveringRegion(t *testing.T) {
	// frame displayed in the right half of the viewport only
	scene := Scene{
		Viewport: Size{Width: 400, Height: 200},
		Surfaces: []Surface{{Frame: solid(400, 400, red), Display: image.Rect(200, 0, 400, 200)}},
	}

	c := NewCapturer(Size{Width: 100, Height: 50}, 2)
	img, err := c.Capture(scene, image.Pt(200, 100))
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if img.Source != SourceVideo {
		t.Fatalf("Expected video source, got %s", img.Source)
	}
	if got := colorAt(img.Pixels, 10, 50); got != Background {
		t.Errorf("Expected background left of the video, got %v", got)
	}
	if got := colorAt(img.Pixels, 190, 50); got != red {
		t.Errorf("Expected video pixels on the right, got %v", got)
	}
}

func TestCaptureTopmostSurfaceWins(t *testing.T) {
	viewport := Size{Width: 400, Height: 200}
	scene := Scene{
		Viewport: viewport,
		Surfaces: []Surface{
			{Frame: solid(400, 200, red), Display: image.Rect(0, 0, 400, 200)},
			{Frame: solid(400, 200, blue), Display: image.Rect(0, 0, 400, 200)},
		},
	}

	img, err := NewCapturer(Size{Width: 50, Height: 20}, 2).Capture(scene, image.Pt(200, 100))
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if got := colorAt(img.Pixels, 50, 20); got != blue {
		t.Errorf("Expected topmost surface color, got %v", got)
	}
}

func TestCaptureFallsBackToStillImageUnderCursor(t *testing.T) {
	scene := Scene{
		Viewport: Size{Width: 800, Height: 600},
		Surfaces: []Surface{{Frame: solid(100, 100, red), Display: image.Rect(700, 500, 800, 600)}},
		Elements: []Element{
			{Image: solid(200, 200, blue), Display: image.Rect(0, 0, 400, 400)},
			{Image: solid(50, 50, green), Display: image.Rect(100, 100, 300, 300)},
		},
	}

	c := NewCapturer(Size{Width: 40, Height: 20}, 2)
	img, err := c.Capture(scene, image.Pt(200, 200))
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if img.Source != SourceStill {
		t.Fatalf("Expected still source, got %s", img.Source)
	}
	if got := colorAt(img.Pixels, 40, 20); got != green {
		t.Errorf("Expected topmost element under cursor, got %v", got)
	}
}

func TestCaptureStillImageNotUnderCursorIsIgnored(t *testing.T) {
	scene := Scene{
		Viewport: Size{Width: 800, Height: 600},
		Elements: []Element{{Image: solid(50, 50, green), Display: image.Rect(0, 0, 100, 100)}},
	}

	img, err := NewCapturer(Size{}, 0).Capture(scene, image.Pt(400, 300))
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if img.Source != SourceBlank {
		t.Fatalf("Expected blank source, got %s", img.Source)
	}
	if got := colorAt(img.Pixels, 125, 60); got != Background {
		t.Errorf("Expected background fill, got %v", got)
	}
}
