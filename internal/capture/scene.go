package capture

import (
	"image"
)

// Size is a width and height in pixels
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether either dimension is not positive
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Surface is a video frame shown somewhere in the viewport. Frame holds the
// pixels at native resolution; Display is where the frame is drawn, in
// viewport coordinates.
type Surface struct {
	Frame   image.Image
	Display image.Rectangle
}

// Element is a still image drawn in the viewport
type Element struct {
	Image   image.Image
	Display image.Rectangle
}

// Scene is the visible state of the host page at trigger time. Later
// entries in Surfaces and Elements are drawn on top of earlier ones.
type Scene struct {
	Viewport Size
	Surfaces []Surface
	Elements []Element
}

// FullFrameScene builds a scene where frame fills a viewport of the given
// size, which is how a single uploaded video frame is usually presented.
func FullFrameScene(frame image.Image, viewport Size) Scene {
	return Scene{
		Viewport: viewport,
		Surfaces: []Surface{{
			Frame:   frame,
			Display: image.Rect(0, 0, viewport.Width, viewport.Height),
		}},
	}
}
