package dataset

import (
	"image"
	"path/filepath"
	"strings"

	"github.com/cardlens/cardlens/internal/capture"
)

// Sample is one labelled frame: a picture of a video or page showing cards,
// the point a user would trigger on, and the card name printed there.
type Sample struct {
	ID             string `json:"id" parquet:"id"`
	FramePath      string `json:"frame_path" parquet:"frame_path"` // file path or http(s) URL
	X              int    `json:"x" parquet:"x"`
	Y              int    `json:"y" parquet:"y"`
	ViewportWidth  int    `json:"viewport_width" parquet:"viewport_width"`   // 0 means the frame width
	ViewportHeight int    `json:"viewport_height" parquet:"viewport_height"` // 0 means the frame height
	ExpectedName   string `json:"expected_name" parquet:"expected_name"`
}

// Point is where the identification is triggered
func (s *Sample) Point() image.Point {
	return image.Pt(s.X, s.Y)
}

// Viewport returns the viewport size, falling back to the frame size
func (s *Sample) Viewport(frame image.Rectangle) capture.Size {
	size := capture.Size{Width: s.ViewportWidth, Height: s.ViewportHeight}
	if size.Width <= 0 {
		size.Width = frame.Dx()
	}
	if size.Height <= 0 {
		size.Height = frame.Dy()
	}
	return size
}

// IsRemote reports whether the frame has to be downloaded
func (s *Sample) IsRemote() bool {
	return IsRemotePath(s.FramePath)
}

// IsRemotePath reports whether location is an http(s) URL
func IsRemotePath(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// ResolveFramePath returns the frame location, with relative file paths
// taken relative to the directory of the dataset file.
func (s *Sample) ResolveFramePath(datasetPath string) string {
	if s.IsRemote() || filepath.IsAbs(s.FramePath) {
		return s.FramePath
	}
	return filepath.Join(filepath.Dir(datasetPath), s.FramePath)
}
