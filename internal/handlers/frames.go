package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cardlens/cardlens/internal/capture"
)

// Surfaces a frame can be presented on
const (
	sourceVideo = "video"
	sourceStill = "still"
)

// readFrame reads the uploaded "frame" file or downloads "frame_url"
func (h *Handler) readFrame(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("frame")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxFrameBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read frame contents: %w", err)
		}
		if len(data) >= maxFrameBytes {
			return nil, fmt.Errorf("frame too large (max %d bytes)", maxFrameBytes)
		}
		return data, nil
	}

	frameURL := strings.TrimSpace(r.FormValue("frame_url"))
	if frameURL == "" {
		return nil, fmt.Errorf("frame or frame_url is required")
	}
	return h.downloadFrame(r.Context(), frameURL)
}

func (h *Handler) downloadFrame(ctx context.Context, frameURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, frameURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create frame request: %w", err)
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download frame: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download frame: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read frame data: %w", err)
	}
	slog.Info("Frame downloaded", "url", frameURL, "bytes", len(data))
	return data, nil
}

// buildScene decodes the frame and places it in a viewport described by the
// form fields. Omitted geometry defaults to the frame filling the viewport.
func buildScene(r *http.Request, data []byte) (capture.Scene, image.Point, error) {
	frame, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return capture.Scene{}, image.Point{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	bounds := frame.Bounds()
	slog.Debug("Frame decoded", "format", format, "width", bounds.Dx(), "height", bounds.Dy())

	var vw, vh, dx, dy, dw, dh int

	geometry := []struct {
		name string
		dst  *int
		def  func() int
	}{
		{"viewport_width", &vw, func() int { return bounds.Dx() }},
		{"viewport_height", &vh, func() int { return bounds.Dy() }},
		{"display_x", &dx, func() int { return 0 }},
		{"display_y", &dy, func() int { return 0 }},
		{"display_width", &dw, func() int { return vw }},
		{"display_height", &dh, func() int { return vh }},
	}
	for _, g := range geometry {
		if *g.dst, err = intField(r, g.name, g.def()); err != nil {
			return capture.Scene{}, image.Point{}, err
		}
	}

	x, err := requiredIntField(r, "x")
	if err != nil {
		return capture.Scene{}, image.Point{}, err
	}
	y, err := requiredIntField(r, "y")
	if err != nil {
		return capture.Scene{}, image.Point{}, err
	}

	scene := capture.Scene{Viewport: capture.Size{Width: vw, Height: vh}}
	display := image.Rect(dx, dy, dx+dw, dy+dh)
	switch source := r.FormValue("source"); source {
	case "", sourceVideo:
		scene.Surfaces = []capture.Surface{{Frame: frame, Display: display}}
	case sourceStill:
		scene.Elements = []capture.Element{{Image: frame, Display: display}}
	default:
		return capture.Scene{}, image.Point{}, fmt.Errorf("invalid source %q, must be %q or %q", source, sourceVideo, sourceStill)
	}
	return scene, image.Pt(x, y), nil
}

func intField(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

func requiredIntField(r *http.Request, name string) (int, error) {
	if strings.TrimSpace(r.FormValue(name)) == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	return intField(r, name, 0)
}
