package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cardlens/cardlens/internal/config"
	"github.com/cardlens/cardlens/internal/models"
	"github.com/cardlens/cardlens/internal/ocr"
	"github.com/cardlens/cardlens/internal/pipeline"
)

type fixedRecognizer struct {
	text string
}

func (f fixedRecognizer) Recognize(ctx context.Context, payload string) (ocr.Result, error) {
	return ocr.Result{Text: f.text, Detected: f.text != ""}, nil
}

type response struct {
	SessionID string `json:"session_id"`
	Current   bool   `json:"current"`
	Event     struct {
		State   string             `json:"state"`
		Loading bool               `json:"loading"`
		Reason  string             `json:"reason"`
		Prefill string             `json:"prefill"`
		Result  *models.ResultJSON `json:"result"`
	} `json:"event"`
}

func newTestHandler(t *testing.T, recognized string) http.Handler {
	t.Helper()
	scryfall := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fuzzy") != "Lightning Bolt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"name":"Lightning Bolt","image_uris":{"normal":"https://img/bolt.jpg"}}`))
	}))
	t.Cleanup(scryfall.Close)

	cfg := config.Default()
	cfg.Catalog.BaseURL = scryfall.URL
	p, err := pipeline.New(cfg)
	if err != nil {
		t.Fatalf("pipeline.New returned error: %v", err)
	}
	p.Recognizer = fixedRecognizer{text: recognized}
	return New(p).Routes()
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var resp response
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func identifyRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("frame", "frame.png")
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(part, image.NewRGBA(image.Rect(0, 0, 400, 300))); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/identify", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestIdentify(t *testing.T) {
	h := newTestHandler(t, "Lightning Bolt")

	rec, resp := do(t, h, identifyRequest(t, map[string]string{"session_id": "tab-1", "x": "200", "y": "150"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp.SessionID != "tab-1" || !resp.Current {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Event.State != "resolved" || resp.Event.Result == nil || resp.Event.Result.Card.Name != "Lightning Bolt" {
		t.Errorf("Expected resolved Lightning Bolt, got %+v", resp.Event)
	}
}

func TestIdentifyDebug(t *testing.T) {
	h := newTestHandler(t, "Lightning Bolt")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, identifyRequest(t, map[string]string{"x": "10", "y": "10", "debug": "true", "source": "still"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"state":"debug_resolved"`) || !strings.Contains(body, `"capture_source":"still"`) {
		t.Errorf("unexpected debug response %s", body)
	}
}

func TestIdentifyWithoutSessionIsNotStored(t *testing.T) {
	h := newTestHandler(t, "Lightning Bolt")

	for i := 0; i < 3; i++ {
		rec, resp := do(t, h, identifyRequest(t, map[string]string{"x": "200", "y": "150", "debug": "true"}))
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if resp.SessionID != "" || !resp.Current || resp.Event.State != "debug_resolved" {
			t.Errorf("unexpected one-shot response %+v", resp)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("anonymous requests should not create sessions, got %s", body)
	}
}

func TestIdentifyBadRequests(t *testing.T) {
	h := newTestHandler(t, "Lightning Bolt")

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{name: "missing point", fields: map[string]string{"y": "10"}},
		{name: "bad number", fields: map[string]string{"x": "ten", "y": "10"}},
		{name: "bad source", fields: map[string]string{"x": "1", "y": "1", "source": "canvas"}},
		{name: "bad debug flag", fields: map[string]string{"x": "1", "y": "1", "debug": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, h, identifyRequest(t, tt.fields))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/identify", strings.NewReader("x=1&y=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if rec, _ := do(t, h, req); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without a frame, got %d", rec.Code)
	}

	if rec, _ := do(t, h, httptest.NewRequest(http.MethodGet, "/api/identify", nil)); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestIdentifyFromFrameURL(t *testing.T) {
	frames := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = png.Encode(w, image.NewRGBA(image.Rect(0, 0, 320, 240)))
	}))
	defer frames.Close()

	h := newTestHandler(t, "Lightning Bolt")
	req := httptest.NewRequest(http.MethodPost, "/api/identify",
		strings.NewReader("session_id=tab-9&x=100&y=100&frame_url="+frames.URL+"/frame.png"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec, resp := do(t, h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp.Event.State != "resolved" {
		t.Errorf("Expected resolved, got %s", resp.Event.State)
	}
}

func TestLookupAndSessionLifecycle(t *testing.T) {
	h := newTestHandler(t, "")

	rec, resp := do(t, h, httptest.NewRequest(http.MethodPost, "/api/lookup",
		strings.NewReader(`{"session_id":"tab-2","name":"Lightnin Blot"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if resp.Event.State != "no_match" || resp.Event.Prefill != "Lightnin Blot" {
		t.Errorf("Expected no_match prefilled, got %+v", resp.Event)
	}

	_, resp = do(t, h, httptest.NewRequest(http.MethodPost, "/api/lookup",
		strings.NewReader(`{"session_id":"tab-2","name":"Lightning Bolt"}`)))
	if resp.Event.State != "resolved" {
		t.Fatalf("Expected resolved, got %+v", resp.Event)
	}

	_, resp = do(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/tab-2", nil))
	if resp.Event.State != "resolved" {
		t.Errorf("Expected session snapshot to be resolved, got %s", resp.Event.State)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	if !strings.Contains(rec.Body.String(), `"id":"tab-2"`) {
		t.Errorf("session list missing tab-2: %s", rec.Body.String())
	}

	_, resp = do(t, h, httptest.NewRequest(http.MethodPost, "/api/sessions/tab-2/dismiss", nil))
	if resp.Event.State != "idle" || resp.Event.Result != nil {
		t.Errorf("Expected idle after dismissal, got %+v", resp.Event)
	}

	rec, _ = do(t, h, httptest.NewRequest(http.MethodDelete, "/api/sessions/tab-2", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	rec, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/tab-2", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}
}

func TestLookupInvalidJSON(t *testing.T) {
	h := newTestHandler(t, "")
	rec, _ := do(t, h, httptest.NewRequest(http.MethodPost, "/api/lookup", strings.NewReader(`{`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestHealthcheck(t *testing.T) {
	h := newTestHandler(t, "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("unexpected healthcheck response %d %q", rec.Code, rec.Body.String())
	}
}
