// Package overlay sequences one identification run at a time for a single
// host session and reports every state change as an Event.
package overlay

import (
	"encoding/json"

	"github.com/cardlens/cardlens/internal/models"
)

// State is a step of the identification lifecycle
type State string

const (
	StateIdle             State = "idle"
	StateCapturing        State = "capturing"
	StateValidating       State = "validating"
	StateRecognizingText  State = "recognizing_text"
	StateResolvingCard    State = "resolving_card"
	StateResolved         State = "resolved"
	StateNoMatch          State = "no_match"
	StateErrorFallback    State = "error_fallback"
	StateNormalizingInput State = "normalizing_input"
	StateDebugCapturing   State = "debug_capturing"
	StateDebugResolving   State = "debug_resolving"
	StateDebugResolved    State = "debug_resolved"
)

// Loading reports whether the host should show a loading indicator
func (s State) Loading() bool {
	switch s {
	case StateCapturing, StateRecognizingText, StateResolvingCard,
		StateDebugCapturing, StateDebugResolving:
		return true
	}
	return false
}

// Terminal reports whether a run ends in s
func (s State) Terminal() bool {
	switch s {
	case StateResolved, StateNoMatch, StateErrorFallback, StateDebugResolved:
		return true
	}
	return false
}

// DebugInfo is attached to debug_resolved events
type DebugInfo struct {
	Capture        string             `json:"capture,omitempty"` // data URL of the captured region
	CaptureSource  string             `json:"capture_source,omitempty"`
	RawText        string             `json:"raw_text"`
	NormalizedName string             `json:"normalized_name"`
	Outcome        *models.ResultJSON `json:"outcome,omitempty"`
}

// Event is a state change of a Machine. Result is set on terminal states.
// Prefill is the text a fallback entry prompt should start with.
type Event struct {
	RunID   string              `json:"run_id,omitempty"`
	State   State               `json:"state"`
	Loading bool                `json:"loading"`
	Result  models.LookupResult `json:"-"`
	Reason  string              `json:"reason,omitempty"`
	Prefill string              `json:"prefill,omitempty"`
	Debug   *DebugInfo          `json:"debug,omitempty"`
}

// MarshalJSON writes Result in its wire form
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	return json.Marshal(struct {
		plain
		Result *models.ResultJSON `json:"result,omitempty"`
	}{plain: plain(e), Result: models.ToJSON(e.Result)})
}

// Listener receives every event in order. It is called with the machine's
// lock held and must not call back into the machine.
type Listener func(Event)
