package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestToJSON(t *testing.T) {
	tests := []struct {
		name    string
		result  LookupResult
		outcome string
	}{
		{
			name:    "found",
			result:  Found{Card: CardRecord{Name: "Lightning Bolt"}, DetectedName: "Lightning Bolt"},
			outcome: "found",
		},
		{
			name:    "not found",
			result:  NotFound{Query: "Lightnig Blot"},
			outcome: "not_found",
		},
		{
			name:    "failed",
			result:  Failed{Failure: NewRateLimited(429)},
			outcome: "failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToJSON(tt.result)
			if got == nil {
				t.Fatal("expected wire result, got nil")
			}
			if got.Outcome != tt.outcome {
				t.Errorf("Expected outcome %s, got %s", tt.outcome, got.Outcome)
			}
		})
	}

	if ToJSON(nil) != nil {
		t.Error("Expected nil for nil result")
	}
}

func TestAsFailure(t *testing.T) {
	if AsFailure(nil) != nil {
		t.Fatal("expected nil failure for nil error")
	}

	wrapped := fmt.Errorf("outer: %w", NewInvalidCredential(401))
	if f := AsFailure(wrapped); f.Kind != InvalidCredential {
		t.Errorf("Expected %s, got %s", InvalidCredential, f.Kind)
	}

	raw := errors.New("connection reset")
	f := AsFailure(raw)
	if f.Kind != ServiceError {
		t.Errorf("Expected %s, got %s", ServiceError, f.Kind)
	}
	if !errors.Is(f, raw) {
		t.Error("Expected failure to unwrap to the transport error")
	}
}

func TestDoubleFaced(t *testing.T) {
	if (CardRecord{Name: "Lightning Bolt"}).DoubleFaced() {
		t.Error("single-faced card reported as double-faced")
	}
	if !(CardRecord{Name: "Delver of Secrets // Insectile Aberration", BackImageURL: "https://img/back.jpg"}).DoubleFaced() {
		t.Error("double-faced card not detected")
	}
}
