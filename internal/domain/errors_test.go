package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDanglingReferenceError(t *testing.T) {
	err := &DanglingReferenceError{Kind: "link", Owner: "sw1-ghost", DeviceID: "ghost"}

	t.Run("names the offending device", func(t *testing.T) {
		if !strings.Contains(err.Error(), `"ghost"`) {
			t.Errorf("expected message to name device, got %q", err.Error())
		}
	})

	t.Run("matches sentinel through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("load topology: %w", err)
		if !errors.Is(wrapped, ErrDanglingReference) {
			t.Error("expected errors.Is to match ErrDanglingReference")
		}

		var dre *DanglingReferenceError
		if !errors.As(wrapped, &dre) {
			t.Fatal("expected errors.As to find DanglingReferenceError")
		}
		if dre.DeviceID != "ghost" {
			t.Errorf("expected device ghost, got %s", dre.DeviceID)
		}
	})
}

func TestMalformedInput(t *testing.T) {
	err := MalformedInput("missing %s list", "devices")

	if !errors.Is(err, ErrMalformedInput) {
		t.Error("expected errors.Is to match ErrMalformedInput")
	}
	if errors.Is(err, ErrDanglingReference) {
		t.Error("expected malformed input not to match dangling reference")
	}
	if !strings.Contains(err.Error(), "missing devices list") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestSeverityRank(t *testing.T) {
	order := []Severity{SeverityNone, SeverityMinor, SeverityMajor, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("expected %s to rank below %s", order[i-1], order[i])
		}
	}
	if Severity("bogus").Valid() {
		t.Error("expected unknown severity to be invalid")
	}
}
