package domain

import "fmt"

// Common link status values
const (
	LinkStatusUp   = "up"
	LinkStatusDown = "down"
)

// Link represents an unordered physical connection between two devices
type Link struct {
	A          string         `json:"a" yaml:"a" validate:"required"`
	B          string         `json:"b" yaml:"b" validate:"required"`
	Type       string         `json:"type,omitempty" yaml:"type,omitempty"`
	Speed      string         `json:"speed,omitempty" yaml:"speed,omitempty"`
	Status     string         `json:"status,omitempty" yaml:"status,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// LinkKey identifies the unordered endpoint pair of a link
type LinkKey struct {
	Low  string
	High string
}

// NewLink creates a new link between two devices
func NewLink(a, b string) *Link {
	return &Link{A: a, B: b}
}

// Key returns the normalized endpoint pair, identical for (a,b) and (b,a)
func (l Link) Key() LinkKey {
	if CompareIDs(l.A, l.B) > 0 {
		return LinkKey{Low: l.B, High: l.A}
	}
	return LinkKey{Low: l.A, High: l.B}
}

// Normalized returns a copy with endpoints ordered by CompareIDs
func (l Link) Normalized() Link {
	k := l.Key()
	l.A, l.B = k.Low, k.High
	return l
}

// IsSelfLoop reports whether both endpoints are the same device
func (l Link) IsSelfLoop() bool {
	return l.A == l.B
}

// String renders the link as "a-b"
func (l Link) String() string {
	return fmt.Sprintf("%s-%s", l.A, l.B)
}
