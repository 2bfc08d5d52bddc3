package detect

import (
	"fmt"

	"vlanislands/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Preset names a built-in classification policy
type Preset string

const (
	PresetStrict   Preset = "strict"   // Flag small cut-offs early
	PresetBalanced Preset = "balanced" // Default thresholds
	PresetLenient  Preset = "lenient"  // Only large partitions are serious
)

// ParsePreset converts a string to Preset, defaulting to PresetBalanced
func ParsePreset(s string) Preset {
	switch s {
	case "strict":
		return PresetStrict
	case "balanced":
		return PresetBalanced
	case "lenient":
		return PresetLenient
	default:
		return PresetBalanced
	}
}

// Policy holds the tunable classification thresholds.
//
// An island's severity is its size relative to the VLAN's member count:
// at or above CriticalRatio it is critical, at or above MajorRatio major,
// otherwise minor. SingletonSeverity, when set, replaces the ratio rule for
// single-device islands. A fragmented VLAN's overall grade comes from its
// component count: FragmentationCritical or more is critical,
// FragmentationMajor or more is major, anything else fragmented is minor.
type Policy struct {
	Name                  string          `yaml:"name" json:"name"`
	CriticalRatio         float64         `yaml:"critical_ratio" json:"critical_ratio" validate:"gt=0,lte=1"`
	MajorRatio            float64         `yaml:"major_ratio" json:"major_ratio" validate:"gt=0,ltefield=CriticalRatio"`
	SingletonSeverity     domain.Severity `yaml:"singleton_severity,omitempty" json:"singleton_severity,omitempty" validate:"omitempty,oneof=none minor major critical"`
	FragmentationCritical int             `yaml:"fragmentation_critical" json:"fragmentation_critical" validate:"gtefield=FragmentationMajor"`
	FragmentationMajor    int             `yaml:"fragmentation_major" json:"fragmentation_major" validate:"gte=2"`
}

// Presets maps preset names to their policies
var Presets = map[Preset]Policy{
	PresetStrict: {
		Name:                  string(PresetStrict),
		CriticalRatio:         0.25,
		MajorRatio:            0.10,
		FragmentationCritical: 5,
		FragmentationMajor:    2,
	},
	PresetBalanced: {
		Name:                  string(PresetBalanced),
		CriticalRatio:         0.40,
		MajorRatio:            0.20,
		FragmentationCritical: 10,
		FragmentationMajor:    3,
	},
	PresetLenient: {
		Name:                  string(PresetLenient),
		CriticalRatio:         0.50,
		MajorRatio:            0.30,
		SingletonSeverity:     domain.SeverityMinor,
		FragmentationCritical: 15,
		FragmentationMajor:    5,
	},
}

// Policy returns the policy for a preset
func (p Preset) Policy() Policy {
	if policy, ok := Presets[p]; ok {
		return policy
	}
	return Presets[PresetBalanced]
}

// DefaultPolicy returns the balanced policy
func DefaultPolicy() Policy {
	return PresetBalanced.Policy()
}

// Validate checks threshold ranges and ordering
func (p Policy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid policy %q: %w", p.Name, err)
	}
	return nil
}

// IslandSeverity grades a non-main component of size within a VLAN of total members
func (p Policy) IslandSeverity(size, total int) domain.Severity {
	if size == 1 && p.SingletonSeverity != "" {
		return p.SingletonSeverity
	}
	if total <= 0 {
		return domain.SeverityNone
	}
	ratio := float64(size) / float64(total)
	switch {
	case ratio >= p.CriticalRatio:
		return domain.SeverityCritical
	case ratio >= p.MajorRatio:
		return domain.SeverityMajor
	default:
		return domain.SeverityMinor
	}
}

// Fragmentation grades a VLAN by its number of components
func (p Policy) Fragmentation(components int) domain.Severity {
	switch {
	case components < 2:
		return domain.SeverityNone
	case components >= p.FragmentationCritical:
		return domain.SeverityCritical
	case components >= p.FragmentationMajor:
		return domain.SeverityMajor
	default:
		return domain.SeverityMinor
	}
}
