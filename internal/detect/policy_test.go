package detect

import (
	"testing"

	"vlanislands/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestParsePreset(t *testing.T) {
	tests := []struct {
		input string
		want  Preset
	}{
		{"strict", PresetStrict},
		{"balanced", PresetBalanced},
		{"lenient", PresetLenient},
		{"invalid", PresetBalanced}, // Default
		{"", PresetBalanced},        // Default
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParsePreset(tt.input), "ParsePreset(%q)", tt.input)
	}
}

func TestPresetsAreValid(t *testing.T) {
	for preset, policy := range Presets {
		assert.NoError(t, policy.Validate(), "preset %s", preset)
		assert.Equal(t, string(preset), policy.Name)
	}
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Policy)
	}{
		{"zero critical ratio", func(p *Policy) { p.CriticalRatio = 0 }},
		{"ratio above one", func(p *Policy) { p.CriticalRatio = 1.5 }},
		{"major above critical", func(p *Policy) { p.MajorRatio = p.CriticalRatio + 0.1 }},
		{"fragmentation major below two", func(p *Policy) { p.FragmentationMajor = 1 }},
		{"fragmentation critical below major", func(p *Policy) { p.FragmentationCritical = p.FragmentationMajor - 1 }},
		{"unknown singleton severity", func(p *Policy) { p.SingletonSeverity = "bogus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestIslandSeverity(t *testing.T) {
	p := DefaultPolicy() // critical 0.40, major 0.20

	tests := []struct {
		name        string
		size, total int
		want        domain.Severity
	}{
		{"half the vlan", 5, 10, domain.SeverityCritical},
		{"exactly critical", 4, 10, domain.SeverityCritical},
		{"between thresholds", 3, 10, domain.SeverityMajor},
		{"exactly major", 2, 10, domain.SeverityMajor},
		{"small cut-off", 1, 10, domain.SeverityMinor},
		{"singleton in pair", 1, 2, domain.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IslandSeverity(tt.size, tt.total))
		})
	}

	t.Run("singleton override", func(t *testing.T) {
		lenient := PresetLenient.Policy()
		assert.Equal(t, domain.SeverityMinor, lenient.IslandSeverity(1, 2))
		assert.Equal(t, domain.SeverityCritical, lenient.IslandSeverity(2, 4))
	})
}

func TestFragmentation(t *testing.T) {
	p := DefaultPolicy() // critical 10, major 3

	assert.Equal(t, domain.SeverityNone, p.Fragmentation(0))
	assert.Equal(t, domain.SeverityNone, p.Fragmentation(1))
	assert.Equal(t, domain.SeverityMinor, p.Fragmentation(2))
	assert.Equal(t, domain.SeverityMajor, p.Fragmentation(3))
	assert.Equal(t, domain.SeverityMajor, p.Fragmentation(9))
	assert.Equal(t, domain.SeverityCritical, p.Fragmentation(10))
}
