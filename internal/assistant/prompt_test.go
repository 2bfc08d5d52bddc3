package assistant

import (
	"fmt"
	"testing"

	"vlanislands/internal/domain"

	"github.com/stretchr/testify/assert"
)

func fragmentedVlan(name string, components int, level domain.Severity) domain.VlanReport {
	v := domain.VlanReport{Name: name, ComponentCount: components, Fragmentation: level}
	for i := 0; i < components; i++ {
		island := domain.Island{Members: []string{fmt.Sprintf("dev%d", i)}, Size: 1, Classification: domain.ClassIsolatedSingleton}
		if i == 0 {
			island = domain.Island{Members: []string{"core1", "core2", "dmz-fw", "dist1"}, Size: 4, Classification: domain.ClassMainSegment}
		}
		v.Islands = append(v.Islands, island)
		v.TotalDevices += island.Size
	}
	return v
}

func TestBuildContext(t *testing.T) {
	rep := &domain.Report{
		Vlans: map[string]domain.VlanReport{
			"1":  fragmentedVlan("Default", 2, domain.SeverityMinor),
			"20": fragmentedVlan("Guest-WiFi", 12, domain.SeverityCritical),
			"30": fragmentedVlan("Security-Cameras", 4, domain.SeverityMajor),
			"40": fragmentedVlan("IoT-Sensors", 20, domain.SeverityCritical),
		},
		Summary: domain.Summary{VlanCount: 4, UnhealthyVlans: []string{"1", "20", "30", "40"}, TotalIslands: 34},
	}

	ctx := BuildContext(rep)

	assert.Contains(t, ctx, "VLANs with islands: 4")
	assert.Contains(t, ctx, "CRITICAL - heavily fragmented VLANs:")
	assert.Contains(t, ctx, "VLAN 20 (Guest-WiFi): 12 components")
	assert.Contains(t, ctx, "... and 9 more components")
	assert.Contains(t, ctx, "Separate islands: 19")
	assert.Contains(t, ctx, "MAJOR - multi-island VLANs:")
	assert.Contains(t, ctx, "[core1, core2, dmz-fw] (+1 more)")
	assert.Contains(t, ctx, "MINOR - split VLANs:")

	assert.Contains(t, ctx, "WiFi VLANs fragmented: 1 VLANs (20) with 11 islands")
	assert.Contains(t, ctx, "Security camera VLANs fragmented: 30")
	assert.Contains(t, ctx, "IoT VLANs fragmented: 40")
	assert.Contains(t, ctx, "Default VLAN 1 fragmented")
	assert.Contains(t, ctx, "DMZ devices")
}

func TestBuildContextHealthy(t *testing.T) {
	rep := &domain.Report{
		Vlans:   map[string]domain.VlanReport{"10": {Healthy: true, TotalDevices: 3, ComponentCount: 1}},
		Summary: domain.Summary{VlanCount: 1, UnhealthyVlans: []string{}},
	}

	ctx := BuildContext(rep)
	assert.Contains(t, ctx, "No VLAN islands were detected")
	assert.NotContains(t, ctx, "PATTERN ANALYSIS")
}

func TestSystemPromptEmbedsContext(t *testing.T) {
	prompt := SystemPrompt("CONTEXT-MARKER\n")
	assert.Contains(t, prompt, "CONTEXT-MARKER")
	assert.Contains(t, prompt, "network engineer")
}
