package assistant

import (
	"fmt"
	"strings"

	"vlanislands/internal/domain"
)

const (
	// islands listed per VLAN before the rest are summarized
	previewIslands = 3
	// members listed per island preview
	previewMembers = 3
	// above this many components only the main segment is spelled out
	heavyFragmentation = 15
)

// BuildContext renders a report as plain-text context for the model
func BuildContext(rep *domain.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current network analysis summary:\n")
	fmt.Fprintf(&b, "- VLANs examined: %d\n", rep.Summary.VlanCount)
	fmt.Fprintf(&b, "- VLANs with islands: %d\n", len(rep.Summary.UnhealthyVlans))
	fmt.Fprintf(&b, "- Islands detected (beyond each main segment): %d\n\n", rep.Summary.TotalIslands)

	if len(rep.Summary.UnhealthyVlans) == 0 {
		b.WriteString("No VLAN islands were detected; every VLAN is contiguous.\n")
		return b.String()
	}

	var critical, major, minor []string
	for _, id := range rep.Summary.UnhealthyVlans {
		switch rep.Vlans[id].Fragmentation {
		case domain.SeverityCritical:
			critical = append(critical, id)
		case domain.SeverityMajor:
			major = append(major, id)
		default:
			minor = append(minor, id)
		}
	}

	if len(critical) > 0 {
		b.WriteString("CRITICAL - heavily fragmented VLANs:\n")
		for _, id := range critical {
			v := rep.Vlans[id]
			writeVlanHeader(&b, id, v)
			if v.ComponentCount > heavyFragmentation {
				fmt.Fprintf(&b, "    Main segment: %s\n", preview(v.Islands[0].Members, 0))
				fmt.Fprintf(&b, "    Separate islands: %d\n", v.ComponentCount-1)
				continue
			}
			for i, island := range v.Islands {
				if i == previewIslands {
					fmt.Fprintf(&b, "    ... and %d more components\n", len(v.Islands)-previewIslands)
					break
				}
				writeIsland(&b, i, island, false)
			}
		}
		b.WriteString("\n")
	}

	if len(major) > 0 {
		b.WriteString("MAJOR - multi-island VLANs:\n")
		for _, id := range major {
			v := rep.Vlans[id]
			writeVlanHeader(&b, id, v)
			for i, island := range v.Islands {
				writeIsland(&b, i, island, true)
			}
		}
		b.WriteString("\n")
	}

	if len(minor) > 0 {
		b.WriteString("MINOR - split VLANs:\n")
		for _, id := range minor {
			v := rep.Vlans[id]
			writeVlanHeader(&b, id, v)
			for i, island := range v.Islands {
				fmt.Fprintf(&b, "    Component %d (%s): %s\n", i+1, island.Classification, preview(island.Members, 0))
			}
		}
		b.WriteString("\n")
	}

	if patterns := Patterns(rep); len(patterns) > 0 {
		b.WriteString("PATTERN ANALYSIS:\n")
		for _, p := range patterns {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}

	return b.String()
}

func writeVlanHeader(b *strings.Builder, id string, v domain.VlanReport) {
	name := ""
	if v.Name != "" {
		name = " (" + v.Name + ")"
	}
	fmt.Fprintf(b, "  VLAN %s%s: %d components across %d devices\n", id, name, v.ComponentCount, v.TotalDevices)
}

func writeIsland(b *strings.Builder, i int, island domain.Island, members bool) {
	if !members {
		fmt.Fprintf(b, "    Component %d (%s, %s): %d devices\n", i+1, island.Classification, island.Severity, island.Size)
		return
	}
	fmt.Fprintf(b, "    Component %d (%s, %s): %s\n", i+1, island.Classification, island.Severity, preview(island.Members, previewMembers))
}

// preview lists up to limit members, 0 meaning all
func preview(members []string, limit int) string {
	if limit <= 0 || len(members) <= limit {
		return "[" + strings.Join(members, ", ") + "]"
	}
	return fmt.Sprintf("[%s] (+%d more)", strings.Join(members[:limit], ", "), len(members)-limit)
}

// Patterns recognizes common causes from VLAN names and device ids
func Patterns(rep *domain.Report) []string {
	var wifi, camera, iot, dflt []string
	wifiIslands := 0

	for _, id := range rep.Summary.UnhealthyVlans {
		v := rep.Vlans[id]
		name := strings.ToLower(v.Name)
		switch {
		case strings.Contains(name, "wifi") || strings.Contains(name, "wireless"):
			wifi = append(wifi, id)
			wifiIslands += v.IslandCount()
		case strings.Contains(name, "security") || strings.Contains(name, "camera"):
			camera = append(camera, id)
		case strings.Contains(name, "iot"):
			iot = append(iot, id)
		}
		if id == "1" || strings.Contains(name, "default") {
			dflt = append(dflt, id)
		}
	}

	var out []string
	if len(wifi) > 0 {
		out = append(out, fmt.Sprintf("WiFi VLANs fragmented: %d VLANs (%s) with %d islands; access points appear cut off from their controllers",
			len(wifi), strings.Join(wifi, ", "), wifiIslands))
	}
	if len(camera) > 0 {
		out = append(out, fmt.Sprintf("Security camera VLANs fragmented: %s; cameras may be isolated from recording and monitoring systems",
			strings.Join(camera, ", ")))
	}
	if len(iot) > 0 {
		out = append(out, fmt.Sprintf("IoT VLANs fragmented: %s; devices may not reach their management systems",
			strings.Join(iot, ", ")))
	}
	for _, id := range dflt {
		msg := fmt.Sprintf("Default VLAN %s fragmented: infrastructure connectivity issue", id)
		for _, island := range rep.Vlans[id].Islands {
			for _, m := range island.Members {
				if strings.Contains(strings.ToLower(m), "dmz") {
					msg += fmt.Sprintf("; DMZ devices in %s component %s", island.Classification, preview(island.Members, previewMembers))
					break
				}
			}
		}
		out = append(out, msg)
	}

	return out
}

// SystemPrompt wraps report context in the assistant instructions
func SystemPrompt(reportContext string) string {
	return `You are an expert network engineer specializing in VLAN troubleshooting and enterprise network topology analysis.

` + reportContext + `
Help network administrators understand and resolve the VLAN islands above. A VLAN island is a group of devices carrying a VLAN that cannot reach the VLAN's main segment over links that also carry it.

When answering:
- Give clear, actionable guidance for enterprise switching equipment, with Cisco IOS style commands where useful.
- Explain the likely cause: missing trunk allowed-VLAN entries, pruning, access ports where trunks are expected, or STP blocking.
- Respect the core/distribution/access hierarchy suggested by device names.
- Warn about security and availability side effects of each change.
- Ask a clarifying question when the report does not contain enough detail.

You only diagnose and advise. Never claim that a change has been applied. Be concise but thorough.
`
}
