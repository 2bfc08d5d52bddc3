package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"vlanislands/internal/domain"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for an unsupported output format
var ErrUnknownFormat = errors.New("unknown report format")

// Output formats
const (
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatText    = "text"
	FormatMermaid = "mermaid"
)

// Formats lists the supported output formats
func Formats() []string {
	return []string{FormatJSON, FormatYAML, FormatText, FormatMermaid}
}

// ContentType returns the media type of a format
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Write renders the report in the given format
func Write(w io.Writer, rep *domain.Report, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return WriteJSON(w, rep)
	case FormatYAML, "yml":
		return WriteYAML(w, rep)
	case FormatText:
		return WriteText(w, rep)
	case FormatMermaid:
		return WriteMermaid(w, rep)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteJSON writes the report as indented JSON. Map keys are sorted by the
// encoder, so equal reports encode to identical bytes.
func WriteJSON(w io.Writer, rep *domain.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteYAML writes the report as YAML
func WriteYAML(w io.Writer, rep *domain.Report) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}

// WriteText writes a human-readable summary of the report
func WriteText(w io.Writer, rep *domain.Report) error {
	fmt.Fprintf(w, "VLANs examined: %d\n", rep.Summary.VlanCount)
	fmt.Fprintf(w, "Unhealthy VLANs: %d\n", len(rep.Summary.UnhealthyVlans))
	fmt.Fprintf(w, "Islands found: %d\n\n", rep.Summary.TotalIslands)

	if len(rep.Summary.UnhealthyVlans) == 0 {
		fmt.Fprintln(w, "No VLAN islands detected.")
		return nil
	}

	for _, e := range Unhealthy(rep) {
		fmt.Fprintf(w, "=== VLAN %s%s [%s] (%d devices, %d components) ===\n",
			e.ID, nameSuffix(e.Name), e.Fragmentation, e.TotalDevices, e.ComponentCount)
		for i, island := range e.Islands {
			label := string(island.Severity)
			if island.IsMainSegment() {
				label = "main"
			}
			fmt.Fprintf(w, "  %d. %-8s %-20s size=%d %s\n",
				i+1, label, island.Classification, island.Size, strings.Join(island.Members, ", "))
		}
		fmt.Fprintln(w)
	}

	return nil
}

// WriteMermaid writes unhealthy VLANs as a Mermaid flowchart, one subgraph per component
func WriteMermaid(w io.Writer, rep *domain.Report) error {
	fmt.Fprintln(w, "graph TD")

	entries := Unhealthy(rep)
	for i, e := range entries {
		fmt.Fprintf(w, "    subgraph vlan_%s[\"VLAN %s%s\"]\n", mermaidID(e.ID), e.ID, nameSuffix(e.Name))
		for j, island := range e.Islands {
			fmt.Fprintf(w, "        subgraph vlan_%s_c%d[\"%s (%s)\"]\n",
				mermaidID(e.ID), j+1, island.Classification, island.Severity)
			for _, m := range island.Members {
				fmt.Fprintf(w, "            vlan_%s_%s[\"%s\"]\n", mermaidID(e.ID), mermaidID(m), m)
			}
			fmt.Fprintln(w, "        end")
		}
		fmt.Fprintln(w, "    end")
		if i < len(entries)-1 {
			fmt.Fprintln(w)
		}
	}

	return nil
}

func nameSuffix(name string) string {
	if name == "" {
		return ""
	}
	return " (" + name + ")"
}

// mermaidID converts an identifier to a Mermaid-safe node id
func mermaidID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
