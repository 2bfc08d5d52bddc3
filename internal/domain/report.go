package domain

// Severity grades an island or a fragmented VLAN
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from none (0) to critical (3)
func (s Severity) Rank() int {
	switch s {
	case SeverityMinor:
		return 1
	case SeverityMajor:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	switch s {
	case SeverityNone, SeverityMinor, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}

// Classification labels a connected component of a VLAN graph
type Classification string

const (
	// ClassMainSegment is the largest component of a VLAN
	ClassMainSegment Classification = "main-segment"
	// ClassIsolatedSingleton is a single device cut off from the main segment
	ClassIsolatedSingleton Classification = "isolated-singleton"
	// ClassPartitionedSegment is a multi-device group cut off from the main segment
	ClassPartitionedSegment Classification = "partitioned-segment"
)

// Island is one connected component of a VLAN graph
type Island struct {
	Members        []string       `json:"members" yaml:"members"`
	Size           int            `json:"size" yaml:"size"`
	Severity       Severity       `json:"severity" yaml:"severity"`
	Classification Classification `json:"classification" yaml:"classification"`
}

// IsMainSegment reports whether the island is the VLAN's main segment
func (i Island) IsMainSegment() bool {
	return i.Classification == ClassMainSegment
}

// VlanReport summarizes the connectivity of one VLAN.
//
// Islands lists every component, main segment first, so that member sets
// partition the VLAN. A VLAN is healthy when it has at most one component.
type VlanReport struct {
	Name           string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty"`
	Healthy        bool     `json:"healthy" yaml:"healthy"`
	TotalDevices   int      `json:"totalDevices" yaml:"totalDevices"`
	ComponentCount int      `json:"componentCount" yaml:"componentCount"`
	Fragmentation  Severity `json:"fragmentation" yaml:"fragmentation"`
	Islands        []Island `json:"islands" yaml:"islands"`
}

// IslandCount returns the number of components beyond the main segment
func (v VlanReport) IslandCount() int {
	if v.ComponentCount <= 1 {
		return 0
	}
	return v.ComponentCount - 1
}

// Summary aggregates a report across VLANs
type Summary struct {
	VlanCount      int      `json:"vlanCount" yaml:"vlanCount"`
	UnhealthyVlans []string `json:"unhealthyVlans" yaml:"unhealthyVlans"`
	TotalIslands   int      `json:"totalIslands" yaml:"totalIslands"`
}

// Report is the serializable detection result
type Report struct {
	Vlans   map[string]VlanReport `json:"vlans" yaml:"vlans"`
	Summary Summary               `json:"summary" yaml:"summary"`
}

// VlanIDs returns the report's VLAN ids in natural order
func (r *Report) VlanIDs() []string {
	ids := make([]string, 0, len(r.Vlans))
	for id := range r.Vlans {
		ids = append(ids, id)
	}
	SortIDs(ids)
	return ids
}
