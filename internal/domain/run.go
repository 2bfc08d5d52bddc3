package domain

import "time"

// Run is a persisted analysis of one input snapshot
type Run struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	Policy         string    `json:"policy"`
	InputDigest    string    `json:"input_digest"`
	ReportDigest   string    `json:"report_digest"`
	DeviceCount    int       `json:"device_count"`
	LinkCount      int       `json:"link_count"`
	VlanCount      int       `json:"vlan_count"`
	UnhealthyCount int       `json:"unhealthy_count"`
	TotalIslands   int       `json:"total_islands"`
	Report         *Report   `json:"report,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Healthy reports whether every VLAN in the run was healthy
func (r *Run) Healthy() bool {
	return r.UnhealthyCount == 0
}
