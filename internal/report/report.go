// Package report assembles detection results into the serializable report
// and renders it. Nothing here performs I/O beyond the writer it is handed.
package report

import (
	"vlanislands/internal/detect"
	"vlanislands/internal/domain"
)

// Generate builds a report from detection results. It is a pure function:
// equal results always produce equal reports.
func Generate(results []detect.Result) *domain.Report {
	rep := &domain.Report{
		Vlans: make(map[string]domain.VlanReport, len(results)),
		Summary: domain.Summary{
			VlanCount:      len(results),
			UnhealthyVlans: make([]string, 0),
		},
	}

	for _, res := range results {
		islands := make([]domain.Island, 0, len(res.Components))
		for _, c := range res.Components {
			islands = append(islands, domain.Island{
				Members:        append([]string(nil), c.Members...),
				Size:           c.Size,
				Severity:       c.Severity,
				Classification: c.Classification,
			})
		}

		vr := domain.VlanReport{
			Name:           res.Vlan.Name,
			Description:    res.Vlan.Description,
			Healthy:        res.Healthy(),
			TotalDevices:   res.TotalDevices,
			ComponentCount: res.ComponentCount(),
			Fragmentation:  res.Fragmentation,
			Islands:        islands,
		}
		rep.Vlans[res.Vlan.ID] = vr

		if !vr.Healthy {
			rep.Summary.UnhealthyVlans = append(rep.Summary.UnhealthyVlans, res.Vlan.ID)
			rep.Summary.TotalIslands += vr.IslandCount()
		}
	}

	domain.SortIDs(rep.Summary.UnhealthyVlans)
	return rep
}

// Unhealthy returns the fragmented VLAN entries in natural id order
func Unhealthy(rep *domain.Report) []Entry {
	var out []Entry
	for _, id := range rep.Summary.UnhealthyVlans {
		out = append(out, Entry{ID: id, VlanReport: rep.Vlans[id]})
	}
	return out
}

// Entry pairs a VLAN id with its report
type Entry struct {
	ID string
	domain.VlanReport
}

// Entries returns every VLAN entry in natural id order
func Entries(rep *domain.Report) []Entry {
	ids := rep.VlanIDs()
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, Entry{ID: id, VlanReport: rep.Vlans[id]})
	}
	return out
}
