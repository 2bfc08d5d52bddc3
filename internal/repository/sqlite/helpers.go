package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"vlanislands/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals a value to a nullable JSON string
func marshalToNull(v interface{}) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	if r, ok := v.(*domain.Report); ok && r == nil {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to the runs table:
// 1. Add field to runRow struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update runColumns constant - APPEND to end
// 4. Update toDomain() to map new field to domain.Run
// 5. Update SaveRun insert
// 6. Add an ALTER TABLE step to migrate() for existing databases
//
// CRITICAL: Column order must match between runColumns and scanArgs().

// ============================================================================
// Run Row Scanner
// ============================================================================

// runRow holds all columns from a run query for scanning
type runRow struct {
	ID             string
	Source         sql.NullString
	Policy         string
	InputDigest    string
	ReportDigest   string
	DeviceCount    int
	LinkCount      int
	VlanCount      int
	UnhealthyCount int
	TotalIslands   int
	CreatedAt      int64
	ReportJSON     sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match runColumns (plus report when selected) order exactly
func (r *runRow) scanArgs(withReport bool) []interface{} {
	args := []interface{}{
		&r.ID,             // 1
		&r.Source,         // 2
		&r.Policy,         // 3
		&r.InputDigest,    // 4
		&r.ReportDigest,   // 5
		&r.DeviceCount,    // 6
		&r.LinkCount,      // 7
		&r.VlanCount,      // 8
		&r.UnhealthyCount, // 9
		&r.TotalIslands,   // 10
		&r.CreatedAt,      // 11
	}
	if withReport {
		args = append(args, &r.ReportJSON) // 12
	}
	return args
}

// toDomain converts the scanned row to a domain.Run
func (r *runRow) toDomain() (*domain.Run, error) {
	run := &domain.Run{
		ID:             r.ID,
		Source:         nullToString(r.Source),
		Policy:         r.Policy,
		InputDigest:    r.InputDigest,
		ReportDigest:   r.ReportDigest,
		DeviceCount:    r.DeviceCount,
		LinkCount:      r.LinkCount,
		VlanCount:      r.VlanCount,
		UnhealthyCount: r.UnhealthyCount,
		TotalIslands:   r.TotalIslands,
		CreatedAt:      time.Unix(0, r.CreatedAt).UTC(),
	}

	if r.ReportJSON.Valid && r.ReportJSON.String != "" {
		run.Report = &domain.Report{}
		if err := unmarshalJSONField(r.ReportJSON, run.Report); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
	}

	return run, nil
}

// runColumns returns the SELECT column list for run summary queries
const runColumns = `id, source, policy, input_digest, report_digest,
	device_count, link_count, vlan_count, unhealthy_count, total_islands, created_at`
