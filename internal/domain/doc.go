// Package domain defines the core domain types for the VLAN island detection engine.
//
// This package contains the entities and value objects shared by every stage
// of the pipeline: the raw input document, the validated topology, the
// detection report and the persisted analysis run.
//
// # Core Types
//
// Device is a network element identified by a unique id. Link is an
// unordered physical connection between two devices. VLAN lists the devices
// that carry a VLAN on at least one interface.
//
// Document is the decoded but unvalidated input. Topology is the validated
// form produced by the loader: devices sorted by id, links normalized and
// deduplicated per status, VLAN members deduplicated.
//
// # Reports
//
// Report maps each VLAN id to a VlanReport describing its connected
// components (Islands) and carries a global Summary. Islands within a VLAN
// partition its member set.
//
// # Identifiers
//
// Identifiers are strings. CompareIDs orders them naturally so that numeric
// ids sort numerically ("2" before "10") and everything else lexically.
//
// # Design Principles
//
// - Immutable value objects once loaded
// - No database or external dependencies
// - Pure domain logic without infrastructure concerns
package domain
