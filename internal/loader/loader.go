// Package loader turns decoded topology documents into validated topologies.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"vlanislands/internal/codec"
	"vlanislands/internal/domain"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	// report field names as they appear in the input document
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// LoadFile reads and validates a topology file. An empty format is
// inferred from the file extension.
func LoadFile(path, format string) (*domain.Topology, error) {
	if format == "" {
		format = codec.FormatFromPath(path)
	}
	if format == "" {
		return nil, fmt.Errorf("cannot infer format of %s: %w", path, codec.ErrUnknownFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open topology: %w", err)
	}
	defer f.Close()

	return Read(f, format)
}

// Read decodes a topology document in the given format and validates it
func Read(r io.Reader, format string) (*domain.Topology, error) {
	c, err := codec.ForFormat(format)
	if err != nil {
		return nil, err
	}

	doc, err := c.Parse(r)
	if err != nil {
		return nil, err
	}

	return Load(doc)
}

// Load validates a decoded document and returns its normalized topology.
//
// Absent sections, empty identifiers and duplicate device or VLAN ids fail
// with domain.ErrMalformedInput. A link or VLAN member naming an unknown
// device fails with a *domain.DanglingReferenceError. Repeated links between
// the same pair and repeated VLAN members collapse; self-loops carry no
// connectivity and are dropped.
func Load(doc *domain.Document) (*domain.Topology, error) {
	if doc == nil {
		return nil, domain.MalformedInput("no document")
	}

	if err := validate.Struct(doc); err != nil {
		return nil, formatValidationError(err)
	}

	devices := make(map[string]bool, len(doc.Devices))
	topo := &domain.Topology{
		Devices: make([]domain.Device, 0, len(doc.Devices)),
		Links:   make([]domain.Link, 0, len(doc.Links)),
		Vlans:   make([]domain.VLAN, 0, len(doc.Vlans)),
	}

	for _, d := range doc.Devices {
		if devices[d.ID] {
			return nil, domain.MalformedInput("duplicate device id %q", d.ID)
		}
		devices[d.ID] = true
		topo.Devices = append(topo.Devices, d)
	}

	// Parallel links collapse per status only; the graph builder drops
	// excluded statuses before it merges the survivors into one edge.
	type linkIdentity struct {
		key    domain.LinkKey
		status string
	}
	seenLinks := make(map[linkIdentity]bool, len(doc.Links))
	for _, l := range doc.Links {
		for _, end := range []string{l.A, l.B} {
			if !devices[end] {
				return nil, &domain.DanglingReferenceError{Kind: "link", Owner: l.String(), DeviceID: end}
			}
		}
		if l.IsSelfLoop() {
			continue
		}
		id := linkIdentity{key: l.Key(), status: strings.ToLower(l.Status)}
		if seenLinks[id] {
			continue
		}
		seenLinks[id] = true
		topo.Links = append(topo.Links, l.Normalized())
	}

	seenVlans := make(map[string]bool, len(doc.Vlans))
	for _, v := range doc.Vlans {
		if seenVlans[v.ID] {
			return nil, domain.MalformedInput("duplicate vlan id %q", v.ID)
		}
		seenVlans[v.ID] = true

		members := make([]string, 0, len(v.Members))
		seenMembers := make(map[string]bool, len(v.Members))
		for _, m := range v.Members {
			if !devices[m] {
				return nil, &domain.DanglingReferenceError{Kind: "vlan", Owner: v.ID, DeviceID: m}
			}
			if seenMembers[m] {
				continue
			}
			seenMembers[m] = true
			members = append(members, m)
		}
		domain.SortIDs(members)
		v.Members = members
		topo.Vlans = append(topo.Vlans, v)
	}

	sort.SliceStable(topo.Devices, func(i, j int) bool {
		return domain.CompareIDs(topo.Devices[i].ID, topo.Devices[j].ID) < 0
	})
	sort.SliceStable(topo.Links, func(i, j int) bool {
		a, b := topo.Links[i], topo.Links[j]
		if c := domain.CompareIDs(a.A, b.A); c != 0 {
			return c < 0
		}
		if c := domain.CompareIDs(a.B, b.B); c != 0 {
			return c < 0
		}
		return a.Status < b.Status
	})
	sort.SliceStable(topo.Vlans, func(i, j int) bool {
		return domain.CompareIDs(topo.Vlans[i].ID, topo.Vlans[j].ID) < 0
	})

	return topo, nil
}

// formatValidationError converts the first validator failure into a MalformedInput error
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return fmt.Errorf("%w: %w", domain.ErrMalformedInput, err)
	}

	e := validationErrs[0]
	field := strings.TrimPrefix(e.Namespace(), "Document.")

	switch e.Tag() {
	case "required":
		if e.Kind() == reflect.Slice {
			return domain.MalformedInput("missing %s list", field)
		}
		return domain.MalformedInput("%s: field is required", field)
	default:
		return domain.MalformedInput("%s: validation failed (%s)", field, e.Tag())
	}
}
