package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vlanislands/internal/codec"
	"vlanislands/internal/domain"
)

func mustRead(t *testing.T, input, format string) *domain.Topology {
	t.Helper()
	topo, err := Read(strings.NewReader(input), format)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return topo
}

func TestLoadMalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing devices", `{"links": [], "vlans": []}`, "missing devices list"},
		{"missing links", `{"devices": [], "vlans": []}`, "missing links list"},
		{"missing vlans", `{"devices": [], "links": []}`, "missing vlans list"},
		{"null devices", `{"devices": null, "links": [], "vlans": []}`, "missing devices list"},
		{"empty device id", `{"devices": [{"id": ""}], "links": [], "vlans": []}`, "devices[0].id"},
		{"empty link endpoint", `{"devices": [{"id": "A"}], "links": [{"a": "A"}], "vlans": []}`, "links[0].b"},
		{"vlan without members", `{"devices": [], "links": [], "vlans": [{"id": 1}]}`, "members"},
		{"duplicate device", `{"devices": [{"id": "A"}, {"id": "A"}], "links": [], "vlans": []}`, `duplicate device id "A"`},
		{"duplicate vlan", `{"devices": [], "links": [], "vlans": [{"id": 1, "members": []}, {"id": "1", "members": []}]}`, `duplicate vlan id "1"`},
		{"not an object", `[1, 2, 3]`, "parse JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), "json")
			if !errors.Is(err, domain.ErrMalformedInput) {
				t.Fatalf("expected ErrMalformedInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to mention %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestLoadDanglingReference(t *testing.T) {
	t.Run("link to unknown device", func(t *testing.T) {
		input := `{"devices": [{"id": "A"}], "links": [{"a": "A", "b": "ghost"}], "vlans": []}`
		_, err := Read(strings.NewReader(input), "json")

		var dre *domain.DanglingReferenceError
		if !errors.As(err, &dre) {
			t.Fatalf("expected DanglingReferenceError, got %v", err)
		}
		if dre.DeviceID != "ghost" || dre.Kind != "link" {
			t.Errorf("expected link reference to ghost, got %+v", dre)
		}
		if errors.Is(err, domain.ErrMalformedInput) {
			t.Error("dangling reference must not be reported as malformed input")
		}
	})

	t.Run("vlan member unknown", func(t *testing.T) {
		input := `{"devices": [{"id": "A"}], "links": [], "vlans": [{"id": 5, "members": ["A", "B"]}]}`
		_, err := Read(strings.NewReader(input), "json")

		var dre *domain.DanglingReferenceError
		if !errors.As(err, &dre) {
			t.Fatalf("expected DanglingReferenceError, got %v", err)
		}
		if dre.DeviceID != "B" || dre.Kind != "vlan" || dre.Owner != "5" {
			t.Errorf("unexpected reference %+v", dre)
		}
	})

	t.Run("self loop to unknown device", func(t *testing.T) {
		input := `{"devices": [], "links": [{"a": "X", "b": "X"}], "vlans": []}`
		_, err := Read(strings.NewReader(input), "json")
		if !errors.Is(err, domain.ErrDanglingReference) {
			t.Errorf("expected ErrDanglingReference, got %v", err)
		}
	})
}

func TestLoadKeepsParallelLinksWithDifferentStatus(t *testing.T) {
	input := `{
		"devices": [{"id": "A"}, {"id": "B"}],
		"links": [
			{"a": "A", "b": "B", "status": "down"},
			{"a": "B", "b": "A", "status": "UP"},
			{"a": "A", "b": "B", "status": "up"}
		],
		"vlans": [{"id": 1, "members": ["A", "B"]}]
	}`
	topo := mustRead(t, input, "json")

	if len(topo.Links) != 2 {
		t.Fatalf("expected down and up links to survive, got %v", topo.Links)
	}
	if topo.Links[0].Status != "UP" || topo.Links[1].Status != "down" {
		t.Errorf("unexpected statuses %q, %q", topo.Links[0].Status, topo.Links[1].Status)
	}
}

func TestLoadDropsSelfLoops(t *testing.T) {
	topo := mustRead(t, `{"devices": [{"id": "A"}], "links": [{"a": "A", "b": "A"}], "vlans": []}`, "json")
	if len(topo.Links) != 0 {
		t.Errorf("expected self loop to be dropped, got %v", topo.Links)
	}
}

func TestLoadNormalizes(t *testing.T) {
	input := `{
		"devices": [{"id": "10"}, {"id": "2"}, {"id": "core"}],
		"links": [
			{"a": "core", "b": "2"},
			{"a": "2", "b": "core", "status": "down"},
			{"source": "10", "target": "2"},
			{"a": "10", "b": "10"}
		],
		"vlans": [
			{"id": 20, "members": ["core", "2", "2"]},
			{"id": 3, "members": []}
		]
	}`
	topo := mustRead(t, input, "json")

	t.Run("devices sorted naturally", func(t *testing.T) {
		got := []string{topo.Devices[0].ID, topo.Devices[1].ID, topo.Devices[2].ID}
		if strings.Join(got, ",") != "2,10,core" {
			t.Errorf("expected 2,10,core, got %v", got)
		}
	})

	t.Run("links deduplicated per status and normalized", func(t *testing.T) {
		if len(topo.Links) != 3 {
			t.Fatalf("expected 3 links, got %d: %v", len(topo.Links), topo.Links)
		}
		got := []string{topo.Links[0].String(), topo.Links[1].String(), topo.Links[2].String()}
		if strings.Join(got, ",") != "2-10,2-core,2-core" {
			t.Errorf("unexpected links %v", topo.Links)
		}
		if topo.Links[1].Status != "" || topo.Links[2].Status != domain.LinkStatusDown {
			t.Errorf("expected parallel links ordered by status, got %q and %q",
				topo.Links[1].Status, topo.Links[2].Status)
		}
	})

	t.Run("self loops dropped", func(t *testing.T) {
		for _, l := range topo.Links {
			if l.IsSelfLoop() {
				t.Errorf("unexpected self loop %s", l.String())
			}
		}
	})

	t.Run("vlans sorted with unique members", func(t *testing.T) {
		if topo.Vlans[0].ID != "3" || topo.Vlans[1].ID != "20" {
			t.Fatalf("expected vlans 3,20, got %s,%s", topo.Vlans[0].ID, topo.Vlans[1].ID)
		}
		if strings.Join(topo.Vlans[1].Members, ",") != "2,core" {
			t.Errorf("expected members 2,core, got %v", topo.Vlans[1].Members)
		}
		if len(topo.Vlans[0].Members) != 0 {
			t.Errorf("expected empty VLAN to stay empty, got %v", topo.Vlans[0].Members)
		}
	})

	t.Run("memberships flatten vlans", func(t *testing.T) {
		if len(topo.Memberships()) != 2 {
			t.Errorf("expected 2 memberships, got %v", topo.Memberships())
		}
		if strings.Join(topo.VlansOf("core"), ",") != "20" {
			t.Errorf("expected core in vlan 20, got %v", topo.VlansOf("core"))
		}
	})
}

func TestLoadEmptyDocument(t *testing.T) {
	topo, err := Load(domain.NewDocument())
	if err != nil {
		t.Fatalf("expected empty document to load, got %v", err)
	}
	if len(topo.Devices) != 0 || len(topo.Vlans) != 0 {
		t.Errorf("expected empty topology, got %+v", topo)
	}

	if _, err := Load(nil); !errors.Is(err, domain.ErrMalformedInput) {
		t.Errorf("expected ErrMalformedInput for nil document, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("infers format from extension", func(t *testing.T) {
		path := filepath.Join(dir, "net.yaml")
		content := "devices: [{id: A}]\nlinks: []\nvlans: [{id: 1, members: [A]}]\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		topo, err := LoadFile(path, "")
		if err != nil {
			t.Fatalf("LoadFile failed: %v", err)
		}
		if len(topo.Vlans) != 1 {
			t.Errorf("expected 1 vlan, got %d", len(topo.Vlans))
		}
	})

	t.Run("unknown extension without format", func(t *testing.T) {
		path := filepath.Join(dir, "net.txt")
		if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadFile(path, "")
		if !errors.Is(err, codec.ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat, got %v", err)
		}

		if _, err := LoadFile(path, "json"); err == nil {
			t.Error("expected explicit format to be used and fail on missing sections")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFile(filepath.Join(dir, "absent.json"), ""); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
