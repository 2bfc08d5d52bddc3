package detect

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"vlanislands/internal/domain"
	"vlanislands/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func buildVlan(devices []string, links [][2]string, members []string) *graph.VlanGraph {
	topo := &domain.Topology{}
	for _, id := range devices {
		topo.Devices = append(topo.Devices, domain.Device{ID: id})
	}
	for _, l := range links {
		topo.Links = append(topo.Links, domain.Link{A: l[0], B: l[1]})
	}
	v := domain.VLAN{ID: "v1", Members: members}
	return graph.Build(topo, graph.Options{}).Vlan(v)
}

func TestDetectScenario(t *testing.T) {
	vg := buildVlan(
		[]string{"A", "B", "C", "D"},
		[][2]string{{"A", "B"}, {"C", "D"}},
		[]string{"A", "B", "C", "D"},
	)
	res := New(DefaultPolicy(), Options{}).Detect(vg)

	assert.False(t, res.Healthy())
	assert.Equal(t, 2, res.ComponentCount())
	require.Len(t, res.Components, 2)
	assert.Equal(t, []string{"A", "B"}, res.Components[0].Members)
	assert.Equal(t, domain.ClassMainSegment, res.Components[0].Classification)
	assert.Equal(t, domain.SeverityNone, res.Components[0].Severity)
	assert.Equal(t, []string{"C", "D"}, res.Components[1].Members)
	assert.Equal(t, domain.ClassPartitionedSegment, res.Components[1].Classification)
	assert.Equal(t, domain.SeverityCritical, res.Components[1].Severity)
	assert.Equal(t, domain.SeverityMinor, res.Fragmentation)
	assert.Len(t, res.Islands(), 1)
}

func TestDetectOrdering(t *testing.T) {
	// components: {E} {A} {B,C} {D,F,G}
	vg := buildVlan(
		[]string{"A", "B", "C", "D", "E", "F", "G"},
		[][2]string{{"B", "C"}, {"D", "F"}, {"F", "G"}},
		[]string{"E", "A", "B", "C", "D", "F", "G"},
	)
	res := New(DefaultPolicy(), Options{}).Detect(vg)

	var got [][]string
	for _, c := range res.Components {
		got = append(got, c.Members)
	}
	assert.Equal(t, [][]string{{"D", "F", "G"}, {"B", "C"}, {"A"}, {"E"}}, got)
	assert.Equal(t, domain.ClassIsolatedSingleton, res.Components[2].Classification)
	assert.Equal(t, domain.ClassIsolatedSingleton, res.Components[3].Classification)
	assert.Equal(t, domain.SeverityMajor, res.Fragmentation)
}

func TestDetectMainSegmentTieBreak(t *testing.T) {
	// numeric ids: "9" sorts before "10", so {9,11} is the main segment
	vg := buildVlan(
		[]string{"9", "10", "11", "12"},
		[][2]string{{"10", "12"}, {"9", "11"}},
		[]string{"9", "10", "11", "12"},
	)
	res := New(DefaultPolicy(), Options{}).Detect(vg)

	require.Len(t, res.Components, 2)
	assert.Equal(t, []string{"9", "11"}, res.Components[0].Members)
	assert.True(t, res.Components[0].IsMainSegment())
}

func TestDetectTrivialVlans(t *testing.T) {
	d := New(DefaultPolicy(), Options{})

	t.Run("empty vlan", func(t *testing.T) {
		res := d.Detect(buildVlan([]string{"A"}, nil, []string{}))
		assert.True(t, res.Healthy())
		assert.Equal(t, 0, res.ComponentCount())
		assert.Equal(t, 0, res.TotalDevices)
		assert.Equal(t, domain.SeverityNone, res.Fragmentation)
	})

	t.Run("single member", func(t *testing.T) {
		res := d.Detect(buildVlan([]string{"A", "B"}, nil, []string{"A"}))
		assert.True(t, res.Healthy())
		assert.Equal(t, 1, res.ComponentCount())
		assert.Nil(t, res.Islands())
	})
}

func TestDetectAllWorkers(t *testing.T) {
	topo := &domain.Topology{}
	for i := 0; i < 30; i++ {
		topo.Devices = append(topo.Devices, domain.Device{ID: fmt.Sprintf("d%02d", i)})
	}
	for i := 0; i < 29; i += 3 {
		topo.Links = append(topo.Links, domain.Link{A: fmt.Sprintf("d%02d", i), B: fmt.Sprintf("d%02d", i+1)})
	}
	for v := 0; v < 12; v++ {
		vlan := domain.VLAN{ID: fmt.Sprint(v)}
		for i := v; i < 30; i += v + 1 {
			vlan.Members = append(vlan.Members, fmt.Sprintf("d%02d", i))
		}
		topo.Vlans = append(topo.Vlans, vlan)
	}
	g := graph.Build(topo, graph.Options{})
	vlans := g.Vlans(topo)

	sequential, err := New(DefaultPolicy(), Options{}).DetectAll(context.Background(), vlans)
	require.NoError(t, err)

	parallel, err := New(DefaultPolicy(), Options{Workers: 4}).DetectAll(context.Background(), vlans)
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(DefaultPolicy(), Options{}).DetectAll(ctx, vlans)
		assert.ErrorIs(t, err, context.Canceled)

		_, err = New(DefaultPolicy(), Options{Workers: 4}).DetectAll(ctx, vlans)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// randomVlan draws a small topology and one VLAN over it
func randomVlan(t *rapid.T) ([]string, [][2]string, []string) {
	n := rapid.IntRange(1, 12).Draw(t, "devices")
	devices := make([]string, n)
	for i := range devices {
		devices[i] = fmt.Sprint(i)
	}

	var links [][2]string
	pairs := rapid.SliceOfN(rapid.IntRange(0, n*n-1), 0, 2*n).Draw(t, "links")
	for _, p := range pairs {
		a, b := p/n, p%n
		if a != b {
			links = append(links, [2]string{devices[a], devices[b]})
		}
	}

	var members []string
	for i, d := range devices {
		if rapid.Bool().Draw(t, fmt.Sprintf("member%d", i)) {
			members = append(members, d)
		}
	}
	return devices, links, members
}

func TestPartitionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		devices, links, members := randomVlan(t)
		res := New(DefaultPolicy(), Options{}).Detect(buildVlan(devices, links, members))

		var union []string
		total := 0
		for _, c := range res.Components {
			if c.Size != len(c.Members) {
				t.Fatalf("size %d does not match members %v", c.Size, c.Members)
			}
			union = append(union, c.Members...)
			total += c.Size
		}
		sort.Strings(union)
		want := append([]string(nil), members...)
		sort.Strings(want)

		if len(union) != len(want) {
			t.Fatalf("components cover %v, vlan has %v", union, want)
		}
		for i := range want {
			if union[i] != want[i] {
				t.Fatalf("components cover %v, vlan has %v", union, want)
			}
		}
		if total != res.TotalDevices {
			t.Fatalf("sizes sum to %d, total devices %d", total, res.TotalDevices)
		}
		if res.Healthy() != (res.ComponentCount() <= 1) {
			t.Fatalf("healthy flag inconsistent with %d components", res.ComponentCount())
		}
	})
}

func TestOrderingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		devices, links, members := randomVlan(t)
		res := New(DefaultPolicy(), Options{}).Detect(buildVlan(devices, links, members))

		for i := 1; i < len(res.Components); i++ {
			prev, cur := res.Components[i-1], res.Components[i]
			if prev.Size < cur.Size {
				t.Fatalf("component %d larger than its predecessor", i)
			}
			if prev.Size == cur.Size && domain.CompareIDs(prev.Members[0], cur.Members[0]) > 0 {
				t.Fatalf("tie not broken by lowest id: %v before %v", prev.Members, cur.Members)
			}
			if cur.IsMainSegment() {
				t.Fatalf("only the first component may be the main segment")
			}
		}
	})
}

func TestFullyConnectedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(t, "devices")
		devices := make([]string, n)
		for i := range devices {
			devices[i] = fmt.Sprintf("sw%d", i)
		}
		// a path touches every device
		var links [][2]string
		for i := 1; i < n; i++ {
			links = append(links, [2]string{devices[i-1], devices[i]})
		}

		res := New(DefaultPolicy(), Options{}).Detect(buildVlan(devices, links, devices))
		if res.ComponentCount() != 1 || !res.Healthy() {
			t.Fatalf("connected vlan reported %d components", res.ComponentCount())
		}
	})
}

func TestLinkRemovalProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// k chains joined in a path by bridge links; removing the bridges yields k fragments
		k := rapid.IntRange(2, 5).Draw(t, "groups")
		var devices []string
		var chainLinks, bridges [][2]string
		var heads, tails []string

		for g := 0; g < k; g++ {
			size := rapid.IntRange(1, 4).Draw(t, fmt.Sprintf("size%d", g))
			for i := 0; i < size; i++ {
				id := fmt.Sprintf("g%d-%d", g, i)
				devices = append(devices, id)
				if i > 0 {
					chainLinks = append(chainLinks, [2]string{fmt.Sprintf("g%d-%d", g, i-1), id})
				}
			}
			heads = append(heads, fmt.Sprintf("g%d-0", g))
			tails = append(tails, fmt.Sprintf("g%d-%d", g, size-1))
		}
		for g := 1; g < k; g++ {
			bridges = append(bridges, [2]string{tails[g-1], heads[g]})
		}

		d := New(DefaultPolicy(), Options{})
		before := d.Detect(buildVlan(devices, append(append([][2]string(nil), chainLinks...), bridges...), devices))
		after := d.Detect(buildVlan(devices, chainLinks, devices))

		if before.ComponentCount() != 1 {
			t.Fatalf("expected joined groups to be one component, got %d", before.ComponentCount())
		}
		if after.ComponentCount()-before.ComponentCount() != k-1 {
			t.Fatalf("expected %d additional components, got %d", k-1, after.ComponentCount()-before.ComponentCount())
		}
		sum := 0
		for _, c := range after.Components {
			sum += c.Size
		}
		if sum != len(devices) {
			t.Fatalf("fragments sum to %d, want %d", sum, len(devices))
		}
	})
}
