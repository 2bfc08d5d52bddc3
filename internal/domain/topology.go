package domain

// Topology is a validated input snapshot.
//
// Devices are sorted by id, links are normalized (A before B) and
// deduplicated per endpoint pair and status, VLANs are sorted by id with deduplicated, sorted members.
// A Topology is never mutated after the loader returns it.
type Topology struct {
	Devices []Device `json:"devices"`
	Links   []Link   `json:"links"`
	Vlans   []VLAN   `json:"vlans"`
}

// Device looks up a device by id
func (t *Topology) Device(id string) (Device, bool) {
	for _, d := range t.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return Device{}, false
}

// Vlan looks up a VLAN by id
func (t *Topology) Vlan(id string) (VLAN, bool) {
	for _, v := range t.Vlans {
		if v.ID == id {
			return v, true
		}
	}
	return VLAN{}, false
}

// Memberships flattens VLAN members into (device, VLAN) pairs, ordered by VLAN then device
func (t *Topology) Memberships() []VlanMembership {
	var out []VlanMembership
	for _, v := range t.Vlans {
		for _, m := range v.Members {
			out = append(out, VlanMembership{DeviceID: m, VlanID: v.ID})
		}
	}
	return out
}

// VlansOf returns the ids of VLANs carried by a device
func (t *Topology) VlansOf(deviceID string) []string {
	var out []string
	for _, v := range t.Vlans {
		for _, m := range v.Members {
			if m == deviceID {
				out = append(out, v.ID)
				break
			}
		}
	}
	return out
}

// Document returns the topology as a document with every section present
func (t *Topology) Document() *Document {
	doc := NewDocument()
	for _, d := range t.Devices {
		doc.AddDevice(d)
	}
	for _, l := range t.Links {
		doc.AddLink(l)
	}
	for _, v := range t.Vlans {
		doc.AddVlan(v)
	}
	return doc
}
