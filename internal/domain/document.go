package domain

// Document is a decoded input description before validation.
//
// A nil slice means the section was absent from the input; an empty,
// non-nil slice means it was present and empty. The loader rejects
// absent sections.
type Document struct {
	Devices []Device `json:"devices" yaml:"devices" validate:"required,dive"`
	Links   []Link   `json:"links" yaml:"links" validate:"required,dive"`
	Vlans   []VLAN   `json:"vlans" yaml:"vlans" validate:"required,dive"`
}

// NewDocument creates an empty document with every section present
func NewDocument() *Document {
	return &Document{
		Devices: make([]Device, 0),
		Links:   make([]Link, 0),
		Vlans:   make([]VLAN, 0),
	}
}

// AddDevice adds a device to the document
func (d *Document) AddDevice(device Device) {
	d.Devices = append(d.Devices, device)
}

// AddLink adds a link to the document
func (d *Document) AddLink(link Link) {
	d.Links = append(d.Links, link)
}

// AddVlan adds a VLAN to the document
func (d *Document) AddVlan(vlan VLAN) {
	d.Vlans = append(d.Vlans, vlan)
}
