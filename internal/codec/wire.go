package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"vlanislands/internal/domain"

	"gopkg.in/yaml.v3"
)

// flexString decodes from a string or a number so that integer ids like
// VLAN 10 and "10" load identically
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

func (f *flexString) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected string or number", node.Line)
	}
	if node.ShortTag() == "!!null" {
		*f = ""
		return nil
	}
	*f = flexString(node.Value)
	return nil
}

// wireDocument is the on-disk shape shared by the JSON and YAML codecs.
// Sections are pointers so an absent key stays distinguishable from an empty list.
type wireDocument struct {
	Devices *[]wireDevice `json:"devices" yaml:"devices"`
	Links   *[]wireLink   `json:"links" yaml:"links"`
	Vlans   *[]wireVlan   `json:"vlans" yaml:"vlans"`
}

type wireDevice struct {
	ID         flexString     `json:"id" yaml:"id"`
	Type       string         `json:"type,omitempty" yaml:"type,omitempty"`
	Role       string         `json:"role,omitempty" yaml:"role,omitempty"`
	Location   string         `json:"location,omitempty" yaml:"location,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Extra      map[string]any `json:"-" yaml:",inline"`
}

// wireLink accepts a/b as well as source/target endpoints
type wireLink struct {
	A          flexString     `json:"a,omitempty" yaml:"a,omitempty"`
	B          flexString     `json:"b,omitempty" yaml:"b,omitempty"`
	Source     flexString     `json:"source,omitempty" yaml:"source,omitempty"`
	Target     flexString     `json:"target,omitempty" yaml:"target,omitempty"`
	Type       string         `json:"type,omitempty" yaml:"type,omitempty"`
	Speed      flexString     `json:"speed,omitempty" yaml:"speed,omitempty"`
	Bandwidth  flexString     `json:"bandwidth,omitempty" yaml:"bandwidth,omitempty"`
	Status     string         `json:"status,omitempty" yaml:"status,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Extra      map[string]any `json:"-" yaml:",inline"`
}

// wireVlan accepts members as well as devices for the member list
type wireVlan struct {
	ID          flexString    `json:"id" yaml:"id"`
	Name        string        `json:"name,omitempty" yaml:"name,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Members     *[]flexString `json:"members,omitempty" yaml:"members,omitempty"`
	Devices     *[]flexString `json:"devices,omitempty" yaml:"devices,omitempty"`
}

var (
	deviceKeys = []string{"id", "type", "role", "location", "attributes"}
	linkKeys   = []string{"a", "b", "source", "target", "type", "speed", "bandwidth", "status", "attributes"}
)

func (d *wireDevice) UnmarshalJSON(data []byte) error {
	type plain wireDevice
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := jsonExtras(data, deviceKeys)
	if err != nil {
		return err
	}
	*d = wireDevice(p)
	d.Extra = extra
	return nil
}

func (l *wireLink) UnmarshalJSON(data []byte) error {
	type plain wireLink
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := jsonExtras(data, linkKeys)
	if err != nil {
		return err
	}
	*l = wireLink(p)
	l.Extra = extra
	return nil
}

// jsonExtras returns the object's fields not named in known
func jsonExtras(data []byte, known []string) (map[string]any, error) {
	var all map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func mergeAttributes(explicit, extra map[string]any) map[string]any {
	if len(explicit) == 0 && len(extra) == 0 {
		return nil
	}
	out := make(map[string]any, len(explicit)+len(extra))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range explicit {
		out[k] = v
	}
	return out
}

func firstNonEmpty(values ...flexString) string {
	for _, v := range values {
		if v != "" {
			return string(v)
		}
	}
	return ""
}

func (w *wireDocument) toDomain() *domain.Document {
	doc := &domain.Document{}

	if w.Devices != nil {
		doc.Devices = make([]domain.Device, 0, len(*w.Devices))
		for _, wd := range *w.Devices {
			doc.Devices = append(doc.Devices, domain.Device{
				ID:         string(wd.ID),
				Type:       wd.Type,
				Role:       wd.Role,
				Location:   wd.Location,
				Attributes: mergeAttributes(wd.Attributes, wd.Extra),
			})
		}
	}

	if w.Links != nil {
		doc.Links = make([]domain.Link, 0, len(*w.Links))
		for _, wl := range *w.Links {
			doc.Links = append(doc.Links, domain.Link{
				A:          firstNonEmpty(wl.A, wl.Source),
				B:          firstNonEmpty(wl.B, wl.Target),
				Type:       wl.Type,
				Speed:      firstNonEmpty(wl.Speed, wl.Bandwidth),
				Status:     wl.Status,
				Attributes: mergeAttributes(wl.Attributes, wl.Extra),
			})
		}
	}

	if w.Vlans != nil {
		doc.Vlans = make([]domain.VLAN, 0, len(*w.Vlans))
		for _, wv := range *w.Vlans {
			v := domain.VLAN{
				ID:          string(wv.ID),
				Name:        wv.Name,
				Description: wv.Description,
			}
			members := wv.Members
			if members == nil {
				members = wv.Devices
			}
			if members != nil {
				v.Members = make([]string, 0, len(*members))
				for _, m := range *members {
					v.Members = append(v.Members, string(m))
				}
			}
			doc.Vlans = append(doc.Vlans, v)
		}
	}

	return doc
}

func fromDomain(doc *domain.Document) wireDocument {
	devices := make([]wireDevice, 0, len(doc.Devices))
	for _, d := range doc.Devices {
		devices = append(devices, wireDevice{
			ID:         flexString(d.ID),
			Type:       d.Type,
			Role:       d.Role,
			Location:   d.Location,
			Attributes: d.Attributes,
		})
	}

	links := make([]wireLink, 0, len(doc.Links))
	for _, l := range doc.Links {
		links = append(links, wireLink{
			A:          flexString(l.A),
			B:          flexString(l.B),
			Type:       l.Type,
			Speed:      flexString(l.Speed),
			Status:     l.Status,
			Attributes: l.Attributes,
		})
	}

	vlans := make([]wireVlan, 0, len(doc.Vlans))
	for _, v := range doc.Vlans {
		members := make([]flexString, 0, len(v.Members))
		for _, m := range v.Members {
			members = append(members, flexString(m))
		}
		vlans = append(vlans, wireVlan{
			ID:          flexString(v.ID),
			Name:        v.Name,
			Description: v.Description,
			Members:     &members,
		})
	}

	return wireDocument{Devices: &devices, Links: &links, Vlans: &vlans}
}

// scalarString renders a decoded YAML/JSON scalar as an identifier
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}
