package codec

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"vlanislands/internal/domain"

	"gopkg.in/yaml.v3"
)

// AnsibleCodec handles Ansible inventory import/export.
//
// Hosts become devices. A host's `vlans` var lists the VLANs it carries and
// its `neighbors` (or `links`) var lists directly cabled hosts. VLAN names
// and descriptions come from an optional `vlans` list under `all.vars`.
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible codec
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return "ansible"
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
	Hosts    map[string]ansibleHost     `yaml:"hosts,omitempty"`
	Vars     ansibleAllVars             `yaml:"vars,omitempty"`
}

type ansibleAllVars struct {
	Vlans []wireVlan     `yaml:"vlans,omitempty"`
	Other map[string]any `yaml:",inline"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
	Vars  map[string]interface{} `yaml:"vars,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string                 `yaml:"ansible_host,omitempty"`
	Vars        map[string]interface{} `yaml:",inline"`
}

// host vars consumed by the codec rather than copied into attributes
var ansibleReservedVars = map[string]bool{
	"device_type": true,
	"role":        true,
	"location":    true,
	"vlans":       true,
	"neighbors":   true,
	"links":       true,
}

// Parse imports a topology document from an Ansible inventory
func (c *AnsibleCodec) Parse(r io.Reader) (*domain.Document, error) {
	var inv ansibleInventory
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&inv); err != nil {
		return nil, fmt.Errorf("%w: failed to parse Ansible inventory: %w", domain.ErrMalformedInput, err)
	}

	doc := domain.NewDocument()
	seen := make(map[string]bool)
	members := make(map[string][]string)
	vlanIDs := make(map[string]bool)

	addHost := func(hostID, groupName string, host ansibleHost) error {
		if seen[hostID] {
			return nil
		}
		seen[hostID] = true
		doc.AddDevice(c.hostToDevice(hostID, groupName, host))

		vlans, err := stringList(host.Vars["vlans"])
		if err != nil {
			return domain.MalformedInput("host %s: vlans: %v", hostID, err)
		}
		for _, v := range vlans {
			members[v] = append(members[v], hostID)
			vlanIDs[v] = true
		}

		neighborsVar := host.Vars["neighbors"]
		if neighborsVar == nil {
			neighborsVar = host.Vars["links"]
		}
		neighbors, err := stringList(neighborsVar)
		if err != nil {
			return domain.MalformedInput("host %s: neighbors: %v", hostID, err)
		}
		for _, n := range neighbors {
			doc.AddLink(domain.Link{A: hostID, B: n})
		}
		return nil
	}

	// Process all groups in a stable order
	groupNames := make([]string, 0, len(inv.All.Children))
	for name := range inv.All.Children {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)

	for _, groupName := range groupNames {
		group := inv.All.Children[groupName]
		for _, hostID := range sortedHostIDs(group.Hosts) {
			if err := addHost(hostID, groupName, group.Hosts[hostID]); err != nil {
				return nil, err
			}
		}
	}

	// Process hosts in the 'all' group directly
	for _, hostID := range sortedHostIDs(inv.All.Hosts) {
		if err := addHost(hostID, "all", inv.All.Hosts[hostID]); err != nil {
			return nil, err
		}
	}

	// VLAN definitions from all.vars, including VLANs no host carries
	defined := make(map[string]domain.VLAN)
	for _, wv := range inv.All.Vars.Vlans {
		id := string(wv.ID)
		defined[id] = domain.VLAN{ID: id, Name: wv.Name, Description: wv.Description}
		vlanIDs[id] = true
	}

	ids := make([]string, 0, len(vlanIDs))
	for id := range vlanIDs {
		ids = append(ids, id)
	}
	domain.SortIDs(ids)

	for _, id := range ids {
		v, ok := defined[id]
		if !ok {
			v = domain.VLAN{ID: id}
		}
		v.Members = append(make([]string, 0, len(members[id])), members[id]...)
		domain.SortIDs(v.Members)
		doc.AddVlan(v)
	}

	return doc, nil
}

// hostToDevice converts an Ansible host to a domain.Device
func (c *AnsibleCodec) hostToDevice(hostID, groupName string, host ansibleHost) domain.Device {
	device := domain.Device{
		ID:         hostID,
		Attributes: make(map[string]any),
	}

	if host.AnsibleHost != "" {
		device.SetAttribute("ip", host.AnsibleHost)
	}
	device.SetAttribute("group", groupName)

	for key, value := range host.Vars {
		if key == "ansible_host" || ansibleReservedVars[key] {
			continue
		}
		device.SetAttribute(key, value)
	}

	if role, ok := host.Vars["role"].(string); ok {
		device.Role = role
	}
	if location, ok := host.Vars["location"].(string); ok {
		device.Location = location
	}
	device.Type = c.inferDeviceType(groupName, host.Vars)

	return device
}

// inferDeviceType infers the device type from host vars and group name
func (c *AnsibleCodec) inferDeviceType(groupName string, vars map[string]interface{}) string {
	// First check device_type (explicit)
	if deviceType, ok := vars["device_type"].(string); ok {
		switch strings.ToLower(deviceType) {
		case "router", "gateway":
			return "router"
		case "switch":
			return "switch"
		case "access_point", "ap", "wifi":
			return "access_point"
		case "controller":
			return "controller"
		case "firewall":
			return "firewall"
		}
		return strings.ToLower(deviceType)
	}

	// Check role property
	if role, ok := vars["role"].(string); ok {
		roleLower := strings.ToLower(role)
		switch {
		case strings.Contains(roleLower, "router") || strings.Contains(roleLower, "gateway"):
			return "router"
		case strings.Contains(roleLower, "switch") || strings.Contains(roleLower, "core") ||
			strings.Contains(roleLower, "distribution") || strings.Contains(roleLower, "access"):
			return "switch"
		case strings.Contains(roleLower, "firewall"):
			return "firewall"
		}
	}

	// Check group name
	groupLower := strings.ToLower(groupName)
	switch {
	case strings.Contains(groupLower, "switch"):
		return "switch"
	case strings.Contains(groupLower, "router"):
		return "router"
	case strings.Contains(groupLower, "ap") || strings.Contains(groupLower, "wifi"):
		return "access_point"
	case strings.Contains(groupLower, "camera"):
		return "camera"
	case strings.Contains(groupLower, "firewall"):
		return "firewall"
	}

	// Default to server
	return "server"
}

// Export exports a topology document to Ansible inventory format.
// Each link is written once, as a neighbor of its first endpoint; link
// attributes are not representable and are dropped.
func (c *AnsibleCodec) Export(doc *domain.Document, w io.Writer) error {
	inv := ansibleInventory{
		All: ansibleGroup{
			Children: make(map[string]ansibleGroupDef),
		},
	}

	hostVlans := make(map[string][]string)
	for _, v := range doc.Vlans {
		inv.All.Vars.Vlans = append(inv.All.Vars.Vlans, wireVlan{
			ID:          flexString(v.ID),
			Name:        v.Name,
			Description: v.Description,
		})
		for _, m := range v.Members {
			hostVlans[m] = append(hostVlans[m], v.ID)
		}
	}

	neighbors := make(map[string][]string)
	for _, l := range doc.Links {
		neighbors[l.A] = append(neighbors[l.A], l.B)
	}

	// Group devices by their group attribute, role, or type
	for _, device := range doc.Devices {
		groupName := device.GetAttributeString("group")
		if groupName == "" {
			groupName = device.Role
		}
		if groupName == "" && device.Type != "" {
			groupName = device.Type + "s"
		}
		if groupName == "" {
			groupName = "ungrouped"
		}

		group, ok := inv.All.Children[groupName]
		if !ok {
			group = ansibleGroupDef{Hosts: make(map[string]ansibleHost)}
		}

		host := ansibleHost{
			Vars: make(map[string]interface{}),
		}
		if ip := device.GetAttributeString("ip"); ip != "" {
			host.AnsibleHost = ip
		}
		for key, value := range device.Attributes {
			if key != "ip" && key != "group" {
				host.Vars[key] = value
			}
		}
		if device.Type != "" {
			host.Vars["device_type"] = device.Type
		}
		if device.Role != "" {
			host.Vars["role"] = device.Role
		}
		if device.Location != "" {
			host.Vars["location"] = device.Location
		}
		if vlans := hostVlans[device.ID]; len(vlans) > 0 {
			host.Vars["vlans"] = vlans
		}
		if n := neighbors[device.ID]; len(n) > 0 {
			host.Vars["neighbors"] = n
		}

		group.Hosts[device.ID] = host
		inv.All.Children[groupName] = group
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}

	return nil
}

func sortedHostIDs(hosts map[string]ansibleHost) []string {
	ids := make([]string, 0, len(hosts))
	for id := range hosts {
		ids = append(ids, id)
	}
	domain.SortIDs(ids)
	return ids
}

// stringList accepts a YAML list of scalars, or a single scalar
func stringList(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := scalarString(item)
			if !ok {
				return nil, fmt.Errorf("unsupported list item %v", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		s, ok := scalarString(v)
		if !ok {
			return nil, fmt.Errorf("expected list, got %T", v)
		}
		return []string{s}, nil
	}
}
