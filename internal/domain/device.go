package domain

// Device represents a network element in the physical topology
type Device struct {
	ID         string         `json:"id" yaml:"id" validate:"required"`
	Type       string         `json:"type,omitempty" yaml:"type,omitempty"`
	Role       string         `json:"role,omitempty" yaml:"role,omitempty"`
	Location   string         `json:"location,omitempty" yaml:"location,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// NewDevice creates a new device
func NewDevice(id, deviceType string) *Device {
	return &Device{
		ID:         id,
		Type:       deviceType,
		Attributes: make(map[string]any),
	}
}

// SetAttribute sets an attribute value
func (d *Device) SetAttribute(key string, value any) {
	if d.Attributes == nil {
		d.Attributes = make(map[string]any)
	}
	d.Attributes[key] = value
}

// GetAttribute gets an attribute value
func (d *Device) GetAttribute(key string) (any, bool) {
	if d.Attributes == nil {
		return nil, false
	}
	val, ok := d.Attributes[key]
	return val, ok
}

// GetAttributeString gets an attribute as a string, empty when absent or not a string
func (d *Device) GetAttributeString(key string) string {
	val, ok := d.GetAttribute(key)
	if !ok {
		return ""
	}
	s, _ := val.(string)
	return s
}
