package domain

import "fmt"

// VLAN describes a VLAN and the devices carrying it
type VLAN struct {
	ID          string   `json:"id" yaml:"id" validate:"required"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Members     []string `json:"members" yaml:"members" validate:"required,dive,required"`
}

// VlanMembership associates a device with a VLAN it carries
type VlanMembership struct {
	DeviceID string `json:"device"`
	VlanID   string `json:"vlan"`
}

// String renders the VLAN for messages
func (v VLAN) String() string {
	if v.Name != "" {
		return fmt.Sprintf("vlan %s (%s)", v.ID, v.Name)
	}
	return fmt.Sprintf("vlan %s", v.ID)
}
