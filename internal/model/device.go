package model

import (
	"strings"
	"time"
)

// Device is a count of identically named devices held by one object.
type Device struct {
	ID          int64     `json:"id"`
	DeviceName  string    `json:"device_name"`
	Description *string   `json:"description"`
	ObjectName  string    `json:"object_name"`
	DeviceCount int       `json:"device_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// DeviceMatch is the result of a lookup by name: either a single device, or
// every candidate when the name is ambiguous.
type DeviceMatch struct {
	Device   *Device
	Multiple bool
	Devices  []Device
}

// NormalizeDescription trims d and treats an empty result as absent.
func NormalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	s := strings.TrimSpace(*d)
	if s == "" {
		return nil
	}
	return &s
}
