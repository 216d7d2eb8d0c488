package model

import "time"

// Object is a named physical location that holds devices.
type Object struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"object_address"`
	CreatedAt time.Time `json:"created_at"`
}

// ObjectSummary is an object together with its device rows and totals.
type ObjectSummary struct {
	Object           Object   `json:"object"`
	DevicesCount     int      `json:"devices_count"`
	DeviceCountTotal int      `json:"device_count_total"`
	Devices          []Device `json:"devices"`
}

// NewObjectSummary builds a summary, computing the totals from devices.
func NewObjectSummary(obj Object, devices []Device) ObjectSummary {
	if devices == nil {
		devices = []Device{}
	}
	s := ObjectSummary{Object: obj, DevicesCount: len(devices), Devices: devices}
	for _, d := range devices {
		s.DeviceCountTotal += d.DeviceCount
	}
	return s
}
