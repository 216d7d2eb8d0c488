package model

import "time"

// TransferRecord is one append-only ledger entry.
type TransferRecord struct {
	ID          int64     `json:"id"`
	ObjectFrom  string    `json:"object_from"`
	ObjectTo    string    `json:"object_to"`
	Devices     []string  `json:"devices"`
	DeviceCount int       `json:"device_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransferRequest moves Count units of a device to ToObjectName. The source
// is DeviceID when set, otherwise DeviceName, optionally narrowed by
// FromObjectName.
type TransferRequest struct {
	DeviceID       *int64 `json:"device_id"`
	DeviceName     string `json:"device_name"`
	FromObjectName string `json:"from_object_name"`
	ToObjectName   string `json:"to_object_name"`
	Count          int    `json:"device_count"`
}

// TransferResult describes a committed transfer.
type TransferResult struct {
	DeviceName     string `json:"device_name"`
	MovedCount     int    `json:"moved_count"`
	FromObjectName string `json:"from_object_name"`
	ToObjectName   string `json:"to_object_name"`
	SourceLeft     int    `json:"source_left"`
	TargetTotal    int    `json:"target_total"`
}
