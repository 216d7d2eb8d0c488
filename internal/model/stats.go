package model

// Counters are global row counts.
type Counters struct {
	TotalLocations int `json:"total_locations"`
	TotalDevices   int `json:"total_devices"`
	TotalTransfers int `json:"total_transfers"`
}

// ObjectStat is the number of device rows held by one object.
type ObjectStat struct {
	ObjectID     int64  `json:"object_id"`
	ObjectName   string `json:"object_name"`
	DevicesCount int    `json:"devices_count"`
}

// Stats are the global counters plus the per-object distribution.
type Stats struct {
	Counters
	PerObject []ObjectStat `json:"per_object"`
}

// SearchResult holds the matches of a combined object and device search.
type SearchResult struct {
	Q        string   `json:"q"`
	Counters Counters `json:"counters"`
	Objects  []Object `json:"objects"`
	Devices  []Device `json:"devices"`
}
