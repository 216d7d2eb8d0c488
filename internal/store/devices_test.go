package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/db"
)

func strPtr(s string) *string { return &s }

func TestCreateOrIncrementDevice(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateObject(ctx, database, "A", "addr")

	d, err := CreateOrIncrementDevice(ctx, database, " Cam ", "A", strPtr(" Entrance "), 5)
	if err != nil {
		t.Fatalf("CreateOrIncrementDevice: %v", err)
	}
	if d.DeviceName != "Cam" || d.DeviceCount != 5 {
		t.Errorf("unexpected device: %+v", d)
	}
	if d.Description == nil || *d.Description != "Entrance" {
		t.Errorf("expected trimmed description, got %v", d.Description)
	}

	// Same (object, name): count is added, blank description keeps the old one.
	again, err := CreateOrIncrementDevice(ctx, database, "Cam", "A", strPtr("  "), 2)
	if err != nil {
		t.Fatalf("second CreateOrIncrementDevice: %v", err)
	}
	if again.ID != d.ID || again.DeviceCount != 7 {
		t.Errorf("expected same row with count 7, got %+v", again)
	}
	if again.Description == nil || *again.Description != "Entrance" {
		t.Errorf("expected description to be kept, got %v", again.Description)
	}

	// A new description replaces the stored one.
	third, _ := CreateOrIncrementDevice(ctx, database, "Cam", "A", strPtr("Exit"), 1)
	if third.Description == nil || *third.Description != "Exit" {
		t.Errorf("expected description to be replaced, got %v", third.Description)
	}
}

func TestCreateOrIncrementDeviceValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateObject(ctx, database, "A", "addr")

	tests := []struct {
		name, object string
		count        int
		reason       string
	}{
		{"", "A", 1, "device_name_and_object_name_required"},
		{"Cam", " ", 1, "device_name_and_object_name_required"},
		{"Cam", "A", 0, "device_count_must_be_positive"},
		{"Cam", "A", -3, "device_count_must_be_positive"},
		{"Cam", "Missing", 1, "object_not_found"},
	}

	for _, tt := range tests {
		_, err := CreateOrIncrementDevice(ctx, database, tt.name, tt.object, nil, tt.count)
		if apperr.Reason(err) != tt.reason {
			t.Errorf("CreateOrIncrementDevice(%q, %q, %d): expected %s, got %v",
				tt.name, tt.object, tt.count, tt.reason, err)
		}
	}
}

func TestInsertDeviceUniqueness(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateObject(ctx, database, "A", "addr")
	CreateObject(ctx, database, "B", "addr")

	if _, err := InsertDevice(ctx, database, "Cam", "A", nil, 1); err != nil {
		t.Fatalf("InsertDevice: %v", err)
	}

	_, err := InsertDevice(ctx, database, "Cam", "A", nil, 1)
	if !errors.Is(err, apperr.ErrConflict) || apperr.Reason(err) != "device_exists" {
		t.Fatalf("expected device_exists conflict, got %v", err)
	}

	// Same name in another object is a separate row.
	if _, err := InsertDevice(ctx, database, "Cam", "B", nil, 1); err != nil {
		t.Errorf("expected insert into another object to succeed, got %v", err)
	}

	// The increment path never conflicts.
	d, err := CreateOrIncrementDevice(ctx, database, "Cam", "A", nil, 4)
	if err != nil || d.DeviceCount != 5 {
		t.Errorf("expected increment to 5, got %+v, %v", d, err)
	}
}

func TestGetDeviceNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := GetDevice(context.Background(), database, 42)
	if !errors.Is(err, apperr.ErrNotFound) || apperr.Reason(err) != "device_not_found" {
		t.Errorf("expected device_not_found, got %v", err)
	}
}

func TestFindDeviceByName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateObject(ctx, database, "A", "addr")
	CreateObject(ctx, database, "B", "addr")
	CreateOrIncrementDevice(ctx, database, "Cam", "A", strPtr("Entrance"), 1)
	CreateOrIncrementDevice(ctx, database, "Cam", "B", nil, 1)

	m, err := FindDeviceByName(ctx, database, "Cam", "", nil)
	if err != nil {
		t.Fatalf("FindDeviceByName: %v", err)
	}
	if !m.Multiple || len(m.Devices) != 2 {
		t.Errorf("expected two candidates, got %+v", m)
	}

	m, _ = FindDeviceByName(ctx, database, "Cam", "B", nil)
	if m.Multiple || m.Device == nil || m.Device.ObjectName != "B" {
		t.Errorf("expected single match in B, got %+v", m)
	}

	m, _ = FindDeviceByName(ctx, database, "Cam", "", strPtr(" Entrance "))
	if m.Multiple || m.Device == nil || m.Device.ObjectName != "A" {
		t.Errorf("expected description filter to select A, got %+v", m)
	}

	// A missing description compares as "".
	m, _ = FindDeviceByName(ctx, database, "Cam", "", strPtr(""))
	if m.Multiple || m.Device == nil || m.Device.ObjectName != "B" {
		t.Errorf("expected empty description filter to select B, got %+v", m)
	}

	if _, err := FindDeviceByName(ctx, database, "cam", "", nil); apperr.Reason(err) != "device_not_found" {
		t.Errorf("expected exact name match only, got %v", err)
	}
}

func TestListDevices(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateObject(ctx, database, "B-site", "addr")
	CreateObject(ctx, database, "A-site", "addr")
	CreateOrIncrementDevice(ctx, database, "Камера", "B-site", nil, 1)
	CreateOrIncrementDevice(ctx, database, "Switch", "A-site", strPtr("core камера uplink"), 1)
	CreateOrIncrementDevice(ctx, database, "Router", "A-site", nil, 1)

	all, err := ListDevices(ctx, database, "", "", 50, 0)
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(all) != 3 || all[0].ObjectName != "A-site" || all[2].ObjectName != "B-site" {
		t.Errorf("expected devices ordered by object, got %+v", all)
	}

	matched, _ := ListDevices(ctx, database, "КАМЕРА", "", 50, 0)
	if len(matched) != 2 {
		t.Errorf("expected name and description matches, got %d", len(matched))
	}

	scoped, _ := ListDevices(ctx, database, "камера", "B-site", 50, 0)
	if len(scoped) != 1 || scoped[0].DeviceName != "Камера" {
		t.Errorf("expected object filter to apply, got %+v", scoped)
	}

	byObject, _ := ListDevices(ctx, database, "a-SITE", "", 50, 0)
	if len(byObject) != 2 {
		t.Errorf("expected object name match, got %d", len(byObject))
	}
}
