package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

func int64Ptr(v int64) *int64 { return &v }

// totalCount sums device_count for one device name across all objects.
func totalCount(t *testing.T, database *db.DB, name string) int {
	t.Helper()
	var n int
	err := database.QueryRowContext(context.Background(),
		`SELECT COALESCE(SUM(device_count), 0) FROM devices WHERE device_name = ?`, name).Scan(&n)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func countHistory(t *testing.T, database *db.DB) int {
	t.Helper()
	var n int
	if err := database.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM transfer_history`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestTransferFullMoveDeletesSource(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateObject(ctx, database, "A", "addr")
	CreateObject(ctx, database, "B", "addr")
	CreateOrIncrementDevice(ctx, database, "Cam", "A", strPtr("Entrance"), 5)

	res, err := Transfer(ctx, database, model.TransferRequest{
		DeviceName:     "Cam",
		FromObjectName: "A",
		ToObjectName:   "B",
		Count:          5,
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	want := model.TransferResult{
		DeviceName:     "Cam",
		MovedCount:     5,
		FromObjectName: "A",
		ToObjectName:   "B",
		SourceLeft:     0,
		TargetTotal:    5,
	}
	if *res != want {
		t.Errorf("expected %+v, got %+v", want, *res)
	}

	if _, err := FindDeviceByName(ctx, database, "Cam", "A", nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected source row to be deleted, got %v", err)
	}

	m, err := FindDeviceByName(ctx, database, "Cam", "B", nil)
	if err != nil {
		t.Fatalf("expected target row: %v", err)
	}
	if m.Device.DeviceCount != 5 {
		t.Errorf("expected target count 5, got %d", m.Device.DeviceCount)
	}
	if m.Device.Description == nil || *m.Device.Description != "Entrance" {
		t.Errorf("expected new target row to copy source description, got %v", m.Device.Description)
	}

	history, _ := TransferHistory(ctx, database, 10)
	if len(history) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(history))
	}
	h := history[0]
	if h.ObjectFrom != "A" || h.ObjectTo != "B" || h.DeviceCount != 5 ||
		len(h.Devices) != 1 || h.Devices[0] != "Cam" {
		t.Errorf("unexpected ledger entry: %+v", h)
	}
}

func TestTransferPartialIncrementsTarget(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateObject(ctx, database, "A", "addr")
	CreateObject(ctx, database, "B", "addr")
	src, _ := CreateOrIncrementDevice(ctx, database, "Cam", "A", nil, 10)
	CreateOrIncrementDevice(ctx, database, "Cam", "B", strPtr("Kept"), 4)

	res, err := Transfer(ctx, database, model.TransferRequest{
		DeviceID:     int64Ptr(src.ID),
		ToObjectName: " B ",
		Count:        3,
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if res.SourceLeft != 7 || res.TargetTotal != 7 {
		t.Errorf("expected 7 left and 7 at target, got %+v", res)
	}

	if got := totalCount(t, database, "Cam"); got != 14 {
		t.Errorf("expected quantity to be conserved at 14, got %d", got)
	}

	m, _ := FindDeviceByName(ctx, database, "Cam", "B", nil)
	if m.Device.Description == nil || *m.Device.Description != "Kept" {
		t.Errorf("expected existing target description to be kept, got %v", m.Device.Description)
	}
}

func TestTransferConservationAcrossMoves(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		CreateObject(ctx, database, name, "addr")
	}
	CreateOrIncrementDevice(ctx, database, "Cam", "A", nil, 9)

	moves := []struct {
		from, to string
		count    int
	}{
		{"A", "B", 4}, {"B", "C", 1}, {"A", "C", 5}, {"C", "A", 6}, {"B", "A", 3},
	}
	for _, m := range moves {
		if _, err := Transfer(ctx, database, model.TransferRequest{
			DeviceName: "Cam", FromObjectName: m.from, ToObjectName: m.to, Count: m.count,
		}); err != nil {
			t.Fatalf("Transfer %s->%s (%d): %v", m.from, m.to, m.count, err)
		}
		if got := totalCount(t, database, "Cam"); got != 9 {
			t.Fatalf("after %s->%s: expected total 9, got %d", m.from, m.to, got)
		}
	}

	var zero int
	database.QueryRowContext(ctx, `SELECT COUNT(*) FROM devices WHERE device_count = 0`).Scan(&zero)
	if zero != 0 {
		t.Errorf("expected no zero-count rows, got %d", zero)
	}
	if n := countHistory(t, database); n != len(moves) {
		t.Errorf("expected %d ledger entries, got %d", len(moves), n)
	}
}

func TestTransferConcurrentSameTarget(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		CreateObject(ctx, database, name, "addr")
	}
	CreateOrIncrementDevice(ctx, database, "Cam", "A", nil, 50)
	CreateOrIncrementDevice(ctx, database, "Cam", "C", nil, 50)

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for _, from := range []string{"A", "C"} {
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := Transfer(ctx, database, model.TransferRequest{
					DeviceName:     "Cam",
					FromObjectName: from,
					ToObjectName:   "B",
					Count:          1,
				})
				if err != nil {
					errs <- err
				}
			}()
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Transfer: %v", err)
	}

	if got := totalCount(t, database, "Cam"); got != 100 {
		t.Errorf("expected total 100, got %d", got)
	}
	if got := countHistory(t, database); got != 100 {
		t.Errorf("expected 100 ledger rows, got %d", got)
	}
	match, err := FindDeviceByName(ctx, database, "Cam", "B", nil)
	if err != nil {
		t.Fatal(err)
	}
	if match.Device == nil || match.Device.DeviceCount != 100 {
		t.Errorf("expected B to hold all 100, got %+v", match)
	}
	for _, from := range []string{"A", "C"} {
		if _, err := FindDeviceByName(ctx, database, "Cam", from, nil); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("expected emptied source %s to be deleted, got %v", from, err)
		}
	}
}

func TestTransferInsufficientQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateObject(ctx, database, "A", "addr")
	CreateObject(ctx, database, "B", "addr")
	CreateOrIncrementDevice(ctx, database, "Switch", "A", nil, 2)

	_, err := Transfer(ctx, database, model.TransferRequest{
		DeviceName: "Switch", FromObjectName: "A", ToObjectName: "B", Count: 3,
	})
	if !errors.Is(err, apperr.ErrConflict) || apperr.Reason(err) != "not_enough_in_source" {
		t.Fatalf("expected not_enough_in_source, got %v", err)
	}

	m, _ := FindDeviceByName(ctx, database, "Switch", "A", nil)
	if m.Device.DeviceCount != 2 {
		t.Errorf("expected source unchanged at 2, got %d", m.Device.DeviceCount)
	}
	if n := countHistory(t, database); n != 0 {
		t.Errorf("expected no ledger entry, got %d", n)
	}
}

func TestTransferAmbiguousName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		CreateObject(ctx, database, name, "addr")
	}
	CreateOrIncrementDevice(ctx, database, "Cam", "A", nil, 1)
	CreateOrIncrementDevice(ctx, database, "Cam", "B", nil, 1)

	_, err := Transfer(ctx, database, model.TransferRequest{
		DeviceName: "Cam", ToObjectName: "C", Count: 1,
	})
	if !errors.Is(err, apperr.ErrAmbiguous) || apperr.Reason(err) != "ambiguous_name" {
		t.Fatalf("expected ambiguous_name, got %v", err)
	}
	if apperr.HTTPStatus(err) != 409 {
		t.Errorf("expected ambiguous to map to 409, got %d", apperr.HTTPStatus(err))
	}

	// Narrowing by source object resolves it.
	if _, err := Transfer(ctx, database, model.TransferRequest{
		DeviceName: "Cam", FromObjectName: "B", ToObjectName: "C", Count: 1,
	}); err != nil {
		t.Errorf("expected narrowed transfer to succeed, got %v", err)
	}
}

func TestTransferRejections(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateObject(ctx, database, "A", "addr")
	CreateObject(ctx, database, "B", "addr")
	src, _ := CreateOrIncrementDevice(ctx, database, "Cam", "A", nil, 2)

	tests := []struct {
		name   string
		req    model.TransferRequest
		reason string
	}{
		{"missing target", model.TransferRequest{DeviceName: "Cam", ToObjectName: "  ", Count: 1}, "to_object_name_required"},
		{"zero count", model.TransferRequest{DeviceName: "Cam", ToObjectName: "B"}, "device_count_must_be_positive"},
		{"negative count", model.TransferRequest{DeviceName: "Cam", ToObjectName: "B", Count: -1}, "device_count_must_be_positive"},
		{"no device", model.TransferRequest{ToObjectName: "B", Count: 1}, "device_id_or_device_name_required"},
		{"unknown target", model.TransferRequest{DeviceName: "Cam", ToObjectName: "Z", Count: 1}, "target_object_not_found"},
		{"unknown id", model.TransferRequest{DeviceID: int64Ptr(999), ToObjectName: "B", Count: 1}, "device_not_found"},
		{"unknown name", model.TransferRequest{DeviceName: "Nope", ToObjectName: "B", Count: 1}, "device_not_found"},
		{"wrong source", model.TransferRequest{DeviceName: "Cam", FromObjectName: "B", ToObjectName: "A", Count: 1}, "device_not_found"},
		{"same object", model.TransferRequest{DeviceID: int64Ptr(src.ID), ToObjectName: "A", Count: 1}, "already_in_target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transfer(ctx, database, tt.req)
			if apperr.Reason(err) != tt.reason {
				t.Errorf("expected %s, got %v", tt.reason, err)
			}
		})
	}

	if got := totalCount(t, database, "Cam"); got != 2 {
		t.Errorf("expected stock untouched, got %d", got)
	}
	if n := countHistory(t, database); n != 0 {
		t.Errorf("expected no ledger entries, got %d", n)
	}
}

func TestTransferRollsBackWhenLedgerFails(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateObject(ctx, database, "A", "addr")
	CreateObject(ctx, database, "B", "addr")
	CreateOrIncrementDevice(ctx, database, "Cam", "A", nil, 5)
	CreateOrIncrementDevice(ctx, database, "Cam", "B", nil, 1)

	_, err := database.ExecContext(ctx,
		`CREATE TRIGGER fail_ledger BEFORE INSERT ON transfer_history
		 BEGIN SELECT RAISE(ABORT, 'ledger unavailable'); END`)
	if err != nil {
		t.Fatalf("creating trigger: %v", err)
	}

	_, err = Transfer(ctx, database, model.TransferRequest{
		DeviceName: "Cam", FromObjectName: "A", ToObjectName: "B", Count: 5,
	})
	if err == nil {
		t.Fatal("expected transfer to fail when the ledger insert fails")
	}
	if apperr.HTTPStatus(err) != 500 {
		t.Errorf("expected internal error, got %v", err)
	}

	a, err := FindDeviceByName(ctx, database, "Cam", "A", nil)
	if err != nil || a.Device.DeviceCount != 5 {
		t.Errorf("expected source restored to 5, got %+v, %v", a, err)
	}
	b, _ := FindDeviceByName(ctx, database, "Cam", "B", nil)
	if b.Device.DeviceCount != 1 {
		t.Errorf("expected target restored to 1, got %d", b.Device.DeviceCount)
	}
	if n := countHistory(t, database); n != 0 {
		t.Errorf("expected no ledger entries, got %d", n)
	}
}
