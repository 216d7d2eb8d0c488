package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

func TestCollectStats(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateObject(ctx, database, "A", "addr")
	CreateObject(ctx, database, "B", "addr")
	CreateOrIncrementDevice(ctx, database, "Cam", "A", nil, 5)
	CreateOrIncrementDevice(ctx, database, "Switch", "A", nil, 1)
	Transfer(ctx, database, model.TransferRequest{DeviceName: "Cam", ToObjectName: "B", Count: 2})

	stats, err := CollectStats(ctx, database)
	if err != nil {
		t.Fatalf("CollectStats: %v", err)
	}

	wantCounters := model.Counters{TotalLocations: 2, TotalDevices: 3, TotalTransfers: 1}
	if stats.Counters != wantCounters {
		t.Errorf("expected counters %+v, got %+v", wantCounters, stats.Counters)
	}
	if len(stats.PerObject) != 2 ||
		stats.PerObject[0].ObjectName != "A" || stats.PerObject[0].DevicesCount != 2 ||
		stats.PerObject[1].ObjectName != "B" || stats.PerObject[1].DevicesCount != 1 {
		t.Errorf("unexpected per-object stats: %+v", stats.PerObject)
	}
}

func TestCollectStatsEmptyObject(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateObject(ctx, database, "Empty", "addr")

	stats, err := CollectStats(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats.PerObject) != 1 || stats.PerObject[0].DevicesCount != 0 {
		t.Errorf("expected empty object to report 0, got %+v", stats.PerObject)
	}
}

func TestSearch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateObject(ctx, database, "Камеры склад", "addr")
	CreateObject(ctx, database, "Depot", "addr")
	CreateOrIncrementDevice(ctx, database, "Zeta камера", "Depot", nil, 1)
	CreateOrIncrementDevice(ctx, database, "Alpha", "Камеры склад", nil, 1)
	CreateOrIncrementDevice(ctx, database, "Switch", "Depot", nil, 1)

	res, err := Search(ctx, database, "КАМЕР", 50, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Q != "КАМЕР" {
		t.Errorf("expected q to be echoed, got %q", res.Q)
	}
	if len(res.Objects) != 1 || res.Objects[0].Name != "Камеры склад" {
		t.Errorf("unexpected objects: %+v", res.Objects)
	}

	// Devices match by name or by object name, ordered by device name.
	names := []string{}
	for _, d := range res.Devices {
		names = append(names, d.DeviceName)
	}
	if !reflect.DeepEqual(names, []string{"Alpha", "Zeta камера"}) {
		t.Errorf("unexpected devices: %v", names)
	}
	if res.Counters.TotalDevices != 3 {
		t.Errorf("expected counters to cover all rows, got %+v", res.Counters)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := Search(context.Background(), database, "  ", 50, 0)
	if !errors.Is(err, apperr.ErrInvalidInput) || apperr.Reason(err) != "q_required" {
		t.Errorf("expected q_required, got %v", err)
	}
}

func TestReadsAreIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateObject(ctx, database, "A", "addr")
	CreateOrIncrementDevice(ctx, database, "Cam", "A", nil, 2)

	first, _ := ListObjectsWithDevices(ctx, database, "", 50, 0)
	firstStats, _ := CollectStats(ctx, database)
	second, _ := ListObjectsWithDevices(ctx, database, "", 50, 0)
	secondStats, _ := CollectStats(ctx, database)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical object listings, got %+v and %+v", first, second)
	}
	if !reflect.DeepEqual(firstStats, secondStats) {
		t.Errorf("expected identical stats, got %+v and %+v", firstStats, secondStats)
	}
}
