package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

func TestDecodeDeviceList(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{`["Cam","Switch"]`, []string{"Cam", "Switch"}},
		{`['Cam', "Switch"]`, []string{"Cam", "Switch"}},
		{`['Камера-01']`, []string{"Камера-01"}},
		{`"Cam"`, []string{"Cam"}},
		{`Cam`, []string{"Cam"}},
		{`[1, 2]`, []string{"1", "2"}},
		{``, []string{}},
		{`   `, []string{}},
		{`null`, []string{}},
		{`['unterminated`, []string{`['unterminated`}},
		{`a: b`, []string{`a: b`}},
		{`['C:\\cam', 'it\'s']`, []string{`C:\cam`, `it's`}},
		{`["say \"hi\"", 'tab\there']`, []string{`say "hi"`, "tab\there"}},
		{`('Cam',)`, []string{"Cam"}},
		{`('Cam', 'Switch')`, []string{"Cam", "Switch"}},
		{`['Cam', None, 3]`, []string{"Cam", "", "3"}},
		{`['Камера\x21', '\d']`, []string{"Камера!", `\d`}},
		{`[]`, []string{}},
	}

	for _, tt := range tests {
		if got := DecodeDeviceList(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DecodeDeviceList(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestTransferHistoryOrderAndLimit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateObject(ctx, database, "A", "addr")
	CreateObject(ctx, database, "B", "addr")
	CreateObject(ctx, database, "C", "addr")
	CreateOrIncrementDevice(ctx, database, "Cam", "A", nil, 10)

	for _, to := range []string{"B", "C", "B"} {
		if _, err := Transfer(ctx, database, model.TransferRequest{
			DeviceName: "Cam", FromObjectName: "A", ToObjectName: to, Count: 1,
		}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := TransferHistory(ctx, database, 0)
	if err != nil {
		t.Fatalf("TransferHistory: %v", err)
	}
	if len(all) != 3 || all[0].ID < all[1].ID || all[1].ID < all[2].ID {
		t.Errorf("expected newest first, got %+v", all)
	}

	latest, _ := TransferHistory(ctx, database, 1)
	if len(latest) != 1 || latest[0].ObjectTo != "B" {
		t.Errorf("expected latest entry only, got %+v", latest)
	}

	toC, err := ListTransfersForObject(ctx, database, "C", 50)
	if err != nil {
		t.Fatalf("ListTransfersForObject: %v", err)
	}
	if len(toC) != 1 || toC[0].ObjectTo != "C" {
		t.Errorf("expected one transfer touching C, got %+v", toC)
	}

	fromA, _ := ListTransfersForObject(ctx, database, "A", 50)
	if len(fromA) != 3 {
		t.Errorf("expected three transfers touching A, got %d", len(fromA))
	}
}

func TestTransferHistoryDecodesLegacyRows(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := database.ExecContext(ctx,
		`INSERT INTO transfer_history (object_from, object_to, devices, device_count)
		 VALUES (?, ?, ?, ?)`, "A", "B", `['Cam', 'Switch']`, 2)
	if err != nil {
		t.Fatal(err)
	}

	history, err := TransferHistory(ctx, database, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || !reflect.DeepEqual(history[0].Devices, []string{"Cam", "Switch"}) {
		t.Errorf("expected legacy list to decode, got %+v", history)
	}
}
