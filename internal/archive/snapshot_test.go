package archive

import (
	"context"
	"strings"
	"testing"
	"time"

	"rentledger/internal/infra/archive/memory"
	"rentledger/pkg/domain"
)

func sampleSnapshot() domain.Snapshot {
	tenantID := "tenant-001"
	return domain.Snapshot{
		Rooms: []domain.Room{
			{ID: "room-001", Name: "101", MonthlyRent: 4500, IsOccupied: true, TenantID: &tenantID},
		},
		Tenants: []domain.Tenant{
			{ID: tenantID, Name: "Asha", Phone: "555", RoomIDs: []string{"room-001"}, MoveInDate: "2024-01-15", IsActive: true},
		},
		Bills: []domain.Bill{
			{ID: "bill-001", TenantID: tenantID, Month: "2025-02", RoomRentTotal: 4500, ElectricityCharge: 500, WaterCharge: 300, GrandTotal: 5300, CreatedAt: "2025-02-28T10:00:00Z"},
		},
		MeterReadings: []domain.MeterReading{
			{ID: "mr-001", TenantID: tenantID, Month: "2025-02", PreviousReading: 1000, CurrentReading: 1100, UnitsConsumed: 100, ElectricityCost: 500},
		},
		Settings: domain.DefaultSettings(),
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	now := time.Date(2025, 3, 15, 10, 30, 45, 0, time.UTC)

	info, err := WriteSnapshot(ctx, store, "rent-manager-storage", sampleSnapshot(), now)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if info.Key != "rent-manager-storage/20250315T103045Z.json" {
		t.Fatalf("unexpected key %q", info.Key)
	}
	if info.ContentType != "application/json" {
		t.Fatalf("unexpected content type %q", info.ContentType)
	}

	restored, err := ReadSnapshot(ctx, store, info.Key)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := sampleSnapshot()
	if len(restored.Rooms) != 1 || restored.Rooms[0].Name != want.Rooms[0].Name {
		t.Fatalf("rooms lost: %+v", restored.Rooms)
	}
	if restored.Settings != want.Settings {
		t.Fatalf("settings lost: %+v", restored.Settings)
	}
	if restored.Bills[0].GrandTotal != 5300 {
		t.Fatalf("bill amounts lost: %+v", restored.Bills[0])
	}
}

func TestWriteSnapshotIsCreateOnly(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	now := time.Date(2025, 3, 15, 10, 30, 45, 0, time.UTC)

	if _, err := WriteSnapshot(ctx, store, "ns", sampleSnapshot(), now); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := WriteSnapshot(ctx, store, "ns", sampleSnapshot(), now); err == nil {
		t.Fatalf("expected collision for same-second backup")
	}
}

func TestListBackupsScopedToNamespace(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	times := []time.Time{
		time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 15, 11, 0, 0, 0, time.UTC),
	}
	for _, ts := range times {
		if _, err := WriteSnapshot(ctx, store, "ns-a", sampleSnapshot(), ts); err != nil {
			t.Fatalf("write ns-a: %v", err)
		}
	}
	if _, err := WriteSnapshot(ctx, store, "ns-ab", sampleSnapshot(), times[0]); err != nil {
		t.Fatalf("write ns-ab: %v", err)
	}

	backups, err := ListBackups(ctx, store, "ns-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups for ns-a, got %d", len(backups))
	}
	// Timestamped keys sort oldest first.
	if !strings.HasSuffix(backups[0].Key, "20250315T100000Z.json") {
		t.Fatalf("unexpected ordering: %v", backups)
	}
}

func TestReadSnapshotMissingKey(t *testing.T) {
	store := memory.New()
	if _, err := ReadSnapshot(context.Background(), store, "ns/nothing.json"); err == nil {
		t.Fatalf("expected error for missing backup")
	}
}
