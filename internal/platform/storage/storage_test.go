package storage

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hashhive-server-go/internal/domain/cloudminer"
	"hashhive-server-go/internal/domain/eventbus"
	"hashhive-server-go/internal/domain/fleet/aggregate"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("second migration run failed: %v", err)
	}
}

func TestDeviceRepositoryRoundTrip(t *testing.T) {
	repo := NewDeviceRepository(openTestDB(t))
	ctx := context.Background()

	temp := 63.5
	device, err := aggregate.NewDevice(aggregate.Input{
		DeviceID:    "rig-001",
		OwnerID:     "miner-7",
		DisplayName: "Garage rig",
		HashRate:    42.5,
		Temperature: &temp,
	})
	if err != nil {
		t.Fatalf("NewDevice returned error: %v", err)
	}
	if err := repo.Save(ctx, device); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if device.ID == 0 {
		t.Fatal("Save must backfill the row id")
	}

	loaded, err := repo.FindByDeviceID(ctx, "rig-001")
	if err != nil {
		t.Fatalf("FindByDeviceID returned error: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected stored device")
	}
	if loaded.DisplayName != "Garage rig" || loaded.Status != aggregate.DeviceStatusActive {
		t.Errorf("unexpected device: %+v", loaded)
	}
	if loaded.Temperature == nil || *loaded.Temperature != 63.5 {
		t.Errorf("temperature not persisted: %v", loaded.Temperature)
	}

	loaded.HashRate = 50
	if err := repo.Update(ctx, loaded); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	byOwner, err := repo.ListByOwnerID(ctx, "miner-7")
	if err != nil {
		t.Fatalf("ListByOwnerID returned error: %v", err)
	}
	if len(byOwner) != 1 || byOwner[0].HashRate != 50 {
		t.Fatalf("unexpected owner listing: %+v", byOwner)
	}

	if err := repo.Delete(ctx, "rig-001"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	gone, err := repo.FindByDeviceID(ctx, "rig-001")
	if err != nil {
		t.Fatalf("FindByDeviceID after delete returned error: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected nil after delete, got %+v", gone)
	}

	// Deleting an absent id is a no-op.
	if err := repo.Delete(ctx, "rig-001"); err != nil {
		t.Fatalf("second Delete returned error: %v", err)
	}
}

func TestCloudMinerRepositoryRoundTrip(t *testing.T) {
	repo := NewCloudMinerRepository(openTestDB(t))
	ctx := context.Background()

	cfg, key, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg != nil || key != nil {
		t.Fatal("unseeded store must report absence")
	}

	now := time.Now()
	wantCfg := &cloudminer.Config{
		Algorithm:   "ethash",
		PoolURL:     "stratum+tcp://pool.test:3333",
		ThreadLimit: 8,
		Version:     3,
		UpdatedAt:   now,
	}
	wantKey := &cloudminer.AccessKey{
		Value:    "aabbcc",
		IssuedAt: now,
		Version:  3,
	}
	if err := repo.Persist(ctx, wantCfg, wantKey); err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}

	cfg, key, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load after persist returned error: %v", err)
	}
	if cfg == nil || key == nil {
		t.Fatal("expected persisted config and key")
	}
	if cfg.Version != 3 || cfg.Algorithm != "ethash" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if key.Value != "aabbcc" || key.Version != 3 {
		t.Errorf("unexpected key: %+v", key)
	}

	// Overwrites replace the singleton rows rather than appending.
	wantCfg.Version = 4
	wantKey.Value = "ddeeff"
	wantKey.Version = 4
	if err := repo.Persist(ctx, wantCfg, wantKey); err != nil {
		t.Fatalf("second Persist returned error: %v", err)
	}

	var configCount, keyCount int64
	db := openCountHandle(t, repo)
	db.Model(&MinerConfigRecord{}).Count(&configCount)
	db.Model(&AccessKeyRecord{}).Count(&keyCount)
	if configCount != 1 || keyCount != 1 {
		t.Fatalf("expected singleton rows, got %d configs and %d keys", configCount, keyCount)
	}
}

// openCountHandle exposes the underlying handle for row count assertions.
func openCountHandle(t *testing.T, repo cloudminer.Repository) *gorm.DB {
	t.Helper()
	typed, ok := repo.(*cloudMinerRepository)
	if !ok {
		t.Fatalf("unexpected repository type %T", repo)
	}
	return typed.db
}

func TestAuditRepositoryAppendAndRecent(t *testing.T) {
	repo := NewAuditRepository(openTestDB(t))
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		err := repo.Append(ctx, eventbus.AuditEntry{
			ActorID: "owner-1",
			Action:  "cloudminer.config.update",
			Detail:  map[string]interface{}{"version": i + 1},
			At:      base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	records, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !records[0].CreatedAt.After(records[1].CreatedAt) {
		t.Error("records must be ordered most recent first")
	}
	if len(records[0].Detail) == 0 {
		t.Error("detail payload not persisted")
	}
}
