package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farmsaathi/farmsaathi/internal/farm/domain"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Crop{}))
	return db
}

func seedCrop(t *testing.T, db *gorm.DB, repo *Repo[domain.Crop, *domain.Crop], id, owner snowflake.ID) *domain.Crop {
	t.Helper()
	crop := &domain.Crop{Name: "Wheat", Unit: "kg", PlantedQuantity: 100}
	crop.SetIdentity(id, owner, time.Now().UTC())
	crop.SetLedgerState([]domain.LedgerEvent{}, domain.NewAggregate(100), time.Now().UTC())
	require.NoError(t, repo.Insert(context.Background(), db, crop))
	return crop
}

func TestEmbeddedLedgerColumnsAreMapped(t *testing.T) {
	db := newDB(t)
	migrator := db.Migrator()

	// The shared columns live on an embedded struct; gorm must map
	// every one of them onto the entity table.
	for _, column := range []string{
		"id", "created_by", "status", "events",
		"remaining_quantity", "total_sale_value", "sale_count",
		"version", "created_at", "updated_at",
	} {
		assert.True(t, migrator.HasColumn(&domain.Crop{}, column), column)
	}

	repo := New[domain.Crop, *domain.Crop]()
	seedCrop(t, db, repo, 101, 1001)

	stored, err := repo.FindByID(context.Background(), db, 101)
	require.NoError(t, err)
	assert.EqualValues(t, 1001, stored.CreatedBy)
	assert.EqualValues(t, 1, stored.Version)
	assert.Equal(t, domain.StatusActive, stored.Status)
	assert.NotNil(t, stored.Events)
}

func TestCompareAndSwap_StaleVersionLosesRace(t *testing.T) {
	db := newDB(t)
	repo := New[domain.Crop, *domain.Crop]()
	ctx := context.Background()
	crop := seedCrop(t, db, repo, 101, 1001)

	swapped, err := repo.CompareAndSwap(ctx, db, crop.ID, crop.Version, map[string]any{
		"remaining_quantity": 70.0,
	})
	require.NoError(t, err)
	assert.True(t, swapped)

	// A writer still holding the old version must lose.
	swapped, err = repo.CompareAndSwap(ctx, db, crop.ID, crop.Version, map[string]any{
		"remaining_quantity": 90.0,
	})
	require.NoError(t, err)
	assert.False(t, swapped)

	stored, err := repo.FindByID(ctx, db, crop.ID)
	require.NoError(t, err)
	assert.Equal(t, 70.0, stored.RemainingQuantity)
	assert.Equal(t, crop.Version+1, stored.Version)
}

func TestOwner_ZeroMeansAbsent(t *testing.T) {
	db := newDB(t)
	repo := New[domain.Crop, *domain.Crop]()
	ctx := context.Background()
	seedCrop(t, db, repo, 101, 1001)

	owner, err := repo.Owner(ctx, db, 101)
	require.NoError(t, err)
	assert.EqualValues(t, 1001, owner)

	owner, err = repo.Owner(ctx, db, 424242)
	require.NoError(t, err)
	assert.Zero(t, owner)
}
