package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/farmsaathi/farmsaathi/internal/access"
	activitydomain "github.com/farmsaathi/farmsaathi/internal/activity/domain"
	activityservice "github.com/farmsaathi/farmsaathi/internal/activity/service"
	"github.com/farmsaathi/farmsaathi/internal/farm/domain"
	financedomain "github.com/farmsaathi/farmsaathi/internal/finance/domain"
	financerepo "github.com/farmsaathi/farmsaathi/internal/finance/repository"
	financeservice "github.com/farmsaathi/farmsaathi/internal/finance/service"
	"github.com/farmsaathi/farmsaathi/internal/posting"
	"github.com/farmsaathi/farmsaathi/internal/principal"
)

var (
	managerA = principal.Principal{ID: 1001, Role: principal.RoleManager}
	managerB = principal.Principal{ID: 1002, Role: principal.RoleManager}
	admin    = principal.Principal{ID: 9001, Role: principal.RoleAdmin}
)

type env struct {
	db      *gorm.DB
	crops   *CropService
	items   *InventoryService
	finance financedomain.Service
	poster  domain.Poster
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Crop{},
		&domain.Livestock{},
		&domain.InventoryItem{},
		&financedomain.FinancialRecord{},
		&activitydomain.ActivityLog{},
	))
	// SQLite needs the exact unique index for ON CONFLICT to target.
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS ux_financial_records_source ON financial_records(source_type, source_id, source_event_index)")

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	logger := zap.NewNop()

	financeSvc := financeservice.New(financeservice.Params{
		DB:    db,
		Log:   logger,
		GenID: node,
		Repo:  financerepo.Provide(),
	})
	poster := posting.New(posting.Params{Log: logger, Finance: financeSvc})
	activitySvc := activityservice.New(activityservice.Params{DB: db, Log: logger, GenID: node})

	params := Params{
		DB:       db,
		Log:      logger,
		GenID:    node,
		Poster:   poster,
		Activity: activitySvc,
	}
	return &env{
		db:      db,
		crops:   NewCropService(params),
		items:   NewInventoryService(params),
		finance: financeSvc,
		poster:  poster,
	}
}

func (e *env) createCrop(t *testing.T, actor principal.Principal, planted float64) *domain.Crop {
	t.Helper()
	crop, err := e.crops.Create(context.Background(), actor, &domain.Crop{
		Name:            "Wheat",
		Unit:            "kg",
		PlantedQuantity: planted,
	})
	require.NoError(t, err)
	return crop
}

func sale(quantity, unitValue float64) domain.LedgerEvent {
	return domain.LedgerEvent{
		Type:      domain.EventSale,
		Date:      time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC),
		Quantity:  quantity,
		UnitValue: unitValue,
		Buyer:     "Ramesh",
	}
}

func (e *env) financialRecordCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&financedomain.FinancialRecord{}).Count(&count).Error)
	return count
}

func TestCreate_ForcesOwnership(t *testing.T) {
	e := newEnv(t)

	crop, err := e.crops.Create(context.Background(), managerA, &domain.Crop{
		Name:            "Rice",
		Unit:            "kg",
		PlantedQuantity: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, managerA.ID, crop.OwnerID())
	assert.Equal(t, domain.StatusActive, crop.Status)
	assert.Equal(t, 50.0, crop.RemainingQuantity)
	assert.EqualValues(t, 1, crop.Version)
	assert.Empty(t, crop.LedgerEvents())
}

func TestCreate_OverwritesForgedOwner(t *testing.T) {
	e := newEnv(t)

	forged := &domain.Crop{Name: "Maize", Unit: "kg", PlantedQuantity: 10}
	forged.CreatedBy = managerB.ID

	crop, err := e.crops.Create(context.Background(), managerA, forged)
	require.NoError(t, err)
	assert.Equal(t, managerA.ID, crop.OwnerID())
}

func TestGet_OtherOwnersRecordReadsAsNotFound(t *testing.T) {
	e := newEnv(t)
	crop := e.createCrop(t, managerA, 100)

	_, err := e.crops.Get(context.Background(), managerB, crop.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := e.crops.Get(context.Background(), admin, crop.ID)
	require.NoError(t, err)
	assert.Equal(t, crop.ID, got.ID)
}

func TestAppendEvent_CrossOwnerForbiddenAndStateUnchanged(t *testing.T) {
	e := newEnv(t)
	crop := e.createCrop(t, managerA, 100)

	_, err := e.crops.AppendEvent(context.Background(), managerB, crop.ID, sale(10, 2))
	assert.ErrorIs(t, err, access.ErrForbidden)

	got, err := e.crops.Get(context.Background(), managerA, crop.ID)
	require.NoError(t, err)
	assert.Empty(t, got.LedgerEvents())
	assert.Equal(t, 100.0, got.RemainingQuantity)
	assert.EqualValues(t, 0, e.financialRecordCount(t))
}

func TestAppendEvent_SalePostsIncomeAndDepletes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	crop := e.createCrop(t, managerA, 100)

	result, err := e.crops.AppendEvent(ctx, managerA, crop.ID, sale(30, 2))
	require.NoError(t, err)
	require.NoError(t, result.PostingErr)

	assert.Equal(t, 0, result.EventIndex)
	assert.Equal(t, 70.0, result.Entity.RemainingQuantity)
	assert.Equal(t, 60.0, result.Entity.TotalSaleValue)
	assert.Equal(t, domain.StatusActive, result.Entity.Status)
	require.NotZero(t, result.FinancialRecordID)

	var record financedomain.FinancialRecord
	require.NoError(t, e.db.First(&record, "id = ?", result.FinancialRecordID).Error)
	assert.Equal(t, financedomain.RecordIncome, record.Type)
	assert.Equal(t, "crop_sales", record.Category)
	assert.Equal(t, 60.0, record.Amount)
	assert.Equal(t, managerA.ID, record.CreatedBy)
	assert.Equal(t, "crop", record.SourceType)
	assert.Equal(t, crop.ID, record.SourceID)
	assert.Equal(t, 0, record.SourceEventIndex)

	result, err = e.crops.AppendEvent(ctx, managerA, crop.ID, sale(70, 3))
	require.NoError(t, err)
	assert.Equal(t, 1, result.EventIndex)
	assert.Equal(t, 0.0, result.Entity.RemainingQuantity)
	assert.Equal(t, domain.StatusSold, result.Entity.Status)
	assert.EqualValues(t, 2, e.financialRecordCount(t))

	// A depleted entity cannot sell again.
	_, err = e.crops.AppendEvent(ctx, managerA, crop.ID, sale(1, 1))
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
}

func TestAppendEvent_OversellRejected(t *testing.T) {
	e := newEnv(t)
	crop := e.createCrop(t, managerA, 100)

	_, err := e.crops.AppendEvent(context.Background(), managerA, crop.ID, sale(130, 2))
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
	assert.EqualValues(t, 0, e.financialRecordCount(t))
}

func TestAppendEvent_SalesExhaustBalanceExactly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	crop := e.createCrop(t, managerA, 100)

	for i := 0; i < 5; i++ {
		_, err := e.crops.AppendEvent(ctx, managerA, crop.ID, sale(20, 2))
		require.NoError(t, err)
	}

	stored, err := e.crops.Get(ctx, managerA, crop.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, stored.RemainingQuantity)
	assert.Equal(t, domain.StatusSold, stored.Status)

	_, err = e.crops.AppendEvent(ctx, managerA, crop.ID, sale(1, 2))
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
	assert.EqualValues(t, 5, e.financialRecordCount(t))
}

func TestAppendEvent_ConcurrentSalesSerialize(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	crop := e.createCrop(t, managerA, 100)

	// Pin the pool to one connection so every goroutine hits the same
	// in-memory database and writes serialize like they would under a
	// real server's row locks.
	sqlDB, err := e.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	const workers = 5
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, err := e.crops.AppendEvent(ctx, managerA, crop.ID, sale(20, 2))
				if errors.Is(err, domain.ErrConflict) {
					// Retryable by contract; a caller would resubmit.
					continue
				}
				errs <- err
				return
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := e.crops.Get(ctx, managerA, crop.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.RemainingQuantity)
	assert.Equal(t, domain.StatusSold, got.Status)
	require.Len(t, got.LedgerEvents(), workers)
	for i, ev := range got.LedgerEvents() {
		assert.Equal(t, i, ev.Index)
	}
	assert.EqualValues(t, workers, e.financialRecordCount(t))

	_, err = e.crops.AppendEvent(ctx, managerA, crop.ID, sale(1, 2))
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
}

func TestAppendEvent_ProductionAndAdjustmentPostNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	crop := e.createCrop(t, managerA, 100)

	result, err := e.crops.AppendEvent(ctx, managerA, crop.ID, domain.LedgerEvent{
		Type:     domain.EventProduction,
		Date:     time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Quantity: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, 140.0, result.Entity.RemainingQuantity)
	assert.Zero(t, result.FinancialRecordID)

	result, err = e.crops.AppendEvent(ctx, managerA, crop.ID, domain.LedgerEvent{
		Type:          domain.EventAdjustment,
		Date:          time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		QuantityDelta: -15,
	})
	require.NoError(t, err)
	assert.Equal(t, 125.0, result.Entity.RemainingQuantity)
	assert.EqualValues(t, 0, e.financialRecordCount(t))
}

func TestAppendEvent_InventoryDepletesToTerminalStatus(t *testing.T) {
	e := newEnv(t)
	item, err := e.items.Create(context.Background(), managerA, &domain.InventoryItem{
		Name:     "Seed bags",
		Unit:     "bag",
		Quantity: 5,
	})
	require.NoError(t, err)

	result, err := e.items.AppendEvent(context.Background(), managerA, item.ID, sale(5, 100))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDepleted, result.Entity.Status)

	var record financedomain.FinancialRecord
	require.NoError(t, e.db.First(&record, "id = ?", result.FinancialRecordID).Error)
	assert.Equal(t, "inventory_sales", record.Category)
}

func TestPosting_IdempotentOnRetry(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	crop := e.createCrop(t, managerA, 100)

	result, err := e.crops.AppendEvent(ctx, managerA, crop.ID, sale(30, 2))
	require.NoError(t, err)
	require.NoError(t, result.PostingErr)

	// Replaying the posting for the same (kind, id, index) must return
	// the stored record instead of a second one.
	appended := result.Entity.LedgerEvents()[result.EventIndex]
	recordID, err := e.poster.PostSale(ctx, managerA, result.Entity, appended)
	require.NoError(t, err)
	assert.Equal(t, result.FinancialRecordID, recordID)
	assert.EqualValues(t, 1, e.financialRecordCount(t))
}

func TestUpdate_RejectsLedgerManagedColumns(t *testing.T) {
	e := newEnv(t)
	crop := e.createCrop(t, managerA, 100)

	for _, column := range []string{"events", "remaining_quantity", "version", "created_by", "total_sale_value"} {
		err := e.crops.Update(context.Background(), managerA, crop.ID, map[string]any{column: 1})
		assert.ErrorIs(t, err, domain.ErrInvalidField, column)
	}

	err := e.crops.Update(context.Background(), managerA, crop.ID, map[string]any{"status": "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidField)
}

func TestUpdate_RejectsBaselineRebase(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	crop := e.createCrop(t, managerA, 100)

	_, err := e.crops.AppendEvent(ctx, managerA, crop.ID, sale(30, 2))
	require.NoError(t, err)

	// Rebasing the baseline would detach the stored aggregate from a
	// replay of the log; quantity growth goes through a production event.
	err = e.crops.Update(ctx, managerA, crop.ID, map[string]any{"planted_quantity": 40})
	assert.ErrorIs(t, err, domain.ErrInvalidField)

	got, err := e.crops.Get(ctx, managerA, crop.ID)
	require.NoError(t, err)
	replayed, err := domain.Replay(got.BaselineQuantity(), got.LedgerEvents())
	require.NoError(t, err)
	assert.Equal(t, got.RemainingQuantity, replayed.Remaining)

	item, err := e.items.Create(ctx, managerA, &domain.InventoryItem{Name: "Seed bags", Unit: "bag", Quantity: 5})
	require.NoError(t, err)
	err = e.items.Update(ctx, managerA, item.ID, map[string]any{"quantity": 50})
	assert.ErrorIs(t, err, domain.ErrInvalidField)
}

func TestUpdate_OwnershipDiscipline(t *testing.T) {
	e := newEnv(t)
	crop := e.createCrop(t, managerA, 100)

	err := e.crops.Update(context.Background(), managerB, crop.ID, map[string]any{"notes": "mine now"})
	assert.ErrorIs(t, err, access.ErrForbidden)

	err = e.crops.Update(context.Background(), managerA, snowflake.ID(424242), map[string]any{"notes": "gone"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, e.crops.Update(context.Background(), managerA, crop.ID, map[string]any{"notes": "irrigated"}))
	got, err := e.crops.Get(context.Background(), managerA, crop.ID)
	require.NoError(t, err)
	assert.Equal(t, "irrigated", got.Notes)

	// Admins may update records they do not own.
	require.NoError(t, e.crops.Update(context.Background(), admin, crop.ID, map[string]any{"notes": "checked"}))
}

func TestDelete_KeepsDerivedFinancialRecords(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	crop := e.createCrop(t, managerA, 100)

	result, err := e.crops.AppendEvent(ctx, managerA, crop.ID, sale(30, 2))
	require.NoError(t, err)
	require.NoError(t, result.PostingErr)

	require.NoError(t, e.crops.Delete(ctx, managerA, crop.ID))

	_, err = e.crops.Get(ctx, managerA, crop.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualValues(t, 1, e.financialRecordCount(t))
}

func TestList_AdminSeesUnionOfOwners(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.createCrop(t, managerA, 10)
	e.createCrop(t, managerA, 20)
	e.createCrop(t, managerB, 30)

	mine, err := e.crops.List(ctx, managerA, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 2)
	for _, crop := range mine.Items {
		assert.Equal(t, managerA.ID, crop.OwnerID())
	}

	all, err := e.crops.List(ctx, admin, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)

	count, err := e.crops.Count(ctx, managerB)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestList_CursorPagination(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		e.createCrop(t, managerA, float64(10*(i+1)))
	}

	first, err := e.crops.List(ctx, managerA, domain.ListRequest{PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, first.Items, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	second, err := e.crops.List(ctx, managerA, domain.ListRequest{PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	assert.Len(t, second.Items, 2)
	assert.True(t, second.HasMore)

	third, err := e.crops.List(ctx, managerA, domain.ListRequest{PageSize: 2, PageToken: second.NextPageToken})
	require.NoError(t, err)
	assert.Len(t, third.Items, 1)
	assert.False(t, third.HasMore)

	seen := map[snowflake.ID]bool{}
	for _, page := range [][]*domain.Crop{first.Items, second.Items, third.Items} {
		for _, crop := range page {
			assert.False(t, seen[crop.ID], "crop repeated across pages")
			seen[crop.ID] = true
		}
	}
	assert.Len(t, seen, 5)
}

func TestAppendEvent_ReplayMatchesStoredAggregate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	crop := e.createCrop(t, managerA, 200)

	for _, quantity := range []float64{20, 35, 5} {
		_, err := e.crops.AppendEvent(ctx, managerA, crop.ID, sale(quantity, 2))
		require.NoError(t, err)
	}

	got, err := e.crops.Get(ctx, managerA, crop.ID)
	require.NoError(t, err)

	replayed, err := domain.Replay(got.BaselineQuantity(), got.LedgerEvents())
	require.NoError(t, err)
	assert.Equal(t, got.RemainingQuantity, replayed.Remaining)
	assert.Equal(t, got.TotalSaleValue, replayed.TotalSaleValue)
	assert.Equal(t, got.SaleCount, replayed.SaleCount)
}

type failingPoster struct{}

func (failingPoster) PostSale(ctx context.Context, actor principal.Principal, src domain.Ledgered, ev domain.LedgerEvent) (snowflake.ID, error) {
	return 0, posting.ErrPostingFailed
}

func TestAppendEvent_PostingFailureIsWarningNotRollback(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	crops := NewCropService(Params{
		DB:     e.db,
		Log:    zap.NewNop(),
		GenID:  node,
		Poster: failingPoster{},
	})

	crop, err := crops.Create(ctx, managerA, &domain.Crop{Name: "Wheat", Unit: "kg", PlantedQuantity: 100})
	require.NoError(t, err)

	result, err := crops.AppendEvent(ctx, managerA, crop.ID, sale(30, 2))
	require.NoError(t, err)
	assert.ErrorIs(t, result.PostingErr, posting.ErrPostingFailed)
	assert.Zero(t, result.FinancialRecordID)

	// The append itself committed.
	got, err := crops.Get(ctx, managerA, crop.ID)
	require.NoError(t, err)
	assert.Equal(t, 70.0, got.RemainingQuantity)
	assert.Len(t, got.LedgerEvents(), 1)
}

func TestAppendEvent_RecordsActivity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	crop := e.createCrop(t, managerA, 100)

	_, err := e.crops.AppendEvent(ctx, managerA, crop.ID, sale(10, 2))
	require.NoError(t, err)

	var logs []activitydomain.ActivityLog
	require.NoError(t, e.db.Where("module = ? AND action = ?", "crops", "sale").Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, managerA.ID, logs[0].UserID)
}
