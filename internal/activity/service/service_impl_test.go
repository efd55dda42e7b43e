package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/farmsaathi/farmsaathi/internal/activity/domain"
	"github.com/farmsaathi/farmsaathi/internal/principal"
)

func newActivity(t *testing.T) domain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ActivityLog{}))

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	return New(Params{DB: db, Log: zap.NewNop(), GenID: node})
}

func TestRecordAndList_ManagersSeeOnlyTheirTrail(t *testing.T) {
	svc := newActivity(t)
	ctx := context.Background()

	managerA := principal.Principal{ID: 4001, Role: principal.RoleManager}
	managerB := principal.Principal{ID: 4002, Role: principal.RoleManager}
	admin := principal.Principal{ID: 9001, Role: principal.RoleAdmin}

	svc.Record(ctx, managerA, "create", "crops", "Created crop 1")
	svc.Record(ctx, managerA, "sale", "crops", "Sale of Wheat")
	svc.Record(ctx, managerB, "create", "livestock", "Created livestock 2")

	mine, err := svc.List(ctx, managerA, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, mine.ActivityLogs, 2)
	for _, row := range mine.ActivityLogs {
		assert.Equal(t, managerA.ID, row.UserID)
	}

	all, err := svc.List(ctx, admin, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all.ActivityLogs, 3)

	sales, err := svc.List(ctx, admin, domain.ListRequest{Action: "sale"})
	require.NoError(t, err)
	require.Len(t, sales.ActivityLogs, 1)
	assert.Equal(t, "crops", sales.ActivityLogs[0].Module)
}

func TestRecord_InvalidActorIsDropped(t *testing.T) {
	svc := newActivity(t)
	ctx := context.Background()

	svc.Record(ctx, principal.Principal{}, "create", "crops", "anonymous write")

	admin := principal.Principal{ID: 9001, Role: principal.RoleAdmin}
	all, err := svc.List(ctx, admin, domain.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, all.ActivityLogs)
}
