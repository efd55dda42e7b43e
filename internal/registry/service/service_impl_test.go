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

	"github.com/farmsaathi/farmsaathi/internal/access"
	"github.com/farmsaathi/farmsaathi/internal/principal"
	"github.com/farmsaathi/farmsaathi/internal/registry/domain"
)

var (
	managerA = principal.Principal{ID: 3001, Role: principal.RoleManager}
	managerB = principal.Principal{ID: 3002, Role: principal.RoleManager}
	admin    = principal.Principal{ID: 9001, Role: principal.RoleAdmin}
)

func newEmployees(t *testing.T) *EmployeeService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Employee{}))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	return NewEmployeeService(Params{DB: db, Log: zap.NewNop(), GenID: node})
}

func TestEmbeddedOwnedColumnsAreMapped(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Employee{}))

	for _, column := range []string{"id", "created_by", "created_at", "updated_at"} {
		assert.True(t, db.Migrator().HasColumn(&domain.Employee{}, column), column)
	}
}

func TestEmployee_OwnershipScoping(t *testing.T) {
	svc := newEmployees(t)
	ctx := context.Background()

	employee, err := svc.Create(ctx, managerA, &domain.Employee{Name: "Sita", Position: "field hand"})
	require.NoError(t, err)
	assert.Equal(t, managerA.ID, employee.OwnerID())

	_, err = svc.Get(ctx, managerB, employee.RecordID())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := svc.Get(ctx, admin, employee.RecordID())
	require.NoError(t, err)
	assert.Equal(t, "Sita", got.Name)

	mine, err := svc.List(ctx, managerA)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.List(ctx, managerB)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestEmployee_WriteDiscipline(t *testing.T) {
	svc := newEmployees(t)
	ctx := context.Background()

	employee, err := svc.Create(ctx, managerA, &domain.Employee{Name: "Sita"})
	require.NoError(t, err)

	err = svc.Update(ctx, managerB, employee.RecordID(), map[string]any{"position": "supervisor"})
	assert.ErrorIs(t, err, access.ErrForbidden)

	err = svc.Update(ctx, managerA, employee.RecordID(), map[string]any{"created_by": 1})
	assert.ErrorIs(t, err, domain.ErrInvalidField)

	err = svc.Update(ctx, managerA, snowflake.ID(424242), map[string]any{"position": "supervisor"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Update(ctx, managerA, employee.RecordID(), map[string]any{"position": "supervisor"}))
	got, err := svc.Get(ctx, managerA, employee.RecordID())
	require.NoError(t, err)
	assert.Equal(t, "supervisor", got.Position)

	err = svc.Delete(ctx, managerB, employee.RecordID())
	assert.ErrorIs(t, err, access.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, managerA, employee.RecordID()))
	_, err = svc.Get(ctx, managerA, employee.RecordID())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
