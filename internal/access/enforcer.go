package access

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"

	"github.com/farmsaathi/farmsaathi/internal/principal"
)

//go:embed model.conf
var modelText string

// Objects and actions for role gating. Ownership scoping is handled by
// Scope/AuthorizeWrite; the enforcer only answers "may this role use
// this endpoint at all", mirroring the original requirePermission gate.
const (
	ObjectCrop        = "crop"
	ObjectLivestock   = "livestock"
	ObjectInventory   = "inventory"
	ObjectEmployee    = "employee"
	ObjectEquipment   = "equipment"
	ObjectFinance     = "finance"
	ObjectReport      = "report"
	ObjectActivityLog = "activity_log"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionRecord = "record" // sale / production / adjustment events
)

// NewEnforcer builds the role/action enforcer with the static policy.
// Both roles run the record-keeping modules; the activity log is
// admin-only, as user administration was in the original system.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("parse access model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("build enforcer: %w", err)
	}

	managed := []string{
		ObjectCrop, ObjectLivestock, ObjectInventory,
		ObjectEmployee, ObjectEquipment, ObjectFinance, ObjectReport,
	}
	actions := []string{ActionView, ActionCreate, ActionUpdate, ActionDelete, ActionRecord}
	for _, obj := range managed {
		for _, act := range actions {
			if _, err := e.AddPolicy(string(principal.RoleManager), obj, act); err != nil {
				return nil, err
			}
		}
	}
	if _, err := e.AddPolicy(string(principal.RoleAdmin), ObjectActivityLog, ActionView); err != nil {
		return nil, err
	}
	// Admins inherit everything managers can do.
	if _, err := e.AddGroupingPolicy(string(principal.RoleAdmin), string(principal.RoleManager)); err != nil {
		return nil, err
	}

	return e, nil
}

// Allowed checks the role/action policy for the principal.
func Allowed(e *casbin.Enforcer, p principal.Principal, object, action string) bool {
	ok, err := e.Enforce(string(p.Role), object, action)
	return err == nil && ok
}
