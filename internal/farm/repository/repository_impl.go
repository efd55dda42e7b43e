// Package repository is the storage boundary for ledgered entities.
// Visibility scoping is applied inside the queries here, never after
// fetching: a row the actor cannot see is a row that does not exist.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/farmsaathi/farmsaathi/internal/access"
	"github.com/farmsaathi/farmsaathi/internal/farm/domain"
	"github.com/farmsaathi/farmsaathi/internal/principal"
	"github.com/farmsaathi/farmsaathi/pkg/db/pagination"
)

type Repo[T any, P interface {
	*T
	domain.Ledgered
}] struct{}

func New[T any, P interface {
	*T
	domain.Ledgered
}]() *Repo[T, P] {
	return &Repo[T, P]{}
}

func (r *Repo[T, P]) Insert(ctx context.Context, db *gorm.DB, entity P) error {
	return db.WithContext(ctx).Create(entity).Error
}

// FindVisible fetches by id under the actor's visibility predicate.
// A row outside the predicate reads as absent.
func (r *Repo[T, P]) FindVisible(ctx context.Context, db *gorm.DB, actor principal.Principal, id snowflake.ID) (P, error) {
	var row T
	err := db.WithContext(ctx).
		Scopes(access.Scope(actor)).
		First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// FindByID fetches by id ignoring the visibility predicate. Mutation
// paths use it after AuthorizeWrite so that NotFound and Forbidden stay
// distinguishable.
func (r *Repo[T, P]) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (P, error) {
	var row T
	err := db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Owner returns the stored owner of id, ignoring the visibility
// predicate. The zero ID means the row does not exist.
func (r *Repo[T, P]) Owner(ctx context.Context, db *gorm.DB, id snowflake.ID) (snowflake.ID, error) {
	var owner snowflake.ID
	err := db.WithContext(ctx).
		Model(P(new(T))).
		Select("created_by").
		Where("id = ?", id).
		Scan(&owner).Error
	if err != nil {
		return 0, err
	}
	return owner, nil
}

func (r *Repo[T, P]) List(ctx context.Context, db *gorm.DB, actor principal.Principal, filter domain.ListFilter, page pagination.Pagination) ([]P, error) {
	stmt := db.WithContext(ctx).
		Model(P(new(T))).
		Scopes(access.Scope(actor))

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", *filter.CreatedTo)
	}

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		at, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, err
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where("created_at < ? OR (created_at = ? AND id < ?)", at, at, id)
	}

	var rows []P
	err := stmt.
		Order("created_at desc, id desc").
		Limit(page.PageSize + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Count counts rows visible to the actor, for report aggregates.
func (r *Repo[T, P]) Count(ctx context.Context, db *gorm.DB, actor principal.Principal) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(P(new(T))).
		Scopes(access.Scope(actor)).
		Count(&count).Error
	return count, err
}

// UpdateColumns applies a plain field update by id. Callers must have
// authorized the write and must not include ledger-managed columns.
func (r *Repo[T, P]) UpdateColumns(ctx context.Context, db *gorm.DB, id snowflake.ID, cols map[string]any) error {
	return db.WithContext(ctx).
		Model(P(new(T))).
		Where("id = ?", id).
		Updates(cols).Error
}

// CompareAndSwap writes the ledger state only if the row version is
// still the one the caller read. Returns false when a concurrent
// append won the race; the caller re-reads and retries.
func (r *Repo[T, P]) CompareAndSwap(ctx context.Context, db *gorm.DB, id snowflake.ID, version int64, cols map[string]any) (bool, error) {
	cols["version"] = version + 1
	result := db.WithContext(ctx).
		Model(P(new(T))).
		Where("id = ? AND version = ?", id, version).
		Updates(cols)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *Repo[T, P]) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(P(new(T))).Error
}
