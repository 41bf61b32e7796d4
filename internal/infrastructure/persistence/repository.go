package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListOptions describes how a resource may be searched, filtered and sorted
type ListOptions struct {
	// SearchColumns are matched with a case-insensitive LIKE
	SearchColumns []string
	// FullText, when set, is the tsvector expression used on PostgreSQL
	// instead of the LIKE search; it must match a GIN index.
	FullText string
	// FilterColumns are the equality filters accepted from shared.Filter
	FilterColumns map[string]bool
	// SortFields whitelists order_by values; created_at is always allowed
	SortFields  map[string]bool
	DefaultSort string
	Preload     []string
	// PreloadOrder orders the preloaded children, e.g. "line_no"
	PreloadOrder string
}

type versioned interface {
	GetVersion() int
	IncrementVersion()
}

// GormRepository is the organization-scoped CRUD repository shared by every
// aggregate. T must embed shared.TenantEntity; soft delete applies when T
// has a deleted_at column (shared.TenantAggregateRoot).
type GormRepository[T any] struct {
	db         *gorm.DB
	opts       ListOptions
	softDelete bool
}

// NewGormRepository creates a new GormRepository
func NewGormRepository[T any](db *gorm.DB, opts ListOptions) *GormRepository[T] {
	if opts.DefaultSort == "" {
		opts.DefaultSort = "created_at"
	}
	var zero T
	_, soft := any(&zero).(shared.SoftDeletable)
	return &GormRepository[T]{db: db, opts: opts, softDelete: soft}
}

// Conn returns the connection for ctx, joining an open transaction
func (r *GormRepository[T]) Conn(ctx context.Context) *gorm.DB {
	return Conn(ctx, r.db)
}

// Scoped returns a query on T limited to the organization's live rows
func (r *GormRepository[T]) Scoped(ctx context.Context, orgID uuid.UUID) *gorm.DB {
	q := r.Conn(ctx).Model(new(T)).Where("organization_id = ?", orgID)
	if r.softDelete {
		q = q.Where("deleted_at IS NULL")
	}
	return q
}

// FindByID finds an entity by ID within an organization
func (r *GormRepository[T]) FindByID(ctx context.Context, orgID, id uuid.UUID) (*T, error) {
	var entity T
	q := r.Scoped(ctx, orgID)
	q = r.preload(q)
	if err := q.Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &entity, nil
}

// FindForUpdate loads an entity and locks its row until the transaction ends
func (r *GormRepository[T]) FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*T, error) {
	var entity T
	q := r.Scoped(ctx, orgID)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	q = r.preload(q)
	if err := q.Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &entity, nil
}

func (r *GormRepository[T]) preload(q *gorm.DB) *gorm.DB {
	for _, p := range r.opts.Preload {
		if r.opts.PreloadOrder != "" {
			order := r.opts.PreloadOrder
			q = q.Preload(p, func(db *gorm.DB) *gorm.DB { return db.Order(order) })
			continue
		}
		q = q.Preload(p)
	}
	return q
}

// FindOne returns the first live row matching query
func (r *GormRepository[T]) FindOne(ctx context.Context, orgID uuid.UUID, query string, args ...any) (*T, error) {
	var entity T
	if err := r.Scoped(ctx, orgID).Where(query, args...).First(&entity).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &entity, nil
}

// FindWhere returns every live row matching query, in creation order
func (r *GormRepository[T]) FindWhere(ctx context.Context, orgID uuid.UUID, query string, args ...any) ([]T, error) {
	var out []T
	q := r.Scoped(ctx, orgID)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}

// Exists reports whether a live row matches query
func (r *GormRepository[T]) Exists(ctx context.Context, orgID uuid.UUID, query string, args ...any) (bool, error) {
	var count int64
	if err := r.Scoped(ctx, orgID).Where(query, args...).Count(&count).Error; err != nil {
		return false, TranslateError(err)
	}
	return count > 0, nil
}

// List returns one page of entities plus the total number of matches
func (r *GormRepository[T]) List(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]T, int64, error) {
	filter = filter.Normalize()
	q := r.applyFilter(r.Scoped(ctx, orgID), filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}

	var items []T
	q = q.Order(r.orderClause(filter)).Offset(filter.Offset()).Limit(filter.PageSize)
	q = r.preload(q)
	if err := q.Find(&items).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	return items, total, nil
}

// Create inserts the entity together with its associations
func (r *GormRepository[T]) Create(ctx context.Context, entity *T) error {
	return TranslateError(r.Conn(ctx).Create(entity).Error)
}

// Update writes every column of the entity. Versioned aggregates are
// written only if nobody changed them since they were loaded.
func (r *GormRepository[T]) Update(ctx context.Context, entity *T) error {
	if touch, ok := any(entity).(interface{ Touch() }); ok {
		touch.Touch()
	}

	v, ok := any(entity).(versioned)
	if !ok {
		return TranslateError(r.Conn(ctx).Omit(clause.Associations).Save(entity).Error)
	}

	expected := v.GetVersion()
	v.IncrementVersion()
	res := r.Conn(ctx).Model(entity).
		Where("version = ?", expected).
		Select("*").Omit(clause.Associations).
		Updates(entity)
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete soft-deletes the entity when it supports it, otherwise removes the row
func (r *GormRepository[T]) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	var res *gorm.DB
	if r.softDelete {
		res = r.Scoped(ctx, orgID).Where("id = ?", id).
			Updates(map[string]any{"deleted_at": time.Now().UTC(), "updated_at": time.Now().UTC()})
	} else {
		res = r.Conn(ctx).Where("organization_id = ? AND id = ?", orgID, id).Delete(new(T))
	}
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReplaceChildren deletes the rows of child owned by parentColumn = parentID
// and inserts items in their place. Used for document line items.
func ReplaceChildren[C any](ctx context.Context, db *gorm.DB, parentColumn string, parentID uuid.UUID, items []C) error {
	conn := Conn(ctx, db)
	if err := conn.Where(parentColumn+" = ?", parentID).Delete(new(C)).Error; err != nil {
		return TranslateError(err)
	}
	if len(items) == 0 {
		return nil
	}
	return TranslateError(conn.Create(&items).Error)
}

func (r *GormRepository[T]) applyFilter(q *gorm.DB, filter shared.Filter) *gorm.DB {
	if s := strings.TrimSpace(filter.Search); s != "" {
		switch {
		case r.opts.FullText != "" && q.Dialector.Name() == "postgres":
			q = q.Where(fmt.Sprintf("%s @@ plainto_tsquery('simple', ?)", r.opts.FullText), s)
		case len(r.opts.SearchColumns) > 0:
			like := "%" + strings.ToLower(s) + "%"
			conds := make([]string, len(r.opts.SearchColumns))
			args := make([]any, len(r.opts.SearchColumns))
			for i, col := range r.opts.SearchColumns {
				conds[i] = fmt.Sprintf("LOWER(COALESCE(%s, '')) LIKE ?", col)
				args[i] = like
			}
			q = q.Where("("+strings.Join(conds, " OR ")+")", args...)
		}
	}

	for col, val := range filter.Filters {
		if !r.opts.FilterColumns[col] || val == nil {
			continue
		}
		if s, ok := val.(string); ok && s == "" {
			continue
		}
		q = q.Where(clause.Eq{Column: clause.Column{Name: col}, Value: val})
	}
	return q
}

func (r *GormRepository[T]) orderClause(filter shared.Filter) string {
	field := r.opts.DefaultSort
	if filter.OrderBy == "created_at" || r.opts.SortFields[filter.OrderBy] {
		field = filter.OrderBy
	}
	return fmt.Sprintf("%s %s, id ASC", field, ValidateSortOrder(filter.OrderDir))
}
