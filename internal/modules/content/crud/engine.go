package crud

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/webapp-skeleton/cms/internal/pkg/pagination"
	"github.com/webapp-skeleton/cms/internal/pkg/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by single-entry operations when nothing matches.
var ErrNotFound = errors.New("entry not found")

// Meta accompanies every `{data, meta}` response.
type Meta struct {
	Pagination *pagination.Meta `json:"pagination,omitempty"`
}

// Result is a list response.
type Result[T any] struct {
	Data []T `json:"data"`
	Meta Meta `json:"meta"`
}

// Single is a one-entry response. Data is nil when nothing matched.
type Single[T any] struct {
	Data *T   `json:"data"`
	Meta Meta `json:"meta"`
}

// Engine is the generic read/write layer for one content type.
type Engine[T any] struct {
	db     *gorm.DB
	schema *Schema
}

func New[T any](db *gorm.DB, schema *Schema) *Engine[T] {
	return &Engine[T]{db: db, schema: schema}
}

func (e *Engine[T]) Schema() *Schema { return e.schema }

// DB returns the underlying handle bound to ctx.
func (e *Engine[T]) DB(ctx context.Context) *gorm.DB { return e.db.WithContext(ctx) }

// Find lists entries matching spec, one page at a time.
func (e *Engine[T]) Find(ctx context.Context, spec query.Spec) (Result[T], error) {
	preloads, err := e.schema.Preloads(spec.Populate)
	if err != nil {
		return Result[T]{}, err
	}
	orders, err := e.schema.orders(spec.Sort)
	if err != nil {
		return Result[T]{}, err
	}

	tx := e.db.WithContext(ctx).Model(new(T))
	for _, c := range spec.Filters {
		where, args, err := e.schema.condition(c)
		if err != nil {
			return Result[T]{}, err
		}
		tx = tx.Where(where, args...)
	}

	var rows []T
	meta, err := pagination.Paginate(tx, spec.Pagination, &rows, orderBy(orders), withPreloads(preloads))
	if err != nil {
		return Result[T]{}, fmt.Errorf("find %s: %w", e.schema.Name, err)
	}
	return Result[T]{Data: rows, Meta: Meta{Pagination: &meta}}, nil
}

// FindOne loads one entry by numeric id or documentId. Filters, sort and
// pagination in spec are ignored; its populate tree is honoured.
func (e *Engine[T]) FindOne(ctx context.Context, id string, spec query.Spec) (Single[T], error) {
	preloads, err := e.schema.Preloads(spec.Populate)
	if err != nil {
		return Single[T]{}, err
	}

	var row T
	tx := whereRef(e.db.WithContext(ctx).Scopes(withPreloads(preloads)), ParseRef(id))
	if err := tx.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Single[T]{}, ErrNotFound
		}
		return Single[T]{}, fmt.Errorf("find %s %s: %w", e.schema.Name, id, err)
	}
	return Single[T]{Data: &row}, nil
}

// Create inserts v together with the associations it carries.
func (e *Engine[T]) Create(ctx context.Context, v *T) error {
	if err := e.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("create %s: %w", e.schema.Name, err)
	}
	return nil
}

// Save updates v's own columns. Associations are left to the caller.
func (e *Engine[T]) Save(ctx context.Context, v *T) error {
	if err := e.db.WithContext(ctx).Omit(clause.Associations).Save(v).Error; err != nil {
		return fmt.Errorf("save %s: %w", e.schema.Name, err)
	}
	return nil
}

// Delete removes the entry and its owned components, returning what was deleted.
func (e *Engine[T]) Delete(ctx context.Context, id string) (*T, error) {
	row, err := Take[T](e.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := e.db.WithContext(ctx).Select(clause.Associations).Delete(row).Error; err != nil {
		return nil, fmt.Errorf("delete %s %s: %w", e.schema.Name, id, err)
	}
	return row, nil
}

// Take loads the bare row id refers to, without relations.
func Take[T any](db *gorm.DB, id string) (*T, error) {
	var row T
	if err := whereRef(db, ParseRef(id)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find %s: %w", id, err)
	}
	return &row, nil
}

func (s *Schema) orders(sorts []query.Sort) ([]clause.OrderByColumn, error) {
	out := make([]clause.OrderByColumn, 0, len(sorts)+1)
	byID := false
	for _, so := range sorts {
		attr, ok := s.Attributes[so.Field]
		if !ok {
			return nil, query.Invalid("sort", "unknown attribute %q on %s", so.Field, s.Name)
		}
		byID = byID || attr.Column == "id"
		out = append(out, clause.OrderByColumn{Column: clause.Column{Name: attr.Column}, Desc: so.Desc})
	}
	if !byID {
		out = append(out, clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}
	return out, nil
}

func orderBy(orders []clause.OrderByColumn) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, o := range orders {
			db = db.Order(o)
		}
		return db
	}
}

func withPreloads(preloads []Preload) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, p := range preloads {
			if p.Order == "" {
				db = db.Preload(p.Path)
				continue
			}
			order := p.Order
			db = db.Preload(p.Path, func(tx *gorm.DB) *gorm.DB { return tx.Order(order) })
		}
		return db
	}
}

func whereRef(db *gorm.DB, ref Ref) *gorm.DB {
	if ref.ID != 0 {
		return db.Where("id = ?", ref.ID)
	}
	return db.Where("document_id = ?", ref.DocumentID)
}

// Ref points at an entry by numeric id or documentId.
type Ref struct {
	ID         uint
	DocumentID string
}

// ParseRef reads a path parameter or payload string as a Ref.
func ParseRef(s string) Ref {
	if n, err := strconv.ParseUint(s, 10, 64); err == nil && n > 0 {
		return Ref{ID: uint(n)}
	}
	return Ref{DocumentID: s}
}

func (r Ref) IsZero() bool { return r.ID == 0 && r.DocumentID == "" }

func (r Ref) String() string {
	if r.ID != 0 {
		return strconv.FormatUint(uint64(r.ID), 10)
	}
	return r.DocumentID
}
