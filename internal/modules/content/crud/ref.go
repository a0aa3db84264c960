package crud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/webapp-skeleton/cms/internal/pkg/query"
	"gorm.io/gorm"
)

// UnmarshalJSON accepts `3`, `"3"`, `"<documentId>"`, `{"id": 3}` and
// `{"documentId": "..."}`.
func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = Ref{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = ParseRef(s)
		return nil
	case '{':
		var obj struct {
			ID         uint   `json:"id"`
			DocumentID string `json:"documentId"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*r = Ref{ID: obj.ID, DocumentID: obj.DocumentID}
		return nil
	}
	var n uint
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("relation reference must be an id or a documentId")
	}
	*r = Ref{ID: n}
	return nil
}

// Lookup loads the entries refs point at. Every ref must resolve, otherwise a
// ValidationError naming field is returned.
func Lookup[T any](ctx context.Context, db *gorm.DB, field string, refs []Ref) ([]T, error) {
	var ids []uint
	var docs []string
	seen := map[Ref]bool{}
	for _, r := range refs {
		if r.IsZero() || seen[r] {
			continue
		}
		seen[r] = true
		if r.ID != 0 {
			ids = append(ids, r.ID)
		} else {
			docs = append(docs, r.DocumentID)
		}
	}
	if len(seen) == 0 {
		return []T{}, nil
	}

	tx := db.WithContext(ctx).Model(new(T))
	switch {
	case len(ids) > 0 && len(docs) > 0:
		tx = tx.Where("id IN ? OR document_id IN ?", ids, docs)
	case len(ids) > 0:
		tx = tx.Where("id IN ?", ids)
	default:
		tx = tx.Where("document_id IN ?", docs)
	}

	var rows []T
	if err := tx.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("resolve %s: %w", field, err)
	}
	if len(rows) != len(seen) {
		return nil, query.Invalid(field, "references %d unknown entries", len(seen)-len(rows))
	}
	return rows, nil
}

// LookupOne resolves a single optional reference. A zero ref yields nil.
func LookupOne[T any](ctx context.Context, db *gorm.DB, field string, ref Ref) (*T, error) {
	if ref.IsZero() {
		return nil, nil
	}
	rows, err := Lookup[T](ctx, db, field, []Ref{ref})
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}
