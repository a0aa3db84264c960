package crud

import (
	"fmt"

	"github.com/webapp-skeleton/cms/internal/pkg/query"
	"gorm.io/gorm"
)

// EnsureUnique fails with a ValidationError on field when another row of T,
// other than exclude, already stores value in column.
func EnsureUnique[T any](tx *gorm.DB, field, column, value string, exclude uint) error {
	var n int64
	if err := tx.Model(new(T)).Where(column+" = ? AND id <> ?", value, exclude).Count(&n).Error; err != nil {
		return fmt.Errorf("check %s: %w", field, err)
	}
	if n > 0 {
		return query.Invalid(field, "%q is already taken", value)
	}
	return nil
}
