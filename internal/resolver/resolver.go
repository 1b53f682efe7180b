// Package resolver maps a free-text category name onto an existing category.
package resolver

import (
	"strings"

	"github.com/dvloznov/financas-pro/internal/domain"
)

// Resolve picks the category for a transaction of type t.
//
// Tiers, first hit wins:
//  1. a category whose name equals name case-insensitively, whatever its type;
//  2. the category named "Outros" with type t;
//  3. the first category of the collection.
//
// The first tier ignores type: with the default seed, an expense naming
// "outros" resolves to the income "Outros" because it comes first.
//
// ok is false only when categories is empty.
func Resolve(categories []domain.Category, name *string, t domain.TransactionType) (c domain.Category, ok bool) {
	if name != nil {
		for _, c := range categories {
			if strings.EqualFold(c.Name, *name) {
				return c, true
			}
		}
	}

	for _, c := range categories {
		if c.Name == domain.FallbackCategoryName && c.Type == t {
			return c, true
		}
	}

	if len(categories) > 0 {
		return categories[0], true
	}
	return domain.Category{}, false
}
