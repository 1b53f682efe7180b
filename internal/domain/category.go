package domain

import "slices"

// Category groups transactions of a single type.
type Category struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Color     string          `json:"color"`
	IconKey   string          `json:"iconKey"`
	Type      TransactionType `json:"type"`
	IsDefault bool            `json:"isDefault"`
}

const (
	// FallbackCategoryName is the per-type catch-all category.
	FallbackCategoryName = "Outros"

	// FallbackIconKey is used when an icon key is not recognized.
	FallbackIconKey = "MoreHorizontal"

	// AccentColor is the colour given to categories created through chat.
	AccentColor = "#6366f1"

	// UnknownCategoryLabel is shown for transactions whose category was deleted.
	UnknownCategoryLabel = "Categoria desconhecida"
)

// IconKeys lists the recognized icon keys, in display order.
var IconKeys = []string{
	"Wallet",
	"TrendingUp",
	"Briefcase",
	"DollarSign",
	"Home",
	"Utensils",
	"Car",
	"HeartPulse",
	"Coffee",
	"Zap",
	"GraduationCap",
	"ShoppingBag",
	"MoreHorizontal",
	"Dog",
	"Plane",
	"Gamepad2",
	"Smartphone",
	"Gift",
}

// Palette is the set of colours offered when creating a category by hand.
var Palette = []string{
	"#ef4444", "#f97316", "#f59e0b", "#84cc16", "#10b981",
	"#06b6d4", "#0ea5e9", "#3b82f6", "#6366f1", "#8b5cf6",
	"#d946ef", "#f43f5e", "#64748b",
}

// IsKnownIcon reports whether key is one of IconKeys. The match is exact.
func IsKnownIcon(key string) bool {
	return slices.Contains(IconKeys, key)
}

// DefaultCategories returns a fresh copy of the seeded categories.
// Seeded categories are marked IsDefault and cannot be deleted.
func DefaultCategories() []Category {
	return []Category{
		// Income
		{ID: "inc-1", Name: "Salário", Color: "#10b981", IconKey: "Wallet", Type: Income, IsDefault: true},
		{ID: "inc-2", Name: "Investimentos", Color: "#3b82f6", IconKey: "TrendingUp", Type: Income, IsDefault: true},
		{ID: "inc-3", Name: "Freelance", Color: "#8b5cf6", IconKey: "Briefcase", Type: Income, IsDefault: true},
		{ID: "inc-4", Name: "Outros", Color: "#64748b", IconKey: "DollarSign", Type: Income, IsDefault: true},
		// Expense
		{ID: "exp-1", Name: "Alimentação", Color: "#f43f5e", IconKey: "Utensils", Type: Expense, IsDefault: true},
		{ID: "exp-2", Name: "Moradia", Color: "#ea580c", IconKey: "Home", Type: Expense, IsDefault: true},
		{ID: "exp-3", Name: "Transporte", Color: "#0ea5e9", IconKey: "Car", Type: Expense, IsDefault: true},
		{ID: "exp-4", Name: "Saúde", Color: "#ef4444", IconKey: "HeartPulse", Type: Expense, IsDefault: true},
		{ID: "exp-5", Name: "Lazer", Color: "#d946ef", IconKey: "Coffee", Type: Expense, IsDefault: true},
		{ID: "exp-6", Name: "Contas", Color: "#f59e0b", IconKey: "Zap", Type: Expense, IsDefault: true},
		{ID: "exp-7", Name: "Educação", Color: "#6366f1", IconKey: "GraduationCap", Type: Expense, IsDefault: true},
		{ID: "exp-8", Name: "Compras", Color: "#ec4899", IconKey: "ShoppingBag", Type: Expense, IsDefault: true},
		{ID: "exp-9", Name: "Outros", Color: "#94a3b8", IconKey: "MoreHorizontal", Type: Expense, IsDefault: true},
	}
}

// FindCategory returns the category with the given id.
func FindCategory(categories []Category, id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
