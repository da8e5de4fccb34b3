package core

// Categories are open strings. These lists only feed pickers and the
// category filter; nothing rejects a label outside them.
var (
	TransactionCategories = []string{"Food", "Transport", "Bills", "Entertainment", "Salary", "Other"}
	BudgetCategories      = []string{"Food", "Transport", "Bills", "Entertainment", "Shopping", "Healthcare", "Other"}

	// Palette colors budgets in creation order.
	Palette = []string{"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7", "#A8E6CF", "#FFB6C1"}
)

var categoryColors = map[string]string{
	"Food":          "#FF6B6B",
	"Transport":     "#4ECDC4",
	"Bills":         "#45B7D1",
	"Entertainment": "#96CEB4",
	"Salary":        "#34C759",
	"Other":         "#FFEAA7",
}

const fallbackColor = "#8E8E93"

// PaletteColor returns the color for the n-th budget.
func PaletteColor(n int) string {
	if n < 0 {
		n = -n
	}
	return Palette[n%len(Palette)]
}

// CategoryColor returns the display color for a transaction category.
func CategoryColor(category string) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return fallbackColor
}
