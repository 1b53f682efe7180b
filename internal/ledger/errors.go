package ledger

import "fmt"

// ProtectedCategoryNotice is the blocking notice shown when a default
// category deletion is refused.
const ProtectedCategoryNotice = "Não é possível excluir categorias padrão."

// ProtectedCategoryError is returned when deleting a default category.
type ProtectedCategoryError struct {
	ID   string
	Name string
}

func (e *ProtectedCategoryError) Error() string {
	return fmt.Sprintf("category %q (%s) is a default category and cannot be deleted", e.Name, e.ID)
}
