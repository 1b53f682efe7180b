package nlu

import (
	"context"
	"fmt"

	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/dvloznov/financas-pro/internal/intent"
)

// Interpreter turns a chat message into an Intent. The categories and
// transactions are a read-only snapshot so the interpreter can refer to
// existing names.
type Interpreter interface {
	Interpret(ctx context.Context, text string, categories []domain.Category, transactions []domain.Transaction) (intent.Intent, error)
}

// InterpreterFunc adapts a function to the Interpreter interface.
type InterpreterFunc func(ctx context.Context, text string, categories []domain.Category, transactions []domain.Transaction) (intent.Intent, error)

// Interpret calls f.
func (f InterpreterFunc) Interpret(ctx context.Context, text string, categories []domain.Category, transactions []domain.Transaction) (intent.Intent, error) {
	return f(ctx, text, categories, transactions)
}

// UnavailableError reports that the interpreter could not produce an
// intent: the call failed, timed out or returned something unreadable.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("nlu unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
