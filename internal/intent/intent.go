// Package intent defines the structured outcome of interpreting a chat
// message. Intent is a closed sum type: the only implementations are the
// variants declared here, and Visit requires a handler for every one.
package intent

import (
	"cloud.google.com/go/civil"
	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/shopspring/decimal"
)

// Action is the wire tag of an intent variant.
type Action string

const (
	ActionCreateTransaction Action = "create_transaction"
	ActionCreateCategory    Action = "create_category"
	ActionExportData        Action = "export_data"
	ActionAnswerQuery       Action = "answer_query"
	ActionUnrecognized      Action = "unrecognized"
)

// Intent is one of CreateTransaction, CreateCategory, ExportData,
// AnswerQuery or Unrecognized.
type Intent interface {
	Action() Action
	sealed()
}

// CreateTransaction asks for a new transaction. Optional fields are nil
// when the collaborator did not supply them.
type CreateTransaction struct {
	Description  string
	Amount       *decimal.Decimal
	Type         domain.TransactionType
	CategoryName *string
	Date         *civil.Date
}

// CreateCategory asks for a new category. Type is what the collaborator
// inferred; it is informational only.
type CreateCategory struct {
	Name    string
	IconKey string
	Type    domain.TransactionType
}

// ExportData asks for a CSV export of the ledger.
type ExportData struct{}

// AnswerQuery carries an answer produced by the collaborator. Text may be empty.
type AnswerQuery struct {
	Text string
}

// Unrecognized means the message could not be mapped to an action. Text
// is an optional reply suggested by the collaborator.
type Unrecognized struct {
	Text string
}

func (CreateTransaction) Action() Action { return ActionCreateTransaction }
func (CreateCategory) Action() Action    { return ActionCreateCategory }
func (ExportData) Action() Action        { return ActionExportData }
func (AnswerQuery) Action() Action       { return ActionAnswerQuery }
func (Unrecognized) Action() Action      { return ActionUnrecognized }

func (CreateTransaction) sealed() {}
func (CreateCategory) sealed()    {}
func (ExportData) sealed()        {}
func (AnswerQuery) sealed()       {}
func (Unrecognized) sealed()      {}

// Visitor handles every intent variant. A new variant adds a method here,
// so every visitor stops compiling until it handles it.
type Visitor[R any] interface {
	CreateTransaction(CreateTransaction) R
	CreateCategory(CreateCategory) R
	ExportData(ExportData) R
	AnswerQuery(AnswerQuery) R
	Unrecognized(Unrecognized) R
}

// Visit dispatches in to the matching Visitor method. A nil intent is
// treated as Unrecognized.
func Visit[R any](in Intent, v Visitor[R]) R {
	switch in := in.(type) {
	case CreateTransaction:
		return v.CreateTransaction(in)
	case CreateCategory:
		return v.CreateCategory(in)
	case ExportData:
		return v.ExportData(in)
	case AnswerQuery:
		return v.AnswerQuery(in)
	case Unrecognized:
		return v.Unrecognized(in)
	default:
		return v.Unrecognized(Unrecognized{})
	}
}
