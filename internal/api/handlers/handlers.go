// Package handlers implements the HTTP endpoints of the API server.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dvloznov/financas-pro/internal/chat"
	"github.com/dvloznov/financas-pro/internal/confirm"
	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/dvloznov/financas-pro/internal/tracker"
)

// Service is the application service the handlers call.
type Service interface {
	Transactions() []domain.Transaction
	Categories() []domain.Category
	CategoryName(id string) string
	AddTransaction(ctx context.Context, in tracker.NewTransaction) (domain.Transaction, error)
	CreateCategory(ctx context.Context, in tracker.NewCategory) (domain.Category, error)
	DeleteTransaction(ctx context.Context, id string, c confirm.Confirmer) (bool, error)
	DeleteCategory(ctx context.Context, id string, c confirm.Confirmer) (bool, error)
	ResetData(ctx context.Context, c confirm.Confirmer) (bool, error)
	Export(ctx context.Context) error
	RenderCSV() ([]byte, error)
	Stats(year int, month time.Month) domain.MonthlyStats
	Chat(ctx context.Context, text string) (chat.Reply, error)
	SubmitChat(ctx context.Context, text string) (*chat.Pending, error)
	Messages() []domain.ChatMessage
	Busy() bool
}

var _ Service = (*tracker.Service)(nil)

// confirmationRequired is the body returned when a destructive request
// lacks ?confirm=true.
const confirmationRequired = "Confirmation required: repeat the request with ?confirm=true"

// confirmFromQuery turns the confirm query parameter into a Confirmer.
func confirmFromQuery(r *http.Request) confirm.Confirmer {
	return confirm.Static(r.URL.Query().Get("confirm") == "true")
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isInvalidInput(err error) bool {
	return errors.Is(err, tracker.ErrInvalidInput)
}
