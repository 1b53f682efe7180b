package nlu

import (
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/dvloznov/financas-pro/internal/intent"
	"github.com/shopspring/decimal"
)

// modelResponse is the JSON object the model is asked to return.
type modelResponse struct {
	Action          string           `json:"action"`
	TransactionData *transactionData `json:"transactionData"`
	CategoryData    *categoryData    `json:"categoryData"`
	TextResponse    *string          `json:"textResponse"`
}

type transactionData struct {
	Description  string           `json:"description"`
	Amount       *decimal.Decimal `json:"amount"`
	Type         string           `json:"type"`
	CategoryName *string          `json:"categoryName"`
	Date         *string          `json:"date"`
}

type categoryData struct {
	Name    string `json:"name"`
	IconKey string `json:"iconKey"`
	Type    string `json:"type"`
}

// decodeIntent parses the raw model output into an Intent.
//
// Unknown action tags become Unrecognized. A recognized action without its
// payload yields a zero-valued variant, which fails intent.Validate.
func decodeIntent(raw string) (intent.Intent, error) {
	clean := cleanModelJSON(raw)

	var resp modelResponse
	if err := json.Unmarshal([]byte(clean), &resp); err != nil {
		return nil, fmt.Errorf("decodeIntent: unmarshal JSON: %w", err)
	}

	text := ""
	if resp.TextResponse != nil {
		text = *resp.TextResponse
	}

	switch intent.Action(resp.Action) {
	case intent.ActionCreateTransaction:
		if resp.TransactionData == nil {
			return intent.CreateTransaction{}, nil
		}
		return resp.TransactionData.toIntent(), nil

	case intent.ActionCreateCategory:
		if resp.CategoryData == nil {
			return intent.CreateCategory{}, nil
		}
		return intent.CreateCategory{
			Name:    strings.TrimSpace(resp.CategoryData.Name),
			IconKey: strings.TrimSpace(resp.CategoryData.IconKey),
			Type:    domain.TransactionType(strings.ToLower(strings.TrimSpace(resp.CategoryData.Type))),
		}, nil

	case intent.ActionExportData:
		return intent.ExportData{}, nil

	case intent.ActionAnswerQuery:
		return intent.AnswerQuery{Text: text}, nil

	default:
		return intent.Unrecognized{Text: text}, nil
	}
}

func (d *transactionData) toIntent() intent.CreateTransaction {
	ct := intent.CreateTransaction{
		Description:  strings.TrimSpace(d.Description),
		Amount:       d.Amount,
		Type:         domain.TransactionType(strings.ToLower(strings.TrimSpace(d.Type))),
		CategoryName: d.CategoryName,
	}
	if d.Date != nil {
		// An unreadable date is dropped; the reconciler then uses today.
		if date, err := civil.ParseDate(strings.TrimSpace(*d.Date)); err == nil {
			ct.Date = &date
		}
	}
	return ct
}

// cleanModelJSON strips Markdown fences or surrounding prose from a model
// reply, keeping the outermost JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
