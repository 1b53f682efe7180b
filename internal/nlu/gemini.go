// Package nlu interprets chat messages into structured intents using Gemini.
package nlu

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/dvloznov/financas-pro/internal/intent"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// Gemini is the Interpreter backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
	now    func() time.Time
}

// NewGemini creates a Gemini interpreter. An empty apiKey lets the client
// pick credentials from the environment (GEMINI_API_KEY / GOOGLE_API_KEY).
func NewGemini(ctx context.Context, apiKey, model string, log zerolog.Logger) (*Gemini, error) {
	cfg := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	if model == "" {
		model = DefaultModelName
	}
	return &Gemini{
		client: client,
		model:  model,
		log:    log,
		now:    time.Now,
	}, nil
}

// Interpret implements Interpreter. Every failure is an *UnavailableError.
func (g *Gemini) Interpret(ctx context.Context, text string, categories []domain.Category, transactions []domain.Transaction) (intent.Intent, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildLedgerPrompt(text, categories, transactions, g.now())},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt()}},
		},
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, &UnavailableError{Err: errors.New("empty response from model")}
	}

	in, err := decodeIntent(rawText)
	if err != nil {
		g.log.Warn().Err(err).Str("raw_response", rawText).Msg("Unreadable model response")
		return nil, &UnavailableError{Err: err}
	}

	g.log.Debug().
		Str("model", g.model).
		Str("action", string(in.Action())).
		Dur("duration", time.Since(start)).
		Msg("Message interpreted")

	return in, nil
}

// responseSchema constrains the model output to the modelResponse shape.
func responseSchema() *genai.Schema {
	nullable := genai.Ptr(true)
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"action": {
				Type: genai.TypeString,
				Enum: []string{
					string(intent.ActionCreateTransaction),
					string(intent.ActionCreateCategory),
					string(intent.ActionExportData),
					string(intent.ActionAnswerQuery),
					string(intent.ActionUnrecognized),
				},
			},
			"transactionData": {
				Type:     genai.TypeObject,
				Nullable: nullable,
				Properties: map[string]*genai.Schema{
					"description":  {Type: genai.TypeString},
					"amount":       {Type: genai.TypeNumber},
					"type":         {Type: genai.TypeString, Enum: []string{string(domain.Income), string(domain.Expense)}},
					"categoryName": {Type: genai.TypeString, Nullable: nullable},
					"date":         {Type: genai.TypeString, Nullable: nullable},
				},
				Required: []string{"description", "amount", "type"},
			},
			"categoryData": {
				Type:     genai.TypeObject,
				Nullable: nullable,
				Properties: map[string]*genai.Schema{
					"name":    {Type: genai.TypeString},
					"iconKey": {Type: genai.TypeString},
					"type":    {Type: genai.TypeString, Enum: []string{string(domain.Income), string(domain.Expense)}},
				},
				Required: []string{"name"},
			},
			"textResponse": {
				Type:     genai.TypeString,
				Nullable: nullable,
			},
		},
		Required: []string{"action"},
	}
}

var _ Interpreter = (*Gemini)(nil)
