package export

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/jomei/notionapi"
)

// NotionService is the subset of the Notion API the destination needs.
type NotionService interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)

	// QueryDatabase queries a Notion database with the given request.
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// NotionClient implements NotionService with the Notion SDK.
type NotionClient struct {
	client *notionapi.Client
}

// NewNotionClient creates a NotionClient with the provided integration token.
func NewNotionClient(token string) *NotionClient {
	return &NotionClient{
		client: notionapi.NewClient(notionapi.Token(token)),
	}
}

// CreatePage creates a page in the database.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}

	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}
	return page, nil
}

// QueryDatabase queries the database.
func (n *NotionClient) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase: %w", err)
	}
	return resp, nil
}

// NotionDestination mirrors exported transactions into a Notion database,
// creating a page for each transaction not already present. Pages are
// matched on their "Transaction ID" property.
type NotionDestination struct {
	service    NotionService
	databaseID string
}

// NewNotionDestination creates a destination writing to databaseID.
func NewNotionDestination(service NotionService, databaseID string) *NotionDestination {
	return &NotionDestination{service: service, databaseID: databaseID}
}

func (n *NotionDestination) Name() string { return "notion" }

// Deliver creates the missing pages.
func (n *NotionDestination) Deliver(ctx context.Context, doc Document) error {
	missing, err := n.Missing(ctx, doc.Transactions)
	if err != nil {
		return err
	}

	names := make(map[string]string, len(doc.Categories))
	for _, c := range doc.Categories {
		names[c.ID] = c.Name
	}

	for _, t := range missing {
		category, ok := names[t.CategoryID]
		if !ok {
			category = UnknownCategory
		}
		if _, err := n.service.CreatePage(ctx, n.databaseID, transactionProperties(t, category)); err != nil {
			return fmt.Errorf("create page for transaction %s: %w", t.ID, err)
		}
	}
	return nil
}

// Missing returns the transactions that have no page yet, in input order.
func (n *NotionDestination) Missing(ctx context.Context, txs []domain.Transaction) ([]domain.Transaction, error) {
	existing, err := n.existingTransactionIDs(ctx)
	if err != nil {
		return nil, err
	}
	var missing []domain.Transaction
	for _, t := range txs {
		if !existing[t.ID] {
			missing = append(missing, t)
		}
	}
	return missing, nil
}

// existingTransactionIDs pages through the database collecting ids.
func (n *NotionDestination) existingTransactionIDs(ctx context.Context) (map[string]bool, error) {
	ids := make(map[string]bool)
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := n.service.QueryDatabase(ctx, n.databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("existingTransactionIDs: %w", err)
		}
		for _, page := range resp.Results {
			if id := extractTransactionID(page); id != "" {
				ids[id] = true
			}
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return ids, nil
}

// extractTransactionID reads the "Transaction ID" property of a page.
func extractTransactionID(page notionapi.Page) string {
	if prop, ok := page.Properties["Transaction ID"]; ok {
		if richText, ok := prop.(*notionapi.RichTextProperty); ok {
			if len(richText.RichText) > 0 {
				return richText.RichText[0].PlainText
			}
		}
	}
	return ""
}

// transactionProperties maps a transaction onto the database columns.
func transactionProperties(t domain.Transaction, category string) notionapi.Properties {
	date := notionapi.Date(t.Date.In(time.UTC))
	amount, _ := t.Amount.Float64()

	return notionapi.Properties{
		"Description": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: t.Description},
				},
			},
		},
		"Transaction ID": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: t.ID},
				},
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: amount,
		},
		"Type": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(t.Type)},
		},
		"Category": notionapi.SelectProperty{
			Select: notionapi.Option{Name: category},
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &date},
		},
	}
}

var _ NotionService = (*NotionClient)(nil)
