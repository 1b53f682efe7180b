package nlu

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/financas-pro/internal/domain"
)

// maxPromptTransactions bounds how much history is sent with each message.
const maxPromptTransactions = 50

// systemPrompt describes the assistant and the output contract.
func systemPrompt() string {
	return "You are Claudia, the assistant of the personal finance app \"Finanças Pro\".\n" +
		"The user writes in Brazilian Portuguese. Always reply in Brazilian Portuguese.\n\n" +
		"Task:\n" +
		"- Decide which single action the user's message asks for.\n" +
		"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n\n" +
		"The JSON object has these fields:\n" +
		"- \"action\": one of \"create_transaction\", \"create_category\", \"export_data\", \"answer_query\", \"unrecognized\"\n" +
		"- \"transactionData\": object or null, required for create_transaction:\n" +
		"    \"description\": string, \"amount\": positive number, \"type\": \"income\" or \"expense\",\n" +
		"    \"categoryName\": string or null (prefer an existing category name), \"date\": \"YYYY-MM-DD\" or null\n" +
		"- \"categoryData\": object or null, required for create_category:\n" +
		"    \"name\": string, \"iconKey\": one of the icon keys below, \"type\": \"income\" or \"expense\"\n" +
		"- \"textResponse\": string or null, the answer for answer_query or a clarification for unrecognized\n\n" +
		"Rules:\n" +
		"- Only set \"date\" when the user states a date; never guess.\n" +
		"- Use \"answer_query\" for questions about balances, spending or the existing data, and answer them from the data provided.\n" +
		"- Use \"export_data\" when the user asks to export, download or get a spreadsheet/CSV.\n" +
		"- If the request is unclear, use \"unrecognized\".\n\n" +
		"Icon keys: " + strings.Join(domain.IconKeys, ", ") + "\n\n" +
		"Return ONLY valid raw JSON.\n" +
		"Do NOT wrap the response in code fences.\n"
}

// buildLedgerPrompt renders the ledger snapshot and the user message.
func buildLedgerPrompt(text string, categories []domain.Category, transactions []domain.Transaction, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Today is %s.\n\n", domain.DateOf(now))

	b.WriteString("Existing categories:\n")
	for _, t := range []domain.TransactionType{domain.Income, domain.Expense} {
		fmt.Fprintf(&b, "%s:\n", t)
		for _, c := range categories {
			if c.Type == t {
				b.WriteString("  - " + c.Name + "\n")
			}
		}
	}
	b.WriteString("\n")

	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	if len(transactions) == 0 {
		b.WriteString("There are no transactions yet.\n\n")
	} else {
		shown := transactions
		if len(shown) > maxPromptTransactions {
			shown = shown[:maxPromptTransactions]
		}
		fmt.Fprintf(&b, "Most recent transactions (%d of %d, newest first):\n", len(shown), len(transactions))
		for _, t := range shown {
			cat, ok := names[t.CategoryID]
			if !ok {
				cat = domain.UnknownCategoryLabel
			}
			fmt.Fprintf(&b, "  - %s | %s | %s | %s | %s\n", t.Date, t.Description, cat, t.Type, t.Amount.String())
		}
		b.WriteString("\n")
	}

	b.WriteString("User message:\n")
	b.WriteString(text)
	b.WriteString("\n")

	return b.String()
}
