package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/civil"
	"github.com/charmbracelet/glamour"
	"github.com/dvloznov/financas-pro/internal/app"
	"github.com/dvloznov/financas-pro/internal/config"
	"github.com/dvloznov/financas-pro/internal/confirm"
	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/dvloznov/financas-pro/internal/export"
	"github.com/dvloznov/financas-pro/internal/ledger"
	"github.com/dvloznov/financas-pro/internal/logger"
	"github.com/dvloznov/financas-pro/internal/tracker"
	"github.com/shopspring/decimal"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens before exit.
func run() int {
	if len(os.Args) < 2 {
		printUsage()
		return 1
	}

	cmd := os.Args[1]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return 0
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 1
	}
	// Logs go to stderr so they do not interleave with command output.
	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize")
		return 1
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	args := os.Args[2:]
	switch cmd {
	case "chat":
		err = runChat(ctx, a, cfg, args)
	case "list":
		err = runList(a.Service, args)
	case "categories":
		err = runCategories(a.Service, args)
	case "add":
		err = runAdd(ctx, a.Service, args)
	case "add-category":
		err = runAddCategory(ctx, a.Service, args)
	case "delete":
		err = runDelete(ctx, a.Service, args)
	case "delete-category":
		err = runDeleteCategory(ctx, a.Service, args)
	case "export":
		err = runExport(ctx, a.Service, cfg, args)
	case "reset":
		err = runReset(ctx, a.Service, args)
	case "stats":
		err = runStats(a.Service, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Println("Finanças Pro CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  chat              Talk to the assistant")
	fmt.Println("  list              List transactions, newest first")
	fmt.Println("  categories        List categories")
	fmt.Println("  add               Add a transaction")
	fmt.Println("  add-category      Create a category")
	fmt.Println("  delete ID         Delete a transaction")
	fmt.Println("  delete-category ID  Delete a category")
	fmt.Println("  export            Export all transactions as CSV")
	fmt.Println("  reset             Delete all data")
	fmt.Println("  stats             Show income, expenses and balance for a month")
	fmt.Println("  help              Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// confirmer asks on the terminal unless -yes was given.
func confirmer(yes bool) confirm.Confirmer {
	if yes {
		return confirm.Static(true)
	}
	return confirm.NewPrompter(os.Stdin, os.Stdout)
}

func runChat(ctx context.Context, a *app.App, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	plain := fs.Bool("plain", false, "Print replies without markdown rendering")
	fs.Parse(args)

	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start assistant: %w", err)
	}

	var renderer *glamour.TermRenderer
	if !*plain {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
		if err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Msg("Markdown rendering disabled")
		} else {
			renderer = r
		}
	}

	fmt.Println("Olá! Sou seu assistente financeiro. Digite 'sair' para encerrar.")
	return chatLoop(ctx, a.Service, os.Stdin, os.Stdout, renderer, filepath.Join(cfg.ExportDir, export.Filename))
}

func chatLoop(ctx context.Context, svc *tracker.Service, in io.Reader, out io.Writer, renderer *glamour.TermRenderer, exportPath string) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "sair", "exit", "quit":
			return nil
		}

		reply, err := svc.Chat(ctx, text)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		content := reply.Message.Content
		if renderer != nil {
			if rendered, err := renderer.Render(content); err == nil {
				content = strings.TrimRight(rendered, "\n")
			}
		}
		fmt.Fprintln(out, content)
		if reply.Result.Exported {
			fmt.Fprintf(out, "  → %s\n", exportPath)
		}
	}
}

func runList(svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("limit", 0, "Maximum number of transactions to show (0 = all)")
	fs.Parse(args)

	txs := svc.Transactions()
	if len(txs) == 0 {
		fmt.Println("Nenhuma transação registrada.")
		return nil
	}
	if *limit > 0 && *limit < len(txs) {
		txs = txs[:*limit]
	}

	for _, t := range txs {
		sign := "-"
		if t.Type == domain.Income {
			sign = "+"
		}
		fmt.Printf("%s  %-36s  %-30s  %-20s  %s%s\n",
			t.Date, t.ID, t.Description, svc.CategoryName(t.CategoryID), sign, domain.FormatBRL(t.Amount))
	}
	return nil
}

func runCategories(svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	typ := fs.String("type", "", "Only show categories of this type (income or expense)")
	fs.Parse(args)

	for _, c := range svc.Categories() {
		if *typ != "" && string(c.Type) != *typ {
			continue
		}
		marker := ""
		if c.IsDefault {
			marker = " (padrão)"
		}
		fmt.Printf("%-36s  %-20s  %-8s  %-14s  %s%s\n", c.ID, c.Name, c.Type, c.IconKey, c.Color, marker)
	}
	return nil
}

func runAdd(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	description := fs.String("description", "", "Transaction description")
	amount := fs.String("amount", "", "Amount, e.g. 45.90")
	typ := fs.String("type", string(domain.Expense), "income or expense")
	category := fs.String("category", "", "Category ID")
	date := fs.String("date", "", "Date as YYYY-MM-DD (defaults to today)")
	fs.Parse(args)

	if *description == "" || *amount == "" || *category == "" {
		return errors.New("usage: cli add -description TEXT -amount N -category ID [-type income|expense] [-date YYYY-MM-DD]")
	}

	in := tracker.NewTransaction{Description: *description, CategoryID: *category}

	var err error
	if in.Amount, err = decimal.NewFromString(*amount); err != nil {
		return fmt.Errorf("invalid amount %q: %w", *amount, err)
	}
	if in.Type, err = domain.ParseTransactionType(*typ); err != nil {
		return err
	}
	if *date != "" {
		if in.Date, err = civil.ParseDate(*date); err != nil {
			return fmt.Errorf("invalid date %q: %w", *date, err)
		}
	}

	t, err := svc.AddTransaction(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("Registrei %q no valor de %s em %s.\n", t.Description, domain.FormatBRL(t.Amount), svc.CategoryName(t.CategoryID))
	return nil
}

func runAddCategory(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("add-category", flag.ExitOnError)
	name := fs.String("name", "", "Category name")
	icon := fs.String("icon", domain.FallbackIconKey, "Icon key: "+strings.Join(domain.IconKeys, ", "))
	color := fs.String("color", domain.AccentColor, "Colour: "+strings.Join(domain.Palette, ", "))
	typ := fs.String("type", string(domain.Expense), "income or expense")
	fs.Parse(args)

	if *name == "" {
		return errors.New("usage: cli add-category -name TEXT [-icon KEY] [-color HEX] [-type income|expense]")
	}
	t, err := domain.ParseTransactionType(*typ)
	if err != nil {
		return err
	}

	c, err := svc.CreateCategory(ctx, tracker.NewCategory{Name: *name, IconKey: *icon, Color: *color, Type: t})
	if err != nil {
		return err
	}
	fmt.Printf("Categoria %q criada com sucesso! (%s)\n", c.Name, c.ID)
	return nil
}

func runDelete(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: cli delete [-yes] ID")
	}

	done, err := svc.DeleteTransaction(ctx, fs.Arg(0), confirmer(*yes))
	if err != nil {
		return err
	}
	if done {
		fmt.Println("Transação excluída.")
	}
	return nil
}

func runDeleteCategory(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("delete-category", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: cli delete-category [-yes] ID")
	}

	done, err := svc.DeleteCategory(ctx, fs.Arg(0), confirmer(*yes))
	var protected *ledger.ProtectedCategoryError
	if errors.As(err, &protected) {
		fmt.Println(ledger.ProtectedCategoryNotice)
		return nil
	}
	if err != nil {
		return err
	}
	if done {
		fmt.Println("Categoria excluída.")
	}
	return nil
}

func runExport(ctx context.Context, svc *tracker.Service, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	stdout := fs.Bool("stdout", false, "Write the CSV to standard output instead of the export destinations")
	fs.Parse(args)

	if *stdout {
		data, err := svc.RenderCSV()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := svc.Export(ctx); err != nil {
		return err
	}
	fmt.Printf("Exportado para %s\n", filepath.Join(cfg.ExportDir, export.Filename))
	return nil
}

func runReset(ctx context.Context, svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Parse(args)

	done, err := svc.ResetData(ctx, confirmer(*yes))
	if err != nil {
		return err
	}
	if done {
		fmt.Println("Todos os dados foram apagados.")
	}
	return nil
}

func runStats(svc *tracker.Service, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	month := fs.String("month", "", "Month as YYYY-MM (defaults to the current month)")
	fs.Parse(args)

	stats := svc.CurrentStats()
	if *month != "" {
		m, err := time.Parse("2006-01", *month)
		if err != nil {
			return fmt.Errorf("invalid month %q: %w", *month, err)
		}
		stats = svc.Stats(m.Year(), m.Month())
	}

	fmt.Printf("%04d-%02d\n", stats.Year, int(stats.Month))
	fmt.Printf("  Receitas: %s\n", domain.FormatBRL(stats.Income))
	fmt.Printf("  Despesas: %s\n", domain.FormatBRL(stats.Expense))
	fmt.Printf("  Saldo:    %s\n", domain.FormatBRL(stats.Balance))
	return nil
}
