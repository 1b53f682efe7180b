// Package confirm asks the user to approve destructive operations.
package confirm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Prompts shown before destructive operations.
const (
	DeleteTransactionPrompt = "Tem certeza que deseja excluir esta transação?"
	DeleteCategoryPrompt    = "Tem certeza? Transações antigas manterão o ID mas a categoria não existirá mais."
	ResetPrompt             = "ATENÇÃO: Isso apagará TODAS as suas transações e categorias personalizadas. Deseja continuar?"
)

// Confirmer returns true when the user approves the operation described
// by prompt.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Func adapts a function to Confirmer.
type Func func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f Func) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Static always gives the same answer.
type Static bool

// Confirm returns s.
func (s Static) Confirm(context.Context, string) (bool, error) {
	return bool(s), nil
}

// Prompter asks on a terminal and reads a yes/no answer.
type Prompter struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Confirm prints prompt and reads one line. Only an explicit yes approves;
// end of input counts as no.
func (p *Prompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintf(p.out, "%s [s/N] ", prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("Confirm: read answer: %w", err)
	}
	return IsYes(line), nil
}

// IsYes reports whether answer is an affirmative reply in Portuguese or
// English.
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "s", "sim", "y", "yes":
		return true
	}
	return false
}
