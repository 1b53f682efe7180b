package confirm

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestPrompter(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"s\n", true},
		{"Sim\n", true},
		{"  y  \n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"talvez\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.Confirm(context.Background(), ResetPrompt)
			if err != nil {
				t.Fatalf("Confirm() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if !strings.HasPrefix(out.String(), ResetPrompt) {
				t.Errorf("prompt = %q", out.String())
			}
		})
	}
}

func TestPrompter_ReadsSuccessiveAnswers(t *testing.T) {
	p := NewPrompter(strings.NewReader("s\nn\n"), &bytes.Buffer{})
	ctx := context.Background()

	first, _ := p.Confirm(ctx, DeleteTransactionPrompt)
	second, _ := p.Confirm(ctx, DeleteTransactionPrompt)
	if !first || second {
		t.Errorf("answers = %v, %v; want true, false", first, second)
	}
}

func TestPrompter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPrompter(strings.NewReader("s\n"), &bytes.Buffer{})
	if ok, err := p.Confirm(ctx, ResetPrompt); err == nil || ok {
		t.Errorf("Confirm() = %v, %v; want false with error", ok, err)
	}
}
