package format

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/duewatch/internal/domain"
)

func TestFormatEmpty(t *testing.T) {
	f := NewFormatter(English(), nil)

	if msg, ok := f.Format(nil); ok || msg != "" {
		t.Errorf("Format(nil) = %q, %v; want no message", msg, ok)
	}
	if msg, ok := f.Format([]domain.Activity{}); ok || msg != "" {
		t.Errorf("Format([]) = %q, %v; want no message", msg, ok)
	}
}

func TestFormatGroupsOnePeriod(t *testing.T) {
	f := NewFormatter(English(), nil)
	acts := []domain.Activity{
		{Period: "2025.1", Course: "Databases", DueText: "10/05", Kind: "Exam"},
		{Period: "2025.1", Course: "Networks", DueText: "12/05", Kind: "Task"},
	}

	msg, ok := f.Format(acts)
	if !ok {
		t.Fatal("Format() reported nothing to send")
	}

	if n := strings.Count(msg, "*2025.1*"); n != 1 {
		t.Errorf("period header appears %d times, want 1:\n%s", n, msg)
	}
	if !strings.Contains(msg, "📋 10/05 | *Databases* - Exam\n") {
		t.Errorf("missing Databases line:\n%s", msg)
	}
	if !strings.Contains(msg, "✏️ 12/05 | *Networks* - Task\n") {
		t.Errorf("missing Networks line:\n%s", msg)
	}
	if !strings.HasSuffix(msg, "Total: 2 activities") {
		t.Errorf("footer mismatch:\n%s", msg)
	}
	if strings.Index(msg, "Databases") > strings.Index(msg, "Networks") {
		t.Error("extraction order not preserved")
	}
}

func TestFormatFooterSingular(t *testing.T) {
	f := NewFormatter(English(), nil)
	msg, _ := f.Format([]domain.Activity{{Period: "2025.1", Course: "Physics", DueText: "01/06"}})

	if !strings.HasSuffix(msg, "Total: 1 activity") {
		t.Errorf("footer mismatch:\n%s", msg)
	}
}

func TestFormatGroupsInFirstSeenOrder(t *testing.T) {
	f := NewFormatter(English(), nil)
	acts := []domain.Activity{
		{Period: "2025.2", Course: "B1", DueText: "1"},
		{Period: "2025.1", Course: "A1", DueText: "2"},
		{Period: "2025.2", Course: "B2", DueText: "3"},
		{Period: "", Course: "Z", DueText: "4"},
	}

	msg, _ := f.Format(acts)

	order := []string{"*2025.2*", "B1", "B2", "*2025.1*", "A1", "*No period*", "Z"}
	last := -1
	for _, token := range order {
		i := strings.Index(msg, token)
		if i < 0 || i < last {
			t.Fatalf("token %q out of order in:\n%s", token, msg)
		}
		last = i
	}
	if strings.Count(msg, "*2025.2*") != 1 {
		t.Error("a period must be rendered once")
	}
}

func TestFormatLineParts(t *testing.T) {
	f := NewFormatter(English(), nil)
	acts := []domain.Activity{{
		Period:      "2025.1",
		Course:      "REDES_1",
		DueText:     "12/05",
		Kind:        "Tarefa:   Lista\n 2",
		Title:       "Lista 2",
		HasFlagIcon: true,
		FlagText:    "Esta semana",
	}}

	msg, _ := f.Format(acts)
	want := "⏰ 12/05 | *REDES\\_1* - Tarefa: Lista 2 - Lista 2 ⚠️ Esta semana\n"
	if !strings.Contains(msg, want) {
		t.Errorf("line mismatch, want %q in:\n%s", want, msg)
	}
}

func TestGlyphPrecedence(t *testing.T) {
	rules := English().Glyphs.GlyphRules()
	fallback := English().Glyphs.Default

	tests := []struct {
		name string
		act  domain.Activity
		want string
	}{
		{name: "flag beats kind", act: domain.Activity{Kind: "Avaliação: Prova", HasFlagIcon: true, FlagText: "Esta semana"}, want: "⏰"},
		{name: "flag text without icon", act: domain.Activity{Kind: "Tarefa", FlagText: "Esta semana"}, want: "✏️"},
		{name: "icon without hint", act: domain.Activity{Kind: "Tarefa", HasFlagIcon: true, FlagText: "Encerrada"}, want: "✏️"},
		{name: "exam before task", act: domain.Activity{Kind: "Avaliação: Tarefa final"}, want: "📋"},
		{name: "task before work", act: domain.Activity{Kind: "Tarefa: Trabalho em grupo"}, want: "✏️"},
		{name: "work", act: domain.Activity{Kind: "Trabalho final"}, want: "📄"},
		{name: "english exam", act: domain.Activity{Kind: "Evaluation: midterm"}, want: "📋"},
		{name: "default", act: domain.Activity{Kind: "Seminário"}, want: fallback},
		{name: "empty kind", act: domain.Activity{}, want: fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PickGlyph(rules, fallback, tt.act); got != tt.want {
				t.Errorf("PickGlyph() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListing(t *testing.T) {
	f := NewFormatter(Portuguese(), time.UTC)
	at := time.Date(2025, 5, 10, 13, 30, 0, 0, time.UTC)

	if got := f.Listing(nil, at); got != Portuguese().Text.NoPending {
		t.Errorf("Listing(nil) = %q, want the no-pending template", got)
	}

	msg := f.Listing([]domain.Activity{{Period: "2025.1", Course: "REDES", DueText: "12/05"}}, at)
	if !strings.HasPrefix(msg, "📚 *SUAS ATIVIDADES ACADÊMICAS*\n🕐 10/05/2025 13:30:00\n") {
		t.Errorf("listing header mismatch:\n%s", msg)
	}
	if !strings.HasSuffix(msg, "Total: 1 atividade") {
		t.Errorf("listing footer mismatch:\n%s", msg)
	}
}

func TestFailure(t *testing.T) {
	f := NewFormatter(English(), time.UTC)
	at := time.Date(2025, 5, 10, 13, 30, 0, 0, time.UTC)

	msg := f.Failure(errors.New("table `x` missing"), at)
	if !strings.HasPrefix(msg, "❌ *Error while fetching activities*") {
		t.Errorf("failure header mismatch:\n%s", msg)
	}
	if !strings.Contains(msg, "`table 'x' missing`") {
		t.Errorf("error text should be quoted without nested backticks:\n%s", msg)
	}
	if !strings.HasSuffix(msg, "2025-05-10 13:30:00") {
		t.Errorf("failure timestamp mismatch:\n%s", msg)
	}
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"📚 *2025.1*", "📚 2025.1"},
		{`snake\_case \*star\* \[x\] \` + "`", "snake_case *star* [x] `"},
		{`C:\path`, `C:\path`},
		{`trailing\`, `trailing\`},
	}
	for _, tt := range tests {
		if got := stripMarkdown(tt.in); got != tt.want {
			t.Errorf("stripMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlainChunksDropMarkup(t *testing.T) {
	f := NewFormatter(English(), time.UTC)
	f.maxLen = 200

	var acts []domain.Activity
	for i := 0; i < 20; i++ {
		acts = append(acts, domain.Activity{Period: "2025.1", Course: fmt.Sprintf("MY_COURSE %02d", i), DueText: "12/05"})
	}
	msg, _ := f.Format(acts)

	chunks := f.PlainChunks(msg)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if strings.Contains(c, "*") || strings.Contains(c, `\`) {
			t.Errorf("chunk %d still carries markup:\n%s", i, c)
		}
	}
	if !strings.HasPrefix(chunks[1], fmt.Sprintf("📋 Continuation (2/%d)", len(chunks))) {
		t.Errorf("continuation marker should be plain:\n%s", chunks[1])
	}
	if !strings.Contains(chunks[0], "MY_COURSE 00") {
		t.Errorf("escaped underscore should be restored:\n%s", chunks[0])
	}
}
