package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/duewatch/internal/domain"
)

// Formatter renders activities as chat messages.
type Formatter struct {
	locale   Locale
	rules    []GlyphRule
	maxLen   int
	location *time.Location
}

// NewFormatter creates a formatter. A nil location means UTC.
func NewFormatter(locale Locale, location *time.Location) *Formatter {
	if location == nil {
		location = time.UTC
	}
	return &Formatter{
		locale:   locale,
		rules:    locale.Glyphs.GlyphRules(),
		maxLen:   MaxMessageLength,
		location: location,
	}
}

// Format renders newly detected activities. It reports false when there is
// nothing to announce, in which case no message must be sent.
func (f *Formatter) Format(activities []domain.Activity) (string, bool) {
	if len(activities) == 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteString(f.locale.Text.NewHeader)
	b.WriteString("\n")
	b.WriteString(f.locale.Text.Divider)
	b.WriteString("\n\n")
	f.writeBody(&b, activities)
	return b.String(), true
}

// Listing renders the full extraction with a timestamp. An empty extraction
// yields the "no pending activities" message, never an empty string.
func (f *Formatter) Listing(activities []domain.Activity, at time.Time) string {
	if len(activities) == 0 {
		return f.locale.Text.NoPending
	}

	var b strings.Builder
	b.WriteString(f.locale.Text.ListingHeader)
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", f.locale.Text.Clock, f.timestamp(at))
	b.WriteString(f.locale.Text.Divider)
	b.WriteString("\n\n")
	f.writeBody(&b, activities)
	return b.String()
}

// Failure renders the error notice sent when a run aborts.
func (f *Formatter) Failure(err error, at time.Time) string {
	reason := "unknown error"
	if err != nil {
		reason = strings.ReplaceAll(err.Error(), "`", "'")
	}
	return fmt.Sprintf("%s\n\n%s `%s`\n\n%s %s",
		f.locale.Text.Failure, f.locale.Text.Warning, reason, f.locale.Text.Clock, f.timestamp(at))
}

// Chunks splits a rendered message for delivery. Every chunk after the
// first is prefixed with the continuation marker.
func (f *Formatter) Chunks(text string) []string {
	return f.chunks(text, f.locale.Text.Continuation)
}

// PlainChunks splits a rendered message with its markup removed, for
// delivery without a parse mode.
func (f *Formatter) PlainChunks(text string) []string {
	return f.chunks(stripMarkdown(text), stripMarkdown(f.locale.Text.Continuation))
}

func (f *Formatter) chunks(text, continuation string) []string {
	pieces := Split(text, f.maxLen)
	if len(pieces) == 1 {
		return pieces
	}
	chunks := make([]string, len(pieces))
	for i, p := range pieces {
		if i == 0 {
			chunks[i] = p
			continue
		}
		chunks[i] = fmt.Sprintf(continuation, i+1, len(pieces)) + p
	}
	return chunks
}

func (f *Formatter) writeBody(b *strings.Builder, activities []domain.Activity) {
	for _, group := range groupByPeriod(activities) {
		period := group.period
		if period == "" {
			period = f.locale.Text.NoPeriod
		}
		fmt.Fprintf(b, "%s *%s*\n", f.locale.Text.PeriodGlyph, escapeMarkdown(period))
		b.WriteString(f.locale.Text.PeriodDivider)
		b.WriteString("\n")
		for _, a := range group.activities {
			f.writeLine(b, a)
		}
		b.WriteString("\n")
	}

	b.WriteString(f.locale.Text.Divider)
	b.WriteString("\n")
	b.WriteString(f.footer(len(activities)))
}

func (f *Formatter) writeLine(b *strings.Builder, a domain.Activity) {
	glyph := PickGlyph(f.rules, f.locale.Glyphs.Default, a)
	fmt.Fprintf(b, "%s %s | *%s*", glyph, escapeMarkdown(a.DueText), escapeMarkdown(a.Course))
	if kind := collapse(a.Kind); kind != "" {
		b.WriteString(" - ")
		b.WriteString(escapeMarkdown(kind))
	}
	if title := collapse(a.Title); title != "" {
		b.WriteString(" - ")
		b.WriteString(escapeMarkdown(title))
	}
	if a.FlagText != "" {
		fmt.Fprintf(b, " %s %s", f.locale.Text.Warning, escapeMarkdown(a.FlagText))
	}
	b.WriteString("\n")
}

func (f *Formatter) footer(n int) string {
	if n == 1 {
		return fmt.Sprintf(f.locale.Text.FooterOne, n)
	}
	return fmt.Sprintf(f.locale.Text.FooterMany, n)
}

func (f *Formatter) timestamp(at time.Time) string {
	return at.In(f.location).Format(f.locale.Text.TimeLayout)
}

type periodGroup struct {
	period     string
	activities []domain.Activity
}

// groupByPeriod groups in first-encountered period order, keeping the
// original order inside each group.
func groupByPeriod(activities []domain.Activity) []periodGroup {
	var groups []periodGroup
	index := make(map[string]int)
	for _, a := range activities {
		i, ok := index[a.Period]
		if !ok {
			i = len(groups)
			index[a.Period] = i
			groups = append(groups, periodGroup{period: a.Period})
		}
		groups[i].activities = append(groups[i].activities, a)
	}
	return groups
}

const markdownSpecials = "_*`["

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// escapeMarkdown protects scraped text from being read as chat markup.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// stripMarkdown turns a rendered message into plain text: escaped
// characters lose their backslash and bare bold markers are dropped.
func stripMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			if !strings.ContainsRune(markdownSpecials, r) {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '*':
		default:
			b.WriteRune(r)
		}
	}
	if escaped {
		b.WriteByte('\\')
	}
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
