package format

import (
	"strings"

	"github.com/MrSnakeDoc/duewatch/internal/domain"
)

// GlyphRule pairs a predicate with the glyph shown when it matches.
type GlyphRule struct {
	Name  string
	Match func(domain.Activity) bool
	Glyph string
}

// GlyphRules builds the rule table, highest precedence first: deadline flag,
// then exam, task and work kinds.
func (g Glyphs) GlyphRules() []GlyphRule {
	return []GlyphRule{
		{
			Name: "flag",
			Match: func(a domain.Activity) bool {
				return a.HasFlagIcon && containsAny(a.FlagText, g.FlagHints)
			},
			Glyph: g.Flag,
		},
		{Name: "exam", Match: kindContains(g.ExamHints), Glyph: g.Exam},
		{Name: "task", Match: kindContains(g.TaskHints), Glyph: g.Task},
		{Name: "work", Match: kindContains(g.WorkHints), Glyph: g.Work},
	}
}

// PickGlyph evaluates rules top-down; the first match wins.
func PickGlyph(rules []GlyphRule, fallback string, a domain.Activity) string {
	for _, rule := range rules {
		if rule.Match(a) {
			return rule.Glyph
		}
	}
	return fallback
}

func kindContains(hints []string) func(domain.Activity) bool {
	return func(a domain.Activity) bool { return containsAny(a.Kind, hints) }
}

func containsAny(s string, hints []string) bool {
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, h := range hints {
		if h != "" && strings.Contains(s, strings.ToLower(h)) {
			return true
		}
	}
	return false
}
