package portal

import (
	"strings"

	"github.com/MrSnakeDoc/duewatch/internal/domain"
)

// DefaultKindMarkers are the prefixes that identify the classification line
// of an activity cell, in both portal languages.
var DefaultKindMarkers = []string{"Avaliação:", "Tarefa:", "Evaluation:", "Task:"}

// Extractor converts raw table rows to activities.
type Extractor struct {
	kindMarkers []string
}

// NewExtractor creates an extractor recognising the given kind markers.
// An empty list falls back to DefaultKindMarkers.
func NewExtractor(kindMarkers []string) *Extractor {
	if len(kindMarkers) == 0 {
		kindMarkers = DefaultKindMarkers
	}
	return &Extractor{kindMarkers: kindMarkers}
}

// extraction is the accumulator folded over the rows: the period in effect
// and what has been produced so far.
type extraction struct {
	period     string
	activities []domain.Activity
}

// Extract folds rows into activities in source order. Ids are not assigned
// here. Rows with fewer than three cells or without a course are skipped.
func (e *Extractor) Extract(rows []RawRow) []domain.Activity {
	acc := extraction{activities: make([]domain.Activity, 0, len(rows))}
	for _, row := range rows {
		acc = e.step(acc, row)
	}
	return acc.activities
}

func (e *Extractor) step(acc extraction, row RawRow) extraction {
	if row.IsPeriod {
		acc.period = strings.TrimSpace(row.Period)
		return acc
	}

	activity, ok := e.activity(acc.period, row)
	if ok {
		acc.activities = append(acc.activities, activity)
	}
	return acc
}

// activity reads a data row: icon cell, date cell, then the combined
// "course / kind / link" cell.
func (e *Extractor) activity(period string, row RawRow) (domain.Activity, bool) {
	if len(row.Cells) < 3 {
		return domain.Activity{}, false
	}
	icon, due, body := row.Cells[0], row.Cells[1], row.Cells[2]

	lines := nonEmptyLines(body.Text)
	if len(lines) == 0 {
		return domain.Activity{}, false
	}

	activity := domain.Activity{
		Period:      period,
		DueText:     collapseSpaces(due.Text),
		Course:      lines[0],
		Kind:        e.kind(lines[1:]),
		HasFlagIcon: icon.HasIcon,
	}
	if body.HasLink {
		activity.Title = strings.TrimSpace(body.LinkText)
	}
	if icon.HasIcon {
		activity.FlagText = strings.TrimSpace(icon.IconTitle)
	}
	return activity, true
}

// kind returns the first line carrying a known marker.
func (e *Extractor) kind(lines []string) string {
	for _, line := range lines {
		for _, marker := range e.kindMarkers {
			if strings.Contains(line, marker) {
				return line
			}
		}
	}
	return ""
}

func nonEmptyLines(s string) []string {
	raw := strings.Split(s, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
