package format

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Locale holds every piece of language-specific text: the markers used to
// read the portal, the hints behind the glyph rules and the message templates.
type Locale struct {
	Name        string   `yaml:"name"`
	KindMarkers []string `yaml:"kind_markers"`
	Glyphs      Glyphs   `yaml:"glyphs"`
	Text        Text     `yaml:"text"`
}

// Glyphs configures the ordered glyph rule table. Hints are matched
// case-insensitively as substrings.
type Glyphs struct {
	FlagHints []string `yaml:"flag_hints"` // against FlagText, only when the row has an icon
	ExamHints []string `yaml:"exam_hints"` // against Kind
	TaskHints []string `yaml:"task_hints"`
	WorkHints []string `yaml:"work_hints"`

	Flag    string `yaml:"flag"`
	Exam    string `yaml:"exam"`
	Task    string `yaml:"task"`
	Work    string `yaml:"work"`
	Default string `yaml:"default"`
}

// Text holds message templates. Footer and continuation templates are
// fmt format strings.
type Text struct {
	NewHeader     string `yaml:"new_header"`
	ListingHeader string `yaml:"listing_header"`
	Divider       string `yaml:"divider"`
	PeriodDivider string `yaml:"period_divider"`
	PeriodGlyph   string `yaml:"period_glyph"`
	NoPeriod      string `yaml:"no_period"`
	Warning       string `yaml:"warning"`
	Clock         string `yaml:"clock"`
	FooterOne     string `yaml:"footer_one"`  // %d
	FooterMany    string `yaml:"footer_many"` // %d
	NoPending     string `yaml:"no_pending"`
	Continuation  string `yaml:"continuation"` // %d of %d
	Failure       string `yaml:"failure"`
	TimeLayout    string `yaml:"time_layout"`
}

var defaultGlyphs = Glyphs{
	FlagHints: []string{"semana", "week"},
	ExamHints: []string{"prova", "avaliação", "exam", "evaluation"},
	TaskHints: []string{"tarefa", "exercício", "task", "assignment", "exercise"},
	WorkHints: []string{"trabalho", "projeto", "work", "project"},
	Flag:      "⏰",
	Exam:      "📋",
	Task:      "✏️",
	Work:      "📄",
	Default:   "📝",
}

// English is the default locale.
func English() Locale {
	return Locale{
		Name:        "en",
		KindMarkers: []string{"Avaliação:", "Tarefa:", "Evaluation:", "Task:"},
		Glyphs:      cloneGlyphs(defaultGlyphs),
		Text: Text{
			NewHeader:     "🚨 *NEW ACTIVITIES DETECTED!*",
			ListingHeader: "📚 *YOUR ACADEMIC ACTIVITIES*",
			Divider:       "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━",
			PeriodDivider: "─────────────────────────────",
			PeriodGlyph:   "🎓",
			NoPeriod:      "No period",
			Warning:       "⚠️",
			Clock:         "🕐",
			FooterOne:     "📊 Total: %d activity",
			FooterMany:    "📊 Total: %d activities",
			NoPending:     "📭 *No pending activities*\n\nYou are all caught up! 🎉",
			Continuation:  "📋 *Continuation (%d/%d)*\n\n",
			Failure:       "❌ *Error while fetching activities*",
			TimeLayout:    "2006-01-02 15:04:05",
		},
	}
}

// Portuguese matches the portal's own language.
func Portuguese() Locale {
	l := English()
	l.Name = "pt-BR"
	l.Text = Text{
		NewHeader:     "🚨 *NOVAS ATIVIDADES DETECTADAS!*",
		ListingHeader: "📚 *SUAS ATIVIDADES ACADÊMICAS*",
		Divider:       l.Text.Divider,
		PeriodDivider: l.Text.PeriodDivider,
		PeriodGlyph:   l.Text.PeriodGlyph,
		NoPeriod:      "Sem período",
		Warning:       l.Text.Warning,
		Clock:         l.Text.Clock,
		FooterOne:     "📊 Total: %d atividade",
		FooterMany:    "📊 Total: %d atividades",
		NoPending:     "📭 *Nenhuma atividade pendente*\n\nVocê está em dia com suas tarefas! 🎉",
		Continuation:  "📋 *Continuação (%d/%d)*\n\n",
		Failure:       "❌ *Erro ao buscar atividades*",
		TimeLayout:    "02/01/2006 15:04:05",
	}
	return l
}

// LocaleByName returns a built-in locale.
func LocaleByName(name string) (Locale, error) {
	switch name {
	case "", "en":
		return English(), nil
	case "pt-BR", "pt", "pt_BR":
		return Portuguese(), nil
	default:
		return Locale{}, fmt.Errorf("unknown locale %q", name)
	}
}

// LoadLocale reads a YAML file on top of base. Keys absent from the file
// keep base's value; lists present in the file replace base's lists.
func LoadLocale(filePath string, base Locale) (Locale, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Locale{}, fmt.Errorf("failed to read locale file: %w", err)
	}

	locale := base
	locale.KindMarkers = append([]string(nil), base.KindMarkers...)
	locale.Glyphs = cloneGlyphs(base.Glyphs)

	if err := yaml.Unmarshal(data, &locale); err != nil {
		return Locale{}, fmt.Errorf("failed to parse locale yaml: %w", err)
	}
	return locale, nil
}

func cloneGlyphs(g Glyphs) Glyphs {
	g.FlagHints = append([]string(nil), g.FlagHints...)
	g.ExamHints = append([]string(nil), g.ExamHints...)
	g.TaskHints = append([]string(nil), g.TaskHints...)
	g.WorkHints = append([]string(nil), g.WorkHints...)
	return g
}
