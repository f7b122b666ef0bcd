package guardrail

import (
	"fmt"
	"regexp"
	"strings"

	"llmobs-hq/copilot/pkg/config"
)

// matcher is one compiled pattern. Exactly one of phrase or re is set.
type matcher struct {
	raw    string
	phrase string // lowercased substring
	re     *regexp.Regexp
}

func (m *matcher) matches(text, lowered string) bool {
	if m.re != nil {
		return m.re.MatchString(text)
	}
	return strings.Contains(lowered, m.phrase)
}

// Catalogue is an immutable, versioned set of compiled attack patterns
// grouped by category. A Catalogue is built once from configuration and
// never mutated; hot reload builds a complete replacement.
type Catalogue struct {
	version    string
	byCategory map[Category][]matcher
}

// NewCatalogue compiles a catalogue from configuration. Every category in
// CategoryPriority must be present with at least one pattern; a malformed
// regex or a partial catalogue is a configuration error here, never an
// evaluation-time failure.
func NewCatalogue(cfg *config.GuardrailConfig) (*Catalogue, error) {
	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("guardrail catalogue is empty")
	}

	cat := &Catalogue{
		version:    cfg.Version,
		byCategory: make(map[Category][]matcher, len(CategoryPriority)),
	}

	for _, key := range CategoryPriority {
		set, ok := cfg.Categories[string(key)]
		if !ok {
			return nil, fmt.Errorf("guardrail catalogue is missing category %q", key)
		}
		if len(set.Phrases) == 0 && len(set.Regex) == 0 {
			return nil, fmt.Errorf("guardrail category %q has no patterns", key)
		}

		matchers := make([]matcher, 0, len(set.Phrases)+len(set.Regex))
		for _, phrase := range set.Phrases {
			matchers = append(matchers, matcher{
				raw:    phrase,
				phrase: strings.ToLower(phrase),
			})
		}
		for _, expr := range set.Regex {
			re, err := regexp.Compile("(?i)" + expr)
			if err != nil {
				return nil, fmt.Errorf("guardrail category %q: invalid regex %q: %w", key, expr, err)
			}
			matchers = append(matchers, matcher{raw: expr, re: re})
		}

		cat.byCategory[key] = matchers
	}

	return cat, nil
}

// Version returns the operator-assigned catalogue version.
func (c *Catalogue) Version() string {
	return c.version
}

// match tests the given category's matchers in configuration order and
// returns the first matching raw pattern.
func (c *Catalogue) match(category Category, text, lowered string) (string, bool) {
	for i := range c.byCategory[category] {
		if c.byCategory[category][i].matches(text, lowered) {
			return c.byCategory[category][i].raw, true
		}
	}
	return "", false
}
