package guardrail

import (
	"strings"
	"sync"

	"llmobs-hq/copilot/pkg/config"
)

// Engine classifies inbound messages against the attack-pattern catalogue.
//
// Evaluate is pure and synchronous: no I/O, no side effects, no clock. The
// only mutable state is the catalogue pointer, swapped atomically on hot
// reload, so concurrent evaluations of different exchanges need no further
// coordination.
type Engine struct {
	mu        sync.RWMutex
	catalogue *Catalogue
}

// NewEngine creates an engine from the configured catalogue. The catalogue
// is compiled and validated up front; a broken catalogue fails here, at
// startup, never during evaluation.
func NewEngine(cfg *config.GuardrailConfig) (*Engine, error) {
	catalogue, err := NewCatalogue(cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{catalogue: catalogue}, nil
}

// Evaluate classifies the raw, untrimmed inbound message. Categories are
// tested in CategoryPriority order and the first matching category wins;
// no match across all categories yields a Clean verdict.
func (e *Engine) Evaluate(text string) Verdict {
	e.mu.RLock()
	catalogue := e.catalogue
	e.mu.RUnlock()

	lowered := strings.ToLower(text)

	for _, category := range CategoryPriority {
		if pattern, ok := catalogue.match(category, text, lowered); ok {
			return Verdict{
				Blocked:          true,
				Category:         category,
				MatchedPattern:   pattern,
				CatalogueVersion: catalogue.version,
			}
		}
	}

	return Verdict{CatalogueVersion: catalogue.version}
}

// Reload compiles a new catalogue from the given configuration and swaps
// it in. On error the previous catalogue stays in effect; in-flight
// evaluations keep the catalogue they started with.
func (e *Engine) Reload(cfg *config.GuardrailConfig) error {
	catalogue, err := NewCatalogue(cfg)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.catalogue = catalogue
	e.mu.Unlock()
	return nil
}

// Version returns the version of the active catalogue.
func (e *Engine) Version() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalogue.version
}
