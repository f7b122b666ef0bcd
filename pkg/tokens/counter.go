package tokens

import (
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Counter estimates token counts for text. The pipeline uses it when an
// exchange arrives without provider-reported token counts (simulated
// traffic, blocked exchanges carrying only the refusal text).
type Counter interface {
	// Count returns the token count of text under the given model's
	// tokenization.
	Count(text, model string) (int, error)
}

// fallbackCharsPerToken is the character-ratio estimate used when no
// tokenizer encoding is available for a model. Roughly 4 chars/token
// holds for English prose across common BPE vocabularies.
const fallbackCharsPerToken = 4.0

// TiktokenCounter counts tokens with tiktoken BPE encodings, falling
// back to a character-ratio estimate for models with no known encoding.
// Codecs are cached per encoding; construction of a codec is expensive,
// counting with one is not.
type TiktokenCounter struct {
	mu     sync.RWMutex
	codecs map[tokenizer.Encoding]tokenizer.Codec
}

// NewTiktokenCounter creates a counter with an empty codec cache.
func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{
		codecs: make(map[tokenizer.Encoding]tokenizer.Codec),
	}
}

// Count returns the token count of text for the given model. Unknown
// models degrade to the character-ratio estimate rather than erroring;
// an estimate is always available.
func (c *TiktokenCounter) Count(text, model string) (int, error) {
	if text == "" {
		return 0, nil
	}

	codec, err := c.codecFor(model)
	if err != nil {
		return charEstimate(text), nil
	}

	ids, _, err := codec.Encode(text)
	if err != nil {
		return charEstimate(text), nil
	}
	return len(ids), nil
}

// codecFor resolves the codec for a model, preferring the model's own
// registration and falling back to the encoding family its name
// suggests.
func (c *TiktokenCounter) codecFor(model string) (tokenizer.Codec, error) {
	if codec, err := tokenizer.ForModel(tokenizer.Model(model)); err == nil {
		return codec, nil
	}

	encoding := modelEncoding(model)

	c.mu.RLock()
	cached, ok := c.codecs[encoding]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.codecs[encoding] = codec
	c.mu.Unlock()
	return codec, nil
}

// modelEncoding maps a model name to its encoding family. Newer OpenAI
// models use o200k_base; GPT-4/3.5-era models use cl100k_base. Unknown
// and non-OpenAI models default to o200k_base, whose vocabulary is the
// closest modern approximation.
func modelEncoding(model string) tokenizer.Encoding {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "gpt-4o"),
		strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "gpt-5"),
		strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"),
		strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"),
		strings.HasPrefix(model, "gpt-3.5"),
		strings.HasPrefix(model, "text-embedding"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.O200kBase
	}
}

func charEstimate(text string) int {
	tokens := int(float64(len(text))/fallbackCharsPerToken + 0.5)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
