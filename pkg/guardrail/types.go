package guardrail

// Category identifies one class of attack in the guardrail catalogue.
type Category string

// Attack categories, highest priority first. Evaluation tests categories in
// this order and returns the first match, so an input matching several
// categories always resolves the same way.
const (
	CategoryPromptInjection      Category = "prompt_injection"
	CategoryJailbreak            Category = "jailbreak"
	CategoryCredentialExtraction Category = "credential_extraction"
	CategorySystemPromptTheft    Category = "system_prompt_theft"
	CategoryHarmfulContent       Category = "harmful_content"
)

// CategoryPriority is the fixed evaluation order of the catalogue.
var CategoryPriority = []Category{
	CategoryPromptInjection,
	CategoryJailbreak,
	CategoryCredentialExtraction,
	CategorySystemPromptTheft,
	CategoryHarmfulContent,
}

// Verdict is the outcome of evaluating one inbound message. A Verdict is
// immutable once computed.
type Verdict struct {
	// Blocked reports whether the message matched the catalogue.
	Blocked bool

	// Category is the attack category of the first match. Empty when the
	// verdict is Clean.
	Category Category

	// MatchedPattern is the raw pattern that matched. Empty when Clean.
	MatchedPattern string

	// CatalogueVersion is the version of the catalogue that produced this
	// verdict, for auditability across hot reloads.
	CatalogueVersion string
}

// Clean reports whether the verdict allows the message through.
func (v Verdict) Clean() bool {
	return !v.Blocked
}
