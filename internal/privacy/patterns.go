package privacy

import "regexp"

// Category identifies a structural PII shape that can be detected in any
// text regardless of whose it is.
type Category string

const (
	CategoryEmail      Category = "email"
	CategoryPhone      Category = "phone"
	CategorySSN        Category = "ssn"
	CategoryCreditCard Category = "credit_card"
	CategoryIPAddress  Category = "ip_address"
	CategoryDate       Category = "date"
)

// PatternEntry pairs a category with its compiled matcher.
type PatternEntry struct {
	Category Category
	Pattern  *regexp.Regexp
}

// Registry holds the fixed set of structural PII patterns. It is built once
// at startup and shared read-only across detectors, so no synchronization is
// needed for reads.
type Registry struct {
	entries []PatternEntry
}

// NewRegistry compiles the structural PII patterns. The patterns are
// intentionally permissive: a blocked-but-harmless post is preferable to a
// leaked SSN.
func NewRegistry() *Registry {
	return &Registry{
		entries: []PatternEntry{
			{CategoryEmail, regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
			{CategoryPhone, regexp.MustCompile(`(\+?1[-.\s]?)?(\(?\d{3}\)?[-.\s]?)?\d{3}[-.\s]?\d{4}`)},
			{CategorySSN, regexp.MustCompile(`\d{3}-\d{2}-\d{4}`)},
			{CategoryCreditCard, regexp.MustCompile(`\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}`)},
			// No range validation: 999.999.999.999 still matches.
			{CategoryIPAddress, regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)},
			// Date shapes are treated as potential birth dates.
			{CategoryDate, regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`)},
		},
	}
}

// Match reports whether text matches the pattern for the given category.
func (r *Registry) Match(category Category, text string) bool {
	for _, entry := range r.entries {
		if entry.Category == category {
			return entry.Pattern.MatchString(text)
		}
	}
	return false
}

// MatchAny reports whether any structural pattern matches text.
func (r *Registry) MatchAny(text string) bool {
	for _, entry := range r.entries {
		if entry.Pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// Redact replaces every structural pattern match in text with placeholder.
// All categories are applied so multiple PII types in one string are all
// redacted; no category short-circuits the others.
func (r *Registry) Redact(text, placeholder string) string {
	for _, entry := range r.entries {
		text = entry.Pattern.ReplaceAllString(text, placeholder)
	}
	return text
}

// Categories returns the category names in registration order.
func (r *Registry) Categories() []Category {
	categories := make([]Category, 0, len(r.entries))
	for _, entry := range r.entries {
		categories = append(categories, entry.Category)
	}
	return categories
}
