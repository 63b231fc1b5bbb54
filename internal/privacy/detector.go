// Package privacy implements local PII detection. Configured secrets live
// in process memory only: they are never written to disk, logs, or the
// network, and detection results carry no matched substrings - only a
// boolean verdict.
package privacy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/TheSethRose/Moltbook-Wrapper/internal/logger"
	"go.uber.org/zap"
)

type stringSet map[string]struct{}

// Detector answers whether a piece of text is safe to transmit. It holds
// per-category sets of normalized creator secrets plus optional custom
// patterns, and matches them against text alongside the structural
// pattern registry.
//
// The expected lifecycle is configure-then-query: populate the detector
// once at startup, then call ContainsPII on each outbound text. Mutators
// (Add*, Clear) must not run concurrently with queries.
type Detector struct {
	registry *Registry
	logger   *logger.Logger

	names     stringSet
	handles   stringSet
	locations stringSet
	employers stringSet
	family    stringSet
	phones    stringSet
	emails    stringSet
	addresses stringSet

	// Keyed by pattern source so re-adding the same pattern is a no-op.
	customPatterns map[string]*regexp.Regexp
}

// New creates an empty detector backed by the shared pattern registry.
func New(registry *Registry, log *logger.Logger) *Detector {
	return &Detector{
		registry:       registry,
		logger:         log,
		names:          make(stringSet),
		handles:        make(stringSet),
		locations:      make(stringSet),
		employers:      make(stringSet),
		family:         make(stringSet),
		phones:         make(stringSet),
		emails:         make(stringSet),
		addresses:      make(stringSet),
		customPatterns: make(map[string]*regexp.Regexp),
	}
}

// NewWithCreator creates a detector pre-populated from a creator profile.
// Empty profile fields are skipped. The profile is not retained.
func NewWithCreator(registry *Registry, profile CreatorProfile, log *logger.Logger) *Detector {
	d := New(registry, log)
	d.AddCreatorName(profile.Name)
	d.AddCreatorHandle(profile.Handle)
	d.AddCreatorLocation(profile.Location)
	d.AddCreatorEmployer(profile.Employer)

	d.logger.Info("PII detector initialized",
		zap.Int("creator_secrets", d.Stats().Total()),
	)
	return d
}

// normalize case-folds and trims a value so matching is consistent
// regardless of input casing and surrounding whitespace.
func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// digitsOnly strips every non-digit character.
func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s stringSet) add(value string) {
	if value == "" {
		return
	}
	s[value] = struct{}{}
}

// AddCreatorName registers the creator's name (in-memory only).
func (d *Detector) AddCreatorName(name string) {
	d.names.add(normalize(name))
}

// AddCreatorHandle registers a social handle. A leading @ is stripped so
// "@handle" and "handle" land on the same entry.
func (d *Detector) AddCreatorHandle(handle string) {
	d.handles.add(strings.TrimPrefix(normalize(handle), "@"))
}

// AddCreatorLocation registers the creator's location.
func (d *Detector) AddCreatorLocation(location string) {
	d.locations.add(normalize(location))
}

// AddCreatorEmployer registers the creator's employer.
func (d *Detector) AddCreatorEmployer(employer string) {
	d.employers.add(normalize(employer))
}

// AddCreatorFamily registers a family member's name.
func (d *Detector) AddCreatorFamily(name string) {
	d.family.add(normalize(name))
}

// AddCreatorPhone registers a phone number. Only the digits are stored, so
// "555-123-4567" and "5551234567" are the same entry.
func (d *Detector) AddCreatorPhone(phone string) {
	d.phones.add(digitsOnly(phone))
}

// AddCreatorEmail registers the creator's email address.
func (d *Detector) AddCreatorEmail(email string) {
	d.emails.add(normalize(email))
}

// AddCreatorAddress registers the creator's street address.
func (d *Detector) AddCreatorAddress(address string) {
	d.addresses.add(normalize(address))
}

// AddCustomPattern compiles pattern case-insensitively and registers it.
// A malformed pattern is reported to the caller and never registered; it
// must not crash the host.
func (d *Detector) AddCustomPattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("empty custom pattern")
	}
	compiled, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid custom pattern: %w", err)
	}
	d.customPatterns[pattern] = compiled
	return nil
}

// ContainsPII reports whether text contains PII: a structural pattern
// match, a stored creator secret appearing as a substring of the
// normalized text (digit-only comparison for phones), or a custom pattern
// match. Structural patterns are checked first as they are the cheapest
// existence test; the result is the same regardless of order.
func (d *Detector) ContainsPII(text string) bool {
	if d.registry.MatchAny(text) {
		return true
	}
	if d.containsCreatorSecret(text) {
		return true
	}
	for _, pattern := range d.customPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

func (d *Detector) containsCreatorSecret(text string) bool {
	lower := strings.ToLower(text)

	for _, set := range []stringSet{d.names, d.handles, d.locations, d.employers, d.family, d.emails, d.addresses} {
		for value := range set {
			if strings.Contains(lower, value) {
				return true
			}
		}
	}

	digits := digitsOnly(text)
	for phone := range d.phones {
		if strings.Contains(digits, phone) {
			return true
		}
	}
	return false
}

// CheckAndSanitize checks text and, when PII is found, returns a copy with
// structural matches and stored name/handle values replaced by
// placeholder. Clean text is returned unchanged. The sanitized copy is a
// best-effort scrub for display purposes; the boolean verdict is the trust
// boundary, and callers must never transmit the sanitized text in place of
// the original.
func (d *Detector) CheckAndSanitize(text, placeholder string) (bool, string) {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	if !d.ContainsPII(text) {
		return false, text
	}

	sanitized := d.registry.Redact(text, placeholder)
	for name := range d.names {
		sanitized = replaceFold(sanitized, name, placeholder)
	}
	for handle := range d.handles {
		sanitized = replaceFold(sanitized, handle, placeholder)
	}
	return true, sanitized
}

// replaceFold replaces every case-insensitive occurrence of value in text
// with placeholder. Stored secrets are already lower-cased. Matching is
// done with a case-folded regexp on the original text; case folding can
// change rune widths, so offsets found in a lowered copy must never be
// applied to the original.
func replaceFold(text, value, placeholder string) string {
	if value == "" {
		return text
	}
	// QuoteMeta guarantees a valid pattern.
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(value))
	return re.ReplaceAllLiteralString(text, placeholder)
}

// Clear empties every stored set. Used for explicit memory hygiene at the
// end of a session.
func (d *Detector) Clear() {
	d.names = make(stringSet)
	d.handles = make(stringSet)
	d.locations = make(stringSet)
	d.employers = make(stringSet)
	d.family = make(stringSet)
	d.phones = make(stringSet)
	d.emails = make(stringSet)
	d.addresses = make(stringSet)
	d.customPatterns = make(map[string]*regexp.Regexp)
	d.logger.Info("PII detector state cleared")
}

// Stats returns the size of each secret set. Values are never exposed.
func (d *Detector) Stats() Stats {
	return Stats{
		Names:          len(d.names),
		Handles:        len(d.handles),
		Locations:      len(d.locations),
		Employers:      len(d.employers),
		Family:         len(d.family),
		Phones:         len(d.phones),
		Emails:         len(d.emails),
		Addresses:      len(d.addresses),
		CustomPatterns: len(d.customPatterns),
	}
}
