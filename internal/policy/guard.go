// Package policy implements the safe-posting rule: content-creating
// operations are checked for PII locally and rejected before any network
// call when the check fails. Accepted content is transmitted as the user
// wrote it - sanitized text is never silently substituted.
package policy

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/TheSethRose/Moltbook-Wrapper/internal/config"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/logger"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/privacy"
	"go.uber.org/zap"
)

// ContentPoster is the transport collaborator, invoked only after content
// clears the guard.
type ContentPoster interface {
	CreatePost(ctx context.Context, submolt, title, content, url string) (json.RawMessage, error)
	CreateComment(ctx context.Context, postID, content, parentID string) (json.RawMessage, error)
}

// Refusal is the structured rejection returned when content fails the PII
// check. It carries which field failed and a remediation hint, never the
// matched value.
type Refusal struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Details    string `json:"details"`
	Suggestion string `json:"suggestion"`
}

// DecisionHook observes allow/block decisions. It receives the field name
// and the reason only, never the content.
type DecisionHook func(field string, allowed bool, reason string)

// Guard applies the safe-posting policy around a PII detector. The
// protection toggle defaults to on; disabling it is an explicit opt-in
// and is logged loudly.
type Guard struct {
	detector    *privacy.Detector
	poster      ContentPoster
	logger      *logger.Logger
	version     string
	placeholder string

	mu           sync.Mutex
	enabled      bool
	postsBlocked int64
	postsAllowed int64
	onDecision   DecisionHook
}

// Stats summarizes guard activity. Only counters are exposed.
type Stats struct {
	Version           string        `json:"version"`
	ProtectionEnabled bool          `json:"pii_protection_enabled"`
	PostsBlocked      int64         `json:"posts_blocked"`
	PostsAllowed      int64         `json:"posts_allowed"`
	Detector          privacy.Stats `json:"pii_detector_stats"`
}

// New creates a guard around the given detector. poster may be nil when
// the guard is used for checks only (e.g. the guard server).
func New(detector *privacy.Detector, poster ContentPoster, cfg config.ProtectionConfig, version string, log *logger.Logger) *Guard {
	g := &Guard{
		detector:    detector,
		poster:      poster,
		logger:      log,
		version:     version,
		placeholder: cfg.Placeholder,
		enabled:     cfg.Enabled,
	}
	if !cfg.Enabled {
		log.Warn("PII protection is DISABLED by configuration - outbound content will not be checked")
	}
	return g
}

// SetDecisionHook registers a hook called on every allow/block decision.
func (g *Guard) SetDecisionHook(hook DecisionHook) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onDecision = hook
}

// CheckContent checks one field of outbound content. It returns nil when
// the content may be transmitted, or a Refusal when it must not. Empty
// content passes without touching the counters.
func (g *Guard) CheckContent(text, field string) *Refusal {
	g.mu.Lock()
	enabled := g.enabled
	g.mu.Unlock()

	if !enabled || text == "" {
		return nil
	}

	if g.detector.ContainsPII(text) {
		g.record(field, false)
		g.logger.Warn("Content blocked by PII protection", zap.String("field", field))
		return &Refusal{
			Success:    false,
			Error:      "PII Protection Blocked",
			Details:    "PII detected in " + field + " - post blocked",
			Suggestion: "Remove personal information from " + field + " and try again",
		}
	}

	g.record(field, true)
	return nil
}

func (g *Guard) record(field string, allowed bool) {
	g.mu.Lock()
	if allowed {
		g.postsAllowed++
	} else {
		g.postsBlocked++
	}
	hook := g.onDecision
	g.mu.Unlock()

	if hook != nil {
		reason := field + " is safe"
		if !allowed {
			reason = "PII detected in " + field
		}
		hook(field, allowed, reason)
	}
}

// SafeCreatePost checks title and content independently and only then
// calls the transport. A refusal is returned as the operation result; no
// network call is made for rejected content.
func (g *Guard) SafeCreatePost(ctx context.Context, submolt, title, content, url string) (json.RawMessage, error) {
	if refusal := g.CheckContent(title, "title"); refusal != nil {
		return marshalRefusal(refusal), nil
	}
	if refusal := g.CheckContent(content, "content"); refusal != nil {
		return marshalRefusal(refusal), nil
	}

	// Safe to post: transmit the original text, never a sanitized copy.
	return g.poster.CreatePost(ctx, submolt, title, content, url)
}

// SafeCreateComment checks the comment body and only then calls the
// transport.
func (g *Guard) SafeCreateComment(ctx context.Context, postID, content, parentID string) (json.RawMessage, error) {
	if refusal := g.CheckContent(content, "comment"); refusal != nil {
		return marshalRefusal(refusal), nil
	}
	return g.poster.CreateComment(ctx, postID, content, parentID)
}

// SanitizePreview reports whether text contains PII and returns a copy
// with detected values replaced by the configured placeholder. The
// preview is for local display only; transmission always uses the
// original text, and only when the verdict is clean.
func (g *Guard) SanitizePreview(text string) (bool, string) {
	return g.detector.CheckAndSanitize(text, g.placeholder)
}

func marshalRefusal(r *Refusal) json.RawMessage {
	data, err := json.Marshal(r)
	if err != nil {
		// Refusal is a plain value struct; this cannot fail in practice.
		return json.RawMessage(`{"success":false,"error":"PII Protection Blocked"}`)
	}
	return data
}

// Enable turns PII protection on.
func (g *Guard) Enable() {
	g.mu.Lock()
	g.enabled = true
	g.mu.Unlock()
	g.logger.Info("PII protection enabled")
}

// Disable turns PII protection off. Use with caution: content is
// transmitted unchecked while disabled.
func (g *Guard) Disable() {
	g.mu.Lock()
	g.enabled = false
	g.mu.Unlock()
	g.logger.Warn("PII protection DISABLED - outbound content will not be checked")
}

// Enabled reports the current protection state.
func (g *Guard) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// Stats returns guard counters and detector set sizes.
func (g *Guard) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Stats{
		Version:           g.version,
		ProtectionEnabled: g.enabled,
		PostsBlocked:      g.postsBlocked,
		PostsAllowed:      g.postsAllowed,
		Detector:          g.detector.Stats(),
	}
}
