package policy

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/TheSethRose/Moltbook-Wrapper/internal/config"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/logger"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/privacy"
)

// fakePoster records transport calls so tests can assert that blocked
// content never reaches the network.
type fakePoster struct {
	postCalls    int
	commentCalls int
	lastTitle    string
	lastContent  string
}

func (f *fakePoster) CreatePost(ctx context.Context, submolt, title, content, url string) (json.RawMessage, error) {
	f.postCalls++
	f.lastTitle = title
	f.lastContent = content
	return json.RawMessage(`{"success":true,"id":"post-1"}`), nil
}

func (f *fakePoster) CreateComment(ctx context.Context, postID, content, parentID string) (json.RawMessage, error) {
	f.commentCalls++
	f.lastContent = content
	return json.RawMessage(`{"success":true,"id":"comment-1"}`), nil
}

func protectionOn() config.ProtectionConfig {
	return config.ProtectionConfig{Enabled: true, Placeholder: "[REDACTED]"}
}

func newTestGuard(t *testing.T, poster ContentPoster) (*Guard, *privacy.Detector) {
	t.Helper()
	detector := privacy.New(privacy.NewRegistry(), logger.NewNop())
	detector.AddCreatorName("Jane Doe")
	return New(detector, poster, protectionOn(), "test", logger.NewNop()), detector
}

func TestCheckContent(t *testing.T) {
	t.Run("clean content passes", func(t *testing.T) {
		guard, _ := newTestGuard(t, nil)
		if refusal := guard.CheckContent("This post is about automation", "content"); refusal != nil {
			t.Errorf("clean content refused: %+v", refusal)
		}
		if got := guard.Stats().PostsAllowed; got != 1 {
			t.Errorf("allowed count = %d, want 1", got)
		}
	})

	t.Run("PII content is refused with the structured payload", func(t *testing.T) {
		guard, _ := newTestGuard(t, nil)
		refusal := guard.CheckContent("Contact me at seth@example.com", "content")
		if refusal == nil {
			t.Fatal("PII content not refused")
		}
		if refusal.Success {
			t.Error("refusal has Success=true")
		}
		if refusal.Error != "PII Protection Blocked" {
			t.Errorf("refusal error = %q", refusal.Error)
		}
		if refusal.Details != "PII detected in content - post blocked" {
			t.Errorf("refusal details = %q", refusal.Details)
		}
		if refusal.Suggestion == "" {
			t.Error("refusal has no suggestion")
		}
		if got := guard.Stats().PostsBlocked; got != 1 {
			t.Errorf("blocked count = %d, want 1", got)
		}
	})

	t.Run("empty content passes without counting", func(t *testing.T) {
		guard, _ := newTestGuard(t, nil)
		if refusal := guard.CheckContent("", "content"); refusal != nil {
			t.Errorf("empty content refused: %+v", refusal)
		}
		stats := guard.Stats()
		if stats.PostsAllowed != 0 || stats.PostsBlocked != 0 {
			t.Errorf("counters moved for empty content: %+v", stats)
		}
	})

	t.Run("creator name blocks", func(t *testing.T) {
		guard, _ := newTestGuard(t, nil)
		if guard.CheckContent("Hi, I'm Jane Doe", "title") == nil {
			t.Error("creator name not blocked")
		}
		if guard.CheckContent("Hi, I'm someone else", "title") != nil {
			t.Error("clean title blocked")
		}
	})
}

func TestSafeCreatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("clean post transmits the original text", func(t *testing.T) {
		poster := &fakePoster{}
		guard, _ := newTestGuard(t, poster)

		result, err := guard.SafeCreatePost(ctx, "general", "Hello", "This post is about automation", "")
		if err != nil {
			t.Fatalf("SafeCreatePost: %v", err)
		}
		if poster.postCalls != 1 {
			t.Fatalf("poster calls = %d, want 1", poster.postCalls)
		}
		if poster.lastTitle != "Hello" || poster.lastContent != "This post is about automation" {
			t.Error("transport did not receive the original text")
		}
		var resp map[string]any
		if err := json.Unmarshal(result, &resp); err != nil {
			t.Fatalf("result not JSON: %v", err)
		}
		if resp["success"] != true {
			t.Errorf("unexpected result: %v", resp)
		}
	})

	t.Run("PII in title blocks locally", func(t *testing.T) {
		poster := &fakePoster{}
		guard, _ := newTestGuard(t, poster)

		result, err := guard.SafeCreatePost(ctx, "general", "My SSN is 123-45-6789", "clean body", "")
		if err != nil {
			t.Fatalf("SafeCreatePost: %v", err)
		}
		if poster.postCalls != 0 {
			t.Error("blocked post reached the transport")
		}

		var refusal Refusal
		if err := json.Unmarshal(result, &refusal); err != nil {
			t.Fatalf("refusal not JSON: %v", err)
		}
		if refusal.Error != "PII Protection Blocked" {
			t.Errorf("refusal error = %q", refusal.Error)
		}
		if refusal.Details != "PII detected in title - post blocked" {
			t.Errorf("refusal details = %q", refusal.Details)
		}
	})

	t.Run("PII in content blocks locally", func(t *testing.T) {
		poster := &fakePoster{}
		guard, _ := newTestGuard(t, poster)

		result, err := guard.SafeCreatePost(ctx, "general", "Hello", "reach me at seth@example.com", "")
		if err != nil {
			t.Fatalf("SafeCreatePost: %v", err)
		}
		if poster.postCalls != 0 {
			t.Error("blocked post reached the transport")
		}

		var refusal Refusal
		if err := json.Unmarshal(result, &refusal); err != nil {
			t.Fatalf("refusal not JSON: %v", err)
		}
		if refusal.Details != "PII detected in content - post blocked" {
			t.Errorf("refusal details = %q", refusal.Details)
		}
	})
}

func TestSafeCreateComment(t *testing.T) {
	ctx := context.Background()

	t.Run("clean comment transmits", func(t *testing.T) {
		poster := &fakePoster{}
		guard, _ := newTestGuard(t, poster)

		if _, err := guard.SafeCreateComment(ctx, "post-1", "Interesting take", ""); err != nil {
			t.Fatalf("SafeCreateComment: %v", err)
		}
		if poster.commentCalls != 1 {
			t.Errorf("comment calls = %d, want 1", poster.commentCalls)
		}
	})

	t.Run("PII comment is blocked", func(t *testing.T) {
		poster := &fakePoster{}
		guard, _ := newTestGuard(t, poster)

		result, err := guard.SafeCreateComment(ctx, "post-1", "My phone is 555-123-4567", "")
		if err != nil {
			t.Fatalf("SafeCreateComment: %v", err)
		}
		if poster.commentCalls != 0 {
			t.Error("blocked comment reached the transport")
		}

		var refusal Refusal
		if err := json.Unmarshal(result, &refusal); err != nil {
			t.Fatalf("refusal not JSON: %v", err)
		}
		if refusal.Details != "PII detected in comment - post blocked" {
			t.Errorf("refusal details = %q", refusal.Details)
		}
	})
}

func TestSanitizePreview(t *testing.T) {
	t.Run("uses the configured placeholder", func(t *testing.T) {
		detector := privacy.New(privacy.NewRegistry(), logger.NewNop())
		detector.AddCreatorName("Jane Doe")
		cfg := config.ProtectionConfig{Enabled: true, Placeholder: "[HIDDEN]"}
		guard := New(detector, nil, cfg, "test", logger.NewNop())

		found, preview := guard.SanitizePreview("I am Jane Doe")
		if !found {
			t.Fatal("name not detected")
		}
		if !strings.Contains(preview, "[HIDDEN]") {
			t.Errorf("configured placeholder not applied: %q", preview)
		}
		if strings.Contains(strings.ToLower(preview), "jane doe") {
			t.Errorf("name survived preview: %q", preview)
		}
	})

	t.Run("clean text is returned unchanged", func(t *testing.T) {
		guard, _ := newTestGuard(t, nil)
		found, preview := guard.SanitizePreview("This post is about automation")
		if found {
			t.Error("clean text flagged")
		}
		if preview != "This post is about automation" {
			t.Errorf("clean text mutated: %q", preview)
		}
	})
}

func TestProtectionToggle(t *testing.T) {
	ctx := context.Background()

	t.Run("disable passes previously blocked content through", func(t *testing.T) {
		poster := &fakePoster{}
		guard, _ := newTestGuard(t, poster)

		blocked := "Contact me at seth@example.com"
		if guard.CheckContent(blocked, "content") == nil {
			t.Fatal("content not blocked while enabled")
		}

		guard.Disable()
		if guard.Enabled() {
			t.Fatal("guard still enabled after Disable")
		}

		if _, err := guard.SafeCreatePost(ctx, "general", "Hi", blocked, ""); err != nil {
			t.Fatalf("SafeCreatePost: %v", err)
		}
		if poster.postCalls != 1 {
			t.Error("disabled guard still blocked the post")
		}
	})

	t.Run("re-enable restores blocking", func(t *testing.T) {
		guard, _ := newTestGuard(t, &fakePoster{})
		guard.Disable()
		guard.Enable()

		if guard.CheckContent("Contact me at seth@example.com", "content") == nil {
			t.Error("re-enabled guard did not block")
		}
	})

	t.Run("disabled by configuration", func(t *testing.T) {
		detector := privacy.New(privacy.NewRegistry(), logger.NewNop())
		guard := New(detector, nil, config.ProtectionConfig{Enabled: false, Placeholder: "[REDACTED]"}, "test", logger.NewNop())

		if guard.Enabled() {
			t.Error("guard enabled despite configuration")
		}
		if guard.CheckContent("seth@example.com", "content") != nil {
			t.Error("disabled guard refused content")
		}
	})
}

func TestDecisionHook(t *testing.T) {
	guard, _ := newTestGuard(t, nil)

	type decision struct {
		field   string
		allowed bool
	}
	var decisions []decision
	guard.SetDecisionHook(func(field string, allowed bool, reason string) {
		decisions = append(decisions, decision{field, allowed})
	})

	guard.CheckContent("This post is about automation", "content")
	guard.CheckContent("seth@example.com", "title")

	if len(decisions) != 2 {
		t.Fatalf("hook called %d times, want 2", len(decisions))
	}
	if !decisions[0].allowed || decisions[0].field != "content" {
		t.Errorf("first decision = %+v", decisions[0])
	}
	if decisions[1].allowed || decisions[1].field != "title" {
		t.Errorf("second decision = %+v", decisions[1])
	}
}

func TestStats(t *testing.T) {
	guard, detector := newTestGuard(t, nil)

	guard.CheckContent("clean as can be", "content")
	guard.CheckContent("seth@example.com", "content")

	stats := guard.Stats()
	if stats.Version != "test" {
		t.Errorf("version = %q", stats.Version)
	}
	if !stats.ProtectionEnabled {
		t.Error("protection reported disabled")
	}
	if stats.PostsAllowed != 1 || stats.PostsBlocked != 1 {
		t.Errorf("counters = %+v", stats)
	}
	if stats.Detector.Names != 1 {
		t.Errorf("detector stats not included: %+v", stats.Detector)
	}

	detector.Clear()
	if guard.Stats().Detector.Names != 0 {
		t.Error("stats not reset after Clear")
	}
}
