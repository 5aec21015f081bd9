package plugin

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestHookManager() *HookManager {
	return NewHookManager(NopLogger{})
}

func TestHookActionRegisterAndDo(t *testing.T) {
	hm := newTestHookManager()

	called := false
	hm.Register(HookWikiAfterUpdate, "test-plugin", func(_ context.Context, ev Event) error {
		called = true
		if ev.Name != HookWikiAfterUpdate {
			t.Errorf("expected event %s, got %s", HookWikiAfterUpdate, ev.Name)
		}
		if ev.Data["name"] != "Home" {
			t.Errorf("expected name Home, got %v", ev.Data["name"])
		}
		return nil
	}, 10)

	hm.Do(context.Background(), HookWikiAfterUpdate, map[string]interface{}{"name": "Home"})

	if !called {
		t.Error("action hook was not called")
	}
}

func TestHookFilterChaining(t *testing.T) {
	hm := newTestHookManager()

	hm.RegisterFilter(HookWikiContent, "plugin-b", func(_ context.Context, s string) (string, error) {
		return s + " [sanitized]", nil
	}, 20)
	hm.RegisterFilter(HookWikiContent, "plugin-a", func(_ context.Context, s string) (string, error) {
		return s + " [filtered]", nil
	}, 10)

	result := hm.Apply(context.Background(), HookWikiContent, "Hello")

	expected := "Hello [filtered] [sanitized]"
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestHookPriorityOrder(t *testing.T) {
	hm := newTestHookManager()

	var order []string
	for _, p := range []struct {
		name     string
		priority int
	}{{"C", 30}, {"A", 10}, {"B", 20}} {
		name := p.name
		hm.Register("test.event", "plugin-"+name, func(context.Context, Event) error {
			order = append(order, name)
			return nil
		}, p.priority)
	}

	hm.Do(context.Background(), "test.event", nil)

	if strings.Join(order, "") != "ABC" {
		t.Errorf("expected [A B C], got %v", order)
	}
}

func TestHookErrorIsolation(t *testing.T) {
	var buf bytes.Buffer
	hm := NewHookManager(NewZerologLogger(zerolog.New(&buf), "hooks"))

	secondCalled := false
	hm.Register("test.event", "bad-plugin", func(context.Context, Event) error {
		return errors.New("something broke")
	}, 10)
	hm.Register("test.event", "panicky-plugin", func(context.Context, Event) error {
		panic("boom")
	}, 15)
	hm.Register("test.event", "good-plugin", func(context.Context, Event) error {
		secondCalled = true
		return nil
	}, 20)

	hm.Do(context.Background(), "test.event", nil)

	if !secondCalled {
		t.Error("later hook should still be called after earlier hook errors")
	}
	if !strings.Contains(buf.String(), "bad-plugin") || !strings.Contains(buf.String(), "panic: boom") {
		t.Errorf("expected both failures logged, got %s", buf.String())
	}
}

func TestHookFilterErrorSkips(t *testing.T) {
	hm := newTestHookManager()

	hm.RegisterFilter("test.filter", "bad-plugin", func(context.Context, string) (string, error) {
		return "bad", errors.New("filter error")
	}, 10)
	hm.RegisterFilter("test.filter", "good-plugin", func(_ context.Context, s string) (string, error) {
		return s + " [ok]", nil
	}, 20)

	result := hm.Apply(context.Background(), "test.filter", "original")

	// bad-plugin errored, so its output is skipped; good-plugin receives "original"
	if result != "original [ok]" {
		t.Errorf("expected %q, got %q", "original [ok]", result)
	}
}

func TestHookUnregister(t *testing.T) {
	hm := newTestHookManager()

	called := false
	hm.Register("test.event", "removable", func(context.Context, Event) error {
		called = true
		return nil
	}, 10)
	hm.RegisterFilter(HookWikiContent, "removable", func(_ context.Context, s string) (string, error) {
		return "changed", nil
	}, 10)

	hm.Unregister("removable")
	hm.Do(context.Background(), "test.event", nil)

	if called {
		t.Error("hook should not be called after unregister")
	}
	if got := hm.Apply(context.Background(), HookWikiContent, "same"); got != "same" {
		t.Errorf("filter should be gone, got %q", got)
	}
	if hm.Count(HookWikiContent) != 0 {
		t.Error("expected no hooks left")
	}
}

func TestHookApplyNoHandlers(t *testing.T) {
	hm := NewHookManager(nil)
	if got := hm.Apply(context.Background(), "nonexistent.event", "value"); got != "value" {
		t.Error("Apply with no handlers should return original content")
	}
	// Should not panic
	hm.Do(context.Background(), "nonexistent.event", map[string]interface{}{"key": "value"})
}
