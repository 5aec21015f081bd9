package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Hook names used by the wiki
const (
	// HookWikiContent filters a page body after the built-in block transforms
	// and before markup rendering.
	HookWikiContent = "wiki.content"
	// HookWikiAfterUpdate fires once a page edit has been committed.
	HookWikiAfterUpdate = "wiki.after_update"
)

// ContentFilter transforms page text. Returning an error discards its output.
type ContentFilter func(ctx context.Context, content string) (string, error)

// Action reacts to an event; errors are logged and never stop the chain
type Action func(ctx context.Context, event Event) error

// Event passed to actions
type Event struct {
	Name string
	Data map[string]interface{}
}

type filterEntry struct {
	owner    string
	fn       ContentFilter
	priority int
}

type actionEntry struct {
	owner    string
	fn       Action
	priority int
}

// HookManager Hook 등록/실행 관리자 (thread-safe)
type HookManager struct {
	filters map[string][]filterEntry
	actions map[string][]actionEntry
	mu      sync.RWMutex
	logger  Logger
}

// NewHookManager 새 HookManager 생성
func NewHookManager(logger Logger) *HookManager {
	if logger == nil {
		logger = NopLogger{}
	}
	return &HookManager{
		filters: make(map[string][]filterEntry),
		actions: make(map[string][]actionEntry),
		logger:  logger,
	}
}

// Register Action Hook 등록
func (hm *HookManager) Register(event, owner string, fn Action, priority int) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	entries := append(hm.actions[event], actionEntry{owner: owner, fn: fn, priority: priority})
	// 낮은 priority가 먼저 실행
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].priority < entries[j].priority })
	hm.actions[event] = entries
}

// RegisterFilter Filter Hook 등록
func (hm *HookManager) RegisterFilter(event, owner string, fn ContentFilter, priority int) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	entries := append(hm.filters[event], filterEntry{owner: owner, fn: fn, priority: priority})
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].priority < entries[j].priority })
	hm.filters[event] = entries
}

// Do Action Hook 실행 (에러 로깅만, 블로킹 안 함)
func (hm *HookManager) Do(ctx context.Context, event string, data map[string]interface{}) {
	hm.mu.RLock()
	entries := make([]actionEntry, len(hm.actions[event]))
	copy(entries, hm.actions[event])
	hm.mu.RUnlock()

	ev := Event{Name: event, Data: data}
	for _, entry := range entries {
		if err := safeAction(ctx, entry.fn, ev); err != nil {
			hm.logger.Error("Hook error [%s] owner=%s: %v", event, entry.owner, err)
		}
	}
}

// Apply Filter Hook 실행 (결과 반환, 체이닝)
func (hm *HookManager) Apply(ctx context.Context, event, content string) string {
	hm.mu.RLock()
	entries := make([]filterEntry, len(hm.filters[event]))
	copy(entries, hm.filters[event])
	hm.mu.RUnlock()

	current := content
	for _, entry := range entries {
		out, err := safeFilter(ctx, entry.fn, current)
		if err != nil {
			hm.logger.Error("Filter error [%s] owner=%s: %v", event, entry.owner, err)
			continue
		}
		current = out
	}
	return current
}

// Unregister 특정 owner의 모든 Hook 해제
func (hm *HookManager) Unregister(owner string) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	for event, entries := range hm.actions {
		kept := entries[:0]
		for _, e := range entries {
			if e.owner != owner {
				kept = append(kept, e)
			}
		}
		hm.actions[event] = kept
	}
	for event, entries := range hm.filters {
		kept := entries[:0]
		for _, e := range entries {
			if e.owner != owner {
				kept = append(kept, e)
			}
		}
		hm.filters[event] = kept
	}
}

// Count number of hooks registered for event
func (hm *HookManager) Count(event string) int {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	return len(hm.actions[event]) + len(hm.filters[event])
}

func safeAction(ctx context.Context, fn Action, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, ev)
}

func safeFilter(ctx context.Context, fn ContentFilter, content string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, content)
}
