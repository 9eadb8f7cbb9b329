package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// InMemoryPreferenceStore provides a concurrency-safe default store.
type InMemoryPreferenceStore struct {
	mu   sync.RWMutex
	data map[string]ViewerPreferences
}

// NewInMemoryPreferenceStore creates an empty preference store.
func NewInMemoryPreferenceStore() *InMemoryPreferenceStore {
	return &InMemoryPreferenceStore{
		data: make(map[string]ViewerPreferences),
	}
}

// Preferences returns stored preferences or defaults.
func (s *InMemoryPreferenceStore) Preferences(_ context.Context, viewer ViewerContext) (ViewerPreferences, error) {
	if viewer.UserID == "" {
		return ViewerPreferences{Locale: viewer.Locale}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefs, ok := s.data[viewer.UserID]
	if !ok {
		return ViewerPreferences{Locale: viewer.Locale}, nil
	}
	if prefs.Locale == "" {
		prefs.Locale = viewer.Locale
	}
	return prefs, nil
}

// SavePreferences persists preferences for a viewer.
func (s *InMemoryPreferenceStore) SavePreferences(_ context.Context, viewer ViewerContext, prefs ViewerPreferences) error {
	if viewer.UserID == "" {
		return fmt.Errorf("preference store requires viewer user id")
	}
	if prefs.Locale == "" {
		prefs.Locale = viewer.Locale
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[viewer.UserID] = prefs
	return nil
}

// KVPreferenceStore keeps viewer preferences as JSON documents in a KVStore
// under "preferences/<user>".
type KVPreferenceStore struct {
	Store KVStore
}

// Preferences loads the viewer document, returning defaults when absent.
func (s KVPreferenceStore) Preferences(ctx context.Context, viewer ViewerContext) (ViewerPreferences, error) {
	defaults := ViewerPreferences{Locale: viewer.Locale}
	if viewer.UserID == "" {
		return defaults, nil
	}
	if s.Store == nil {
		return defaults, errMissingStore
	}
	raw, err := s.Store.Get(ctx, preferencesKey(viewer))
	if errors.Is(err, ErrNotFound) {
		return defaults, nil
	}
	if err != nil {
		return defaults, fmt.Errorf("dashboard: load preferences: %w", err)
	}
	var prefs ViewerPreferences
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return defaults, fmt.Errorf("dashboard: decode preferences: %w", err)
	}
	if prefs.Locale == "" {
		prefs.Locale = viewer.Locale
	}
	return prefs, nil
}

// SavePreferences writes the viewer document.
func (s KVPreferenceStore) SavePreferences(ctx context.Context, viewer ViewerContext, prefs ViewerPreferences) error {
	if viewer.UserID == "" {
		return fmt.Errorf("preference store requires viewer user id")
	}
	if s.Store == nil {
		return errMissingStore
	}
	if prefs.Locale == "" {
		prefs.Locale = viewer.Locale
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("dashboard: encode preferences: %w", err)
	}
	return s.Store.Put(ctx, preferencesKey(viewer), raw)
}

func preferencesKey(viewer ViewerContext) string {
	return "preferences/" + viewer.UserID
}
