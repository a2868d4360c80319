package settings

import (
	"errors"
	"sync"
)

// ErrUnknownKey is returned when toggling a setting that does not exist
var ErrUnknownKey = errors.New("unknown setting")

// Key names a single toggle, matching its JSON field
type Key string

const (
	KeyShowTimestamps   Key = "showTimestamps"
	KeyGenerateSummary  Key = "generateSummary"
	KeySpeakerDetection Key = "speakerDetection"
	KeyRemoveFillers    Key = "removeFillers"
)

// Keys lists every toggle in display order
var Keys = []Key{KeyShowTimestamps, KeySpeakerDetection, KeyRemoveFillers, KeyGenerateSummary}

// Settings holds the four session toggles that shape the prompt and the rendered transcript
type Settings struct {
	ShowTimestamps   bool `json:"showTimestamps"`
	GenerateSummary  bool `json:"generateSummary"`
	SpeakerDetection bool `json:"speakerDetection"`
	RemoveFillers    bool `json:"removeFillers"`
}

// Defaults returns the settings every session starts with
func Defaults() Settings {
	return Settings{
		ShowTimestamps:   true,
		GenerateSummary:  true,
		SpeakerDetection: true,
		RemoveFillers:    true,
	}
}

// field returns a pointer to the toggle named by key
func (s *Settings) field(key Key) (*bool, error) {
	switch key {
	case KeyShowTimestamps:
		return &s.ShowTimestamps, nil
	case KeyGenerateSummary:
		return &s.GenerateSummary, nil
	case KeySpeakerDetection:
		return &s.SpeakerDetection, nil
	case KeyRemoveFillers:
		return &s.RemoveFillers, nil
	default:
		return nil, ErrUnknownKey
	}
}

// Store is the in-memory, session-lifetime settings holder. It is never persisted.
type Store struct {
	mu       sync.RWMutex
	settings Settings
}

// NewStore creates a store holding the default settings
func NewStore() *Store {
	return &Store{settings: Defaults()}
}

// Get returns a copy of the current settings
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Set replaces all toggles at once
func (s *Store) Set(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// Toggle flips a single toggle and returns the updated settings
func (s *Store) Toggle(key Key) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.settings.field(key)
	if err != nil {
		return s.settings, err
	}
	*v = !*v
	return s.settings, nil
}
