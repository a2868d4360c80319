package settings

import (
	"errors"
	"testing"
)

func TestDefaultsAllEnabled(t *testing.T) {
	got := NewStore().Get()
	want := Settings{ShowTimestamps: true, GenerateSummary: true, SpeakerDetection: true, RemoveFillers: true}
	if got != want {
		t.Fatalf("defaults = %+v, want %+v", got, want)
	}
}

func TestToggleTwiceRestoresValue(t *testing.T) {
	for _, key := range Keys {
		t.Run(string(key), func(t *testing.T) {
			s := NewStore()
			before := s.Get()

			once, err := s.Toggle(key)
			if err != nil {
				t.Fatalf("toggle: %v", err)
			}
			if once == before {
				t.Fatalf("toggle %s did not change settings", key)
			}

			twice, err := s.Toggle(key)
			if err != nil {
				t.Fatalf("second toggle: %v", err)
			}
			if twice != before {
				t.Fatalf("after two toggles = %+v, want %+v", twice, before)
			}
		})
	}
}

func TestToggleOnlyTouchesOneKey(t *testing.T) {
	s := NewStore()
	got, err := s.Toggle(KeyRemoveFillers)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	want := Defaults()
	want.RemoveFillers = false
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

func TestToggleUnknownKey(t *testing.T) {
	s := NewStore()
	if _, err := s.Toggle("darkMode"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("err = %v, want %v", err, ErrUnknownKey)
	}
	if s.Get() != Defaults() {
		t.Fatal("unknown key changed settings")
	}
}

func TestSetReplacesAll(t *testing.T) {
	s := NewStore()
	s.Set(Settings{})
	if s.Get() != (Settings{}) {
		t.Fatalf("settings = %+v, want all false", s.Get())
	}
}
