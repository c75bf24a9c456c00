package theory

import (
	"testing"
)

func TestParseNote(t *testing.T) {
	tests := []struct {
		name     string
		expected PitchClass
		wantErr  bool
	}{
		{"C", 0, false},
		{"c", 0, false},
		{"C#", 1, false},
		{"Db", 1, false},
		{"D", 2, false},
		{"Eb", 3, false},
		{"E♭", 3, false},
		{"F♯", 6, false},
		{"Bb", 10, false},
		{"B", 11, false},
		{" A ", 9, false},
		{"H", 0, true},
		{"", 0, true},
		{"C##", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, err := ParseNote(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseNote(%q) expected error, got %v", tt.name, pc)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseNote(%q) error: %v", tt.name, err)
			}
			if pc != tt.expected {
				t.Errorf("ParseNote(%q) = %v, want %v", tt.name, pc, tt.expected)
			}
		})
	}
}

func TestPitchString(t *testing.T) {
	tests := []struct {
		pitch    Pitch
		expected string
	}{
		{60, "C4"},
		{61, "C#4"},
		{69, "A4"},
		{0, "C-1"},
		{127, "G9"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.pitch.String(); got != tt.expected {
				t.Errorf("Pitch(%d).String() = %q, want %q", tt.pitch, got, tt.expected)
			}
		})
	}
}

func TestPitchClassRoundTrip(t *testing.T) {
	for _, name := range NoteNames() {
		pc, err := ParseNote(name)
		if err != nil {
			t.Fatalf("ParseNote(%q) error: %v", name, err)
		}
		if pc.String() != name {
			t.Errorf("PitchClass(%d).String() = %q, want %q", pc, pc.String(), name)
		}
	}
}
