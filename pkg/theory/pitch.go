package theory

import (
	"fmt"
	"strings"
)

// PitchClass is a root note name as a semitone index 0-11 (C=0).
type PitchClass int

// Pitch is a MIDI note number 0-127.
type Pitch uint8

// MiddleC is the base of all octave math: octave 0 roots land here.
const MiddleC = 60

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var flatAliases = map[string]string{
	"DB": "C#", "EB": "D#", "GB": "F#", "AB": "G#", "BB": "A#",
}

// NoteNames returns the twelve pitch class names in semitone order.
func NoteNames() []string {
	out := make([]string, len(noteNames))
	copy(out, noteNames)
	return out
}

// ParseNote converts a note name like "C", "F#" or "Eb" to a PitchClass.
func ParseNote(name string) (PitchClass, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "♯", "#")
	n = strings.ReplaceAll(n, "♭", "B")
	if alias, ok := flatAliases[n]; ok {
		n = alias
	}
	for i, candidate := range noteNames {
		if n == candidate {
			return PitchClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown note name %q", name)
}

// String renders the pitch class name ("C#" style, sharps only).
func (pc PitchClass) String() string {
	return noteNames[((int(pc)%12)+12)%12]
}

// Class returns the pitch class of a MIDI note.
func (p Pitch) Class() PitchClass {
	return PitchClass(int(p) % 12)
}

// Octave returns the scientific octave number (C4 = 60).
func (p Pitch) Octave() int {
	return int(p)/12 - 1
}

// String renders "C4"-style note names.
func (p Pitch) String() string {
	return fmt.Sprintf("%s%d", p.Class(), p.Octave())
}
