package midifile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jeremylesniewski/Bearmony/pkg/sequence"
)

func wholeNoteChord() sequence.Timeline {
	return sequence.Sequence([][]uint8{{60, 64, 67}}, sequence.Options{
		NoteValue: 4,
		Tacts:     1,
		Velocity:  100,
		Mode:      sequence.Chord,
	})
}

func TestEncodeDeterministic(t *testing.T) {
	tl := wholeNoteChord()
	tl.Tempo = 120
	tl.Program = 24

	a, err := Encode(tl)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	b, err := Encode(tl)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("same timeline produced different bytes")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	tl := wholeNoteChord()
	tl.Tempo = 120

	data, err := Encode(tl)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	parsed, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse back: %v", err)
	}
	if len(parsed.Tracks) != 1 {
		t.Fatalf("got %d tracks, want 1", len(parsed.Tracks))
	}

	var tick uint32
	type note struct {
		tick uint32
		key  uint8
	}
	var ons, offs []note
	for _, ev := range parsed.Tracks[0] {
		tick += ev.Delta
		var ch, key, vel uint8
		if ev.Message.GetNoteStart(&ch, &key, &vel) {
			ons = append(ons, note{tick, key})
			if vel != 100 {
				t.Errorf("note %d velocity = %d, want 100", key, vel)
			}
		} else if ev.Message.GetNoteEnd(&ch, &key) {
			offs = append(offs, note{tick, key})
		}
	}

	// Three simultaneous notes held a full measure: ons at tick 0,
	// offs four beats later.
	if len(ons) != 3 || len(offs) != 3 {
		t.Fatalf("got %d ons / %d offs, want 3/3", len(ons), len(offs))
	}
	for _, n := range ons {
		if n.tick != 0 {
			t.Errorf("note %d on at tick %d, want 0", n.key, n.tick)
		}
	}
	for _, n := range offs {
		if n.tick != 4*TicksPerQuarter {
			t.Errorf("note %d off at tick %d, want %d", n.key, n.tick, 4*TicksPerQuarter)
		}
	}
}

func TestEncodeTempo(t *testing.T) {
	tl := wholeNoteChord()
	tl.Tempo = 90

	data, err := Encode(tl)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	parsed, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse back: %v", err)
	}

	found := false
	for _, ev := range parsed.Tracks[0] {
		var bpm float64
		if ev.Message.GetMetaTempo(&bpm) {
			found = true
			if bpm < 89.9 || bpm > 90.1 {
				t.Errorf("tempo = %v, want 90", bpm)
			}
		}
	}
	if !found {
		t.Error("no tempo meta event in output")
	}
}

func TestEncodeEmptyTimeline(t *testing.T) {
	data, err := Encode(sequence.Timeline{Tempo: 120})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	parsed, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("empty timeline produced unparseable file: %v", err)
	}
	for _, ev := range parsed.Tracks[0] {
		var ch, key, vel uint8
		if ev.Message.GetNoteStart(&ch, &key, &vel) || ev.Message.GetNoteEnd(&ch, &key) {
			t.Errorf("unexpected note message %v in empty render", ev.Message)
		}
	}
}

func TestExport(t *testing.T) {
	tl := wholeNoteChord()
	tl.Tempo = 120
	path := filepath.Join(t.TempDir(), "out.mid")

	if err := Export(tl, path); err != nil {
		t.Fatalf("Export error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read exported file: %v", err)
	}
	want, _ := Encode(tl)
	if !bytes.Equal(got, want) {
		t.Error("exported bytes differ from Encode output")
	}
}

func TestExportFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "no-such-dir", "out.mid")

	if err := Export(wholeNoteChord(), missing); err == nil {
		t.Fatal("expected error exporting into a missing directory")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("leftover files after failed export: %v", entries)
	}
}

func TestBeatTicks(t *testing.T) {
	tests := []struct {
		beats    float64
		expected uint32
	}{
		{0, 0},
		{1, 480},
		{0.5, 240},
		{4, 1920},
		{1.0 / 3.0, 160},
	}
	for _, tt := range tests {
		if got := beatTicks(tt.beats); got != tt.expected {
			t.Errorf("beatTicks(%v) = %d, want %d", tt.beats, got, tt.expected)
		}
	}
}
