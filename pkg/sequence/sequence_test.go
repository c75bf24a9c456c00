package sequence

import (
	"math"
	"math/rand"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSequenceFillsTacts(t *testing.T) {
	tl := Sequence([][]uint8{{60, 64, 67}}, Options{
		NoteValue: 1,
		Tacts:     1,
		Velocity:  100,
		Mode:      Chord,
	})

	// One group, quarter-note steps, one measure: the group repeats
	// four times as block chords.
	if len(tl.Events) != 12 {
		t.Fatalf("got %d events, want 12", len(tl.Events))
	}
	if !almostEqual(tl.Beats(), 4) {
		t.Errorf("Beats() = %v, want 4", tl.Beats())
	}
	for _, e := range tl.Events {
		if e.Velocity != 100 {
			t.Errorf("velocity = %d, want 100", e.Velocity)
		}
		if !almostEqual(e.Duration, 1) {
			t.Errorf("duration = %v, want 1", e.Duration)
		}
	}
}

func TestSequenceLoopsGroups(t *testing.T) {
	groups := [][]uint8{{60}, {65}, {67}}
	tl := Sequence(groups, Options{NoteValue: 1, Tacts: 2, Velocity: 80, Mode: Chord})

	if len(tl.Events) != 8 {
		t.Fatalf("got %d events, want 8", len(tl.Events))
	}
	want := []uint8{60, 65, 67, 60, 65, 67, 60, 65}
	for i, e := range tl.Events {
		if e.Key != want[i] {
			t.Errorf("event %d key = %d, want %d", i, e.Key, want[i])
		}
		if !almostEqual(e.Start, float64(i)) {
			t.Errorf("event %d start = %v, want %d", i, e.Start, i)
		}
	}
}

func TestSequenceTruncatesFinalStep(t *testing.T) {
	// Three-beat steps against a four-beat measure: the second step is
	// cut at the boundary, not dropped.
	tl := Sequence([][]uint8{{60}}, Options{NoteValue: 3, Tacts: 1, Velocity: 80, Mode: Chord})

	if len(tl.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(tl.Events))
	}
	if !almostEqual(tl.Events[0].Duration, 3) {
		t.Errorf("first duration = %v, want 3", tl.Events[0].Duration)
	}
	if !almostEqual(tl.Events[1].Duration, 1) {
		t.Errorf("truncated duration = %v, want 1", tl.Events[1].Duration)
	}
	if !almostEqual(tl.Beats(), 4) {
		t.Errorf("Beats() = %v, want 4", tl.Beats())
	}
}

func TestSequenceDegenerateInput(t *testing.T) {
	tests := []struct {
		name   string
		groups [][]uint8
		opts   Options
	}{
		{"no groups", nil, Options{NoteValue: 1, Tacts: 1}},
		{"zero tacts", [][]uint8{{60}}, Options{NoteValue: 1, Tacts: 0}},
		{"zero note value", [][]uint8{{60}}, Options{NoteValue: 0, Tacts: 1}},
		{"empty group", [][]uint8{{}}, Options{NoteValue: 1, Tacts: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := Sequence(tt.groups, tt.opts)
			if !tl.Empty() {
				t.Errorf("expected empty timeline, got %d events", len(tl.Events))
			}
			if tl.Tempo != 120 {
				t.Errorf("tempo = %v, want default 120", tl.Tempo)
			}
		})
	}
}

func TestArpeggioOrders(t *testing.T) {
	group := []uint8{64, 60, 67} // deliberately unsorted

	tests := []struct {
		name string
		mode Mode
		want []uint8
	}{
		{"up", ArpUp, []uint8{60, 64, 67}},
		{"down", ArpDown, []uint8{67, 64, 60}},
		{"updown", ArpUpDown, []uint8{60, 64, 67, 64}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := Sequence([][]uint8{group}, Options{
				NoteValue: 4,
				Tacts:     1,
				Velocity:  100,
				Mode:      tt.mode,
			})
			if len(tl.Events) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(tl.Events), len(tt.want))
			}
			for i, e := range tl.Events {
				if e.Key != tt.want[i] {
					t.Errorf("event %d key = %d, want %d", i, e.Key, tt.want[i])
				}
			}
			// Substeps tile the step without gaps.
			at := 0.0
			for i, e := range tl.Events {
				if !almostEqual(e.Start, at) {
					t.Errorf("event %d start = %v, want %v", i, e.Start, at)
				}
				at = e.End()
			}
			if !almostEqual(at, 4) {
				t.Errorf("last event ends at %v, want 4", at)
			}
		})
	}
}

func TestArpRandomDeterministic(t *testing.T) {
	opts := Options{NoteValue: 4, Tacts: 1, Velocity: 100, Mode: ArpRandom, Seed: 42}
	a := Sequence([][]uint8{{60, 64, 67, 70}}, opts)
	b := Sequence([][]uint8{{60, 64, 67, 70}}, opts)

	if len(a.Events) != len(b.Events) {
		t.Fatalf("event counts differ: %d vs %d", len(a.Events), len(b.Events))
	}
	for i := range a.Events {
		if a.Events[i] != b.Events[i] {
			t.Errorf("event %d differs under same seed: %+v vs %+v", i, a.Events[i], b.Events[i])
		}
	}
}

func TestArpSwing(t *testing.T) {
	tl := Sequence([][]uint8{{60, 64}}, Options{
		NoteValue: 1,
		Tacts:     1,
		Velocity:  100,
		Mode:      ArpUp,
		Swing:     0.5,
	})

	if len(tl.Events) != 8 {
		t.Fatalf("got %d events, want 8", len(tl.Events))
	}
	// Even substeps stretch, odd ones shrink, pairs still sum to the step.
	for i := 0; i < len(tl.Events); i += 2 {
		long, short := tl.Events[i].Duration, tl.Events[i+1].Duration
		if !almostEqual(long, 0.75) {
			t.Errorf("substep %d duration = %v, want 0.75", i, long)
		}
		if !almostEqual(short, 0.25) {
			t.Errorf("substep %d duration = %v, want 0.25", i+1, short)
		}
	}
	if !almostEqual(tl.Beats(), 4) {
		t.Errorf("Beats() = %v, want 4", tl.Beats())
	}
}

func TestArpSwingFullRatio(t *testing.T) {
	// Swing 1 shrinks every odd substep to nothing; the notes must
	// still be emitted and the timeline must still span the measure.
	tl := Sequence([][]uint8{{60, 64, 67}}, Options{
		NoteValue: 4,
		Tacts:     1,
		Velocity:  100,
		Mode:      ArpUp,
		Swing:     1,
	})

	if len(tl.Events) != 3 {
		t.Fatalf("got %d events, want 3", len(tl.Events))
	}
	wantKeys := []uint8{60, 64, 67}
	for i, e := range tl.Events {
		if e.Key != wantKeys[i] {
			t.Errorf("event %d key = %d, want %d", i, e.Key, wantKeys[i])
		}
	}
	if !almostEqual(tl.Events[1].Duration, 0) {
		t.Errorf("collapsed substep duration = %v, want 0", tl.Events[1].Duration)
	}
	if !almostEqual(tl.Beats(), 4) {
		t.Errorf("Beats() = %v, want 4", tl.Beats())
	}
}

func TestVelocityModes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		mode     VelocityMode
		volume   uint8
		expected uint8
	}{
		{VelocityLight, 100, 50},
		{VelocityNormal, 100, 75},
		{VelocityStrong, 100, 100},
		{VelocityLight, 1, 1}, // clamped to the floor
		{VelocityStrong, 127, 127},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			if got := tt.mode.Velocity(tt.volume, rng); got != tt.expected {
				t.Errorf("%s.Velocity(%d) = %d, want %d", tt.mode, tt.volume, got, tt.expected)
			}
		})
	}
}

func TestVelocityDynamicRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		v := VelocityDynamic.Velocity(100, rng)
		if v < 50 || v > 100 {
			t.Fatalf("dynamic velocity %d outside 50..100", v)
		}
	}

	// Same seed, same draw sequence.
	a := VelocityDynamic.Velocity(100, rand.New(rand.NewSource(3)))
	b := VelocityDynamic.Velocity(100, rand.New(rand.NewSource(3)))
	if a != b {
		t.Errorf("dynamic velocity not reproducible: %d vs %d", a, b)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
		wantErr  bool
	}{
		{"chord", Chord, false},
		{"Chord", Chord, false},
		{"arp-up", ArpUp, false},
		{"arp-down", ArpDown, false},
		{"arp-updown", ArpUpDown, false},
		{"arp-random", ArpRandom, false},
		{"bogus", Chord, true},
		{"", Chord, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMode(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q) error: %v", tt.input, err)
			}
			if mode != tt.expected {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.input, mode, tt.expected)
			}
		})
	}
}
