package player

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/jeremylesniewski/Bearmony/pkg/sequence"
)

// DeviceError wraps a synthesizer failure. Playback is aborted, notes
// are flushed and the player returns to idle; retrying is up to the
// caller.
type DeviceError struct {
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("playback device: %v", e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Reverb is the effect surface forwarded to the sink as control
// changes before playback starts. Values are 0..1.
type Reverb struct {
	Room  float64
	Damp  float64
	Level float64
}

type state int

const (
	idle state = iota
	playing
)

// Player schedules a single timeline against a Synthesizer. Only one
// timeline drives the sink at a time: a Play call during playback
// flushes the superseded run's note-offs before the new one starts.
type Player struct {
	synth   Synthesizer
	channel uint8
	logger  *charmlog.Logger

	mu     sync.Mutex
	state  state
	quit   chan struct{}
	done   chan struct{}
	reverb *Reverb
	err    error
}

// New creates an idle player emitting on the given MIDI channel.
func New(synth Synthesizer, channel uint8) *Player {
	return &Player{
		synth:   synth,
		channel: channel,
		logger: charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			Level:  charmlog.InfoLevel,
			Prefix: "player",
		}),
	}
}

// SetLogLevel adjusts the player's log verbosity.
func (p *Player) SetLogLevel(level charmlog.Level) {
	p.logger.SetLevel(level)
}

// SetReverb stores the effect settings applied at the start of each run.
func (p *Player) SetReverb(r Reverb) {
	p.mu.Lock()
	p.reverb = &r
	p.mu.Unlock()
}

// Playing reports whether a timeline is currently driving the sink.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == playing
}

// Play starts the timeline. If another timeline is playing it is
// stopped first and all its sounding notes are released before any
// note of the new one is sent. Play returns once the run is scheduled;
// Wait or Done observe completion.
func (p *Player) Play(tl sequence.Timeline) error {
	if tl.Empty() {
		return nil
	}
	if tl.Tempo <= 0 {
		return fmt.Errorf("invalid tempo %v", tl.Tempo)
	}

	p.interrupt()

	p.mu.Lock()
	p.state = playing
	p.quit = make(chan struct{})
	p.done = make(chan struct{})
	p.err = nil
	quit, done := p.quit, p.done
	reverb := p.reverb
	p.mu.Unlock()

	p.logger.Info("play", "events", len(tl.Events), "tempo", tl.Tempo, "program", tl.Program)
	go p.run(tl, reverb, quit, done)
	return nil
}

// Stop cancels the current run and blocks until every sounding note
// has received its note-off. Stopping an idle player is a no-op.
func (p *Player) Stop() {
	p.interrupt()
}

// Done returns a channel closed when the current run finishes. A nil
// channel is returned while idle.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Wait blocks until the current run finishes and returns its error,
// if any. Idle players return immediately.
func (p *Player) Wait() error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// interrupt cancels any in-flight run and waits for its flush.
func (p *Player) interrupt() {
	p.mu.Lock()
	if p.state != playing {
		p.mu.Unlock()
		return
	}
	quit, done := p.quit, p.done
	p.mu.Unlock()

	select {
	case <-quit:
	default:
		close(quit)
	}
	<-done
}

// action is one wire emission with an absolute beat offset.
type action struct {
	beat float64
	on   bool
	key  uint8
	vel  uint8
}

func (p *Player) run(tl sequence.Timeline, reverb *Reverb, quit, done chan struct{}) {
	var runErr error
	sounding := map[uint8]int{}

	defer func() {
		for key, n := range sounding {
			for ; n > 0; n-- {
				if err := p.synth.NoteOff(p.channel, key); err != nil {
					p.logger.Error("flush note-off failed", "key", key, "err", err)
				}
			}
		}
		p.mu.Lock()
		p.state = idle
		p.err = runErr
		p.quit = nil
		p.mu.Unlock()
		close(done)
		if runErr != nil {
			p.logger.Error("playback aborted", "err", runErr)
		}
	}()

	if err := p.synth.ProgramChange(p.channel, tl.Program); err != nil {
		runErr = &DeviceError{Err: err}
		return
	}
	if reverb != nil {
		for _, cc := range []struct {
			controller uint8
			value      float64
		}{
			{ccReverbSend, reverb.Room},
			{ccReverbDamp, reverb.Damp},
			{ccReverbLevel, reverb.Level},
		} {
			if err := p.synth.ControlChange(p.channel, cc.controller, unitToCC(cc.value)); err != nil {
				runErr = &DeviceError{Err: err}
				return
			}
		}
	}

	actions := buildActions(tl.Events)
	secondsPerBeat := 60.0 / tl.Tempo
	start := time.Now()

	for _, a := range actions {
		// Absolute offsets keep the stream drift-free; each wait is
		// the only suspension point and honors cancellation.
		target := start.Add(time.Duration(a.beat * secondsPerBeat * float64(time.Second)))
		if !p.sleepUntil(target, quit) {
			return
		}
		var err error
		if a.on {
			err = p.synth.NoteOn(p.channel, a.key, a.vel)
			if err == nil {
				sounding[a.key]++
			}
		} else {
			err = p.synth.NoteOff(p.channel, a.key)
			if err == nil && sounding[a.key] > 0 {
				if sounding[a.key]--; sounding[a.key] == 0 {
					delete(sounding, a.key)
				}
			}
		}
		if err != nil {
			runErr = &DeviceError{Err: err}
			return
		}
	}
}

// sleepUntil waits for the target instant, returning false if the run
// was cancelled first.
func (p *Player) sleepUntil(target time.Time, quit chan struct{}) bool {
	d := time.Until(target)
	if d <= 0 {
		select {
		case <-quit:
			return false
		default:
			return true
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-quit:
		return false
	case <-timer.C:
		return true
	}
}

// buildActions flattens note events into a single ascending stream of
// on/off emissions. At equal beats note-offs go first so re-struck
// keys release before they retrigger.
func buildActions(events []sequence.NoteEvent) []action {
	actions := make([]action, 0, len(events)*2)
	for _, e := range events {
		actions = append(actions,
			action{beat: e.Start, on: true, key: e.Key, vel: e.Velocity},
			action{beat: e.End(), on: false, key: e.Key},
		)
	}
	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].beat != actions[j].beat {
			return actions[i].beat < actions[j].beat
		}
		if actions[i].on != actions[j].on {
			return !actions[i].on
		}
		return actions[i].key < actions[j].key
	})
	return actions
}

func unitToCC(v float64) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v * 127)
}
