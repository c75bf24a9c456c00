// Package tui provides a terminal user interface for Bearmony
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeremylesniewski/Bearmony/pkg/config"
	"github.com/jeremylesniewski/Bearmony/pkg/midifile"
	"github.com/jeremylesniewski/Bearmony/pkg/player"
	"github.com/jeremylesniewski/Bearmony/pkg/sequence"
	"github.com/jeremylesniewski/Bearmony/pkg/theory"
)

// Warm piano-bar palette
var (
	amber     = lipgloss.Color("#FFB000")
	cream     = lipgloss.Color("#F5E6C8")
	slateGray = lipgloss.Color("#C0C0C0")
	darkGray  = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(amber).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	fieldStyle = lipgloss.NewStyle().
			Foreground(slateGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(amber).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(cream).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(amber).
			Padding(1, 2)
)

// field indices in display order
const (
	fieldRoot = iota
	fieldChord
	fieldProgression
	fieldMode
	fieldInstrument
	fieldOctave
	fieldNoteValue
	fieldTempo
	fieldTacts
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Root Note", "Chord Type", "Progression", "Mode",
	"Instrument", "Octave", "Note Value", "Tempo (BPM)", "Tacts",
}

var noteValues = []int{1, 2, 4, 8, 16}

// Model represents the TUI model
type Model struct {
	cfg     config.Config
	field   int
	spinner spinner.Model
	pl      *player.Player
	playing bool
	status  string
	err     error

	roots        []string
	chords       []string
	progressions []string
	modes        []string
	instruments  []string
}

// playbackDoneMsg signals the player finished or was stopped
type playbackDoneMsg struct {
	err error
}

// New creates a new TUI model. A nil player disables live playback but
// keeps browsing and export working.
func New(pl *player.Player) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(amber)

	return Model{
		cfg:          config.Default(),
		spinner:      s,
		pl:           pl,
		roots:        theory.NoteNames(),
		chords:       theory.ChordNames(),
		progressions: append([]string{""}, theory.ProgressionNames()...),
		modes:        sequence.ModeNames(),
		instruments:  theory.InstrumentNames(),
	}
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case playbackDoneMsg:
		m.playing = false
		m.err = msg.err
		if msg.err == nil && m.status == "" {
			m.status = "playback finished"
		}
		return m, nil
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	m.err = nil

	switch msg.String() {
	case "up", "k":
		if m.field > 0 {
			m.field--
		}
	case "down", "j":
		if m.field < fieldCount-1 {
			m.field++
		}
	case "left", "h":
		m.cycle(-1)
	case "right", "l":
		m.cycle(1)
	case "p":
		return m.startPlayback(false)
	case "enter":
		return m.startPlayback(m.cfg.Progression != "")
	case "s":
		if m.pl != nil {
			m.pl.Stop()
		}
		m.playing = false
		m.status = "stopped"
	case "e":
		m.export()
	case "q", "ctrl+c":
		if m.pl != nil {
			m.pl.Stop()
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) cycle(dir int) {
	switch m.field {
	case fieldRoot:
		m.cfg.Root = cycleString(m.roots, m.cfg.Root, dir)
	case fieldChord:
		m.cfg.ChordID = cycleString(m.chords, m.cfg.ChordID, dir)
	case fieldProgression:
		m.cfg.Progression = cycleString(m.progressions, m.cfg.Progression, dir)
	case fieldMode:
		m.cfg.Mode = cycleString(m.modes, m.cfg.Mode, dir)
	case fieldInstrument:
		m.cfg.Instrument = cycleString(m.instruments, m.cfg.Instrument, dir)
	case fieldOctave:
		m.cfg.Octave = clampInt(m.cfg.Octave+dir, -4, 4)
	case fieldNoteValue:
		m.cfg.NoteValue = cycleInt(noteValues, m.cfg.NoteValue, dir)
	case fieldTempo:
		m.cfg.Tempo = float64(clampInt(int(m.cfg.Tempo)+dir*5, 20, 300))
	case fieldTacts:
		m.cfg.Tacts = clampInt(m.cfg.Tacts+dir, 1, 32)
	}
}

func (m Model) startPlayback(withProgression bool) (tea.Model, tea.Cmd) {
	if m.pl == nil {
		m.status = "no MIDI output port; playback disabled"
		return m, nil
	}
	if err := m.cfg.Validate(); err != nil {
		m.err = err
		return m, nil
	}
	tl, err := m.cfg.Timeline(withProgression)
	if err != nil {
		m.err = err
		return m, nil
	}
	if tl.Empty() {
		m.status = "nothing to play"
		return m, nil
	}

	m.pl.SetReverb(player.Reverb{
		Room:  m.cfg.ReverbRoom,
		Damp:  m.cfg.ReverbDamp,
		Level: m.cfg.ReverbLevel,
	})
	if err := m.pl.Play(tl); err != nil {
		m.err = err
		return m, nil
	}
	m.playing = true

	pl := m.pl
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return playbackDoneMsg{err: pl.Wait()}
	})
}

func (m *Model) export() {
	if err := m.cfg.Validate(); err != nil {
		m.err = err
		return
	}
	tl, err := m.cfg.Timeline(m.cfg.Progression != "")
	if err != nil {
		m.err = err
		return
	}
	name := fmt.Sprintf("%s-%s.mid", m.cfg.Root, m.cfg.ChordID)
	if err := midifile.Export(tl, name); err != nil {
		m.err = err
		return
	}
	m.status = "exported " + name
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")
	s.WriteString(titleStyle.Render(" CHORD & PROGRESSION JAM "))
	s.WriteString("\n\n")

	var body strings.Builder
	for i := 0; i < fieldCount; i++ {
		line := fmt.Sprintf("%-12s %s", fieldLabels[i], m.fieldValue(i))
		if i == m.field {
			body.WriteString(selectedStyle.Render("▸ " + line))
		} else {
			body.WriteString(fieldStyle.Render("  " + line))
		}
		body.WriteString("\n")
	}
	s.WriteString(boxStyle.Render(body.String()))
	s.WriteString("\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render("✗ " + m.err.Error()))
	case m.playing:
		s.WriteString(statusStyle.Render(fmt.Sprintf("%s playing…", m.spinner.View())))
	case m.status != "":
		s.WriteString(statusStyle.Render(m.status))
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: field • ←/→: value • p: play chord • enter: play progression • s: stop • e: export • q: quit"))
	return s.String()
}

func (m Model) fieldValue(i int) string {
	switch i {
	case fieldRoot:
		return m.cfg.Root
	case fieldChord:
		return m.cfg.ChordID
	case fieldProgression:
		if m.cfg.Progression == "" {
			return "(none)"
		}
		return m.cfg.Progression
	case fieldMode:
		return m.cfg.Mode
	case fieldInstrument:
		return m.cfg.Instrument
	case fieldOctave:
		return fmt.Sprintf("%+d", m.cfg.Octave)
	case fieldNoteValue:
		return fmt.Sprintf("1/%d", m.cfg.NoteValue)
	case fieldTempo:
		return fmt.Sprintf("%.0f", m.cfg.Tempo)
	case fieldTacts:
		return fmt.Sprintf("%d", m.cfg.Tacts)
	}
	return ""
}

func cycleString(values []string, current string, dir int) string {
	if len(values) == 0 {
		return current
	}
	idx := 0
	for i, v := range values {
		if v == current {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(values)) % len(values)
	return values[idx]
}

func cycleInt(values []int, current, dir int) int {
	idx := 0
	for i, v := range values {
		if v == current {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(values)) % len(values)
	return values[idx]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func asciiLogo() string {
	logo := `
   ____  _____    _    ____  __  __  ___  _   ___   __
  | __ )| ____|  / \  |  _ \|  \/  |/ _ \| \ | \ \ / /
  |  _ \|  _|   / _ \ | |_) | |\/| | | | |  \| |\ V /
  | |_) | |___ / ___ \|  _ <| |  | | |_| | |\  | | |
  |____/|_____/_/   \_\_| \_\_|  |_|\___/|_| \_| |_|
`
	return lipgloss.NewStyle().Foreground(amber).Render(logo)
}

// Run starts the TUI application
func Run(pl *player.Player) error {
	p := tea.NewProgram(New(pl), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
