// Package main is the entry point for the bearmony CLI
package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/jeremylesniewski/Bearmony/pkg/api"
	"github.com/jeremylesniewski/Bearmony/pkg/config"
	"github.com/jeremylesniewski/Bearmony/pkg/midifile"
	"github.com/jeremylesniewski/Bearmony/pkg/player"
	"github.com/jeremylesniewski/Bearmony/pkg/theory"
	"github.com/jeremylesniewski/Bearmony/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFile string
	outputFile string
	portIndex  int
	soundFont  string
	serverPort int
	verbose    bool

	flagRoot        string
	flagChord       string
	flagProgression string
	flagMode        string
	flagNoteValue   int
	flagInstrument  string
	flagOctave      int
	flagVolume      int
	flagVelocity    string
	flagSwing       float64
	flagReverbRoom  float64
	flagReverbDamp  float64
	flagReverbLevel float64
	flagTempo       float64
	flagTacts       int
	flagLoop        bool
	flagSeed        int64
)

var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "bearmony"})

func main() {
	defer midi.CloseDriver()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bearmony",
	Short: "Chord and progression playground with live playback and MIDI export",
	Long: `bearmony turns chord formulas and progressions into sound and
standard MIDI files.

Examples:
  bearmony list chords
  bearmony play chord --root C --chord maj7
  bearmony play progression --progression I-V-vi-IV --tempo 96
  bearmony export progression --progression ii-V-I -o jazz.mid
  bearmony tui
  bearmony serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var listCmd = &cobra.Command{
	Use:       "list <chords|scales|progressions|instruments|ports>",
	Short:     "List the available tables or MIDI output ports",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"chords", "scales", "progressions", "instruments", "ports"},
	RunE:      runList,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play through a MIDI output port",
}

var playChordCmd = &cobra.Command{
	Use:   "chord",
	Short: "Play a single chord",
	RunE:  func(cmd *cobra.Command, args []string) error { return runPlay(cmd, false) },
}

var playProgressionCmd = &cobra.Command{
	Use:   "progression",
	Short: "Play a chord progression",
	RunE:  func(cmd *cobra.Command, args []string) error { return runPlay(cmd, true) },
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export to a standard MIDI file",
}

var exportChordCmd = &cobra.Command{
	Use:   "chord",
	Short: "Export a single chord",
	RunE:  func(cmd *cobra.Command, args []string) error { return runExport(cmd, false) },
}

var exportProgressionCmd = &cobra.Command{
	Use:   "progression",
	Short: "Export a chord progression",
	RunE:  func(cmd *cobra.Command, args []string) error { return runExport(cmd, true) },
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML config file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	pf.StringVar(&flagRoot, "root", "C", "Root note (C, C#, Db, ...)")
	pf.StringVar(&flagChord, "chord", "maj", "Chord or scale id")
	pf.StringVar(&flagProgression, "progression", "", "Named progression or inline numerals (I-IV-V)")
	pf.StringVar(&flagMode, "mode", "chord", "Playback mode: chord, arp-up, arp-down, arp-updown, arp-random")
	pf.IntVar(&flagNoteValue, "note-value", 4, "Note value denominator: 1, 2, 4, 8, 16")
	pf.StringVar(&flagInstrument, "instrument", "Acoustic Piano", "Instrument name")
	pf.IntVar(&flagOctave, "octave", 0, "Octave shift -4..4")
	pf.IntVar(&flagVolume, "volume", 100, "Volume 1..127")
	pf.StringVar(&flagVelocity, "velocity", "normal", "Velocity mode: light, normal, strong, dynamic")
	pf.Float64Var(&flagSwing, "swing", 0, "Swing 0..1 (arpeggio modes)")
	pf.Float64Var(&flagReverbRoom, "reverb-room", 0.5, "Reverb room size 0..1")
	pf.Float64Var(&flagReverbDamp, "reverb-damp", 0.5, "Reverb damping 0..1")
	pf.Float64Var(&flagReverbLevel, "reverb-level", 0.5, "Reverb level 0..1")
	pf.Float64Var(&flagTempo, "tempo", 120, "Tempo in BPM 20..300")
	pf.IntVar(&flagTacts, "tacts", 4, "Length in 4-beat measures 1..64")
	pf.BoolVar(&flagLoop, "loop", false, "Loop playback until interrupted")
	pf.Int64Var(&flagSeed, "seed", 0, "Seed for random arpeggio and dynamic velocity")

	playCmd.PersistentFlags().IntVar(&portIndex, "port", 0, "MIDI output port index (see 'list ports')")
	playCmd.PersistentFlags().StringVar(&soundFont, "soundfont", "", "Soundfont file for sinks that load samples")
	tuiCmd.Flags().IntVar(&portIndex, "port", 0, "MIDI output port index")

	exportCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path (required)")
	_ = exportCmd.MarkPersistentFlagRequired("output")

	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	playCmd.AddCommand(playChordCmd)
	playCmd.AddCommand(playProgressionCmd)
	exportCmd.AddCommand(exportChordCmd)
	exportCmd.AddCommand(exportProgressionCmd)

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

// buildConfig layers flags the user actually set over the config file
// (or the defaults when no file is given).
func buildConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return cfg, err
		}
	}

	set := func(name string, apply func()) {
		if cmd.Flags().Changed(name) || configFile == "" {
			apply()
		}
	}
	set("root", func() { cfg.Root = flagRoot })
	set("chord", func() { cfg.ChordID = flagChord })
	set("progression", func() { cfg.Progression = flagProgression })
	set("mode", func() { cfg.Mode = flagMode })
	set("note-value", func() { cfg.NoteValue = flagNoteValue })
	set("instrument", func() { cfg.Instrument = flagInstrument })
	set("octave", func() { cfg.Octave = flagOctave })
	set("volume", func() { cfg.Volume = flagVolume })
	set("velocity", func() { cfg.VelocityMode = flagVelocity })
	set("swing", func() { cfg.Swing = flagSwing })
	set("reverb-room", func() { cfg.ReverbRoom = flagReverbRoom })
	set("reverb-damp", func() { cfg.ReverbDamp = flagReverbDamp })
	set("reverb-level", func() { cfg.ReverbLevel = flagReverbLevel })
	set("tempo", func() { cfg.Tempo = flagTempo })
	set("tacts", func() { cfg.Tacts = flagTacts })
	set("loop", func() { cfg.Loop = flagLoop })
	set("seed", func() { cfg.Seed = flagSeed })

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runList(cmd *cobra.Command, args []string) error {
	switch args[0] {
	case "chords":
		bySize := theory.ChordsBySize()
		sizes := make([]int, 0, len(bySize))
		for size := range bySize {
			sizes = append(sizes, size)
		}
		sort.Ints(sizes)
		for _, size := range sizes {
			fmt.Printf("%d notes: %s\n", size, strings.Join(bySize[size], ", "))
		}
	case "scales":
		fmt.Println(strings.Join(theory.ScaleNames(), "\n"))
	case "progressions":
		fmt.Println(strings.Join(theory.ProgressionNames(), "\n"))
	case "instruments":
		for _, name := range theory.InstrumentNames() {
			program, _ := theory.Instrument(name)
			fmt.Printf("%3d  %s\n", program, name)
		}
	case "ports":
		ports := player.OutPorts()
		if len(ports) == 0 {
			fmt.Println("no MIDI output ports found")
			return nil
		}
		for i, name := range ports {
			fmt.Printf("%d: %s\n", i, name)
		}
	default:
		return fmt.Errorf("unknown table %q", args[0])
	}
	return nil
}

func runPlay(cmd *cobra.Command, withProgression bool) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if withProgression && cfg.Progression == "" {
		return fmt.Errorf("a progression is required (--progression)")
	}

	tl, err := cfg.Timeline(withProgression)
	if err != nil {
		return err
	}
	if tl.Empty() {
		logger.Warn("nothing to play")
		return nil
	}

	out, err := player.FindOutPort(portIndex)
	if err != nil {
		return err
	}
	synth, err := player.NewPortSynth(out)
	if err != nil {
		return err
	}
	if soundFont != "" {
		if err := player.LoadSoundFont(synth, soundFont); err != nil {
			return err
		}
	}

	pl := player.New(synth, 0)
	if verbose {
		pl.SetLogLevel(charmlog.DebugLevel)
	}
	pl.SetReverb(player.Reverb{Room: cfg.ReverbRoom, Damp: cfg.ReverbDamp, Level: cfg.ReverbLevel})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	logger.Info("playing", "port", synth.String(), "tempo", cfg.Tempo, "tacts", cfg.Tacts)
	for {
		if err := pl.Play(tl); err != nil {
			return err
		}
		select {
		case <-sig:
			pl.Stop()
			logger.Info("interrupted")
			return nil
		case <-pl.Done():
			if err := pl.Wait(); err != nil {
				return err
			}
		}
		if !cfg.Loop {
			return nil
		}
	}
}

func runExport(cmd *cobra.Command, withProgression bool) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if withProgression && cfg.Progression == "" {
		return fmt.Errorf("a progression is required (--progression)")
	}

	tl, err := cfg.Timeline(withProgression)
	if err != nil {
		return err
	}

	if err := midifile.Export(tl, outputFile); err != nil {
		return err
	}
	fmt.Printf("Exported %s (%d events, %.0f BPM)\n", outputFile, len(tl.Events), tl.Tempo)
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	var pl *player.Player
	if out, err := player.FindOutPort(portIndex); err == nil {
		if synth, err := player.NewPortSynth(out); err == nil {
			pl = player.New(synth, 0)
		}
	}
	return tui.Run(pl)
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort)
}
