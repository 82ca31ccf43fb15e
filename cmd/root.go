package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/voicecount/internal/coach"
	"github.com/sadopc/voicecount/internal/counter"
	"github.com/sadopc/voicecount/internal/preset"
	"github.com/sadopc/voicecount/internal/speech"
	"github.com/sadopc/voicecount/internal/store"
	"github.com/sadopc/voicecount/internal/tui"
	"github.com/spf13/cobra"
)

const farewell = "Goodbye! Stay active!"

var rootCmd = &cobra.Command{
	Use:           "voicecount",
	Short:         "Spoken rep counter for bodyweight workouts",
	Long:          "voicecount counts your reps out loud, cycles through sets and times the rest between them.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, "")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("presets", "", "Path to the presets YAML file (overrides VOICECOUNT_PRESETS)")
	pf.String("db", "", "Path to the SQLite history database (overrides VOICECOUNT_DB)")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.Bool("silent", false, "Do not speak, only display the count")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(guiCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolvePath returns the --<flag> value, then the env var, then def().
func resolvePath(cmd *cobra.Command, flag, env string, def func() (string, error)) (string, error) {
	if p, _ := cmd.Flags().GetString(flag); p != "" {
		return p, nil
	}
	if p := os.Getenv(env); p != "" {
		return p, nil
	}
	return def()
}

func resolveDBPath(cmd *cobra.Command) (string, error) {
	return resolvePath(cmd, "db", "VOICECOUNT_DB", store.DefaultDBPath)
}

func resolvePresetsPath(cmd *cobra.Command) (string, error) {
	return resolvePath(cmd, "presets", "VOICECOUNT_PRESETS", preset.DefaultPath)
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return l, fmt.Errorf("invalid --log-level %q: %w", s, err)
	}
	return l, nil
}

func newLogger(cmd *cobra.Command, out io.Writer) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")
	level, err := parseLevel(raw)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), nil
}

// openLogFile opens the log file next to the database. A full-screen UI
// owns the terminal, so its logs go there instead of stderr.
func openLogFile(dbPath string) (*os.File, error) {
	path := filepath.Join(filepath.Dir(dbPath), "voicecount.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// deps is everything a presentation needs. store may be nil when the
// database could not be opened.
type deps struct {
	log       *slog.Logger
	store     *store.Store
	coach     *coach.Coach
	announcer counter.Announcer
	speechOK  bool
	closers   []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// setup wires the catalog, history store, speech engine and coach. When
// toFile is set logs go to the log file instead of stderr.
func setup(cmd *cobra.Command, toFile bool) (*deps, error) {
	d := &deps{}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}
	presetsPath, err := resolvePresetsPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve presets path: %w", err)
	}

	var logOut io.Writer = os.Stderr
	if toFile {
		f, err := openLogFile(dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v; logging disabled\n", err)
			logOut = io.Discard
		} else {
			logOut = f
			d.closers = append(d.closers, func() { f.Close() })
		}
	}
	d.log, err = newLogger(cmd, logOut)
	if err != nil {
		d.Close()
		return nil, err
	}

	st, err := store.New(dbPath)
	if err != nil {
		d.log.Warn("history unavailable", "path", dbPath, "error", err)
		fmt.Fprintf(os.Stderr, "warning: history unavailable: %v\n", err)
	} else {
		d.store = st
		d.closers = append(d.closers, func() { st.Close() })
	}

	announcer, ok := newAnnouncer(cmd, d.store, d.log)
	d.announcer, d.speechOK = announcer, ok
	if c, isCloser := announcer.(io.Closer); isCloser {
		d.closers = append(d.closers, func() { c.Close() })
	}

	var rec coach.Recorder
	if d.store != nil {
		rec = d.store
	}
	d.coach = coach.New(coach.Config{
		Catalog:   preset.OpenCatalog(presetsPath, d.log),
		Announcer: announcer,
		Recorder:  rec,
		Log:       d.log,
	})
	// Stop and record before the store closes.
	d.closers = append(d.closers, d.coach.Close)
	return d, nil
}

func newAnnouncer(cmd *cobra.Command, st *store.Store, log *slog.Logger) (counter.Announcer, bool) {
	cfg := store.SpeechSettings{Enabled: true, Rate: speech.DefaultRate, Command: "auto"}
	if st != nil {
		s, err := st.GetSpeechSettings()
		if err != nil {
			log.Warn("reading speech settings", "error", err)
		}
		cfg = s
	}
	if silent, _ := cmd.Flags().GetBool("silent"); silent || !cfg.Enabled {
		log.Info("speech disabled")
		return counter.NopAnnouncer{}, false
	}
	return speech.New(speech.Config{Command: cfg.Command, Rate: cfg.Rate, Log: log})
}

// runTUI opens the full-screen app, starting the preset named by ref when
// ref is not empty.
func runTUI(cmd *cobra.Command, ref string) error {
	d, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer d.Close()

	app := tui.NewApp(d.coach, d.store, d.speechOK)
	if ref != "" {
		index, err := d.coach.Resolve(ref)
		if err != nil {
			return err
		}
		app = app.StartingWith(index)
	}
	d.log.Info("starting terminal ui")
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	fmt.Println(farewell)
	return nil
}
