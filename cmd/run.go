package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sadopc/voicecount/internal/counter"
	"github.com/sadopc/voicecount/internal/plain"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <number|label>",
	Short: "Start a preset right away",
	Long: `Start a preset by its 1-based number or its label.

With --plain every spoken phrase is printed on its own line and Ctrl+C stops
the workout; otherwise the full-screen app opens on the running preset.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if usePlain, _ := cmd.Flags().GetBool("plain"); usePlain {
			return runPlain(cmd, args[0])
		}
		return runTUI(cmd, args[0])
	},
}

func init() {
	runCmd.Flags().Bool("plain", false, "Print the count line by line instead of opening the full-screen app")
}

func runPlain(cmd *cobra.Command, ref string) error {
	d, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer d.Close()

	index, err := d.coach.Resolve(ref)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	state, err := plain.Run(ctx, d.coach, index, out, d.speechOK)
	if err != nil {
		return err
	}
	finishSpeech(d.announcer, state, d.log)
	fmt.Fprintln(out, farewell)
	return nil
}

// speechFlushTimeout bounds how long a completed run waits for its last
// phrases before the announcer is closed.
const speechFlushTimeout = 5 * time.Second

type flusher interface {
	Flush(timeout time.Duration) bool
}

// finishSpeech lets the closing phrases of a completed workout play out.
// A stopped workout has already been silenced by its session.
func finishSpeech(a counter.Announcer, state counter.State, log *slog.Logger) {
	if state != counter.StateCompleted {
		return
	}
	f, ok := a.(flusher)
	if !ok {
		return
	}
	if !f.Flush(speechFlushTimeout) {
		log.Debug("speech still playing at exit", "timeout", speechFlushTimeout)
	}
}
