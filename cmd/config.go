package cmd

import (
	"fmt"
	"strings"

	"github.com/sadopc/voicecount/internal/speech"
	"github.com/sadopc/voicecount/internal/store"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and change speech settings",
	Long: `Settings are kept in the history database.

  speech          on or off
  speech_rate     words per minute, 50-400
  speech_command  auto, espeak-ng, espeak, spd-say or say`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every setting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openSettings(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		settings, err := st.GetAllSettings()
		if err != nil {
			return err
		}
		for _, s := range settings {
			fmt.Fprintf(cmd.OutOrStdout(), "%-15s %s\n", s.Key, s.Value)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openSettings(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		v, err := st.GetSetting(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], strings.TrimSpace(args[1])
		if err := store.ValidateSetting(key, value); err != nil {
			return err
		}

		st, closeStore, err := openSettings(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := st.SetSetting(key, value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
		return nil
	},
}

var configEnginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List the speech commands voicecount knows how to drive",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range speech.Engines() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configEnginesCmd)
}

// openSettings opens only the store; settings commands need neither
// presets nor speech.
func openSettings(cmd *cobra.Command) (*store.Store, func(), error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve db path: %w", err)
	}
	st, err := store.New(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return st, func() { st.Close() }, nil
}
