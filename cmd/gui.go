package cmd

import (
	"github.com/sadopc/voicecount/internal/gui"
	"github.com/spf13/cobra"
)

var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Open the desktop window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		d.log.Info("starting desktop window")
		gui.Run(d.coach, d.speechOK, d.log)
		return nil
	},
}
