package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sharapovvezde-lgtm/voice-to-text/internal/app"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/autostart"
)

func NewAutostartCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart <on|off|status>",
		Short: "Manage launching the service at login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "on":
				if err := autostart.Enable(app.AppName, "run"); err != nil {
					return err
				}
				fmt.Fprintln(out, "Autostart enabled")
			case "off":
				if err := autostart.Disable(app.AppName); err != nil {
					return err
				}
				fmt.Fprintln(out, "Autostart disabled")
			case "status":
				if autostart.Enabled(app.AppName) {
					fmt.Fprintln(out, "Autostart is enabled")
				} else {
					fmt.Fprintln(out, "Autostart is disabled")
				}
			default:
				return fmt.Errorf("unknown argument %q (want on, off or status)", args[0])
			}
			return nil
		},
	}
	return cmd
}
