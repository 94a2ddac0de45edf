package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sharapovvezde-lgtm/voice-to-text/internal/device"
)

func NewDevicesCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List monitors and audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			monitors, err := device.ListMonitors()
			if err != nil {
				fmt.Fprintf(out, "Monitors: unavailable (%v)\n", err)
			} else {
				fmt.Fprintln(out, "Monitors:")
				for _, m := range monitors {
					primary := ""
					if m.IsPrimary {
						primary = " (primary)"
					}
					fmt.Fprintf(out, "  [%d] %s %dx%d at %d,%d%s\n",
						m.ID, m.Name, m.Width, m.Height, m.Left, m.Top, primary)
				}
			}

			mics, err := device.ListMicrophones()
			if err != nil {
				return fmt.Errorf("list microphones: %w", err)
			}
			fmt.Fprintln(out, "Microphones:")
			for _, m := range mics {
				def := ""
				if m.IsDefault {
					def = " (default)"
				}
				fmt.Fprintf(out, "  [%d] %s, %d ch, %.0f Hz%s\n",
					m.Index, m.Name, m.Channels, m.SampleRate, def)
			}

			if ref, ok := device.FindLoopback(); ok {
				fmt.Fprintf(out, "System audio: [%d] %s\n", ref.Index, ref.Name)
			} else {
				fmt.Fprintln(out, "System audio: no loopback device found")
			}
			return nil
		},
	}
}
