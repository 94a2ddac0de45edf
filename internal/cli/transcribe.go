package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sharapovvezde-lgtm/voice-to-text/internal/app"
)

func NewTranscribeCmd(deps *Dependencies) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "transcribe <media>",
		Short: "Transcribe an existing recording",
		Long: "Transcribe a recording made earlier. For meeting recordings the\n" +
			"per-channel WAVs next to the media file are used for speaker labels;\n" +
			"otherwise the audio track is extracted and transcribed as one channel.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app.New(deps.Config, deps.Logger)
			reportPath, err := a.TranscribeMedia(cmd.Context(), args[0], outPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transcript written to %s\n", reportPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "transcript path (default: media path with .txt)")
	return cmd
}
