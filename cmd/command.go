package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smazurov/relaycast/internal/config"
	"github.com/smazurov/relaycast/internal/ffmpeg"
	"github.com/smazurov/relaycast/internal/sessions/store"
)

// CreateCommandCmd creates the command subcommand that prints the redacted
// transcoder command line of a session.
func CreateCommandCmd(options func() *config.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "command <session>",
		Short: "Print the transcoder command for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comps, err := NewComponents(options(), readOnlyStore{store.NewTOML(options().SessionsFile)})
			if err != nil {
				return err
			}
			sess, err := findSession(comps.Registry.List(), args[0])
			if err != nil {
				return err
			}
			argv, err := comps.Supervisor.Command(sess.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ffmpeg.QuoteArgs(argv))
			return nil
		},
	}
}
