package cli

import (
	"github.com/spf13/cobra"

	"github.com/five82/tally/internal/app"
)

// RootOptions holds the flags shared by every command.
type RootOptions struct {
	ConfigPath string
	PrefsPath  string
	Verbose    bool
}

func (o *RootOptions) appOptions(logToStderr bool) app.Options {
	return app.Options{
		ConfigPath:  o.ConfigPath,
		PrefsPath:   o.PrefsPath,
		Verbose:     o.Verbose,
		LogToStderr: logToStderr,
	}
}

// NewRootCommand creates the tally command tree. Without a subcommand it
// opens the live view.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tally",
		Short: "Watch and act on a voting node's polls",
		Long: `tally mirrors the polls of a voting node by polling its HTTP API and
shows them in a live terminal view. Votes, count requests and new polls are
sent back to the node without waiting for an answer; their effect appears on
the next poll.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), opts.appOptions(false))
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default ~/.config/tally/config.toml)")
	cmd.PersistentFlags().StringVar(&opts.PrefsPath, "prefs", "", "preferences file (default ~/.config/tally/prefs.toml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewVoteCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewLogsCommand(opts))
	cmd.AddCommand(NewDevnodeCommand(opts))

	return cmd
}

// NewWatchCommand opens the live view. It is what the bare root command does.
func NewWatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "watch",
		Short:         "Open the live poll view",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), opts.appOptions(false))
		},
	}
}
