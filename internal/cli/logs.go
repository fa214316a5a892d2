package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/tally/internal/config"
	"github.com/five82/tally/internal/logtail"
)

// LogsOptions holds flags for the logs command.
type LogsOptions struct {
	*RootOptions
	Lines int
	Level string
}

// NewLogsCommand prints the tail of tally's log file.
func NewLogsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "logs",
		Short:         "Show recent log lines",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			lines, err := logtail.Read(cfg.LogPath(), opts.Lines)
			if err != nil {
				return err
			}
			if opts.Level != "" {
				lines = logtail.AtLeast(lines, opts.Level)
			}
			if len(lines) == 0 {
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
			return err
		},
	}

	cmd.Flags().IntVarP(&opts.Lines, "lines", "n", 50, "number of lines from the end (0 for all)")
	cmd.Flags().StringVar(&opts.Level, "level", "", "minimum level (debug|info|warn|error)")

	return cmd
}
