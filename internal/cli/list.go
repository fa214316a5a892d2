package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/tally/internal/app"
	"github.com/five82/tally/internal/ui"
)

// ValidFormats are the output formats of the list command.
var ValidFormats = []string{"text", "json"}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Output string
}

// NewListCommand prints one snapshot of the node's polls.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "Print the node's polls once",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Output) {
				return fmt.Errorf("invalid output %q: must be one of %v", opts.Output, ValidFormats)
			}
			return listPolls(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "output format (text|json)")

	return cmd
}

func listPolls(cmd *cobra.Command, opts *ListOptions) error {
	rt, err := app.Open(opts.appOptions(true))
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), rt.Config.RequestTimeout)
	defer cancel()

	polls, err := rt.Client.FetchPolls(ctx)
	if err != nil {
		return fmt.Errorf("fetch polls: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.Output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(polls)
	}
	_, err = fmt.Fprint(out, ui.PlainList(polls))
	return err
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
