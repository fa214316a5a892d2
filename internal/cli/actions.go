package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/tally/internal/app"
	"github.com/five82/tally/internal/dispatch"
	"github.com/five82/tally/internal/votenode"
)

// The one-shot commands go through the same dispatcher as the live view and
// wait for it before exiting. A rejection is logged, not returned: the outcome
// is whatever the next poll shows.

// NewVoteCommand casts a vote on one poll.
func NewVoteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "vote <poll-id> <yes|no>",
		Short: "Cast a vote on a poll",
		Example: `  tally vote 3 yes
  tally vote 3 0`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := votenode.ParseVote(args[1])
			if err != nil {
				return err
			}
			return dispatchOnce(cmd, opts, dispatch.CastVote{ID: args[0], Value: value})
		},
	}
}

// NewCountCommand asks the node to count a poll it originated.
func NewCountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "count <poll-id>",
		Short:         "Request the count of a poll",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatchOnce(cmd, opts, dispatch.RequestCount{ID: args[0]})
		},
	}
}

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Question string
	Voters   []string
}

// NewCreateCommand creates a poll on the node.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a poll",
		Example: `  tally create --question "Lunch at noon?" --voter alice --voter bob
  tally create -q "Ship it?" --voter alice,bob`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(opts.Question)
			if question == "" {
				return fmt.Errorf("--question is required")
			}
			voters := make([]string, 0, len(opts.Voters))
			for _, v := range opts.Voters {
				if v = strings.TrimSpace(v); v != "" {
					voters = append(voters, v)
				}
			}
			return dispatchOnce(cmd, opts.RootOptions, dispatch.CreatePoll{Question: question, Voters: voters})
		},
	}

	cmd.Flags().StringVarP(&opts.Question, "question", "q", "", "poll question")
	cmd.Flags().StringSliceVar(&opts.Voters, "voter", nil, "voter identity (repeatable)")

	return cmd
}

func dispatchOnce(cmd *cobra.Command, opts *RootOptions, c dispatch.Command) error {
	rt, err := app.Open(opts.appOptions(true))
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	d := dispatch.New(cmd.Context(), rt.Client, dispatch.Options{
		Timeout: rt.Config.RequestTimeout,
		Logger:  rt.Logger,
	})
	id := d.Dispatch(c)
	d.Wait()

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "sent %s (request %s)\n", c.Name(), id)
	return err
}
