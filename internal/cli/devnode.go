package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/tally/internal/app"
	"github.com/five82/tally/internal/devnode"
	"github.com/five82/tally/internal/votenode"
)

// DevnodeOptions holds flags for the devnode command.
type DevnodeOptions struct {
	*RootOptions
	Listen string
	Name   string
	Seed   bool
}

// NewDevnodeCommand serves an in-memory voting node for local use.
func NewDevnodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DevnodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "devnode",
		Short: "Run an in-memory voting node",
		Long: `Run an in-memory voting node that speaks the same HTTP API tally polls.
Nothing is persisted. Routes follow the configured collection, item and node
paths, so a tally pointed at --listen talks to it unchanged.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevnode(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&opts.Name, "name", "devnode", "node identity, also the origin of polls it creates")
	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "start with a few sample polls")

	return cmd
}

func runDevnode(cmd *cobra.Command, opts *DevnodeOptions) error {
	rt, err := app.Open(opts.appOptions(true))
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	node := devnode.New(opts.Name)
	if opts.Seed {
		if err := seed(node); err != nil {
			return err
		}
	}

	paths := votenode.Paths{
		Collection: rt.Config.CollectionPath,
		Item:       rt.Config.ItemPath,
		Node:       rt.Config.NodePath,
	}
	return devnode.Serve(cmd.Context(), opts.Listen, devnode.Handler(node, paths, rt.Logger), rt.Logger)
}

func seed(node *devnode.Node) error {
	me := node.Name()
	samples := []struct {
		question string
		voters   []string
	}{
		{"Lunch at noon?", []string{me, "alice", "bob"}},
		{"Move standup to 10:00?", []string{me, "carol"}},
		{"Adopt the new logo?", []string{"alice", "bob"}},
	}
	for _, s := range samples {
		if _, err := node.Create(s.question, s.voters); err != nil {
			return fmt.Errorf("seed devnode: %w", err)
		}
	}
	return nil
}
