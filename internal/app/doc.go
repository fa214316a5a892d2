// Package app is the composition root for tally.
//
// Open loads the config and builds the logger and node client that every
// command shares. Run goes further for the interactive session:
//
//	Run()
//	  ├─> Open()                 config, logger, votenode.Client
//	  ├─> metrics.New()          private registry, optional /metrics listener
//	  ├─> dispatch.New()         fire-and-forget commands
//	  ├─> ui.NewProgram()        Bubble Tea model owning the mirror
//	  ├─> Stream polls  ──Send(PollsMsg)──> program
//	  ├─> Stream node   ──Send(NodeMsg)───> program
//	  └─> program.Run()          blocks until quit
//
// # Streams
//
// A Stream fetches one endpoint on a one-shot timer that is re-armed only
// after the previous fetch has finished, so fetches of one stream never
// overlap and a slow node stretches the period instead of queueing requests.
// There is no backoff. Every cycle is recorded in the shared state.Store and
// counted in metrics; only successful results are delivered. Streams stop when
// their context is cancelled, which Run does as soon as the program exits.
package app
