package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/five82/tally/internal/config"
	"github.com/five82/tally/internal/dispatch"
	"github.com/five82/tally/internal/logging"
	"github.com/five82/tally/internal/metrics"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/state"
	"github.com/five82/tally/internal/ui"
	"github.com/five82/tally/internal/votenode"
)

// Options configure a tally session.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/tally/prefs.toml
	Verbose    bool
	// LogToStderr skips the log file. Only for commands that leave the
	// terminal alone.
	LogToStderr bool
}

// Runtime is the set of long-lived dependencies every command needs.
type Runtime struct {
	Config config.Config
	Logger *log.Logger
	Client *votenode.Client

	closer io.Closer
}

// Open loads configuration and builds the logger and node client.
func Open(opts Options) (*Runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logPath := cfg.LogPath()
	if opts.LogToStderr {
		logPath = ""
	}
	logger, closer, err := logging.New(logging.Options{
		Path:    logPath,
		Level:   cfg.LogLevel,
		Verbose: opts.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := votenode.NewClient(votenode.Options{
		APIBind: cfg.APIBind,
		Paths: votenode.Paths{
			Collection: cfg.CollectionPath,
			Item:       cfg.ItemPath,
			Node:       cfg.NodePath,
		},
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("init node client: %w", err)
	}

	return &Runtime{Config: cfg, Logger: logger, Client: client, closer: closer}, nil
}

// Close releases the log output.
func (r *Runtime) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Run boots the tally TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	rt, err := Open(opts)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		rt.Logger.Warn("load prefs", "error", err)
	}

	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)
	if addr := rt.Config.MetricsAddr; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, reg, rt.Logger); err != nil {
				rt.Logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	health := &state.Store{}
	dispatcher := dispatch.New(ctx, rt.Client, dispatch.Options{
		Timeout: rt.Config.RequestTimeout,
		Logger:  rt.Logger,
		Metrics: m,
	})

	prog := ui.NewProgram(ui.Options{
		Context:    ctx,
		Dispatcher: dispatcher,
		Health:     health,
		Metrics:    m,
		Logger:     rt.Logger,
		APIBind:    rt.Config.APIBind,
		ThemeName:  userPrefs.Theme,
		PrefsPath:  opts.PrefsPath,
		LastVoters: userPrefs.LastVoters,
	})

	Stream[[]votenode.Poll]{
		Name:     ui.StreamPolls,
		Interval: rt.Config.PollInterval,
		Fetch:    rt.Client.FetchPolls,
		Deliver:  func(polls []votenode.Poll) { prog.Send(ui.PollsMsg(polls)) },
		Health:   health,
		Logger:   rt.Logger,
		Metrics:  m,
	}.Start(ctx)

	Stream[string]{
		Name:     ui.StreamNode,
		Interval: rt.Config.NodeInterval,
		Fetch:    rt.Client.FetchNodeID,
		Deliver:  func(id string) { prog.Send(ui.NodeMsg(id)) },
		Health:   health,
		Logger:   rt.Logger,
		Metrics:  m,
	}.Start(ctx)

	rt.Logger.Info("tally started", "api", rt.Client.BaseURL())
	_, err = prog.Run()
	cancel()
	dispatcher.Wait()

	// A signal cancels parent, which kills the program. That is a clean exit.
	if errors.Is(err, tea.ErrProgramKilled) && parent.Err() != nil {
		return nil
	}
	return err
}
