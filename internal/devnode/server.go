package devnode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/five82/tally/internal/logging"
	"github.com/five82/tally/internal/votenode"
)

type resultJSON struct {
	Count     int64     `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

type pollJSON struct {
	ID       uint32     `json:"id"`
	Question string     `json:"question"`
	Origin   string     `json:"origin"`
	CanVote  bool       `json:"canVote"`
	CanCount bool       `json:"canCount"`
	Result   resultJSON `json:"result"`
}

// Handler routes the voting API to node. Zero fields of paths use
// votenode.DefaultPaths.
func Handler(node *Node, paths votenode.Paths, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	paths = withDefaults(paths)
	item := strings.TrimRight(paths.Item, "/")

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get(paths.Node, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, votenode.NodeInfo{ID: node.Name()})
	})

	r.Get(paths.Collection, func(w http.ResponseWriter, _ *http.Request) {
		polls := node.Polls()
		resp := struct {
			Polls []pollJSON `json:"polls"`
		}{Polls: make([]pollJSON, len(polls))}
		for i, p := range polls {
			res := resultJSON{Count: votenode.NoResult}
			if p.Result != nil {
				res = resultJSON{Count: p.Result.Count, Timestamp: p.Result.Timestamp}
			}
			resp.Polls[i] = pollJSON{
				ID:       p.ID,
				Question: p.Question,
				Origin:   p.Origin,
				CanVote:  p.CanVote,
				CanCount: p.CanCount,
				Result:   res,
			}
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Post(paths.Collection, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question string `json:"question"`
			Voters   string `json:"voters"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		id, err := node.Create(req.Question, strings.Split(req.Voters, "\n"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]uint32{"id": id})
	})

	r.Route(item+"/{pollID}", func(r chi.Router) {
		r.Post("/vote", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pollID(w, r)
			if !ok {
				return
			}
			var req struct {
				Vote string `json:"vote"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			value, err := votenode.ParseVote(req.Vote)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			if err := node.Vote(id, value == votenode.VoteYes); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			w.WriteHeader(http.StatusAccepted)
		})

		r.Post("/count", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pollID(w, r)
			if !ok {
				return
			}
			if err := node.Count(id); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			w.WriteHeader(http.StatusAccepted)
		})

		r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pollID(w, r)
			if !ok {
				return
			}
			if err := node.Remove(id); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

// Serve runs the node on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *log.Logger) error {
	if logger == nil {
		logger = logging.Discard()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("devnode listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve devnode: %w", err)
	}
	return nil
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			if r.Method == http.MethodGet && ww.Status() == http.StatusOK {
				return
			}
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", r.Header.Get("X-Request-Id"),
				"elapsed", time.Since(start).Round(time.Microsecond),
			)
		})
	}
}

func pollID(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	raw := chi.URLParam(r, "pollID")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid poll id %q", raw))
		return 0, false
	}
	return uint32(id), true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownPoll):
		return http.StatusNotFound
	case errors.Is(err, ErrNotAllowed):
		return http.StatusConflict
	case errors.Is(err, ErrEmptyQuestion):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func withDefaults(p votenode.Paths) votenode.Paths {
	if strings.TrimSpace(p.Collection) == "" {
		p.Collection = votenode.DefaultPaths.Collection
	}
	if strings.TrimSpace(p.Item) == "" {
		p.Item = votenode.DefaultPaths.Item
	}
	if strings.TrimSpace(p.Node) == "" {
		p.Node = votenode.DefaultPaths.Node
	}
	return p
}
