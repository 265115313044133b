// Package api exposes the engine over HTTP: a snapshot endpoint, the
// revisioned command endpoint and a websocket feed pushing accepted
// revisions to connected editors.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/topolab/pkg/engine"
	"github.com/matzehuels/topolab/pkg/errors"
)

// Server serves the command protocol for one engine.
type Server struct {
	engine   *engine.Engine
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a Server. A nil logger falls back to log.Default().
func NewServer(eng *engine.Engine, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		engine: eng,
		logger: logger,
		upgrader: websocket.Upgrader{
			// The editor front end is served from its own origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the HTTP routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/snapshot", s.handleSnapshot)
		r.Post("/commands", s.handleCommand)
		r.Get("/ws", s.handleFeed)
	})
	return r
}

// commandRequest is the body of POST /api/v1/commands.
type commandRequest struct {
	ProtocolVersion int            `json:"protocolVersion"`
	BaseRevision    uint64         `json:"baseRevision"`
	Command         engine.Command `json:"command"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.CodeInvalidInput, err, "malformed command body"))
		return
	}

	// Version is checked before the command gets anywhere near the engine.
	if req.ProtocolVersion != engine.ProtocolVersion {
		writeError(w, http.StatusBadRequest, errors.New(errors.CodeProtocolMismatch,
			"protocol version %d, server speaks %d", req.ProtocolVersion, engine.ProtocolVersion))
		return
	}

	res, err := s.engine.Apply(r.Context(), req.Command, req.BaseRevision)
	if err != nil {
		if errors.GetCode(err) == errors.CodeRevisionConflict {
			// The conflict body carries the current revision so the client
			// can refetch and rebase.
			var body errorBody
			body.Error.Code = string(errors.CodeRevisionConflict)
			body.Error.Message = errors.UserMessage(err)
			body.Revision = s.engine.Snapshot().Revision
			writeJSON(w, http.StatusConflict, body)
			return
		}
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleFeed upgrades to a websocket and pushes every accepted revision
// until the client goes away.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	revisions, cancel := s.engine.Subscribe()
	defer cancel()

	// Reader goroutine: the feed is push-only, reads only surface a close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case rev := <-revisions:
			if err := conn.WriteJSON(map[string]uint64{"revision": rev}); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// statusFor maps engine error codes onto HTTP statuses.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeRevisionConflict:
		return http.StatusConflict
	case errors.CodeInvalidCommand, errors.CodeInvalidInput, errors.CodeProtocolMismatch,
		errors.CodeMissingDocument, errors.CodeNodesNotAMap:
		return http.StatusBadRequest
	case errors.CodeNotFound, errors.CodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the typed error envelope clients switch on.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Revision uint64 `json:"revision,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	var body errorBody
	body.Error.Code = string(errors.GetCode(err))
	body.Error.Message = errors.UserMessage(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
