package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/plaenen/usercqrs/internal/command"
	"github.com/plaenen/usercqrs/internal/projection"
	"github.com/plaenen/usercqrs/internal/store"
	"github.com/plaenen/usercqrs/pkg/eventsourcing"
	"github.com/plaenen/usercqrs/pkg/observability"
	"github.com/plaenen/usercqrs/pkg/validators"
)

// Server wires the command dispatch pipeline and the read-model
// projection to an HTTP mux.
type Server struct {
	dispatch    eventsourcing.CommandHandlerFunc
	readModel   *projection.UserReadModel
	deadLetters *store.EventStore
	telemetry   *observability.Telemetry
	logger      *slog.Logger
}

// NewServer constructs a Server. dispatch is the fully middleware-wrapped
// command handler (see eventsourcing.Chain).
func NewServer(dispatch eventsourcing.CommandHandlerFunc, readModel *projection.UserReadModel, deadLetters *store.EventStore, telemetry *observability.Telemetry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{dispatch: dispatch, readModel: readModel, deadLetters: deadLetters, telemetry: telemetry, logger: logger}
}

// Routes builds the HTTP mux for this service using Go 1.22's
// method+pattern routing.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users", s.handleRegisterUser)
	mux.HandleFunc("PUT /users", s.handleRenameUser)
	mux.HandleFunc("GET /users/search/{name}", s.handleFindUserByName)
	mux.HandleFunc("GET /users/{user_id}", s.handleGetUser)
	mux.HandleFunc("GET /users", s.handleListUsers)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /internal/dlq", s.handleDLQ)
	mux.HandleFunc("GET /internal/metrics", s.handleMetrics)
	return mux
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed request body")
		return
	}

	if vr := validators.ValidateStringEmpty(req.Name, "name"); !vr.IsValid {
		s.writeAppError(w, r, vr.ToAppError())
		return
	}

	cmd := command.NewRegisterUser(req.UserID, req.Name, r.Header.Get("X-Correlation-Id"))
	if _, err := s.dispatch(r.Context(), cmd); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: "user registered"})
}

func (s *Server) handleRenameUser(w http.ResponseWriter, r *http.Request) {
	var req renameUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed request body")
		return
	}

	if vr := validators.ValidateStringEmpty(req.NewName, "new_name"); !vr.IsValid {
		s.writeAppError(w, r, vr.ToAppError())
		return
	}

	cmd := command.NewRenameUser(req.UserID, req.NewName, r.Header.Get("X-Correlation-Id"))
	if _, err := s.dispatch(r.Context(), cmd); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "user renamed"})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r.PathValue("user_id"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	view, ok := s.readModel.Get(userID)
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(view))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	views := s.readModel.All()
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	out := make([]userResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toUserResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFindUserByName(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	view, ok := s.readModel.FindByName(name)
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(view))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleDLQ(w http.ResponseWriter, r *http.Request) {
	if s.deadLetters == nil {
		writeJSON(w, http.StatusOK, []dlqEntryResponse{})
		return
	}
	entries := s.deadLetters.DLQ()
	out := make([]dlqEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dlqEntryResponse{
			AggregateID:  e.AggregateID,
			EventType:    e.Event.EventType,
			ErrorMessage: e.ErrorMessage,
			FailureCount: e.FailureCount,
			LastFailedAt: e.LastFailedAt.UnixMilli(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.telemetry == nil {
		writeJSON(w, http.StatusOK, messageResponse{Message: "telemetry disabled"})
		return
	}
	snapshot, collected, err := s.telemetry.CollectMetrics(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if !collected {
		writeJSON(w, http.StatusOK, messageResponse{Message: "metrics exported externally, not available for in-process inspection"})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	s.logger.WarnContext(r.Context(), "request failed",
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()))
	writeError(w, status, err.Error())
}

func toUserResponse(v projection.UserView) userResponse {
	return userResponse{ID: v.ID, Name: v.Name, CreatedAt: v.CreatedAtMS}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
