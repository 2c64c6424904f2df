// Package web exposes the JSON HTTP surface: account endpoints, room
// listing and creation, message search, health and stats.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"chatroom/auth"
	"chatroom/domain"
	apperrors "chatroom/errors"
	"chatroom/projection"
	"chatroom/services"
)

const defaultSearchLimit = 20

type API struct {
	log      *slog.Logger
	chat     services.IChatService
	accounts services.IAuthService
	tokens   *auth.TokenManager
	timeline *projection.Timeline
}

func NewAPI(log *slog.Logger, chat services.IChatService,
	accounts services.IAuthService, tokens *auth.TokenManager,
	timeline *projection.Timeline) *API {
	return &API{
		log:      log,
		chat:     chat,
		accounts: accounts,
		tokens:   tokens,
		timeline: timeline,
	}
}

// Routes registers every endpoint on mux, including the websocket
// entry point handled elsewhere.
func (a *API) Routes(mux *http.ServeMux, wsHandler http.Handler) {
	mux.HandleFunc("POST /register", a.register)
	mux.HandleFunc("POST /login", a.login)
	mux.HandleFunc("GET /rooms", a.listRooms)
	mux.HandleFunc("POST /rooms", a.createRoom)
	mux.HandleFunc("GET /search", a.search)
	mux.HandleFunc("GET /health", a.health)
	mux.HandleFunc("GET /stats", a.stats)
	mux.Handle("GET /ws", wsHandler)
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req auth.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	token, err := a.accounts.Register(req.Username, req.Password)
	switch {
	case apperrors.Is(err, apperrors.ErrUserAlreadyExists):
		writeError(w, http.StatusConflict, "username already exists")
	case apperrors.Is(err, apperrors.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		a.log.Error("register failed", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
	default:
		writeJSON(w, http.StatusCreated, tokenResponse{Token: string(token)})
	}
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req auth.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	token, err := a.accounts.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: string(token)})
}

type roomResponse struct {
	Name        string   `json:"name"`
	CreatedBy   string   `json:"created_by"`
	CreatedAt   string   `json:"created_at"`
	ActiveUsers []string `json:"active_users"`
}

func (a *API) listRooms(w http.ResponseWriter, _ *http.Request) {
	rooms, err := a.chat.ListRooms()
	if err != nil {
		a.log.Error("room listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "room listing failed")
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(rooms, func(room domain.Room, _ int) roomResponse {
		return roomResponse{
			Name:        room.Name,
			CreatedBy:   room.CreatedBy,
			CreatedAt:   room.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			ActiveUsers: a.chat.MembersOf(room.Name),
		}
	}))
}

type createRoomRequest struct {
	Name string `json:"name"`
}

func (a *API) createRoom(w http.ResponseWriter, r *http.Request) {
	claims, ok := a.authorized(w, r)
	if !ok {
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "room name required")
		return
	}

	room, err := a.chat.CreateRoom(strings.TrimSpace(req.Name), claims.Username)
	if err != nil {
		a.log.Error("room creation failed", "room", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "room creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, roomResponse{
		Name:      room.Name,
		CreatedBy: room.CreatedBy,
		CreatedAt: room.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (a *API) search(w http.ResponseWriter, r *http.Request) {
	terms := r.URL.Query().Get("q")
	if strings.TrimSpace(terms) == "" {
		writeError(w, http.StatusBadRequest, "query parameter q required")
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	hits, err := a.chat.Search(r.Context(), r.URL.Query().Get("room"), terms, limit)
	if err != nil {
		a.log.Error("search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"engine":          a.chat.Stats(),
		"recent_messages": a.timeline.Snapshot(),
	})
}

// authorized extracts and validates the bearer token, writing the 401
// itself when absent or invalid.
func (a *API) authorized(w http.ResponseWriter, r *http.Request) (*auth.CustomClaims, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		writeError(w, http.StatusUnauthorized, "bearer token required")
		return nil, false
	}

	claims, err := a.tokens.Validate(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return nil, false
	}
	return claims, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
