// Package mockapi is an in-memory implementation of the admin REST API. It
// backs the client tests and the dash-mock demo server; nothing is persisted.
package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Config configures a Server.
type Config struct {
	Secret        string
	TokenTTL      time.Duration
	AdminUsername string
	AdminPassword string
}

func (c *Config) applyDefaults() {
	if c.Secret == "" {
		c.Secret = "dash-mock-secret-change-me-0123456789"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 24 * time.Hour
	}
	if c.AdminUsername == "" {
		c.AdminUsername = "admin"
	}
	if c.AdminPassword == "" {
		c.AdminPassword = "admin123"
	}
}

// Server serves the admin API from memory.
type Server struct {
	cfg    Config
	store  *store
	tokens *tokenManager
	log    *slog.Logger

	mu      sync.Mutex
	hits    map[string]int
	latency time.Duration
}

// New creates a Server seeded with the permission catalogue and an admin account.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	cfg.applyDefaults()
	s := &Server{
		cfg:    cfg,
		store:  newStore(),
		tokens: newTokenManager(cfg.Secret, cfg.TokenTTL),
		log:    logger.With("component", "mockapi"),
		hits:   make(map[string]int),
	}
	if err := s.store.seed(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("mockapi: seed: %w", err)
	}
	return s, nil
}

// Router returns the HTTP handler for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.record)

	r.Get("/api/system/health", s.handleHealth)
	r.Post("/api/auth/login", s.handleLogin)

	// Reads accept an optional token; an invalid one is still rejected.
	r.Group(func(rr chi.Router) {
		rr.Use(s.optionalAuth)
		rr.Get("/api/auth/anonymous", s.handleAnonymous)
		rr.Post("/api/notice/page", s.handleNoticePage)
		rr.Get("/api/todo/tag/list", s.handleTodoTags)
		rr.Get("/api/todo/item/list", s.handleTodoItems)
		rr.Get("/api/todo/item/listByTag", s.handleTodoItems)
		rr.Get("/api/activity/tag/list", s.handleActivityTags)
		rr.Get("/api/activity/block/listByDate", s.handleActivityBlocks)
		rr.Get("/api/user/list", s.handleUsers)
		rr.Get("/api/role/list", s.handleRoles)
		rr.Get("/api/permission/list", s.handlePermissions)
		rr.Get("/api/user/roles-by-user/{userID}", s.handleRoleCodesByUser)
		rr.Get("/api/role/permissions-by-role/{roleID}", s.handlePermissionCodesByRole)
		rr.Post("/api/match-game/page", s.handleGamePage)
		rr.Get("/api/match-game/detail/{id}", s.handleGameDetail)
		rr.Post("/api/match-game/stats", s.handleGameStats)
		rr.Get("/api/match-game/base-data", s.handleGameBaseData)
	})

	r.Group(func(wr chi.Router) {
		wr.Use(s.requireAuth)

		wr.With(s.requirePermission("PERM_NOTICE_CREATE")).Post("/api/notice/create", s.handleCreateNotice)
		wr.With(s.requirePermission("PERM_NOTICE_CREATE")).Delete("/api/notice/{id}", s.handleDeleteNotice)

		wr.Group(func(tr chi.Router) {
			tr.Use(s.requirePermission("PERM_TODO"))
			tr.Post("/api/todo/tag/create", s.handleCreateTodoTag)
			tr.Delete("/api/todo/tag/{id}", s.handleDeleteTodoTag)
			tr.Post("/api/todo/item/create", s.handleCreateTodoItem)
			tr.Post("/api/todo/item/update", s.handleUpdateTodoItem)
			tr.Delete("/api/todo/item/{id}", s.handleDeleteTodoItem)
		})

		wr.Group(func(ar chi.Router) {
			ar.Use(s.requirePermission("PERM_ACTIVITY"))
			ar.Post("/api/activity/tag/create", s.handleSaveActivityTag)
			ar.Post("/api/activity/tag/update", s.handleSaveActivityTag)
			ar.Post("/api/activity/tag/delete", s.handleDeleteActivityTag)
			ar.Post("/api/activity/block/createOrUpdate", s.handleSaveActivityBlock)
			ar.Post("/api/activity/block/delete", s.handleDeleteActivityBlock)
		})

		wr.Group(func(mr chi.Router) {
			mr.Use(s.requirePermission("PERM_USER_PERMISSION_MGMT"))
			mr.Post("/api/user/assign-role", s.handleAssignUserRoles)
			mr.Post("/api/role/assign-permission", s.handleAssignRolePermissions)
			mr.Post("/api/role/create", s.handleSaveRole)
			mr.Post("/api/role/update", s.handleSaveRole)
			mr.Post("/api/permission/create", s.handleSavePermission)
			mr.Post("/api/permission/update", s.handleSavePermission)
		})

		wr.Post("/api/match-game/create", s.handleSaveGame)
		wr.Put("/api/match-game/update", s.handleSaveGame)
		wr.Delete("/api/match-game/delete/{id}", s.handleDeleteGame)
	})

	return r
}

// Hits returns how many requests reached method and path.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// TotalHits returns the number of requests served.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.hits {
		n += v
	}
	return n
}

// SetLatency delays every response by d.
func (s *Server) SetLatency(d time.Duration) {
	s.mu.Lock()
	s.latency = d
	s.mu.Unlock()
}

// SetAnonymousPermissions replaces the capability set granted without login.
func (s *Server) SetAnonymousPermissions(codes ...string) {
	s.store.mu.Lock()
	s.store.anonymousPerms = append([]string{}, codes...)
	s.store.mu.Unlock()
}

// AdminToken issues a valid token for the seeded admin account.
func (s *Server) AdminToken() (string, error) {
	s.store.mu.Lock()
	id := s.store.users[0].ID
	s.store.mu.Unlock()
	return s.tokens.issue(id, s.cfg.AdminUsername)
}

// --- middleware ---

type ctxKey struct{}

func userIDFromCtx(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		latency := s.latency
		s.mu.Unlock()

		if latency > 0 {
			select {
			case <-time.After(latency):
			case <-r.Context().Done():
				return
			}
		}

		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("http.request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := s.tokens.parse(token)
		if err != nil {
			s.fail(w, http.StatusUnauthorized, "token invalid or expired")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			s.fail(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		id, err := s.tokens.parse(token)
		if err != nil {
			s.fail(w, http.StatusUnauthorized, "token invalid or expired")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) requirePermission(code string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := userIDFromCtx(r.Context())
			info, ok := s.store.userInfo(id)
			if !ok {
				s.fail(w, http.StatusUnauthorized, "unknown user")
				return
			}
			for _, c := range info.PermissionCodes {
				if c == code {
					next.ServeHTTP(w, r)
					return
				}
			}
			s.fail(w, http.StatusForbidden, "permission denied: "+code)
		})
	}
}

// --- envelope ---

type envelope struct {
	Success    bool   `json:"success"`
	StatusCode string `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message,omitempty"`
	TraceID    string `json:"traceId"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) ok(w http.ResponseWriter, data any) {
	s.writeJSON(w, http.StatusOK, envelope{Success: true, StatusCode: "200", Data: data, TraceID: uuid.NewString()})
}

// fail writes a failed envelope. status 200 reports a business failure.
func (s *Server) fail(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, envelope{
		Success:    false,
		StatusCode: strconv.Itoa(status),
		Message:    msg,
		TraceID:    uuid.NewString(),
	})
}

// storeError maps store errors onto business failures.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNotFound):
		s.fail(w, http.StatusOK, "record not found")
	case errors.Is(err, errDuplicate):
		s.fail(w, http.StatusOK, "record already exists")
	default:
		s.log.Error("store failure", slog.String("error", err.Error()))
		s.fail(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}
