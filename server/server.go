// Package server exposes the HTTP API: account signup/login, session
// introspection and the document summarization endpoint.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/studypipe/accounts"
	"github.com/hazyhaar/studypipe/auth"
	"github.com/hazyhaar/studypipe/shield"
	"github.com/hazyhaar/studypipe/summarizer"
)

// MaxUploadBytes caps the multipart request body on /api/summarize.
const MaxUploadBytes = 25 << 20

// TokenTTL is the lifetime of issued session tokens.
const TokenTTL = 24 * time.Hour

// Server holds the route dependencies.
type Server struct {
	store     *accounts.Store
	sum       *summarizer.Service
	jwtSecret []byte
	logger    *slog.Logger
	limiter   *shield.RateLimiter
}

// New builds a Server. The logger defaults to slog.Default().
func New(store *accounts.Store, sum *summarizer.Service, jwtSecret []byte, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:     store,
		sum:       sum,
		jwtSecret: jwtSecret,
		logger:    logger,
		limiter: shield.NewRateLimiter(map[string]shield.Rule{
			"POST /api/login":  {MaxRequests: 20, WindowSeconds: 60},
			"POST /api/signup": {MaxRequests: 10, WindowSeconds: 60},
		}),
	}
}

// Start launches background maintenance (rate-limit bucket GC) until done
// is closed. Call once alongside the HTTP listener.
func (s *Server) Start(done <-chan struct{}) {
	s.limiter.Start(done)
}

// Router assembles the chi router. auth.Middleware runs on all routes and
// parses tokens softly; only /api/me enforces a session.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
	r.Use(s.limiter.Middleware)
	r.Use(auth.Middleware(s.jwtSecret))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/signup", s.handleSignup)
	r.Post("/api/login", s.handleLogin)
	r.Post("/api/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/api/me", s.handleMe)
	})

	// Summarization is open: the frontend calls it before any account
	// exists.
	r.Post("/api/summarize", s.handleSummarize)

	return r
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req accounts.Signup
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	user, err := s.store.Create(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrUsernameTaken),
			errors.Is(err, accounts.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err)
		default:
			s.logger.Error("signup failed", "error", err, "username", req.Username)
			writeError(w, http.StatusInternalServerError, errors.New("signup failed"))
		}
		return
	}
	s.logger.Info("account created", "username", user.Username, "id", user.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User created successfully", "user": user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	user, err := s.store.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrBadCredentials) {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		s.logger.Error("login failed", "error", err, "username", req.Username)
		writeError(w, http.StatusInternalServerError, errors.New("login failed"))
		return
	}

	claims := &auth.Claims{
		UserID:   strconv.FormatInt(user.ID, 10),
		Username: user.Username,
	}
	token, err := auth.GenerateToken(s.jwtSecret, claims, TokenTTL)
	if err != nil {
		s.logger.Error("token generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("login failed"))
		return
	}

	secure := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
	auth.SetTokenCookie(w, token, secure)
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	auth.ClearTokenCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	c := auth.GetClaims(r.Context())
	user, err := s.store.FindByUsername(r.Context(), c.Username)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, errors.New("account no longer exists"))
			return
		}
		s.logger.Error("me lookup failed", "error", err, "username", c.Username)
		writeError(w, http.StatusInternalServerError, errors.New("lookup failed"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleSummarize accepts a multipart upload under the "file" field and
// always answers with the {success, data|error} envelope. Malformed
// requests get 400; processing outcomes (good or bad) get 200 so the
// frontend reads one shape.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge,
				summarizer.Result{Success: false, Error: "The uploaded file is too large."})
			return
		}
		writeJSON(w, http.StatusBadRequest,
			summarizer.Result{Success: false, Error: "A file upload is required under the \"file\" field."})
		return
	}
	defer file.Close()

	res := s.sum.Summarize(r.Context(), header.Filename, file)
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
