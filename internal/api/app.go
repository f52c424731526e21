// Package api exposes the HTTP surface of the service: accounts, listings,
// swipes, matches and messages, plus the websocket endpoint for decks.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/npezzotti/go-housematch/internal/config"
	"github.com/npezzotti/go-housematch/internal/database"
	"github.com/npezzotti/go-housematch/internal/match"
	"github.com/npezzotti/go-housematch/internal/server"
)

const defaultRequestTimeout = 10 * time.Second

type HouseMatchApp struct {
	log            *log.Logger
	db             database.HouseMatchRepository
	matches        *match.Service
	ss             *server.SwipeServer
	srv            *http.Server
	validate       *validator.Validate
	signingKey     []byte
	allowedOrigins []string
	timeout        time.Duration
}

func NewHouseMatchApp(mux *http.ServeMux, logger *log.Logger, ss *server.SwipeServer, db database.HouseMatchRepository, ms *match.Service, cfg *config.Config) *HouseMatchApp {
	s := &HouseMatchApp{
		log:            logger,
		db:             db,
		matches:        ms,
		ss:             ss,
		validate:       validator.New(),
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
		timeout:        cfg.RequestTimeout,
	}

	if s.timeout <= 0 {
		s.timeout = defaultRequestTimeout
	}

	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.HandleFunc("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.HandleFunc("/api/account", s.authMiddleware(s.account))
	mux.HandleFunc("/api/preferences", s.authMiddleware(s.preferences))
	mux.HandleFunc("GET /api/candidates", s.authMiddleware(s.candidates))
	mux.HandleFunc("POST /api/listings", s.authMiddleware(s.createListing))
	mux.HandleFunc("GET /api/listings", s.authMiddleware(s.getListing))
	mux.HandleFunc("PUT /api/listings", s.authMiddleware(s.updateListing))
	mux.HandleFunc("DELETE /api/listings", s.authMiddleware(s.deleteListing))
	mux.HandleFunc("POST /api/swipes", s.authMiddleware(s.recordSwipe))
	mux.HandleFunc("/api/favorites", s.authMiddleware(s.favorite))
	mux.HandleFunc("GET /api/matches", s.authMiddleware(s.getMatches))
	mux.HandleFunc("DELETE /api/matches", s.authMiddleware(s.unmatch))
	mux.HandleFunc("GET /api/messages", s.authMiddleware(s.getMessages))
	mux.HandleFunc("POST /api/messages", s.authMiddleware(s.sendMessage))
	mux.HandleFunc("GET /ws", s.authMiddleware(s.serveWs))
	mux.HandleFunc("GET /healthz", s.healthCheck)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	s.srv = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s
}

func (s *HouseMatchApp) Start() error {
	s.log.Printf("starting server on %s", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *HouseMatchApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

func (s *HouseMatchApp) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeout)
}

func (s *HouseMatchApp) writeJson(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *HouseMatchApp) writeError(w http.ResponseWriter, err error) {
	errResp := toApiError(err)
	if errResp.StatusCode >= http.StatusInternalServerError {
		s.log.Printf("request failed: %v", errResp)
	}
	s.writeJson(w, errResp.StatusCode, errResp)
}

// decodeRequest reads a JSON body into v and validates its struct tags.
func (s *HouseMatchApp) decodeRequest(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return NewBadRequestError()
	}

	if err := s.validate.Struct(v); err != nil {
		return err
	}

	return nil
}
