package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-housematch/internal/database"
	"github.com/npezzotti/go-housematch/internal/server"
	"github.com/npezzotti/go-housematch/internal/types"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	School   string `json:"school" validate:"max=128"`
}

type UpdateAccountRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	School   string `json:"school" validate:"max=128"`
}

func userView(u database.User) types.User {
	return types.User{
		Id:           u.Id,
		Username:     u.Username,
		EmailAddress: u.EmailAddress,
		School:       u.School,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (s *HouseMatchApp) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		s.log.Printf("health check: %v", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *HouseMatchApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := s.decodeRequest(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	newUser, err := s.db.CreateAccount(ctx, database.CreateAccountParams{
		Username:     req.Username,
		EmailAddress: req.Email,
		PasswordHash: pwdHash,
		School:       req.School,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, userView(newUser))
}

func (s *HouseMatchApp) account(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		user, err := s.db.GetAccountById(ctx, userId)
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.writeJson(w, http.StatusOK, userView(user))
	case http.MethodPut:
		curUser, err := s.db.GetAccountById(ctx, userId)
		if err != nil {
			s.writeError(w, err)
			return
		}

		var req UpdateAccountRequest
		if err := s.decodeRequest(r, &req); err != nil {
			s.writeError(w, err)
			return
		}

		pwdHash, err := hashPassword(req.Password)
		if err != nil {
			s.writeError(w, err)
			return
		}

		dbUser, err := s.db.UpdateAccount(ctx, database.UpdateAccountParams{
			UserId:       curUser.Id,
			Username:     req.Username,
			PasswordHash: pwdHash,
			School:       req.School,
		})
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.writeJson(w, http.StatusOK, userView(dbUser))
	case http.MethodDelete:
		// listings, matches and messages of the account are removed with it
		if err := s.db.DeleteAccount(ctx, userId); err != nil {
			s.writeError(w, err)
			return
		}

		http.SetCookie(w, createJwtCookie("", -time.Hour))
		s.writeJson(w, http.StatusNoContent, nil)
	default:
		errResp := NewMethodNotAllowedError()
		s.writeJson(w, errResp.StatusCode, errResp)
	}
}

func (s *HouseMatchApp) session(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	user, err := s.db.GetAccountById(ctx, userId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, userView(user))
}

func (s *HouseMatchApp) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := s.decodeRequest(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	dbUser, err := s.db.GetAccountByEmail(ctx, req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if !verifyPassword(dbUser.PasswordHash, req.Password) {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	u := userView(dbUser)
	token, err := s.createJwtForSession(u, defaultJwtExpiration)
	if err != nil {
		s.writeError(w, err)
		return
	}

	http.SetCookie(w, createJwtCookie(token, defaultJwtExpiration))
	s.writeJson(w, http.StatusOK, u)
}

func (s *HouseMatchApp) logout(w http.ResponseWriter, _ *http.Request) {
	// overwrite the cookie with an expired one so the browser drops it
	http.SetCookie(w, createJwtCookie("", -time.Hour))
	w.WriteHeader(http.StatusNoContent)
}

func (s *HouseMatchApp) serveWs(w http.ResponseWriter, r *http.Request) {
	id, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	ctx, cancel := s.requestContext(r)
	user, err := s.db.GetAccountById(ctx, id)
	cancel()
	if err != nil {
		s.writeError(w, err)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(userView(user), conn, s.ss, s.log)
	if !s.ss.RegisterClient(client) {
		s.log.Println("deck server is shutting down, closing connection")
		conn.Close()
		return
	}

	go client.Write()
	go client.Read()
}
