package api

import (
	"fmt"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// errorHandler turns a panic in a handler into a 500 and closes the
// connection.
func (s *HouseMatchApp) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			s.log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, err)

			errResp := NewInternalServerError(err)
			w.Header().Set("Connection", "close")
			s.writeJson(w, errResp.StatusCode, errResp)
		}()

		next.ServeHTTP(w, r)
	})
}

// sessionToken reads the JWT from the session cookie. Clients without a
// cookie jar may send the same token as a bearer Authorization header.
func sessionToken(r *http.Request) (string, bool) {
	if c, err := r.Cookie(tokenCookieKey); err == nil && c.Value != "" {
		return c.Value, true
	}

	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func (s *HouseMatchApp) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := sessionToken(r)
		if !ok {
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		userId, err := s.extractUserIdFromToken(token)
		if err != nil {
			s.log.Printf("rejecting session for %s %s: %v", r.Method, r.URL.Path, err)
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		// session responses carry account data
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")

		next(w, r.WithContext(WithUserId(r.Context(), userId)))
	}
}
