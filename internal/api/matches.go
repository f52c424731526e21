package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/npezzotti/go-housematch/internal/match"
	"github.com/npezzotti/go-housematch/internal/types"
)

type SendMessageRequest struct {
	MatchId uuid.UUID `json:"match_id"`
	Body    string    `json:"body" validate:"required,max=4096"`
}

func uuidParam(r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.URL.Query().Get(key))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func (s *HouseMatchApp) getMatches(w http.ResponseWriter, r *http.Request) {
	sess, ok := Session(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	convs, err := s.matches.Conversations(r.Context(), sess)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, convs)
}

func (s *HouseMatchApp) unmatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := Session(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	matchId, ok := uuidParam(r, "id")
	if !ok {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.matches.Unmatch(r.Context(), sess, matchId); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *HouseMatchApp) getMessages(w http.ResponseWriter, r *http.Request) {
	sess, ok := Session(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	matchId, ok := uuidParam(r, "match_id")
	if !ok {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messages, err := s.matches.Messages(r.Context(), sess, matchId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res := make([]types.Message, 0, len(messages))
	for _, msg := range messages {
		res = append(res, match.MessageView(msg))
	}

	s.writeJson(w, http.StatusOK, res)
}

func (s *HouseMatchApp) sendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := Session(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req SendMessageRequest
	if err := s.decodeRequest(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	if req.MatchId == uuid.Nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.matches.SendMessage(r.Context(), sess, req.MatchId, req.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, match.MessageView(msg))
}
