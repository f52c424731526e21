package server

import (
	"net/http"
	"time"

	"github.com/npezzotti/go-housematch/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ClientMessage struct {
	BaseMessage
	DragStart     *DragStart     `json:"drag_start,omitempty"`
	Drag          *Drag          `json:"drag,omitempty"`
	DragEnd       *DragEnd       `json:"drag_end,omitempty"`
	AnimationDone *AnimationDone `json:"animation_done,omitempty"`
	Reload        *Reload        `json:"reload,omitempty"`
}

type DragStart struct{}

// Drag carries the horizontal translation accumulated since drag_start.
type Drag struct {
	Dx float64 `json:"dx"`
}

type DragEnd struct {
	VelocityX float64 `json:"velocity_x"`
}

type AnimationDone struct{}

type Reload struct{}

type ServerMessage struct {
	BaseMessage
	Response     *Response     `json:"response,omitempty"`
	Card         *Card         `json:"card,omitempty"`
	Swipe        *SwipeEvent   `json:"swipe,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
	Data         any    `json:"data,omitempty"`
}

// Card is the render state of the top of the stack.
type Card struct {
	Index       int            `json:"index"`
	State       string         `json:"state"`
	Size        int            `json:"size"`
	Offset      float64        `json:"offset"`
	Rotation    float64        `json:"rotation"`
	LikeOpacity float64        `json:"like_opacity"`
	PassOpacity float64        `json:"pass_opacity"`
	NextScale   float64        `json:"next_scale"`
	NextOpacity float64        `json:"next_opacity"`
	Current     *types.Listing `json:"current,omitempty"`
	Next        *types.Listing `json:"next,omitempty"`
}

type SwipeEvent struct {
	ListingId int    `json:"listing_id"`
	Direction string `json:"direction"`
}

type Notification struct {
	Match   *types.Match   `json:"match,omitempty"`
	Message *types.Message `json:"message,omitempty"`
}

func NoErrOK(id int, data any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func errResponse(id, code int, text string) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: code,
			Error:        text,
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func ErrDeckEmpty(id int) *ServerMessage {
	return errResponse(id, http.StatusNotFound, "no listings to swipe")
}

func ErrInvalidState(id int) *ServerMessage {
	return errResponse(id, http.StatusConflict, "gesture not allowed in current state")
}

func ErrInternalError(id int) *ServerMessage {
	return errResponse(id, http.StatusInternalServerError, "internal server error")
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return errResponse(id, http.StatusServiceUnavailable, "service unavailable")
}

func ErrInvalidMessage(id int) *ServerMessage {
	return errResponse(id, http.StatusBadRequest, "invalid message format")
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
