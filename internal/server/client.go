package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-housematch/internal/database"
	"github.com/npezzotti/go-housematch/internal/match"
	"github.com/npezzotti/go-housematch/internal/swipe"
	"github.com/npezzotti/go-housematch/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is one open deck. Gestures are handled on the read goroutine, which
// is the only goroutine touching the deck.
type Client struct {
	conn     *websocket.Conn
	server   *SwipeServer
	log      *log.Logger
	user     types.User
	session  match.Session
	send     chan *ServerMessage
	deck     *swipe.Controller[database.Listing]
	ctx      context.Context
	cancel   context.CancelFunc
	pending  sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

func NewClient(user types.User, conn *websocket.Conn, ss *SwipeServer, l *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:    conn,
		server:  ss,
		log:     l,
		user:    user,
		session: match.Session{UserId: user.Id},
		send:    make(chan *ServerMessage, 256),
		ctx:     ctx,
		cancel:  cancel,
		stop:    make(chan struct{}),
	}

	c.deck = swipe.NewController(nil, swipe.Options[database.Listing]{
		VelocityThreshold: ss.swipeCfg.VelocityThreshold,
		MaxRotation:       ss.swipeCfg.MaxRotation,
		ScreenWidth:       ss.swipeCfg.ScreenWidth,
		OnSwipeRight:      func(l database.Listing) { c.recordSwipe(l, swipe.Right) },
		OnSwipeLeft:       func(l database.Listing) { c.recordSwipe(l, swipe.Left) },
	})

	return c
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Println("write exiting")
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := serializeMessage(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			c.sendMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Println("read exiting")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	c.loadDeck(0)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}
		msg.Timestamp = Now()

		c.handleMessage(&msg)
	}
}

func (c *Client) handleMessage(msg *ClientMessage) {
	switch {
	case msg.DragStart != nil:
		c.reply(msg.Id, c.deck.BeginDrag())
	case msg.Drag != nil:
		c.reply(msg.Id, c.deck.UpdateDrag(msg.Drag.Dx))
	case msg.DragEnd != nil:
		_, err := c.deck.EndDrag(msg.DragEnd.VelocityX)
		c.reply(msg.Id, err)
	case msg.AnimationDone != nil:
		swiped, err := c.deck.CompleteAnimation()
		if err != nil {
			c.reply(msg.Id, err)
			return
		}
		c.queueMessage(&ServerMessage{
			BaseMessage: BaseMessage{Timestamp: Now()},
			Swipe: &SwipeEvent{
				ListingId: swiped.Item.Id,
				Direction: swiped.Direction.String(),
			},
		})
		c.reply(msg.Id, nil)
	case msg.Reload != nil:
		c.loadDeck(msg.Id)
	default:
		c.queueMessage(ErrInvalidMessage(msg.Id))
	}
}

// loadDeck fetches the candidate queue and resets the deck to its first
// card. A failed fetch leaves an empty deck.
func (c *Client) loadDeck(id int) {
	listings, err := c.server.matches.Candidates(c.ctx, c.session)
	if err != nil {
		c.log.Printf("load candidates for user %d: %v", c.user.Id, err)
		c.deck.Reset(nil)
		c.queueMessage(ErrServiceUnavailable(id))
		return
	}

	c.deck.Reset(listings)
	c.reply(id, nil)
}

func (c *Client) reply(id int, err error) {
	switch {
	case err == nil:
		c.queueMessage(NoErrOK(id, c.card()))
	case errors.Is(err, swipe.ErrEmptyQueue):
		c.queueMessage(ErrDeckEmpty(id))
	case errors.Is(err, swipe.ErrInvalidTransition):
		c.queueMessage(ErrInvalidState(id))
	default:
		c.log.Printf("gesture failed: %v", err)
		c.queueMessage(ErrInternalError(id))
	}
}

func (c *Client) card() *Card {
	card := &Card{
		Index:       c.deck.Index(),
		State:       c.deck.State().String(),
		Size:        c.deck.Len(),
		Offset:      c.deck.Offset(),
		Rotation:    c.deck.Rotation(),
		LikeOpacity: c.deck.LikeOpacity(),
		PassOpacity: c.deck.PassOpacity(),
		NextScale:   c.deck.NextScale(),
		NextOpacity: c.deck.NextOpacity(),
	}

	if cur, ok := c.deck.Current(); ok {
		view := match.ListingView(cur)
		card.Current = &view
	}
	if next, ok := c.deck.Next(); ok {
		view := match.ListingView(next)
		card.Next = &view
	}

	return card
}

// recordSwipe persists the swipe without holding up the deck. Failures are
// logged; the next card is already on screen. The write is detached from the
// connection so a swipe made just before disconnecting is still counted.
func (c *Client) recordSwipe(listing database.Listing, dir swipe.Direction) {
	ctx := context.WithoutCancel(c.ctx)

	c.pending.Add(1)
	started := c.server.goBackground(func() {
		defer c.pending.Done()

		if err := c.server.matches.RecordSwipe(ctx, c.session, listing, dir); err != nil {
			c.log.Printf("record %s swipe by user %d on listing %d: %v", dir, c.user.Id, listing.Id, err)
		}
	})
	if !started {
		c.pending.Done()
		c.log.Printf("deck server is shutting down, dropping %s swipe by user %d on listing %d", dir, c.user.Id, listing.Id)
	}
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Println("failed to send message to client, channel is full")
		return false
	}

	return true
}

func serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// cleanup runs when the connection is gone. Pending candidate loads are
// cancelled; swipes already committed run to completion.
func (c *Client) cleanup() {
	c.server.deRegisterClient(c)
	c.stopClient()
	c.cancel()
	c.pending.Wait()
}
