// Package server hosts the live deck sessions: one websocket connection per
// open deck, driving a swipe controller over the user's candidate queue.
package server

import (
	"context"
	"log"
	"sync"

	"github.com/npezzotti/go-housematch/internal/config"
	"github.com/npezzotti/go-housematch/internal/match"
	"github.com/npezzotti/go-housematch/internal/stats"
	"github.com/npezzotti/go-housematch/internal/types"
)

type notification struct {
	userId int
	msg    *ServerMessage
}

type SwipeServer struct {
	log            *log.Logger
	matches        *match.Service
	stats          stats.StatsProvider
	swipeCfg       config.SwipeConfig
	clients        map[*Client]struct{}
	userMap        map[int]map[*Client]struct{}
	clientsLock    sync.RWMutex
	registerChan   chan *Client
	deRegisterChan chan *Client
	notifyChan     chan *notification
	stop           chan struct{}
	stopOnce       sync.Once
	done           chan struct{}

	// background tracks swipe writes that outlive their connection
	background   sync.WaitGroup
	backgroundMu sync.Mutex
	draining     bool
}

func NewSwipeServer(logger *log.Logger, ms *match.Service, sp stats.StatsProvider, cfg config.SwipeConfig) *SwipeServer {
	return &SwipeServer{
		log:            logger,
		matches:        ms,
		stats:          sp,
		swipeCfg:       cfg,
		clients:        make(map[*Client]struct{}),
		userMap:        make(map[int]map[*Client]struct{}),
		registerChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		notifyChan:     make(chan *notification, 256),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

func (ss *SwipeServer) Run() {
	for {
		select {
		case client := <-ss.registerChan:
			ss.log.Printf("opening deck for %q", client.user.Username)
			ss.addClient(client)
			ss.stats.Incr(stats.ActiveDecks)
		case client := <-ss.deRegisterChan:
			if ss.removeClient(client) {
				ss.log.Printf("closing deck for %q", client.user.Username)
				ss.stats.Decr(stats.ActiveDecks)
			}
		case n := <-ss.notifyChan:
			for _, c := range ss.userClients(n.userId) {
				c.queueMessage(n.msg)
			}
		case <-ss.stop:
			ss.log.Println("closing open decks")
			ss.clientsLock.RLock()
			for c := range ss.clients {
				c.stopClient()
			}
			ss.clientsLock.RUnlock()

			close(ss.done)
			return
		}
	}
}

// RegisterClient hands a connected client to the run loop. It reports false
// once the server is shutting down.
func (ss *SwipeServer) RegisterClient(c *Client) bool {
	select {
	case ss.registerChan <- c:
		return true
	case <-ss.done:
		return false
	}
}

func (ss *SwipeServer) deRegisterClient(c *Client) {
	select {
	case ss.deRegisterChan <- c:
	case <-ss.done:
	}
}

func (ss *SwipeServer) addClient(c *Client) {
	ss.clientsLock.Lock()
	defer ss.clientsLock.Unlock()

	ss.clients[c] = struct{}{}
	if _, ok := ss.userMap[c.user.Id]; !ok {
		ss.userMap[c.user.Id] = make(map[*Client]struct{})
	}
	ss.userMap[c.user.Id][c] = struct{}{}
}

func (ss *SwipeServer) removeClient(c *Client) bool {
	ss.clientsLock.Lock()
	defer ss.clientsLock.Unlock()

	if _, ok := ss.clients[c]; !ok {
		return false
	}

	delete(ss.clients, c)
	if conns, ok := ss.userMap[c.user.Id]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(ss.userMap, c.user.Id)
		}
	}

	return true
}

func (ss *SwipeServer) userClients(userId int) []*Client {
	ss.clientsLock.RLock()
	defer ss.clientsLock.RUnlock()

	res := make([]*Client, 0, len(ss.userMap[userId]))
	for c := range ss.userMap[userId] {
		res = append(res, c)
	}
	return res
}

// Connected reports whether the user has at least one open deck.
func (ss *SwipeServer) Connected(userId int) bool {
	ss.clientsLock.RLock()
	defer ss.clientsLock.RUnlock()

	return len(ss.userMap[userId]) > 0
}

func (ss *SwipeServer) notify(userId int, msg *ServerMessage) {
	select {
	case ss.notifyChan <- &notification{userId: userId, msg: msg}:
	case <-ss.done:
	default:
		ss.log.Printf("notify channel full, dropping notification for user %d", userId)
	}
}

func (ss *SwipeServer) NotifyMatch(userId int, m types.Match) {
	ss.notify(userId, &ServerMessage{
		BaseMessage:  BaseMessage{Timestamp: Now()},
		Notification: &Notification{Match: &m},
	})
}

func (ss *SwipeServer) NotifyMessage(userId int, msg types.Message) {
	ss.notify(userId, &ServerMessage{
		BaseMessage:  BaseMessage{Timestamp: Now()},
		Notification: &Notification{Message: &msg},
	})
}

// goBackground runs fn on its own goroutine and tracks it until Shutdown
// has drained. It reports false, without running fn, once draining started.
func (ss *SwipeServer) goBackground(fn func()) bool {
	ss.backgroundMu.Lock()
	defer ss.backgroundMu.Unlock()

	if ss.draining {
		return false
	}

	ss.background.Add(1)
	go func() {
		defer ss.background.Done()
		fn()
	}()

	return true
}

// Shutdown stops every open deck, waits for the run loop to exit and then
// for background swipe writes to finish.
func (ss *SwipeServer) Shutdown(ctx context.Context) error {
	ss.log.Println("received shutdown signal")
	ss.stopOnce.Do(func() { close(ss.stop) })

	select {
	case <-ss.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	ss.backgroundMu.Lock()
	ss.draining = true
	ss.backgroundMu.Unlock()

	drained := make(chan struct{})
	go func() {
		ss.background.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
