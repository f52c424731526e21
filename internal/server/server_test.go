package server

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-housematch/internal/config"
	"github.com/npezzotti/go-housematch/internal/database"
	"github.com/npezzotti/go-housematch/internal/match"
	"github.com/npezzotti/go-housematch/internal/stats"
	"github.com/npezzotti/go-housematch/internal/testutil"
	"github.com/npezzotti/go-housematch/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSwipeServer(t *testing.T, repo database.HouseMatchRepository, sp stats.StatsProvider) *SwipeServer {
	logger := testutil.TestLogger(t)
	ms := match.NewService(logger, repo, nil, time.Second)
	ss := NewSwipeServer(logger, ms, sp, config.SwipeConfig{})
	ms.SetNotifier(ss)
	return ss
}

func TestSwipeServer_registry(t *testing.T) {
	sp := &stats.MockStatsUpdater{}
	sp.ExpectDecks(2, 2)

	ss := newTestSwipeServer(t, &database.MockHouseMatchRepository{}, sp)
	go ss.Run()

	first := NewClient(seeker, nil, ss, ss.log)
	second := NewClient(seeker, nil, ss, ss.log)

	require.True(t, ss.RegisterClient(first))
	require.True(t, ss.RegisterClient(second))
	assert.Eventually(t, func() bool { return len(ss.userClients(seeker.Id)) == 2 }, time.Second, 10*time.Millisecond,
		"expected both decks of the user to be tracked")

	ss.deRegisterClient(first)
	assert.True(t, ss.Connected(seeker.Id))

	ss.deRegisterClient(second)
	// removing an unknown client is a no-op
	ss.deRegisterClient(second)

	require.NoError(t, ss.Shutdown(context.Background()))
	assert.False(t, ss.Connected(seeker.Id))
	assert.Empty(t, ss.clients)
	sp.AssertExpectations(t)
}

func TestSwipeServer_notifyRoutesToUser(t *testing.T) {
	sp := &stats.MockStatsUpdater{}
	sp.On("Incr", stats.ActiveDecks)

	ss := newTestSwipeServer(t, &database.MockHouseMatchRepository{}, sp)
	go ss.Run()
	defer ss.Shutdown(context.Background())

	owner := NewClient(types.User{Id: 2, Username: "owner"}, nil, ss, ss.log)
	other := NewClient(seeker, nil, ss, ss.log)
	require.True(t, ss.RegisterClient(owner))
	require.True(t, ss.RegisterClient(other))

	m := types.Match{Id: uuid.New(), ListingId: 10, SeekerId: seeker.Id, OwnerId: 2}
	ss.NotifyMatch(2, m)

	var msg *ServerMessage
	require.Eventually(t, func() bool {
		select {
		case msg = <-owner.send:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	require.NotNil(t, msg.Notification)
	assert.Equal(t, &m, msg.Notification.Match)
	assert.Empty(t, other.send, "expected other users not to be notified")
}

func TestSwipeServer_notifyAfterShutdown(t *testing.T) {
	ss := newTestSwipeServer(t, &database.MockHouseMatchRepository{}, &stats.MockStatsUpdater{})
	go ss.Run()
	require.NoError(t, ss.Shutdown(context.Background()))

	assert.NotPanics(t, func() {
		ss.NotifyMessage(1, types.Message{Body: "hi"})
	})
	assert.False(t, ss.RegisterClient(NewClient(seeker, nil, ss, ss.log)))
}

func TestSwipeServer_Shutdown(t *testing.T) {
	t.Run("stops clients", func(t *testing.T) {
		sp := &stats.MockStatsUpdater{}
		sp.ExpectDecks(1, 0)

		ss := newTestSwipeServer(t, &database.MockHouseMatchRepository{}, sp)
		go ss.Run()

		c := NewClient(seeker, nil, ss, ss.log)
		require.True(t, ss.RegisterClient(c))

		require.NoError(t, ss.Shutdown(context.Background()))

		select {
		case <-c.stop:
		default:
			t.Error("expected client to be stopped")
		}
		assert.NoError(t, ss.Shutdown(context.Background()), "expected repeated shutdown to succeed")
	})

	t.Run("context expires", func(t *testing.T) {
		ss := newTestSwipeServer(t, &database.MockHouseMatchRepository{}, &stats.MockStatsUpdater{})

		// run loop never started
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		assert.ErrorIs(t, ss.Shutdown(ctx), context.DeadlineExceeded)
	})
}

func TestSwipeServer_Shutdown_waitsForSwipes(t *testing.T) {
	ss := newTestSwipeServer(t, &database.MockHouseMatchRepository{}, &stats.MockStatsUpdater{})
	go ss.Run()

	release := make(chan struct{})
	finished := make(chan struct{})
	require.True(t, ss.goBackground(func() {
		<-release
		close(finished)
	}))

	errCh := make(chan error, 1)
	go func() { errCh <- ss.Shutdown(context.Background()) }()

	select {
	case <-errCh:
		t.Fatal("expected Shutdown to wait for the swipe write")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-errCh)
	select {
	case <-finished:
	default:
		t.Error("expected the swipe write to have finished")
	}

	assert.False(t, ss.goBackground(func() { t.Error("expected no work to start after shutdown") }))
}

type wsResponse struct {
	Id       int `json:"id"`
	Response *struct {
		ResponseCode int    `json:"response_code"`
		Error        string `json:"error"`
		Data         *Card  `json:"data"`
	} `json:"response"`
	Swipe        *SwipeEvent   `json:"swipe"`
	Notification *Notification `json:"notification"`
}

func TestDeckSession(t *testing.T) {
	repo := &database.MockHouseMatchRepository{}
	repo.On("GetAccountById", seeker.Id).Return(database.User{Id: seeker.Id, School: seeker.School}, nil)
	repo.On("GetPreferences", seeker.Id).Return(database.Preferences{UserId: seeker.Id, MaxRent: 1000}, nil)
	repo.On("FetchCandidates", database.CandidateFilter{SeekerId: seeker.Id, School: seeker.School, MaxRent: 1000}).
		Return(listings, nil)

	recorded := make(chan struct{})
	repo.On("IncrementListingCounters", 10, []database.CounterField{database.CounterSwipes}).
		Return(nil).
		Run(func(mock.Arguments) { close(recorded) }).
		Once()

	sp := &stats.MockStatsUpdater{}
	sp.On("Incr", stats.ActiveDecks).Once()
	sp.On("Decr", stats.ActiveDecks).Maybe()

	ss := newTestSwipeServer(t, repo, sp)
	go ss.Run()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		c := NewClient(seeker, conn, ss, ss.log)
		if !ss.RegisterClient(c) {
			conn.Close()
			return
		}
		go c.Write()
		go c.Read()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() wsResponse {
		t.Helper()
		var res wsResponse
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		require.NoError(t, conn.ReadJSON(&res))
		return res
	}
	send := func(raw string) {
		t.Helper()
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
	}

	res := read()
	require.NotNil(t, res.Response)
	require.NotNil(t, res.Response.Data)
	assert.Equal(t, 2, res.Response.Data.Size)
	assert.Equal(t, 10, res.Response.Data.Current.Id)

	send(`{"id":1,"drag_start":{}}`)
	res = read()
	assert.Equal(t, 1, res.Id)
	assert.Equal(t, "dragging", res.Response.Data.State)

	send(`{"id":2,"drag":{"dx":-150}}`)
	res = read()
	assert.Equal(t, -150.0, res.Response.Data.Offset)
	assert.Positive(t, res.Response.Data.PassOpacity)

	send(`{"id":3,"drag_end":{"velocity_x":-1200}}`)
	res = read()
	assert.Equal(t, "animating-out", res.Response.Data.State)

	send(`{"id":4,"animation_done":{}}`)
	res = read()
	require.NotNil(t, res.Swipe)
	assert.Equal(t, SwipeEvent{ListingId: 10, Direction: "left"}, *res.Swipe)
	res = read()
	assert.Equal(t, 4, res.Id)
	assert.Equal(t, 1, res.Response.Data.Index)
	assert.Equal(t, 11, res.Response.Data.Current.Id)

	select {
	case <-recorded:
	case <-time.After(2 * time.Second):
		t.Fatal("expected swipe to be recorded")
	}

	send(`not json`)
	res = read()
	assert.Equal(t, http.StatusBadRequest, res.Response.ResponseCode)

	m := types.Match{Id: uuid.New(), ListingId: 10, SeekerId: 7, OwnerId: seeker.Id}
	ss.NotifyMatch(seeker.Id, m)
	res = read()
	require.NotNil(t, res.Notification)
	assert.Equal(t, m.Id, res.Notification.Match.Id)

	require.NoError(t, ss.Shutdown(context.Background()))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "expected close frame on shutdown, got %v", err)

	repo.AssertExpectations(t)
}

func TestDeckSession_candidatesUnavailable(t *testing.T) {
	repo := &database.MockHouseMatchRepository{}
	repo.On("GetAccountById", seeker.Id).Return(database.User{}, sql.ErrConnDone)

	sp := &stats.MockStatsUpdater{}
	sp.On("Incr", stats.ActiveDecks).Once()
	sp.On("Decr", stats.ActiveDecks).Maybe()

	ss := newTestSwipeServer(t, repo, sp)
	go ss.Run()
	defer ss.Shutdown(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(seeker, conn, ss, ss.log)
		ss.RegisterClient(c)
		go c.Write()
		go c.Read()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var res wsResponse
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&res))
	assert.Equal(t, http.StatusServiceUnavailable, res.Response.ResponseCode)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"id":1,"drag_start":{}}`)))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&res))
	assert.Equal(t, http.StatusNotFound, res.Response.ResponseCode, "expected empty deck")
}
