package stats

import (
	"encoding/json"
	"expvar"
	"net/http"
	"sync"
	"time"
)

const (
	ActiveDecks    = "ActiveDecks"
	Swipes         = "Swipes"
	Likes          = "Likes"
	MatchesCreated = "MatchesCreated"
	MessagesSent   = "MessagesSent"
	FirstMessages  = "FirstMessages"
)

var metricNames = []string{
	ActiveDecks,
	Swipes,
	Likes,
	MatchesCreated,
	MessagesSent,
	FirstMessages,
}

type StatsProvider interface {
	Incr(name string)
	Decr(name string)
}

type StatsUpdater struct {
	vars       *expvar.Map
	updateChan chan *metricsUpdateReq
	done       chan struct{}
	mu         sync.RWMutex
	stopped    bool
}

type metricsUpdateReq struct {
	name  string
	value int
}

func (su *StatsUpdater) expvarHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	expvarData := make(map[string]any)
	su.vars.Do(func(kv expvar.KeyValue) {
		var value any
		json.Unmarshal([]byte(kv.Value.String()), &value)
		expvarData[kv.Key] = value
	})

	json.NewEncoder(w).Encode(expvarData)
}

// NewStatsUpdater creates the housematch counters and serves them on
// GET /debug/vars of mux.
func NewStatsUpdater(mux *http.ServeMux) *StatsUpdater {
	su := &StatsUpdater{
		vars:       new(expvar.Map).Init(),
		updateChan: make(chan *metricsUpdateReq, 512),
		done:       make(chan struct{}),
	}
	mux.Handle("GET /debug/vars", http.HandlerFunc(su.expvarHandler))
	su.initializeMetrics()

	return su
}

// Publish exposes the counters through the process-wide expvar registry.
// expvar panics on duplicate names, so it is called once per process.
func (su *StatsUpdater) Publish(name string) {
	expvar.Publish(name, su.vars)
}

func (su *StatsUpdater) initializeMetrics() {
	startTime := time.Now()
	su.vars.Set("Uptime", expvar.Func(func() any {
		return time.Since(startTime).Milliseconds()
	}))

	for _, name := range metricNames {
		su.vars.Set(name, new(expvar.Int))
	}
}

func (su *StatsUpdater) updateMetrics() {
	defer close(su.done)
	for req := range su.updateChan {
		metric, ok := su.vars.Get(req.name).(*expvar.Int)
		if !ok {
			continue
		}

		metric.Add(int64(req.value))
	}
}

func (su *StatsUpdater) Value(name string) int64 {
	if metric, ok := su.vars.Get(name).(*expvar.Int); ok {
		return metric.Value()
	}
	return 0
}

func (su *StatsUpdater) Incr(name string) {
	su.update(name, 1)
}

func (su *StatsUpdater) Decr(name string) {
	su.update(name, -1)
}

// update is a no-op once the updater is stopped.
func (su *StatsUpdater) update(name string, value int) {
	su.mu.RLock()
	defer su.mu.RUnlock()

	if su.stopped {
		return
	}
	su.updateChan <- &metricsUpdateReq{name: name, value: value}
}

func (su *StatsUpdater) Run() {
	go su.updateMetrics()
}

// Stop drains pending updates. Later calls to Incr or Decr are dropped.
func (su *StatsUpdater) Stop() {
	su.mu.Lock()
	if su.stopped {
		su.mu.Unlock()
		return
	}
	su.stopped = true
	close(su.updateChan)
	su.mu.Unlock()

	<-su.done
}
