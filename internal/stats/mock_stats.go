package stats

import "github.com/stretchr/testify/mock"

var _ StatsProvider = (*MockStatsUpdater)(nil)

// MockStatsUpdater records counter updates for tests.
type MockStatsUpdater struct {
	mock.Mock
}

func (m *MockStatsUpdater) Incr(name string) {
	m.Called(name)
}

func (m *MockStatsUpdater) Decr(name string) {
	m.Called(name)
}

// ExpectDecks expects opened increments and closed decrements of
// ActiveDecks.
func (m *MockStatsUpdater) ExpectDecks(opened, closed int) {
	if opened > 0 {
		m.On("Incr", ActiveDecks).Times(opened)
	}
	if closed > 0 {
		m.On("Decr", ActiveDecks).Times(closed)
	}
}
