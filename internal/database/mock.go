package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockHouseMatchRepository struct {
	mock.Mock
}

func (m *MockHouseMatchRepository) Ping(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockHouseMatchRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockHouseMatchRepository) UpdateAccount(ctx context.Context, params UpdateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockHouseMatchRepository) GetAccountById(ctx context.Context, userId int) (User, error) {
	args := m.Called(userId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockHouseMatchRepository) GetAccountByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockHouseMatchRepository) DeleteAccount(ctx context.Context, userId int) error {
	args := m.Called(userId)
	return args.Error(0)
}
func (m *MockHouseMatchRepository) GetPreferences(ctx context.Context, userId int) (Preferences, error) {
	args := m.Called(userId)
	return args.Get(0).(Preferences), args.Error(1)
}
func (m *MockHouseMatchRepository) UpsertPreferences(ctx context.Context, prefs Preferences) (Preferences, error) {
	args := m.Called(prefs)
	return args.Get(0).(Preferences), args.Error(1)
}
func (m *MockHouseMatchRepository) CreateListing(ctx context.Context, params CreateListingParams) (Listing, error) {
	args := m.Called(params)
	return args.Get(0).(Listing), args.Error(1)
}
func (m *MockHouseMatchRepository) GetListingById(ctx context.Context, id int) (Listing, error) {
	args := m.Called(id)
	return args.Get(0).(Listing), args.Error(1)
}
func (m *MockHouseMatchRepository) GetListingByExternalId(ctx context.Context, externalId string) (Listing, error) {
	args := m.Called(externalId)
	return args.Get(0).(Listing), args.Error(1)
}
func (m *MockHouseMatchRepository) UpdateListing(ctx context.Context, params UpdateListingParams) (Listing, error) {
	args := m.Called(params)
	return args.Get(0).(Listing), args.Error(1)
}
func (m *MockHouseMatchRepository) DeleteListing(ctx context.Context, id int) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockHouseMatchRepository) FetchCandidates(ctx context.Context, filter CandidateFilter) ([]Listing, error) {
	args := m.Called(filter)
	if listings, ok := args.Get(0).([]Listing); ok {
		return listings, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockHouseMatchRepository) IncrementListingCounters(ctx context.Context, listingId int, fields ...CounterField) error {
	args := m.Called(listingId, fields)
	return args.Error(0)
}
func (m *MockHouseMatchRepository) FindMatch(ctx context.Context, listingId, seekerId int) (Match, error) {
	args := m.Called(listingId, seekerId)
	return args.Get(0).(Match), args.Error(1)
}
func (m *MockHouseMatchRepository) GetMatch(ctx context.Context, id uuid.UUID) (Match, error) {
	args := m.Called(id)
	return args.Get(0).(Match), args.Error(1)
}
func (m *MockHouseMatchRepository) CreateMatch(ctx context.Context, params CreateMatchParams) (Match, error) {
	args := m.Called(params)
	return args.Get(0).(Match), args.Error(1)
}
func (m *MockHouseMatchRepository) DeleteMatch(ctx context.Context, id uuid.UUID) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockHouseMatchRepository) MarkMatchChatted(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}
func (m *MockHouseMatchRepository) ListMatchesForUser(ctx context.Context, userId int) ([]MatchDetail, error) {
	args := m.Called(userId)
	if matches, ok := args.Get(0).([]MatchDetail); ok {
		return matches, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockHouseMatchRepository) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockHouseMatchRepository) GetMessages(ctx context.Context, matchId uuid.UUID) ([]Message, error) {
	args := m.Called(matchId)
	if messages, ok := args.Get(0).([]Message); ok {
		return messages, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockHouseMatchRepository) LatestMessages(ctx context.Context, matchIds []uuid.UUID) (map[uuid.UUID]Message, error) {
	args := m.Called(matchIds)
	if latest, ok := args.Get(0).(map[uuid.UUID]Message); ok {
		return latest, args.Error(1)
	}
	return nil, args.Error(1)
}
