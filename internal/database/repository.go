package database

import (
	"context"

	"github.com/google/uuid"
)

type HouseMatchRepository interface {
	Ping(ctx context.Context) error

	CreateAccount(ctx context.Context, params CreateAccountParams) (User, error)
	UpdateAccount(ctx context.Context, params UpdateAccountParams) (User, error)
	GetAccountById(ctx context.Context, userId int) (User, error)
	GetAccountByEmail(ctx context.Context, email string) (User, error)
	DeleteAccount(ctx context.Context, userId int) error

	GetPreferences(ctx context.Context, userId int) (Preferences, error)
	UpsertPreferences(ctx context.Context, prefs Preferences) (Preferences, error)

	CreateListing(ctx context.Context, params CreateListingParams) (Listing, error)
	GetListingById(ctx context.Context, id int) (Listing, error)
	GetListingByExternalId(ctx context.Context, externalId string) (Listing, error)
	UpdateListing(ctx context.Context, params UpdateListingParams) (Listing, error)
	DeleteListing(ctx context.Context, id int) error
	FetchCandidates(ctx context.Context, filter CandidateFilter) ([]Listing, error)
	IncrementListingCounters(ctx context.Context, listingId int, fields ...CounterField) error

	FindMatch(ctx context.Context, listingId, seekerId int) (Match, error)
	GetMatch(ctx context.Context, id uuid.UUID) (Match, error)
	CreateMatch(ctx context.Context, params CreateMatchParams) (Match, error)
	DeleteMatch(ctx context.Context, id uuid.UUID) error
	MarkMatchChatted(ctx context.Context, id uuid.UUID) (bool, error)
	ListMatchesForUser(ctx context.Context, userId int) ([]MatchDetail, error)

	CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error)
	GetMessages(ctx context.Context, matchId uuid.UUID) ([]Message, error)
	LatestMessages(ctx context.Context, matchIds []uuid.UUID) (map[uuid.UUID]Message, error)
}
