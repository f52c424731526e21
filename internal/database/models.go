package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type User struct {
	Id           int       `db:"id"`
	Username     string    `db:"username"`
	EmailAddress string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	School       string    `db:"school"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type Preferences struct {
	UserId    int       `db:"user_id"`
	MaxRent   int       `db:"max_rent"`
	Bedrooms  int       `db:"bedrooms"`
	Bathrooms int       `db:"bathrooms"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Listing struct {
	Id          int            `db:"id"`
	ExternalId  string         `db:"external_id"`
	OwnerId     int            `db:"owner_id"`
	Address     string         `db:"address"`
	Images      pq.StringArray `db:"images"`
	Rent        int            `db:"rent"`
	Bedrooms    int            `db:"bedrooms"`
	Bathrooms   int            `db:"bathrooms"`
	Description string         `db:"description"`
	School      string         `db:"school"`
	Swipes      int            `db:"swipes"`
	Likes       int            `db:"likes"`
	Chats       int            `db:"chats"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type Match struct {
	Id        uuid.UUID `db:"id"`
	ListingId int       `db:"listing_id"`
	SeekerId  int       `db:"seeker_id"`
	OwnerId   int       `db:"owner_id"`
	Chatted   bool      `db:"chatted"`
	CreatedAt time.Time `db:"created_at"`
}

// HasParticipant reports whether userId is the seeker or the listing owner.
func (m Match) HasParticipant(userId int) bool {
	return m.SeekerId == userId || m.OwnerId == userId
}

// Counterpart returns the other participant of the match.
func (m Match) Counterpart(userId int) int {
	if m.SeekerId == userId {
		return m.OwnerId
	}
	return m.SeekerId
}

type Message struct {
	Id          int       `db:"id"`
	MatchId     uuid.UUID `db:"match_id"`
	SenderId    int       `db:"sender_id"`
	RecipientId int       `db:"recipient_id"`
	Body        string    `db:"body"`
	CreatedAt   time.Time `db:"created_at"`
}

// MatchDetail is a match joined with the listing it refers to.
type MatchDetail struct {
	Match
	Address   string         `db:"address"`
	Images    pq.StringArray `db:"images"`
	Rent      int            `db:"rent"`
	Bedrooms  int            `db:"bedrooms"`
	Bathrooms int            `db:"bathrooms"`
}

type CounterField string

const (
	CounterSwipes CounterField = "swipes"
	CounterLikes  CounterField = "likes"
	CounterChats  CounterField = "chats"
)

type CandidateFilter struct {
	SeekerId  int
	School    string
	MaxRent   int
	Bedrooms  int
	Bathrooms int
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
	School       string
}

type UpdateAccountParams struct {
	UserId       int
	Username     string
	PasswordHash string
	School       string
}

type CreateListingParams struct {
	ExternalId  string
	OwnerId     int
	Address     string
	Images      []string
	Rent        int
	Bedrooms    int
	Bathrooms   int
	Description string
	School      string
}

type UpdateListingParams struct {
	Id          int
	Address     string
	Images      []string
	Rent        int
	Bedrooms    int
	Bathrooms   int
	Description string
	School      string
}

type CreateMatchParams struct {
	ListingId int
	SeekerId  int
	OwnerId   int
}

type CreateMessageParams struct {
	MatchId     uuid.UUID
	SenderId    int
	RecipientId int
	Body        string
}
