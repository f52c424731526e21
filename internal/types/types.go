package types

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	School       string    `json:"school,omitempty"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Preferences struct {
	MaxRent   int `json:"max_rent"`
	Bedrooms  int `json:"bedrooms"`
	Bathrooms int `json:"bathrooms"`
}

type Listing struct {
	Id          int       `json:"id"`
	ExternalId  string    `json:"external_id"`
	OwnerId     int       `json:"owner_id"`
	Address     string    `json:"address"`
	Images      []string  `json:"images"`
	Rent        int       `json:"rent"`
	Bedrooms    int       `json:"bedrooms"`
	Bathrooms   int       `json:"bathrooms"`
	Description string    `json:"description"`
	School      string    `json:"school,omitempty"`
	Swipes      int       `json:"swipes"`
	Likes       int       `json:"likes"`
	Chats       int       `json:"chats"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

type Match struct {
	Id        uuid.UUID `json:"id"`
	ListingId int       `json:"listing_id"`
	SeekerId  int       `json:"seeker_id"`
	OwnerId   int       `json:"owner_id"`
	Chatted   bool      `json:"chatted"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type Message struct {
	Id          int       `json:"id"`
	MatchId     uuid.UUID `json:"match_id"`
	SenderId    int       `json:"sender_id"`
	RecipientId int       `json:"recipient_id"`
	Body        string    `json:"body"`
	Timestamp   time.Time `json:"timestamp"`
}

type Conversation struct {
	Match         Match    `json:"match"`
	Address       string   `json:"address"`
	Images        []string `json:"images"`
	Rent          int      `json:"rent"`
	Bedrooms      int      `json:"bedrooms"`
	Bathrooms     int      `json:"bathrooms"`
	LatestMessage *Message `json:"latest_message,omitempty"`
}

type Conversations struct {
	Pending []Conversation `json:"pending"`
	Chatted []Conversation `json:"chatted"`
}
