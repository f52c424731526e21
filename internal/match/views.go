package match

import (
	"github.com/npezzotti/go-housematch/internal/database"
	"github.com/npezzotti/go-housematch/internal/types"
)

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func ListingView(l database.Listing) types.Listing {
	return types.Listing{
		Id:          l.Id,
		ExternalId:  l.ExternalId,
		OwnerId:     l.OwnerId,
		Address:     l.Address,
		Images:      nonNil(l.Images),
		Rent:        l.Rent,
		Bedrooms:    l.Bedrooms,
		Bathrooms:   l.Bathrooms,
		Description: l.Description,
		School:      l.School,
		Swipes:      l.Swipes,
		Likes:       l.Likes,
		Chats:       l.Chats,
		CreatedAt:   l.CreatedAt,
	}
}

func MatchView(m database.Match) types.Match {
	return types.Match{
		Id:        m.Id,
		ListingId: m.ListingId,
		SeekerId:  m.SeekerId,
		OwnerId:   m.OwnerId,
		Chatted:   m.Chatted,
		CreatedAt: m.CreatedAt,
	}
}

func MessageView(msg database.Message) types.Message {
	return types.Message{
		Id:          msg.Id,
		MatchId:     msg.MatchId,
		SenderId:    msg.SenderId,
		RecipientId: msg.RecipientId,
		Body:        msg.Body,
		Timestamp:   msg.CreatedAt,
	}
}
