// Package match turns swipe decisions into match records and manages the
// conversation that a match unlocks.
package match

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/npezzotti/go-housematch/internal/database"
	"github.com/npezzotti/go-housematch/internal/stats"
	"github.com/npezzotti/go-housematch/internal/swipe"
	"github.com/npezzotti/go-housematch/internal/types"
)

const DefaultCallTimeout = 10 * time.Second

var (
	ErrForbidden    = errors.New("user is not a participant in this match")
	ErrEmptyMessage = errors.New("message body is empty")
)

// Session identifies the authenticated user an operation runs for.
type Session struct {
	UserId int
}

// Notifier pushes events to connected users. Delivery is best effort.
type Notifier interface {
	NotifyMatch(userId int, m types.Match)
	NotifyMessage(userId int, msg types.Message)
}

type Service struct {
	db       database.HouseMatchRepository
	stats    stats.StatsProvider
	notifier Notifier
	log      *log.Logger
	timeout  time.Duration
}

func NewService(logger *log.Logger, db database.HouseMatchRepository, sp stats.StatsProvider, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	return &Service{
		db:      db,
		stats:   sp,
		log:     logger,
		timeout: timeout,
	}
}

// SetNotifier installs the push channel used for new matches and messages.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) Timeout() time.Duration {
	return s.timeout
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) incr(name string) {
	if s.stats != nil {
		s.stats.Incr(name)
	}
}

// Candidates returns the seeker's candidate queue filtered by their school
// and stored preferences.
func (s *Service) Candidates(ctx context.Context, sess Session) ([]database.Listing, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	account, err := s.db.GetAccountById(ctx, sess.UserId)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	prefs, err := s.db.GetPreferences(ctx, sess.UserId)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	return s.db.FetchCandidates(ctx, database.CandidateFilter{
		SeekerId:  sess.UserId,
		School:    account.School,
		MaxRent:   prefs.MaxRent,
		Bedrooms:  prefs.Bedrooms,
		Bathrooms: prefs.Bathrooms,
	})
}

// RecordSwipe counts the swipe on the listing and, for a like, makes sure
// the seeker is matched with it. Counters are applied even when the match
// cannot be created.
func (s *Service) RecordSwipe(ctx context.Context, sess Session, listing database.Listing, dir swipe.Direction) error {
	var fields []database.CounterField
	switch dir {
	case swipe.Left:
		fields = []database.CounterField{database.CounterSwipes}
	case swipe.Right:
		fields = []database.CounterField{database.CounterSwipes, database.CounterLikes}
	default:
		return fmt.Errorf("record swipe: unexpected direction %s", dir)
	}

	counterCtx, cancel := s.withTimeout(ctx)
	err := s.db.IncrementListingCounters(counterCtx, listing.Id, fields...)
	cancel()
	if err != nil {
		err = fmt.Errorf("increment counters: %w", err)
	} else {
		s.incr(stats.Swipes)
		if dir == swipe.Right {
			s.incr(stats.Likes)
		}
	}

	if dir != swipe.Right || listing.OwnerId == 0 || listing.OwnerId == sess.UserId {
		return err
	}

	if _, _, matchErr := s.CreateMatchIfAbsent(ctx, listing, sess.UserId); matchErr != nil {
		return errors.Join(err, fmt.Errorf("create match: %w", matchErr))
	}

	return err
}

// CreateMatchIfAbsent returns the match for (listing, seeker), creating it
// when none exists. The boolean reports whether this call created it.
func (s *Service) CreateMatchIfAbsent(ctx context.Context, listing database.Listing, seekerId int) (database.Match, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	existing, err := s.db.FindMatch(ctx, listing.Id, seekerId)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return database.Match{}, false, fmt.Errorf("find match: %w", err)
	}

	m, err := s.db.CreateMatch(ctx, database.CreateMatchParams{
		ListingId: listing.Id,
		SeekerId:  seekerId,
		OwnerId:   listing.OwnerId,
	})
	if errors.Is(err, database.ErrMatchExists) {
		// lost a race with a concurrent like or favorite
		existing, err := s.db.FindMatch(ctx, listing.Id, seekerId)
		if err != nil {
			return database.Match{}, false, fmt.Errorf("find match after conflict: %w", err)
		}
		return existing, false, nil
	}
	if err != nil {
		return database.Match{}, false, err
	}

	s.incr(stats.MatchesCreated)
	if s.notifier != nil {
		s.notifier.NotifyMatch(m.OwnerId, MatchView(m))
	}

	return m, true, nil
}

// IsFavorite reports whether the seeker is matched with the listing.
func (s *Service) IsFavorite(ctx context.Context, sess Session, listingId int) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.FindMatch(ctx, listingId, sess.UserId)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, err
	}
}

// ToggleFavorite removes the seeker's match with the listing if there is
// one and creates it otherwise. It returns the resulting matched state.
func (s *Service) ToggleFavorite(ctx context.Context, sess Session, listing database.Listing) (bool, error) {
	findCtx, cancel := s.withTimeout(ctx)
	existing, err := s.db.FindMatch(findCtx, listing.Id, sess.UserId)
	cancel()

	switch {
	case err == nil:
		delCtx, cancel := s.withTimeout(ctx)
		defer cancel()
		if err := s.db.DeleteMatch(delCtx, existing.Id); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return true, fmt.Errorf("delete match: %w", err)
		}
		return false, nil
	case errors.Is(err, sql.ErrNoRows):
		if listing.OwnerId == sess.UserId {
			return false, ErrForbidden
		}
		if _, _, err := s.CreateMatchIfAbsent(ctx, listing, sess.UserId); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, fmt.Errorf("find match: %w", err)
	}
}

// MarkFirstMessage moves the match into the chatted state and counts the
// conversation on the listing. The repository flips the stored flag and
// increments the counter in one statement, so concurrent senders count it
// once and a failure leaves neither change behind.
func (s *Service) MarkFirstMessage(ctx context.Context, m database.Match) (bool, error) {
	if m.Chatted {
		return false, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	changed, err := s.db.MarkMatchChatted(ctx, m.Id)
	if err != nil {
		return false, fmt.Errorf("mark chatted: %w", err)
	}
	if changed {
		s.incr(stats.FirstMessages)
	}

	return changed, nil
}

func (s *Service) participantMatch(ctx context.Context, sess Session, matchId uuid.UUID) (database.Match, error) {
	m, err := s.db.GetMatch(ctx, matchId)
	if err != nil {
		return database.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !m.HasParticipant(sess.UserId) {
		return database.Match{}, ErrForbidden
	}
	return m, nil
}

// SendMessage stores a message from the session user to the other
// participant of the match. The first message of a match also marks it as
// chatted; a failure there is logged and does not undo the message.
func (s *Service) SendMessage(ctx context.Context, sess Session, matchId uuid.UUID, body string) (database.Message, error) {
	if strings.TrimSpace(body) == "" {
		return database.Message{}, ErrEmptyMessage
	}

	sendCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	m, err := s.participantMatch(sendCtx, sess, matchId)
	if err != nil {
		return database.Message{}, err
	}

	msg, err := s.db.CreateMessage(sendCtx, database.CreateMessageParams{
		MatchId:     m.Id,
		SenderId:    sess.UserId,
		RecipientId: m.Counterpart(sess.UserId),
		Body:        body,
	})
	if err != nil {
		return database.Message{}, fmt.Errorf("create message: %w", err)
	}
	s.incr(stats.MessagesSent)

	if _, err := s.MarkFirstMessage(ctx, m); err != nil {
		s.log.Printf("first message for match %s: %v", m.Id, err)
	}

	if s.notifier != nil {
		s.notifier.NotifyMessage(msg.RecipientId, MessageView(msg))
	}

	return msg, nil
}

// Messages returns the conversation of a match, oldest first.
func (s *Service) Messages(ctx context.Context, sess Session, matchId uuid.UUID) ([]database.Message, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.participantMatch(ctx, sess, matchId); err != nil {
		return nil, err
	}

	return s.db.GetMessages(ctx, matchId)
}

// Unmatch deletes the match, and with it the conversation, on behalf of
// either participant.
func (s *Service) Unmatch(ctx context.Context, sess Session, matchId uuid.UUID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	m, err := s.participantMatch(ctx, sess, matchId)
	if err != nil {
		return err
	}

	return s.db.DeleteMatch(ctx, m.Id)
}

// Conversations lists the session user's matches, split into those without
// messages and those with at least one. Chatted conversations are ordered
// by their latest message, most recent first.
func (s *Service) Conversations(ctx context.Context, sess Session) (types.Conversations, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := types.Conversations{
		Pending: make([]types.Conversation, 0),
		Chatted: make([]types.Conversation, 0),
	}

	matches, err := s.db.ListMatchesForUser(ctx, sess.UserId)
	if err != nil {
		return res, err
	}

	var chattedIds []uuid.UUID
	for _, m := range matches {
		if m.Chatted {
			chattedIds = append(chattedIds, m.Id)
		}
	}

	latest, err := s.db.LatestMessages(ctx, chattedIds)
	if err != nil {
		return res, err
	}

	for _, m := range matches {
		conv := types.Conversation{
			Match:     MatchView(m.Match),
			Address:   m.Address,
			Images:    nonNil(m.Images),
			Rent:      m.Rent,
			Bedrooms:  m.Bedrooms,
			Bathrooms: m.Bathrooms,
		}

		if !m.Chatted {
			res.Pending = append(res.Pending, conv)
			continue
		}

		if msg, ok := latest[m.Id]; ok {
			view := MessageView(msg)
			conv.LatestMessage = &view
		}
		res.Chatted = append(res.Chatted, conv)
	}

	sort.SliceStable(res.Chatted, func(i, j int) bool {
		return latestAt(res.Chatted[i]).After(latestAt(res.Chatted[j]))
	})

	return res, nil
}

func latestAt(c types.Conversation) time.Time {
	if c.LatestMessage == nil {
		return time.Time{}
	}
	return c.LatestMessage.Timestamp
}
