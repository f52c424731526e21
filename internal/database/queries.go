package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	// ErrMatchExists is returned by CreateMatch when the (listing, seeker)
	// pair already has a match.
	ErrMatchExists = errors.New("match already exists")
	ErrEmailTaken  = errors.New("email address already registered")
)

const (
	uniqueViolation = "23505"

	// room counts at or above this value match "N or more"
	maxRoomFilter = 8

	accountColumns = "id, username, email, school, created_at, updated_at"
	listingColumns = "id, external_id, owner_id, address, images, rent, bedrooms, bathrooms, " +
		"description, school, swipes, likes, chats, created_at, updated_at"
	matchColumns   = "id, listing_id, seeker_id, owner_id, chatted, created_at"
	messageColumns = "id, match_id, sender_id, recipient_id, body, created_at"
)

var counterColumns = map[CounterField]struct{}{
	CounterSwipes: {},
	CounterLikes:  {},
	CounterChats:  {},
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (db *PgHouseMatchRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	now := time.Now().UTC()

	var u User
	err := db.conn.GetContext(ctx, &u,
		"INSERT INTO accounts (username, email, password_hash, school, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING "+accountColumns,
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		params.School,
		now,
		now,
	)
	if isUniqueViolation(err) {
		return User{}, ErrEmailTaken
	}

	return u, err
}

func (db *PgHouseMatchRepository) UpdateAccount(ctx context.Context, params UpdateAccountParams) (User, error) {
	var u User
	err := db.conn.GetContext(ctx, &u,
		"UPDATE accounts SET username = $2, password_hash = $3, school = $4, updated_at = $5 "+
			"WHERE id = $1 RETURNING "+accountColumns,
		params.UserId,
		params.Username,
		params.PasswordHash,
		params.School,
		time.Now().UTC(),
	)

	return u, err
}

func (db *PgHouseMatchRepository) GetAccountById(ctx context.Context, id int) (User, error) {
	var u User
	err := db.conn.GetContext(ctx, &u,
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1 LIMIT 1",
		id,
	)

	return u, err
}

func (db *PgHouseMatchRepository) GetAccountByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := db.conn.GetContext(ctx, &u,
		"SELECT "+accountColumns+", password_hash FROM accounts WHERE email = $1 LIMIT 1",
		email,
	)

	return u, err
}

// DeleteAccount removes the account. Its preferences, listings, matches and
// messages go with it through the foreign key cascades.
func (db *PgHouseMatchRepository) DeleteAccount(ctx context.Context, userId int) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM accounts WHERE id = $1", userId)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgHouseMatchRepository) GetPreferences(ctx context.Context, userId int) (Preferences, error) {
	var p Preferences
	err := db.conn.GetContext(ctx, &p,
		"SELECT user_id, max_rent, bedrooms, bathrooms, updated_at FROM preferences WHERE user_id = $1",
		userId,
	)

	return p, err
}

func (db *PgHouseMatchRepository) UpsertPreferences(ctx context.Context, prefs Preferences) (Preferences, error) {
	var p Preferences
	err := db.conn.GetContext(ctx, &p,
		"INSERT INTO preferences (user_id, max_rent, bedrooms, bathrooms, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5) "+
			"ON CONFLICT (user_id) DO UPDATE SET max_rent = EXCLUDED.max_rent, "+
			"bedrooms = EXCLUDED.bedrooms, bathrooms = EXCLUDED.bathrooms, updated_at = EXCLUDED.updated_at "+
			"RETURNING user_id, max_rent, bedrooms, bathrooms, updated_at",
		prefs.UserId,
		prefs.MaxRent,
		prefs.Bedrooms,
		prefs.Bathrooms,
		time.Now().UTC(),
	)

	return p, err
}

func (db *PgHouseMatchRepository) CreateListing(ctx context.Context, params CreateListingParams) (Listing, error) {
	now := time.Now().UTC()
	images := params.Images
	if images == nil {
		images = []string{}
	}

	var l Listing
	err := db.conn.GetContext(ctx, &l,
		"INSERT INTO listings (external_id, owner_id, address, images, rent, bedrooms, bathrooms, "+
			"description, school, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING "+listingColumns,
		params.ExternalId,
		params.OwnerId,
		params.Address,
		pq.StringArray(images),
		params.Rent,
		params.Bedrooms,
		params.Bathrooms,
		params.Description,
		params.School,
		now,
		now,
	)

	return l, err
}

func (db *PgHouseMatchRepository) GetListingById(ctx context.Context, id int) (Listing, error) {
	var l Listing
	err := db.conn.GetContext(ctx, &l,
		"SELECT "+listingColumns+" FROM listings WHERE id = $1 LIMIT 1",
		id,
	)

	return l, err
}

func (db *PgHouseMatchRepository) GetListingByExternalId(ctx context.Context, externalId string) (Listing, error) {
	var l Listing
	err := db.conn.GetContext(ctx, &l,
		"SELECT "+listingColumns+" FROM listings WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	return l, err
}

func (db *PgHouseMatchRepository) UpdateListing(ctx context.Context, params UpdateListingParams) (Listing, error) {
	images := params.Images
	if images == nil {
		images = []string{}
	}

	var l Listing
	err := db.conn.GetContext(ctx, &l,
		"UPDATE listings SET address = $2, images = $3, rent = $4, bedrooms = $5, bathrooms = $6, "+
			"description = $7, school = $8, updated_at = $9 WHERE id = $1 RETURNING "+listingColumns,
		params.Id,
		params.Address,
		pq.StringArray(images),
		params.Rent,
		params.Bedrooms,
		params.Bathrooms,
		params.Description,
		params.School,
		time.Now().UTC(),
	)

	return l, err
}

func (db *PgHouseMatchRepository) DeleteListing(ctx context.Context, id int) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM listings WHERE id = $1", id)
	return err
}

// candidateQuery builds the listing query for a seeker. Zero values in the
// filter disable the corresponding condition.
func candidateQuery(filter CandidateFilter) (string, []any) {
	var b strings.Builder
	args := []any{filter.SeekerId}

	b.WriteString("SELECT " + listingColumns + " FROM listings WHERE owner_id <> $1")

	if filter.School != "" {
		args = append(args, filter.School)
		fmt.Fprintf(&b, " AND school = $%d", len(args))
	}

	if filter.MaxRent > 0 {
		args = append(args, filter.MaxRent)
		fmt.Fprintf(&b, " AND rent <= $%d", len(args))
	}

	for _, room := range []struct {
		column string
		want   int
	}{
		{"bedrooms", filter.Bedrooms},
		{"bathrooms", filter.Bathrooms},
	} {
		switch {
		case room.want <= 0:
		case room.want >= maxRoomFilter:
			args = append(args, maxRoomFilter)
			fmt.Fprintf(&b, " AND %s >= $%d", room.column, len(args))
		default:
			args = append(args, room.want)
			fmt.Fprintf(&b, " AND %s = $%d", room.column, len(args))
		}
	}

	b.WriteString(" ORDER BY created_at DESC, id DESC")

	return b.String(), args
}

func (db *PgHouseMatchRepository) FetchCandidates(ctx context.Context, filter CandidateFilter) ([]Listing, error) {
	query, args := candidateQuery(filter)

	listings := make([]Listing, 0)
	if err := db.conn.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	return listings, nil
}

// counterUpdate builds a single atomic increment statement for the given
// counter fields. Duplicate fields are applied once.
func counterUpdate(fields []CounterField) (string, error) {
	seen := make(map[CounterField]struct{}, len(fields))
	sets := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		if _, ok := counterColumns[f]; !ok {
			return "", fmt.Errorf("unknown counter field %q", f)
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		sets = append(sets, fmt.Sprintf("%[1]s = %[1]s + 1", f))
	}

	if len(sets) == 0 {
		return "", nil
	}

	sets = append(sets, "updated_at = $2")
	return "UPDATE listings SET " + strings.Join(sets, ", ") + " WHERE id = $1", nil
}

func (db *PgHouseMatchRepository) IncrementListingCounters(ctx context.Context, listingId int, fields ...CounterField) error {
	query, err := counterUpdate(fields)
	if err != nil {
		return err
	}
	if query == "" {
		return nil
	}

	res, err := db.conn.ExecContext(ctx, query, listingId, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("increment counters: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgHouseMatchRepository) FindMatch(ctx context.Context, listingId, seekerId int) (Match, error) {
	var m Match
	err := db.conn.GetContext(ctx, &m,
		"SELECT "+matchColumns+" FROM matches WHERE listing_id = $1 AND seeker_id = $2 LIMIT 1",
		listingId,
		seekerId,
	)

	return m, err
}

func (db *PgHouseMatchRepository) GetMatch(ctx context.Context, id uuid.UUID) (Match, error) {
	var m Match
	err := db.conn.GetContext(ctx, &m,
		"SELECT "+matchColumns+" FROM matches WHERE id = $1 LIMIT 1",
		id,
	)

	return m, err
}

func (db *PgHouseMatchRepository) CreateMatch(ctx context.Context, params CreateMatchParams) (Match, error) {
	var m Match
	err := db.conn.GetContext(ctx, &m,
		"INSERT INTO matches (id, listing_id, seeker_id, owner_id, chatted, created_at) "+
			"VALUES ($1, $2, $3, $4, false, $5) "+
			"ON CONFLICT (listing_id, seeker_id) DO NOTHING RETURNING "+matchColumns,
		uuid.New(),
		params.ListingId,
		params.SeekerId,
		params.OwnerId,
		time.Now().UTC(),
	)
	if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
		return Match{}, ErrMatchExists
	}

	return m, err
}

func (db *PgHouseMatchRepository) DeleteMatch(ctx context.Context, id uuid.UUID) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM matches WHERE id = $1", id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// markChattedQuery flips chatted and counts the conversation on the listing
// in one statement. The listing row is only touched when the flag changed.
const markChattedQuery = "WITH flipped AS (" +
	"UPDATE matches SET chatted = true WHERE id = $1 AND chatted = false RETURNING listing_id) " +
	"UPDATE listings SET chats = chats + 1, updated_at = $2 FROM flipped WHERE listings.id = flipped.listing_id"

// MarkMatchChatted flips chatted from false to true, incrementing the
// listing's chats counter, and reports whether this call performed the
// transition.
func (db *PgHouseMatchRepository) MarkMatchChatted(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := db.conn.ExecContext(ctx, markChattedQuery, id, time.Now().UTC())
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (db *PgHouseMatchRepository) ListMatchesForUser(ctx context.Context, userId int) ([]MatchDetail, error) {
	matches := make([]MatchDetail, 0)
	err := db.conn.SelectContext(ctx, &matches,
		"SELECT m.id, m.listing_id, m.seeker_id, m.owner_id, m.chatted, m.created_at, "+
			"l.address, l.images, l.rent, l.bedrooms, l.bathrooms "+
			"FROM matches m JOIN listings l ON l.id = m.listing_id "+
			"WHERE m.seeker_id = $1 OR m.owner_id = $1 "+
			"ORDER BY m.created_at DESC",
		userId,
	)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	return matches, nil
}

func (db *PgHouseMatchRepository) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	var msg Message
	err := db.conn.GetContext(ctx, &msg,
		"INSERT INTO messages (match_id, sender_id, recipient_id, body, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING "+messageColumns,
		params.MatchId,
		params.SenderId,
		params.RecipientId,
		params.Body,
		time.Now().UTC(),
	)

	return msg, err
}

func (db *PgHouseMatchRepository) GetMessages(ctx context.Context, matchId uuid.UUID) ([]Message, error) {
	messages := make([]Message, 0)
	err := db.conn.SelectContext(ctx, &messages,
		"SELECT "+messageColumns+" FROM messages WHERE match_id = $1 ORDER BY created_at ASC, id ASC",
		matchId,
	)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}

	return messages, nil
}

func (db *PgHouseMatchRepository) LatestMessages(ctx context.Context, matchIds []uuid.UUID) (map[uuid.UUID]Message, error) {
	latest := make(map[uuid.UUID]Message, len(matchIds))
	if len(matchIds) == 0 {
		return latest, nil
	}

	ids := make(pq.StringArray, 0, len(matchIds))
	for _, id := range matchIds {
		ids = append(ids, id.String())
	}

	var messages []Message
	err := db.conn.SelectContext(ctx, &messages,
		"SELECT DISTINCT ON (match_id) "+messageColumns+" FROM messages "+
			"WHERE match_id = ANY($1::uuid[]) ORDER BY match_id, created_at DESC, id DESC",
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("latest messages: %w", err)
	}

	for _, msg := range messages {
		latest[msg.MatchId] = msg
	}

	return latest, nil
}
