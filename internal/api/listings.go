package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/npezzotti/go-housematch/internal/database"
	"github.com/npezzotti/go-housematch/internal/match"
	"github.com/npezzotti/go-housematch/internal/swipe"
	"github.com/npezzotti/go-housematch/internal/types"
	"github.com/teris-io/shortid"
)

type PreferencesRequest struct {
	MaxRent   int `json:"max_rent" validate:"gte=0"`
	Bedrooms  int `json:"bedrooms" validate:"gte=0,lte=8"`
	Bathrooms int `json:"bathrooms" validate:"gte=0,lte=8"`
}

type CreateListingRequest struct {
	Address     string   `json:"address" validate:"required,max=512"`
	Images      []string `json:"images" validate:"max=20,dive,url"`
	Rent        int      `json:"rent" validate:"required,gt=0"`
	Bedrooms    int      `json:"bedrooms" validate:"gte=0,lte=20"`
	Bathrooms   int      `json:"bathrooms" validate:"gte=0,lte=20"`
	Description string   `json:"description" validate:"max=4096"`
	School      string   `json:"school" validate:"max=128"`
}

type UpdateListingRequest struct {
	Address     string   `json:"address" validate:"required,max=512"`
	Images      []string `json:"images" validate:"max=20,dive,url"`
	Rent        int      `json:"rent" validate:"required,gt=0"`
	Bedrooms    int      `json:"bedrooms" validate:"gte=0,lte=20"`
	Bathrooms   int      `json:"bathrooms" validate:"gte=0,lte=20"`
	Description string   `json:"description" validate:"max=4096"`
	School      string   `json:"school" validate:"max=128"`
}

type SwipeRequest struct {
	ListingId int    `json:"listing_id" validate:"required,gt=0"`
	Direction string `json:"direction" validate:"required,oneof=left right"`
}

type FavoriteResponse struct {
	ListingId int  `json:"listing_id"`
	Favorite  bool `json:"favorite"`
}

func listingIdParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.URL.Query().Get("listing_id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *HouseMatchApp) preferences(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		// no stored preferences means no filter, reported as zero values
		prefs, err := s.db.GetPreferences(ctx, userId)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, err)
			return
		}

		s.writeJson(w, http.StatusOK, types.Preferences{
			MaxRent:   prefs.MaxRent,
			Bedrooms:  prefs.Bedrooms,
			Bathrooms: prefs.Bathrooms,
		})
	case http.MethodPut:
		var req PreferencesRequest
		if err := s.decodeRequest(r, &req); err != nil {
			s.writeError(w, err)
			return
		}

		prefs, err := s.db.UpsertPreferences(ctx, database.Preferences{
			UserId:    userId,
			MaxRent:   req.MaxRent,
			Bedrooms:  req.Bedrooms,
			Bathrooms: req.Bathrooms,
		})
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.writeJson(w, http.StatusOK, types.Preferences{
			MaxRent:   prefs.MaxRent,
			Bedrooms:  prefs.Bedrooms,
			Bathrooms: prefs.Bathrooms,
		})
	default:
		errResp := NewMethodNotAllowedError()
		s.writeJson(w, errResp.StatusCode, errResp)
	}
}

func (s *HouseMatchApp) candidates(w http.ResponseWriter, r *http.Request) {
	sess, ok := Session(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	listings, err := s.matches.Candidates(r.Context(), sess)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res := make([]types.Listing, 0, len(listings))
	for _, l := range listings {
		res = append(res, match.ListingView(l))
	}

	s.writeJson(w, http.StatusOK, res)
}

func (s *HouseMatchApp) createListing(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateListingRequest
	if err := s.decodeRequest(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	school := req.School
	if school == "" {
		owner, err := s.db.GetAccountById(ctx, userId)
		if err != nil {
			s.writeError(w, err)
			return
		}
		school = owner.School
	}

	externalId, err := shortid.Generate()
	if err != nil {
		s.writeError(w, err)
		return
	}

	listing, err := s.db.CreateListing(ctx, database.CreateListingParams{
		ExternalId:  externalId,
		OwnerId:     userId,
		Address:     req.Address,
		Images:      req.Images,
		Rent:        req.Rent,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Description: req.Description,
		School:      school,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, match.ListingView(listing))
}

func (s *HouseMatchApp) getListing(w http.ResponseWriter, r *http.Request) {
	externalId := r.URL.Query().Get("id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	listing, err := s.db.GetListingByExternalId(ctx, externalId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, match.ListingView(listing))
}

// updateListing replaces the editable details of a listing. Counters and
// ownership are not affected. An empty school keeps the current one.
func (s *HouseMatchApp) updateListing(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	externalId := r.URL.Query().Get("id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UpdateListingRequest
	if err := s.decodeRequest(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	listing, err := s.db.GetListingByExternalId(ctx, externalId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if listing.OwnerId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	school := req.School
	if school == "" {
		school = listing.School
	}

	updated, err := s.db.UpdateListing(ctx, database.UpdateListingParams{
		Id:          listing.Id,
		Address:     req.Address,
		Images:      req.Images,
		Rent:        req.Rent,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Description: req.Description,
		School:      school,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, match.ListingView(updated))
}

func (s *HouseMatchApp) deleteListing(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	externalId := r.URL.Query().Get("id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	listing, err := s.db.GetListingByExternalId(ctx, externalId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if listing.OwnerId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.DeleteListing(ctx, listing.Id); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

// recordSwipe is the non-websocket path for a committed swipe, used by
// clients that animate the card themselves. Once the listing is known the
// swipe is accepted; write failures are logged so a retry cannot count it
// twice.
func (s *HouseMatchApp) recordSwipe(w http.ResponseWriter, r *http.Request) {
	sess, ok := Session(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req SwipeRequest
	if err := s.decodeRequest(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	dir, err := swipe.ParseDirection(req.Direction)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	ctx, cancel := s.requestContext(r)
	listing, err := s.db.GetListingById(ctx, req.ListingId)
	cancel()
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.matches.RecordSwipe(r.Context(), sess, listing, dir); err != nil {
		s.log.Printf("record %s swipe by user %d on listing %d: %v", dir, sess.UserId, listing.Id, err)
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *HouseMatchApp) favorite(w http.ResponseWriter, r *http.Request) {
	sess, ok := Session(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	listingId, ok := listingIdParam(r)
	if !ok {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	switch r.Method {
	case http.MethodGet:
		fav, err := s.matches.IsFavorite(r.Context(), sess, listingId)
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.writeJson(w, http.StatusOK, FavoriteResponse{ListingId: listingId, Favorite: fav})
	case http.MethodPut:
		ctx, cancel := s.requestContext(r)
		listing, err := s.db.GetListingById(ctx, listingId)
		cancel()
		if err != nil {
			s.writeError(w, err)
			return
		}

		fav, err := s.matches.ToggleFavorite(r.Context(), sess, listing)
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.writeJson(w, http.StatusOK, FavoriteResponse{ListingId: listingId, Favorite: fav})
	default:
		errResp := NewMethodNotAllowedError()
		s.writeJson(w, errResp.StatusCode, errResp)
	}
}
