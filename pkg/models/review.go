package models

import (
	"encoding/json"
	"time"
)

type ReviewType string

const (
	ReviewTypeGuestToHost ReviewType = "guest-to-host"
	ReviewTypeHostToGuest ReviewType = "host-to-guest"
)

func (t ReviewType) IsValid() bool {
	return t == ReviewTypeGuestToHost || t == ReviewTypeHostToGuest
}

// CategoryRating is a sub-score on the upstream 0-10 scale
type CategoryRating struct {
	Category string `json:"category"`
	Rating   int    `json:"rating"`
}

type ModerationState string

const (
	ModerationPending  ModerationState = "pending"
	ModerationApproved ModerationState = "approved"
	ModerationRejected ModerationState = "rejected"
)

// Moderation is the display state of a review. Actor and At describe the
// transition into the current state and are empty while pending.
type Moderation struct {
	State ModerationState
	Actor string
	At    *time.Time
}

// Review is the canonical, normalized review record
type Review struct {
	ID             string           `json:"id"`
	Type           ReviewType       `json:"type"`
	Status         string           `json:"status"`
	Channel        string           `json:"channel"`
	Rating         *float64         `json:"rating"`
	PublicReview   string           `json:"publicReview"`
	ReviewCategory []CategoryRating `json:"reviewCategory"`
	SubmittedAt    time.Time        `json:"submittedAt"`
	GuestName      string           `json:"guestName"`
	ListingName    string           `json:"listingName"`
	ListingID      *string          `json:"listingId"`
	Moderation     Moderation       `json:"-"`
}

func (r *Review) State() ModerationState {
	if r.Moderation.State == "" {
		return ModerationPending
	}
	return r.Moderation.State
}

func (r *Review) IsApproved() bool {
	return r.State() == ModerationApproved
}

func (r *Review) IsRejected() bool {
	return r.State() == ModerationRejected
}

func (r *Review) IsPending() bool {
	return r.State() == ModerationPending
}

// Approve moves the review into the approved state, replacing any rejection.
func (r *Review) Approve(by string, at time.Time) {
	at = at.UTC()
	r.Moderation = Moderation{State: ModerationApproved, Actor: by, At: &at}
}

// Reject moves the review into the rejected state, replacing any approval.
func (r *Review) Reject(by string, at time.Time) {
	at = at.UTC()
	r.Moderation = Moderation{State: ModerationRejected, Actor: by, At: &at}
}

// RatingValue returns the overall rating, treating a missing one as 0.
func (r *Review) RatingValue() float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

// Clone returns a deep copy so stored reviews cannot be mutated by callers.
func (r Review) Clone() Review {
	out := r
	if r.Rating != nil {
		rating := *r.Rating
		out.Rating = &rating
	}
	if r.ListingID != nil {
		listingID := *r.ListingID
		out.ListingID = &listingID
	}
	if r.Moderation.At != nil {
		at := *r.Moderation.At
		out.Moderation.At = &at
	}
	out.ReviewCategory = append([]CategoryRating{}, r.ReviewCategory...)
	return out
}

type reviewJSON struct {
	reviewAlias
	ModerationStatus ModerationState `json:"moderationStatus"`
	Approved         bool            `json:"approved"`
	ApprovedAt       *time.Time      `json:"approvedAt"`
	ApprovedBy       *string         `json:"approvedBy"`
	Rejected         bool            `json:"rejected"`
	RejectedAt       *time.Time      `json:"rejectedAt"`
	RejectedBy       *string         `json:"rejectedBy"`
}

type reviewAlias Review

// MarshalJSON flattens the moderation state into the approved/rejected field
// pairs dashboard consumers read.
func (r Review) MarshalJSON() ([]byte, error) {
	out := reviewJSON{reviewAlias: reviewAlias(r), ModerationStatus: r.State()}
	if out.ReviewCategory == nil {
		out.ReviewCategory = []CategoryRating{}
	}
	actor := r.Moderation.Actor
	switch r.State() {
	case ModerationApproved:
		out.Approved = true
		out.ApprovedAt = r.Moderation.At
		out.ApprovedBy = &actor
	case ModerationRejected:
		out.Rejected = true
		out.RejectedAt = r.Moderation.At
		out.RejectedBy = &actor
	}
	return json.Marshal(out)
}

func (r *Review) UnmarshalJSON(data []byte) error {
	var in reviewJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Review(in.reviewAlias)

	switch {
	case in.ModerationStatus == ModerationApproved || (in.ModerationStatus == "" && in.Approved):
		r.Moderation = Moderation{State: ModerationApproved, At: in.ApprovedAt, Actor: deref(in.ApprovedBy)}
	case in.ModerationStatus == ModerationRejected || (in.ModerationStatus == "" && in.Rejected):
		r.Moderation = Moderation{State: ModerationRejected, At: in.RejectedAt, Actor: deref(in.RejectedBy)}
	default:
		r.Moderation = Moderation{State: ModerationPending}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
