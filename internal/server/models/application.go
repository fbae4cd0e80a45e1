package models

import (
	"time"

	"github.com/dmitrijs2005/placementtracker/internal/common"
)

// Status is the pipeline stage of an application.
type Status string

const (
	StatusWishlist  Status = "WISHLIST"
	StatusApplied   Status = "APPLIED"
	StatusOA        Status = "OA"
	StatusInterview Status = "INTERVIEW"
	StatusOffer     Status = "OFFER"
	StatusRejected  Status = "REJECTED"
)

// Statuses lists every status in pipeline order.
var Statuses = []Status{
	StatusWishlist,
	StatusApplied,
	StatusOA,
	StatusInterview,
	StatusOffer,
	StatusRejected,
}

var statusNames = map[Status]string{
	StatusWishlist:  "Wishlist",
	StatusApplied:   "Applied",
	StatusOA:        "Online Assessment",
	StatusInterview: "Interview",
	StatusOffer:     "Offer",
	StatusRejected:  "Rejected",
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// DisplayName returns the human label for s, or s itself when unknown.
func (s Status) DisplayName() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return string(s)
}

// MsgWishlistToOffer is the message returned for the one forbidden transition.
const MsgWishlistToOffer = "Cannot move directly from Wishlist to Offer. Please update through the application process."

// ValidateTransition checks that an application may move from current to
// requested. Only Wishlist -> Offer is rejected; identities are allowed.
func ValidateTransition(current, requested Status) error {
	if current == StatusWishlist && requested == StatusOffer {
		return common.NewFieldError("status", MsgWishlistToOffer)
	}
	return nil
}

// Application is a single tracked job application owned by a user.
type Application struct {
	ID            string
	UserID        string
	CompanyName   string
	Role          string
	Location      string
	Status        Status
	AppliedDate   time.Time
	InterviewDate *time.Time
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
