package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bid states. Pending is the only initial state; the other three are
// terminal, no transition leaves them.
const (
	BidStatusPending   = "pending"
	BidStatusAccepted  = "accepted"
	BidStatusRejected  = "rejected"
	BidStatusWithdrawn = "withdrawn"
)

func BidStatusTerminal(status string) bool {
	switch status {
	case BidStatusAccepted, BidStatusRejected, BidStatusWithdrawn:
		return true
	default:
		return false
	}
}

type Bid struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Job               primitive.ObjectID `bson:"job" json:"job"`
	Bidder            primitive.ObjectID `bson:"bidder" json:"bidder"`
	Amount            float64            `bson:"amount" json:"amount"`
	Currency          string             `bson:"currency" json:"currency"`
	Message           string             `bson:"message,omitempty" json:"message,omitempty"`
	ProposedStartDate time.Time          `bson:"proposedStartDate,omitempty" json:"proposedStartDate,omitempty"`
	EstimatedDays     int                `bson:"estimatedDurationDays,omitempty" json:"estimatedDurationDays,omitempty"`
	Status            string             `bson:"status" json:"status"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// BidView is a bid joined with the display fields both sides of the
// marketplace need in lists.
type BidView struct {
	Bid
	BidderName   string `json:"bidderName,omitempty"`
	BidderRating Rating `json:"bidderRating,omitempty"`
	JobTitle     string `json:"jobTitle,omitempty"`
	JobStatus    string `json:"jobStatus,omitempty"`
}
