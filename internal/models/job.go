package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	JobStatusActive     = "active"
	JobStatusInProgress = "in-progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
	JobStatusExpired    = "expired"
)

// JobExpiry is how long a posting stays open for bidding.
const JobExpiry = 30 * 24 * time.Hour

// Endpoint is one end of a route. Coordinates are optional.
type Endpoint struct {
	City string  `bson:"city" json:"city"`
	Lat  float64 `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng  float64 `bson:"lng,omitempty" json:"lng,omitempty"`
}

type Route struct {
	From Endpoint `bson:"from" json:"from"`
	To   Endpoint `bson:"to" json:"to"`
}

type LoadDetails struct {
	Type        string  `bson:"type" json:"type"`
	WeightKg    float64 `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
}

type VehicleRequirement struct {
	Type         string `bson:"type,omitempty" json:"type,omitempty"` // TRUCK, VAN, MOTORBIKE
	Refrigerated bool   `bson:"refrigerated,omitempty" json:"refrigerated,omitempty"`
}

type Schedule struct {
	PickupDate       time.Time `bson:"pickupDate,omitempty" json:"pickupDate,omitempty"`
	DeliveryDeadline time.Time `bson:"deliveryDeadline,omitempty" json:"deliveryDeadline,omitempty"`
}

type Payment struct {
	Amount   float64 `bson:"amount" json:"amount"`
	Currency string  `bson:"currency" json:"currency"`
	Terms    string  `bson:"terms,omitempty" json:"terms,omitempty"`
}

type Job struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	PostedBy    primitive.ObjectID   `bson:"postedBy" json:"postedBy"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Route       Route                `bson:"route" json:"route"`
	Load        LoadDetails          `bson:"loadDetails" json:"loadDetails"`
	Vehicle     VehicleRequirement   `bson:"vehicleRequirement,omitempty" json:"vehicleRequirement,omitempty"`
	Schedule    Schedule             `bson:"schedule,omitempty" json:"schedule,omitempty"`
	Payment     Payment              `bson:"payment" json:"payment"`
	Status      string               `bson:"status" json:"status"`
	Bids        []primitive.ObjectID `bson:"bids" json:"bids"`
	AcceptedBid *primitive.ObjectID  `bson:"acceptedBid,omitempty" json:"acceptedBid,omitempty"`
	Views       int64                `bson:"views" json:"views"`
	ExpiresAt   time.Time            `bson:"expiresAt" json:"expiresAt"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}
