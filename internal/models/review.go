package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CategoryRatings are the optional per-category sub-ratings, each 1..5
// when present.
type CategoryRatings struct {
	Communication int `bson:"communication,omitempty" json:"communication,omitempty"`
	Punctuality   int `bson:"punctuality,omitempty" json:"punctuality,omitempty"`
	Care          int `bson:"care,omitempty" json:"care,omitempty"`
}

type Review struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Reviewer   primitive.ObjectID `bson:"reviewer" json:"reviewer"`
	Reviewee   primitive.ObjectID `bson:"reviewee" json:"reviewee"`
	Job        primitive.ObjectID `bson:"job" json:"job"`
	RatingVal  int                `bson:"rating" json:"rating"`
	Categories CategoryRatings    `bson:"categories,omitempty" json:"categories,omitempty"`
	Comment    string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
