package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// Store-level error classes the service layer branches on. Mongo errors
// are translated at this boundary so nothing above it imports the driver
// error types.
var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}
