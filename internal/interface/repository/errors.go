package repository

import (
	"errors"

	"flightwatch-bot/internal/domain/entity"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// translate maps driver level "missing row" errors to entity.ErrNotFound
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments), errors.Is(err, gorm.ErrRecordNotFound):
		return entity.ErrNotFound
	default:
		return err
	}
}
