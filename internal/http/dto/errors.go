package dto

import (
	"errors"

	"linkregistry/internal/domain/models"
)

// publicMessage - текст ошибки одной записи пакета без подробностей хранилища.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrUnfound):
		return "Not found"
	case errors.Is(err, models.ErrInvalidData):
		return "Invalid input"
	case errors.Is(err, models.ErrDuplicate), errors.Is(err, models.ErrConflict):
		return "Concurrent update, retry"
	default:
		return "Internal error"
	}
}
