// Package service holds what the entity services share: repository
// error translation and the id retry budget.
package service

import (
	"errors"

	"github.com/healthsync/healthsync-api/internal/repository"
	apperrors "github.com/healthsync/healthsync-api/pkg/errors"
)

// DefaultIDAttempts bounds id re-allocation after a primary key clash.
const DefaultIDAttempts = 3

var duplicateMessages = map[string]string{
	"patients_cnic_key":               "CNIC already registered",
	"doctors_cnic_key":                "CNIC already registered",
	"authentication_email_key":        "Email already registered",
	"authentication_phone_number_key": "Phone number already registered",
}

// MapRepoError translates repository errors into application errors.
// notFound is the message used for ErrNotFound.
func MapRepoError(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}

	var dup *repository.DuplicateError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(notFound, err)
	case errors.Is(err, repository.ErrSlotTaken):
		return apperrors.NewConflict("Doctor already booked in that slot", err)
	case errors.Is(err, repository.ErrIDTaken):
		return apperrors.NewConflict("Could not allocate a unique id, please retry", err)
	case errors.As(err, &dup):
		msg, ok := duplicateMessages[dup.Constraint]
		if !ok {
			msg = "Record already exists"
		}
		return apperrors.NewConflict(msg, err)
	}
	return apperrors.NewInternal(err)
}
