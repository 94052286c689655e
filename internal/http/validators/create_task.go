package validators

import (
	"fmt"
	"strings"

	dto "time-bank.com/time-bank/internal/data_models"
	apperr "time-bank.com/time-bank/internal/errors"
	model "time-bank.com/time-bank/internal/models"
)

const (
	maxTitleLength       = 120
	maxDescriptionLength = 2000
)

func ValidateCreateTaskRequest(r *dto.CreateTaskRequest) error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)

	if r.Title == "" {
		return fmt.Errorf("%w: title is required", apperr.ErrInvalidInput)
	}
	if len(r.Title) > maxTitleLength {
		return fmt.Errorf("%w: title must be at most %d characters", apperr.ErrInvalidInput, maxTitleLength)
	}
	if len(r.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters", apperr.ErrInvalidInput, maxDescriptionLength)
	}
	if !model.ValidHours(r.TimeOffered) {
		return fmt.Errorf(
			"time_offered must be greater than zero, at most %s and use at most %d decimal places: %w",
			model.MaxHours, model.HoursScale, apperr.ErrInvalidHours,
		)
	}
	return nil
}
