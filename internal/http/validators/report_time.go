package validators

import (
	"fmt"

	dto "time-bank.com/time-bank/internal/data_models"
	apperr "time-bank.com/time-bank/internal/errors"
	model "time-bank.com/time-bank/internal/models"
)

func ValidateReportTimeRequest(r *dto.ReportTimeRequest) error {
	if !model.ValidHours(r.Hours) {
		return fmt.Errorf(
			"hours must be greater than zero, at most %s and use at most %d decimal places: %w",
			model.MaxHours, model.HoursScale, apperr.ErrInvalidHours,
		)
	}
	return nil
}
