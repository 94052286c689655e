package validators

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	dto "time-bank.com/time-bank/internal/data_models"
	apperr "time-bank.com/time-bank/internal/errors"
	repository "time-bank.com/time-bank/internal/repositories"
)

const maxListLimit = 100

// ParseOpenTasksQuery turns query-string filters into a store filter.
func ParseOpenTasksQuery(q *dto.OpenTasksQuery) (repository.OpenTaskFilter, error) {
	filter := repository.OpenTaskFilter{
		Keyword:      strings.TrimSpace(q.Keyword),
		Location:     strings.TrimSpace(q.Location),
		Availability: strings.TrimSpace(q.Availability),
		Limit:        q.Limit,
	}

	if q.Limit < 0 || q.Limit > maxListLimit {
		return filter, fmt.Errorf("%w: limit must be between 0 and %d", apperr.ErrInvalidInput, maxListLimit)
	}

	if s := strings.TrimSpace(q.MinTime); s != "" {
		minTime, err := decimal.NewFromString(s)
		if err != nil || minTime.IsNegative() {
			return filter, fmt.Errorf("%w: min_time must be a non-negative number", apperr.ErrInvalidInput)
		}
		filter.MinTime = minTime
	}

	return filter, nil
}
