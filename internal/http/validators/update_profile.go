package validators

import (
	"fmt"
	"strings"

	dto "time-bank.com/time-bank/internal/data_models"
	apperr "time-bank.com/time-bank/internal/errors"
)

const (
	maxNameLength  = 120
	maxSkills      = 20
	maxSkillLength = 50
)

func ValidateUpdateProfileRequest(r *dto.UpdateProfileRequest) error {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.AvatarURL = strings.TrimSpace(r.AvatarURL)

	if r.Name == "" {
		return fmt.Errorf("%w: name is required", apperr.ErrInvalidInput)
	}
	if len(r.Name) > maxNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", apperr.ErrInvalidInput, maxNameLength)
	}
	if len(r.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters", apperr.ErrInvalidInput, maxDescriptionLength)
	}
	if len(r.SkillSets) > maxSkills {
		return fmt.Errorf("%w: at most %d skills are allowed", apperr.ErrInvalidInput, maxSkills)
	}
	for _, skill := range r.SkillSets {
		if len(strings.TrimSpace(skill)) > maxSkillLength {
			return fmt.Errorf("%w: skills must be at most %d characters", apperr.ErrInvalidInput, maxSkillLength)
		}
	}
	if r.AvatarURL != "" && !isHTTPURL(r.AvatarURL) {
		return fmt.Errorf("%w: avatar_url must be an absolute http(s) URL", apperr.ErrInvalidInput)
	}
	return nil
}
