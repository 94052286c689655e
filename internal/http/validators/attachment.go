package validators

import (
	"fmt"
	"net/url"
	"strings"

	dto "time-bank.com/time-bank/internal/data_models"
	apperr "time-bank.com/time-bank/internal/errors"
)

func ValidateAttachmentRequest(r *dto.AttachmentRequest) error {
	r.FileURL = strings.TrimSpace(r.FileURL)
	if r.FileURL == "" {
		return fmt.Errorf("%w: file_url is required", apperr.ErrInvalidInput)
	}

	if !isHTTPURL(r.FileURL) {
		return fmt.Errorf("%w: file_url must be an absolute http(s) URL", apperr.ErrInvalidInput)
	}
	return nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Host != "" && (u.Scheme == "http" || u.Scheme == "https")
}

func ValidatePushTokenRequest(r *dto.PushTokenRequest) error {
	r.Token = strings.TrimSpace(r.Token)
	if r.Token == "" {
		return fmt.Errorf("%w: token is required", apperr.ErrInvalidInput)
	}
	return nil
}
