package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/geloski43/edcommerce/pkg/errors"
)

// providerError is the error body shape most downstream providers return.
// Fields not present are simply left empty.
type providerError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError converts a non-2xx downstream response into an AppError.
// The caller keeps ownership of the response body.
func ParseResponseError(resp *http.Response, provider string) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		body = nil
	}

	msg := ""
	var pe providerError
	if len(body) > 0 && json.Unmarshal(body, &pe) == nil {
		switch {
		case pe.Message != "":
			msg = pe.Message
		case pe.Error.Message != "":
			msg = pe.Error.Message
		}
		if pe.ErrorCode != "" {
			msg = fmt.Sprintf("%s: %s", pe.ErrorCode, msg)
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("%s returned status %d", provider, resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: msg,
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.Unauthorized(msg)
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest:
		return apperrors.InvalidInput(msg)
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.ServiceUnavailable(msg)
	case resp.StatusCode >= 500:
		return apperrors.ServiceUnavailable(msg)
	default:
		return apperrors.Internal(errors.New(msg))
	}
}
