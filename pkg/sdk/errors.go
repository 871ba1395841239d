package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error codes shared between the server handlers and this client.
const (
	ErrorCodeInvalidRequest      = "invalid_request"
	ErrorCodeInvalidEmail        = "invalid_email"
	ErrorCodeWeakPassword        = "weak_password"
	ErrorCodeDuplicateAccount    = "duplicate_account"
	ErrorCodeInvalidCredentials  = "invalid_credentials"
	ErrorCodeAccountLocked       = "account_locked"
	ErrorCodeInvalidRefreshToken = "invalid_refresh_token"
	ErrorCodeUnauthorized        = "unauthorized"
	ErrorCodeNotFound            = "not_found"
	ErrorCodeRateLimited         = "rate_limited"
	ErrorCodeServerError         = "server_error"
)

// APIError is a non-2xx response decoded into a typed error. RetryAfter
// is populated from the body for lockout and rate-limit responses.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
	RetryAfter  int    `json:"retry_after,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// IsAccountLocked reports whether the error is a lockout rejection.
func (e *APIError) IsAccountLocked() bool {
	return e.Code == ErrorCodeAccountLocked
}

// IsInvalidCredentials reports whether the error is a credential rejection.
func (e *APIError) IsInvalidCredentials() bool {
	return e.Code == ErrorCodeInvalidCredentials
}

// parseErrorResponse converts a non-2xx body into an *APIError. Bodies
// that are not the shared error shape still yield a usable error with
// the status code attached.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = ErrorCodeServerError
		apiErr.Description = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
