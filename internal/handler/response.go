package handler

// StatusTokenExpired is the non-standard 498 status the confirmation and
// password-reset flows answer with when a one-time token is invalid or
// expired.
const StatusTokenExpired = 498

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
