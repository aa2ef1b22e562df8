package api

// IdentityCookie is the cookie carrying the signed identity token; it is
// issued on login and required by every protected endpoint.
const IdentityCookie = "relight_session"

// CredentialsRequest carries the login/password pair for registration and
// login requests.
type CredentialsRequest struct {
	Login    string `json:"login"`    // unique login name
	Password string `json:"password"` // plaintext password, hashed server-side
}

// StatusResponse is the common reply for registration, login and logout.
type StatusResponse struct {
	Error   string `json:"error,omitempty"` // human-readable failure reason
	Success bool   `json:"success"`         // whether the operation succeeded
}

// MeResponse describes the authenticated account.
type MeResponse struct {
	Login string `json:"login"` // login name of the session owner
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ErrorResponse is the generic error body for non-auth endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`             // HTTP status text
	Message string `json:"message,omitempty"` // additional detail, never internal paths
}
