package utils

// Cookie names shared by the session issuer, the admission gate and the
// session middleware.
const (
	SessionCookieName = "session"
	RoleCookieName    = "session_role"
	MarkerCookieName  = "__rahal_session"
)
