package main

// Session configuration constants
const (
	SessionCookieName = "session_id"
	minSessionIDLen   = 10
)

// Route constants
const (
	RouteHome    = "/"
	RouteStart   = "/start"
	RouteHint    = "/hint"
	RouteAnswer  = "/answer"
	RouteHealthz = "/healthz"
	RouteStatic  = "/static"
)

// User-facing messages
const (
	MessageGenericError = "Oops, something went wrong... Wait or refresh!"
	PageTitle           = "Guess the Art!"
)

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)

type contextKey string
