package core

// Environment variables read outside Config.LoadFromEnv
const (
	EnvConfigFile = "PIZZERIA_CONFIG"
	EnvRedisURL   = "REDIS_URL"
)

// Navigation routes emitted by the session.
const (
	RouteMenu    = "/menu"
	RouteAuth    = "/auth"
	RouteOrder   = "/order"
	RouteBuilder = "/builder"

	// ReturnURLParam carries the page to come back to after login.
	ReturnURLParam = "returnUrl"
)
