package server

// Route path constants
const (
	// Session routes
	RouteAuthLogin         = "/auth/login"
	RouteAuthLoginUser     = "/auth/login/user"
	RouteAuthLoginEmployee = "/auth/login/employee"
	RouteAuthRefresh       = "/auth/refresh"
	RouteAuthRevoke        = "/auth/revoke"
	RouteAuthLogout        = "/auth/logout"

	// Step-up
	RouteAuthVerifyPin = "/auth/verify-pin"

	RouteHealth = "/health"
)
