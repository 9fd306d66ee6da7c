package server

import "github.com/jrsteele09/go-store-auth/auth"

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// LOGIN
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(auth.HintAny), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLoginUser, ChainMiddleware(s.LoginHandler(auth.HintUser), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLoginEmployee, ChainMiddleware(s.LoginHandler(auth.HintEmployee), s.APIMiddleware()...))

	// REFRESH TOKEN LIFECYCLE
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRevoke, ChainMiddleware(s.RevokeHandler(), s.APIMiddleware(s.OptionalAuth())...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.OptionalAuth())...))

	// STEP-UP
	s.RegisterRouteHandler("POST "+RouteAuthVerifyPin, ChainMiddleware(s.VerifyPinHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireEmployee())...))

	// Preflight for every API route
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))
}
