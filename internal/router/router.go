// Package router registers the API's HTTP routes.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-reservation/internal/handler"
    "github.com/iliyamo/room-reservation/internal/middleware"
    "github.com/iliyamo/room-reservation/internal/model"
)

// RegisterRoutes registers routes that require no authentication and
// no handler dependencies.  Currently just the health check.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Register,
// login, refresh and logout live under /v1/auth and need no session;
// /v1/me sits behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    g.POST("/refresh-access", a.RefreshAccess)
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))
    auth.GET("/me", a.Me)

    // Logout also works without a JWT when a refresh token is supplied
    // in the body.
    e.POST("/v1/logout", a.Logout)
}

// RegisterRooms registers the public room catalog reads.  cache may be
// nil; when set it fronts the list and detail endpoints.
func RegisterRooms(e *echo.Echo, r *handler.RoomHandler, cache echo.MiddlewareFunc) {
    mws := []echo.MiddlewareFunc{}
    if cache != nil {
        mws = append(mws, cache)
    }
    e.GET("/v1/rooms", r.List, mws...)
    e.GET("/v1/rooms/:id", r.Get, mws...)
}

// RegisterBookings registers the reservation and payment endpoints.
// All of them require an authenticated customer or admin; the Stripe
// webhook is the exception and is authenticated by its signature
// instead.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, p *handler.PaymentHandler, jwtSecret string) {
    g := e.Group("/v1")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))

    g.POST("/bookings", b.Create)
    g.GET("/bookings", b.List)
    g.GET("/bookings/:id", b.Get)
    g.POST("/payment-intents", p.CreateIntent)

    e.POST("/v1/stripe/webhook", p.Webhook)
}
