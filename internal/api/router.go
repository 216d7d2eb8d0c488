// Package api exposes the inventory over a JSON HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/db"
)

// Options configure the router.
type Options struct {
	// Location is the time zone of "time" fields in responses.
	Location       *time.Location
	RequestTimeout time.Duration
	CORSOrigins    []string
	BcryptCost     int
	DocsUsername   string
	DocsPassword   string
}

// NewRouter creates the API router with all endpoints registered and the
// middleware chain applied.
func NewRouter(database *db.DB, authn *auth.Authenticator, opts Options) http.Handler {
	mux := http.NewServeMux()
	clk := clock{loc: opts.Location}

	authHandler := &AuthHandler{Auth: authn, clock: clk}
	objectsHandler := &ObjectsHandler{DB: database, clock: clk}
	devicesHandler := &DevicesHandler{DB: database, clock: clk}
	transfersHandler := &TransfersHandler{DB: database, clock: clk}
	reportsHandler := &ReportsHandler{DB: database, clock: clk}
	usersHandler := &UsersHandler{DB: database, BcryptCost: opts.BcryptCost}
	docsHandler := &DocsHandler{Username: opts.DocsUsername, Password: opts.DocsPassword}

	authMW := AuthMiddleware(authn)
	protected := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	adminOnly := func(h http.HandlerFunc) http.Handler { return authMW(RequireAdmin(h)) }

	// Public.
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("GET /healthz", reportsHandler.Health)
	mux.HandleFunc("GET /docs", docsHandler.UI)
	mux.HandleFunc("GET /openapi.json", docsHandler.OpenAPI)

	mux.Handle("GET /api/user", protected(authHandler.Me))

	// Objects.
	mux.Handle("POST /api/objects", protected(objectsHandler.Create))
	mux.Handle("GET /api/objects", protected(objectsHandler.List))
	mux.Handle("GET /api/objects/{id}", protected(objectsHandler.Get))
	mux.Handle("GET /api/objects/by-name/{name}", protected(objectsHandler.GetByName))
	mux.Handle("GET /api/object/full", protected(objectsHandler.Full))

	// Devices. The literal by-name path takes precedence over {id}.
	mux.Handle("POST /api/devices", protected(devicesHandler.Create))
	mux.Handle("GET /api/devices", protected(devicesHandler.List))
	mux.Handle("GET /api/devices/by-name", protected(devicesHandler.GetByName))
	mux.Handle("GET /api/devices/{id}", protected(devicesHandler.Get))

	// Transfers.
	mux.Handle("POST /api/transfer", protected(transfersHandler.Create))
	mux.Handle("GET /api/transfer/history", protected(transfersHandler.History))

	// Reports.
	mux.Handle("GET /api/search", protected(reportsHandler.Search))
	mux.Handle("GET /api/stats", protected(reportsHandler.Stats))

	// Users (admin only).
	mux.Handle("GET /api/users", adminOnly(usersHandler.List))
	mux.Handle("POST /api/users", adminOnly(usersHandler.Create))
	mux.Handle("PUT /api/users/{id}/active", adminOnly(usersHandler.SetActive))

	return withMiddleware(mux, opts)
}

// withMiddleware wraps h in the shared middleware chain. Recovery sits
// inside logging so a panicking request is still logged with its 500.
func withMiddleware(h http.Handler, opts Options) http.Handler {
	h = TimeoutMiddleware(opts.RequestTimeout)(h)
	h = BodyLimitMiddleware(h)
	h = CORSMiddleware(opts.CORSOrigins)(h)
	h = RecoveryMiddleware(h)
	h = LoggingMiddleware(h)
	h = RequestIDMiddleware(h)
	return h
}
