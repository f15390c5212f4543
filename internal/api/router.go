// Package api exposes the auction house over JSON HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/erazemk/drazba/internal/bidding"
	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

// Config holds what the router needs.
type Config struct {
	DB        *db.DB
	Bidding   *bidding.Service
	JWTSecret string
	// BidLimiter throttles bid placement per bidder. Nil disables it.
	BidLimiter *Limiters
	// LoginLimiter throttles login attempts per username. Nil disables it.
	LoginLimiter *Limiters
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(cfg Config) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: cfg.DB, JWTSecret: cfg.JWTSecret, Logins: cfg.LoginLimiter}
	usersHandler := &UsersHandler{DB: cfg.DB}
	itemsHandler := &ItemsHandler{DB: cfg.DB}
	lotsHandler := &LotsHandler{DB: cfg.DB, Bidding: cfg.Bidding}
	auctionsHandler := &AuctionsHandler{DB: cfg.DB, Bidding: cfg.Bidding}
	bidsHandler := &BidsHandler{DB: cfg.DB, Bidding: cfg.Bidding}
	notificationsHandler := &NotificationsHandler{DB: cfg.DB}

	authMW := AuthMiddleware(cfg.JWTSecret, cfg.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)
	bidLimit := RateLimit(cfg.BidLimiter)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Own account.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("GET /api/me/bids", authMW(http.HandlerFunc(bidsHandler.MyBids)))
	mux.Handle("GET /api/me/wins", authMW(http.HandlerFunc(bidsHandler.MyWins)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))
	mux.Handle("GET /api/users/{id}/wins", authMW(requireAdmin(http.HandlerFunc(bidsHandler.UserWins))))

	// Items: read and write (manager+).
	mux.Handle("GET /api/items", authMW(requireManager(http.HandlerFunc(itemsHandler.List))))
	mux.Handle("POST /api/items", authMW(requireManager(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/{no}", authMW(requireManager(http.HandlerFunc(itemsHandler.Get))))
	mux.Handle("PUT /api/items/{no}", authMW(requireManager(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{no}", authMW(requireManager(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("PUT /api/items/{no}/photo", authMW(requireManager(http.HandlerFunc(itemsHandler.UploadPhoto))))
	mux.Handle("GET /api/items/{no}/photo", authMW(http.HandlerFunc(itemsHandler.GetPhoto)))

	// Lots: read (all roles), write (manager+).
	mux.Handle("GET /api/lots", authMW(http.HandlerFunc(lotsHandler.List)))
	mux.Handle("POST /api/lots", authMW(requireManager(http.HandlerFunc(lotsHandler.Create))))
	mux.Handle("GET /api/lots/{id}", authMW(http.HandlerFunc(lotsHandler.Get)))
	mux.Handle("PUT /api/lots/{id}", authMW(requireManager(http.HandlerFunc(lotsHandler.Update))))
	mux.Handle("DELETE /api/lots/{id}", authMW(requireManager(http.HandlerFunc(lotsHandler.Delete))))
	mux.Handle("PUT /api/lots/{id}/sub-items", authMW(requireManager(http.HandlerFunc(lotsHandler.AssignSubItems))))

	// Auctions: read (all roles), write (manager+), override and finalize (admin).
	mux.Handle("GET /api/auctions", authMW(http.HandlerFunc(auctionsHandler.List)))
	mux.Handle("POST /api/auctions", authMW(requireManager(http.HandlerFunc(auctionsHandler.Create))))
	mux.Handle("GET /api/auctions/{id}", authMW(http.HandlerFunc(auctionsHandler.Get)))
	mux.Handle("PUT /api/auctions/{id}", authMW(requireManager(http.HandlerFunc(auctionsHandler.Update))))
	mux.Handle("DELETE /api/auctions/{id}", authMW(requireManager(http.HandlerFunc(auctionsHandler.Delete))))
	mux.Handle("PUT /api/auctions/{id}/lots", authMW(requireManager(http.HandlerFunc(auctionsHandler.AssignLots))))
	mux.Handle("GET /api/auctions/{id}/state", authMW(http.HandlerFunc(auctionsHandler.GetState)))
	mux.Handle("PUT /api/auctions/{id}/state", authMW(requireAdmin(http.HandlerFunc(auctionsHandler.SaveState))))
	mux.Handle("GET /api/auction-states", authMW(requireAdmin(http.HandlerFunc(auctionsHandler.ListStates))))
	mux.Handle("POST /api/auctions/{id}/finalize", authMW(requireAdmin(http.HandlerFunc(auctionsHandler.Finalize))))
	mux.Handle("GET /api/auctions/{id}/winners", authMW(http.HandlerFunc(auctionsHandler.Winners)))

	// Bids.
	mux.Handle("POST /api/auctions/{auction}/lots/{lot}/bids", authMW(bidLimit(http.HandlerFunc(bidsHandler.Place))))
	mux.Handle("GET /api/auctions/{auction}/lots/{lot}/bids", authMW(requireManager(http.HandlerFunc(bidsHandler.History))))
	mux.Handle("GET /api/auctions/{auction}/lots/{lot}/highest", authMW(http.HandlerFunc(bidsHandler.Highest)))
	mux.Handle("PUT /api/bids/{id}", authMW(requireAdmin(http.HandlerFunc(bidsHandler.Fix))))
	mux.Handle("DELETE /api/bids/{id}", authMW(requireAdmin(http.HandlerFunc(bidsHandler.Delete))))

	// Notifications (own inbox).
	mux.Handle("GET /api/notifications", authMW(http.HandlerFunc(notificationsHandler.List)))
	mux.Handle("PUT /api/notifications/{id}", authMW(http.HandlerFunc(notificationsHandler.MarkRead)))

	var h http.Handler = mux
	h = LoggingMiddleware(h)
	h = middleware.Recoverer(h)
	h = middleware.RequestID(h)
	return h
}
