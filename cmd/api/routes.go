package main

import (
	"net/http"

	"github.com/sirupsen/logrus"

	httphandlers "corebank/internal/interfaces/http"
	"corebank/internal/shared/config"
	"corebank/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)

	mux.Handle("/api/accounts/", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleAccounts)))
	mux.Handle("/api/accounts/{id}", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleAccountByID)))
	mux.Handle("/api/accounts/{id}/transactions", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleAccountTransactions)))
	mux.Handle("/api/accounts/{id}/deposit", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleDeposit)))
	mux.Handle("/api/accounts/{id}/withdraw", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleWithdraw)))
	mux.Handle("/api/transfers/", authMiddleware(http.HandlerFunc(deps.TransferHandler.HandleCreateTransfer)))
	mux.Handle("/api/transfers/{reference}", authMiddleware(http.HandlerFunc(deps.TransferHandler.HandleTransferByReference)))

	// Admin routes
	mux.Handle("/api/admin/accrual/run", authMiddleware(middleware.RequireAdmin(http.HandlerFunc(deps.AdminHandler.HandleRunAccrual))))
	mux.Handle("/api/admin/accounts/{id}/status", authMiddleware(middleware.RequireAdmin(http.HandlerFunc(deps.AdminHandler.HandleSetAccountStatus))))

	// Apply global middleware
	handler := middleware.Logging(middleware.Tracing(middleware.CORS(cfg.Server.AllowedHosts)(mux)))
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(handler)
	}

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		logrus.Info("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
