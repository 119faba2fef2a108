// Package routes defines the API routing configuration.
package routes

import (
	"fundapp/internal/handlers"
	"fundapp/internal/services/account"
	"fundapp/internal/services/exchange"
	"fundapp/internal/services/owner"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Owners   owner.Service
	Accounts account.Service
	Exchange exchange.Service
	Gatherer prometheus.Gatherer
	Health   map[string]handlers.HealthCheck
	Version  string
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Version, deps.Health)
	app.Get("/health", healthHandler.HealthCheck)

	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	ownerHandler := handlers.NewOwnerHandler(deps.Owners)
	owners := api.Group("/owners")
	owners.Post("/", ownerHandler.CreateOwner)
	owners.Get("/", ownerHandler.ListOwners)
	owners.Get("/:id", ownerHandler.GetOwner)
	owners.Get("/:id/details", ownerHandler.GetOwnerDetails)
	owners.Patch("/:id", ownerHandler.AddAccount)
	owners.Delete("/:id", ownerHandler.DeleteOwner)

	accountHandler := handlers.NewAccountHandler(deps.Accounts)
	accounts := api.Group("/accounts")
	accounts.Post("/transfer", accountHandler.Transfer)
	accounts.Get("/:id", accountHandler.GetAccount)
	accounts.Delete("/:id", accountHandler.DeleteAccount)
	accounts.Post("/:id/deposit", accountHandler.Deposit)
	accounts.Post("/:id/withdraw", accountHandler.Withdraw)

	exchangeHandler := handlers.NewExchangeHandler(deps.Exchange)
	api.Get("/exchange-rates/:base", exchangeHandler.GetRates)
}
