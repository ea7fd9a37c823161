package routes

import (
	"bondledger/internal/adapters/http/handlers"
	"bondledger/internal/adapters/http/middleware"
	"bondledger/internal/adapters/persistence/repositories"
	"bondledger/internal/config"
	"bondledger/internal/core/services"
	"bondledger/internal/directory"
	"bondledger/internal/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps exposes the wired services the server needs outside the HTTP tree,
// notably for the scheduler
type Deps struct {
	Coupons   *services.CouponService
	Directory directory.Directory
}

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, log *logrus.Logger, notifier services.Notifier) *Deps {
	// Repositories
	partyRepo := repositories.NewPartyRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	termRepo := repositories.NewTermRepository(db)
	bondRepo := repositories.NewBondRepository(db)
	holdingRepo := repositories.NewHoldingRepository(db)
	cashStateRepo := repositories.NewCashStateRepository(db)
	journalRepo := repositories.NewJournalRepository(db)

	// Ledger plumbing
	committer := ledger.NewGormCommitter(db, log)
	dir := directory.NewPartyDirectory(partyRepo)

	// Services
	authService := services.NewAuthService(partyRepo, refreshTokenRepo, cfg, log)
	termService := services.NewTermService(termRepo, dir, committer, log)
	cashService := services.NewCashService(cashStateRepo, holdingRepo, dir, committer, log)
	bondRequestService := services.NewBondRequestService(
		termRepo, bondRepo, holdingRepo, dir, cashService, committer, notifier, log)
	couponService := services.NewCouponService(
		bondRepo, termRepo, holdingRepo, cashService, committer, notifier, log)

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	partyHandler := handlers.NewPartyHandler(partyRepo)
	vocabHandler := handlers.NewVocabHandler()
	termHandler := handlers.NewTermHandler(termService)
	bondHandler := handlers.NewBondHandler(bondRequestService, bondRepo, holdingRepo)
	cashHandler := handlers.NewCashHandler(cashService)
	couponHandler := handlers.NewCouponHandler(couponService)
	journalHandler := handlers.NewJournalHandler(journalRepo)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (rate limited, no token required)
	auth := apiV1.Group("/auth")
	auth.Post("/register", middleware.AuthRateLimiter(), authHandler.Register)
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/logout-all", middleware.AuthMiddleware(cfg), authHandler.LogoutAll)
	auth.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)

	// Closed vocabularies (public, cacheable)
	vocab := apiV1.Group("/vocab", middleware.VocabularyCache())
	vocab.Get("/currencies", vocabHandler.ListCurrencies)
	vocab.Get("/credit-ratings", vocabHandler.ListCreditRatings)
	vocab.Get("/bond-types", vocabHandler.ListBondTypes)
	vocab.Get("/roles", partyHandler.ListRoles)

	// Everything below requires an authenticated party
	authed := apiV1.Group("", middleware.AuthMiddleware(cfg))

	// Party directory
	parties := authed.Group("/parties")
	parties.Get("/", partyHandler.ListParties)
	parties.Get("/:name", partyHandler.GetParty)

	// Terms; ledger state must never be cached
	terms := authed.Group("/terms", middleware.NoCacheHeaders())
	terms.Post("/", middleware.BankOnly(), middleware.SettlementRateLimiter(), termHandler.CreateTerm)
	terms.Get("/", termHandler.ListTerms)
	terms.Get("/:linear_id", termHandler.GetTerm)

	// Bonds
	bonds := authed.Group("/bonds", middleware.NoCacheHeaders())
	bonds.Post("/request", middleware.BankOnly(), middleware.SettlementRateLimiter(), bondHandler.RequestBond)
	bonds.Post("/redeem", middleware.BankOnly(), middleware.SettlementRateLimiter(), couponHandler.Redeem)
	bonds.Get("/holdings", bondHandler.ListHoldings)
	bonds.Get("/", bondHandler.ListBonds)
	bonds.Get("/:linear_id", bondHandler.GetBond)

	// Coupons
	coupons := authed.Group("/coupons")
	coupons.Post("/run", middleware.BankOnly(), middleware.SettlementRateLimiter(), couponHandler.RunCycle)

	// Cash
	cash := authed.Group("/cash", middleware.NoCacheHeaders())
	cash.Post("/issue", middleware.CentralBankOnly(), middleware.SettlementRateLimiter(), cashHandler.IssueCash)
	cash.Post("/transfer", middleware.BankOrCentralBank(), middleware.SettlementRateLimiter(), cashHandler.TransferCash)
	cash.Get("/balance", cashHandler.GetBalance)

	// Journal
	authed.Get("/journal", journalHandler.ListTransactions)

	return &Deps{
		Coupons:   couponService,
		Directory: dir,
	}
}
