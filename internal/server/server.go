// Package server wires the ledger services into the HTTP router.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"erario/internal/config"
	"erario/internal/handlers"
	"erario/internal/middleware"
	"erario/internal/services"
	"erario/internal/validator"

	_ "erario/internal/docs" // swagger docs
)

// Services bundles everything the router needs.
type Services struct {
	Budgets      services.BudgetServicer
	LineItems    services.LineItemServicer
	Availability services.AvailabilityChecker
	Ledger       services.LedgerServicer
	Audit        services.AuditServicer
}

// NewServices builds the ledger services on db.
func NewServices(db *gorm.DB, publisher services.EventPublisher, opts services.LedgerOptions) *Services {
	lineItems := services.NewLineItemService(db, opts)
	return &Services{
		Budgets:      services.NewBudgetService(db),
		LineItems:    lineItems,
		Availability: services.NewAvailabilityService(db),
		Ledger:       services.NewLedgerService(db, lineItems, services.NewReferenceService(db), publisher, opts),
		Audit:        services.NewAuditService(db),
	}
}

// LedgerOptionsFrom reads the retry settings from cfg.
func LedgerOptionsFrom(cfg *config.Config) services.LedgerOptions {
	opts := services.DefaultLedgerOptions()
	if cfg.LedgerMaxRetries > 0 {
		opts.MaxRetries = cfg.LedgerMaxRetries
	}
	if cfg.LedgerRetryBackoff > 0 {
		opts.RetryBackoff = cfg.LedgerRetryBackoff
	}
	return opts
}

// NewRouter registers every route.
func NewRouter(cfg *config.Config, svc *Services) *gin.Engine {
	budgetHandler := handlers.NewBudgetHandler(svc.Budgets, svc.Audit)
	lineItemHandler := handlers.NewLineItemHandler(svc.LineItems, svc.Availability, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Ledger, svc.Audit)
	paymentHandler := handlers.NewPaymentHandler(svc.Ledger, svc.Audit)
	profileHandler := handlers.NewProfileHandler()

	validator.Register()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Machine callers
	integrations := v1.Group("/integrations")
	integrations.Use(middleware.APIKeyMiddleware(cfg.PaymentsAPIKey))
	integrations.POST("/payments/:id", paymentHandler.RecordPayment)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg))

	protected.GET("/profile", profileHandler.GetProfile)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.POST("/:id/activate", budgetHandler.ActivateBudget)
	budgets.POST("/:id/close", budgetHandler.CloseBudget)
	budgets.GET("/:id/summary", budgetHandler.GetExecutionSummary)
	budgets.POST("/:id/line-items", lineItemHandler.CreateLineItem)
	budgets.GET("/:id/line-items", lineItemHandler.GetLineItems)

	protected.GET("/fiscal-years/:year/budget", budgetHandler.GetBudgetByFiscalYear)

	lineItems := protected.Group("/line-items")
	lineItems.GET("/:id", lineItemHandler.GetLineItem)
	lineItems.PUT("/:id/allocation", lineItemHandler.UpdateAllocation)
	lineItems.DELETE("/:id", lineItemHandler.DeleteLineItem)
	lineItems.GET("/:id/availability", lineItemHandler.CheckAvailability)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.POST("/:id/accrue", transactionHandler.AccrueTransaction)
	transactions.POST("/:id/pay", transactionHandler.PayTransaction)
	transactions.POST("/:id/cancel", transactionHandler.CancelTransaction)

	return router
}
