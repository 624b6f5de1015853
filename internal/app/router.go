package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"financemanager/internal/config"
	"financemanager/internal/database"
	"financemanager/internal/handlers"
	"financemanager/internal/middleware"
	"financemanager/internal/repository"
	"financemanager/internal/services"
)

// Services bundles every business service the HTTP layer depends on.
type Services struct {
	Users        services.UserServicer
	Categories   services.CategoryServicer
	Transactions services.TransactionServicer
	Budgets      services.BudgetServicer
	Goals        services.GoalServicer
	Reports      services.ReportServicer
	Recurring    services.RecurringServicer
	Audit        services.AuditServicer
}

// NewServices wires the services on top of an open database.
func NewServices(cfg *config.Config, db *gorm.DB) *Services {
	store := repository.NewStore(db, database.RetryPolicy{
		MaxAttempts: cfg.TxMaxAttempts,
		Backoff:     cfg.TxBackoff,
	})
	categories := services.NewCategoryService(db)

	return &Services{
		Users:        services.NewUserService(db),
		Categories:   categories,
		Transactions: services.NewTransactionService(db, categories),
		Budgets:      services.NewBudgetService(db, store, cfg.BatchConcurrency),
		Goals:        services.NewGoalService(db, store, cfg.BatchConcurrency),
		Reports:      services.NewReportService(store),
		Recurring:    services.NewRecurringService(store),
		Audit:        services.NewAuditService(db),
	}
}

// NewRouter builds the gin engine with every route of the API.
func NewRouter(cfg *config.Config, svc *Services) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Audit)
	budgetHandler := handlers.NewBudgetHandler(svc.Budgets, svc.Audit)
	goalHandler := handlers.NewGoalHandler(svc.Goals, svc.Audit)
	reportHandler := handlers.NewReportHandler(svc.Reports)
	pipelineHandler := handlers.NewPipelineHandler(svc.Recurring)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Scheduler-facing routes
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(cfg.PipelineAPIKey))
	pipeline.POST("/recurring/process", pipelineHandler.ProcessRecurring)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	budgets := protected.Group("/budgets")
	budgets.GET("/templates", budgetHandler.ListTemplates)
	budgets.POST("/templates", budgetHandler.CreateTemplate)
	budgets.POST("/templates/:id/apply", budgetHandler.ApplyTemplate)
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)
	budgets.GET("/:id/transactions", budgetHandler.GetRecentTransactions)
	budgets.POST("/:id/refresh", budgetHandler.RefreshSpending)

	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.GetGoals)
	goals.GET("/:id", goalHandler.GetGoal)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.GET("/:id/progress", goalHandler.GetGoalProgress)
	goals.POST("/:id/contributions", goalHandler.Contribute)
	goals.GET("/:id/contributions", goalHandler.GetContributions)

	reports := protected.Group("/reports")
	reports.GET("/summary", reportHandler.GetFinancialSummary)
	reports.GET("/cash-flow", reportHandler.GetCashFlow)
	reports.GET("/budget-analysis", reportHandler.GetBudgetAnalysis)
	reports.GET("/category-breakdown", reportHandler.GetCategoryBreakdown)
	reports.GET("/monthly-trends", reportHandler.GetMonthlyTrends)
	reports.GET("/goal-progress", reportHandler.GetGoalProgress)

	return router
}
