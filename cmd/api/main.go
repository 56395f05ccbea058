package main

import (
	"fmt"
	"net/http"
	"os"

	"satsbudget/internal/config"
	"satsbudget/internal/database"
	"satsbudget/internal/handlers"
	"satsbudget/internal/logger"
	"satsbudget/internal/middleware"
	"satsbudget/internal/services"
	"satsbudget/internal/validator"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(appConfig.DBPath)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	budgetService := services.NewBudgetService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db)
	periodService := services.NewPeriodService(db)
	rolloverService := services.NewRolloverService(db)
	summaryService := services.NewSummaryService(db, transactionService, periodService)
	reportService := services.NewReportService(db)

	// Initialize handlers
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	periodHandler := handlers.NewPeriodHandler(periodService)
	rolloverHandler := handlers.NewRolloverHandler(rolloverService)
	summaryHandler := handlers.NewSummaryHandler(summaryService)
	reportHandler := handlers.NewReportHandler(reportService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Budget routes
	budgets := v1.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.ListBudgets)
	budgets.GET("/:budget_id", budgetHandler.GetBudget)

	// Category routes
	categories := budgets.Group("/:budget_id/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Transaction routes
	transactions := budgets.Group("/:budget_id/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Period routes
	periods := budgets.Group("/:budget_id/periods")
	periods.POST("", periodHandler.CreatePeriod)
	periods.GET("", periodHandler.ListPeriods)
	periods.GET("/find", periodHandler.FindPeriod)
	periods.GET("/:id", periodHandler.GetPeriod)
	periods.POST("/:id/allocations", periodHandler.Allocate)
	periods.POST("/:id/rollovers", periodHandler.AddRollover)
	periods.GET("/:id/allocations", periodHandler.GetAllocations)
	periods.POST("/:id/close", periodHandler.ClosePeriod)
	periods.POST("/:id/reopen", periodHandler.ReopenPeriod)
	periods.GET("/:id/summary", summaryHandler.GetSummary)
	periods.GET("/:id/available", summaryHandler.GetAvailableToAssign)
	periods.GET("/:id/categories/:category_id/remaining", summaryHandler.GetCategoryRemaining)

	// Month transition
	budgets.POST("/:budget_id/transition", rolloverHandler.Transition)

	// Report routes
	reports := budgets.Group("/:budget_id/reports")
	reports.GET("/spending", reportHandler.GetSpendingBreakdown)
	reports.GET("/net-worth", reportHandler.GetNetWorth)

	log.Infof("Starting satsbudget server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
