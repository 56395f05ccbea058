package integration

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"satsbudget/internal/handlers"
	"satsbudget/internal/logger"
	"satsbudget/internal/middleware"
	"satsbudget/internal/models"
	"satsbudget/internal/services"
	"satsbudget/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integrationdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.Budget{},
		&models.Category{},
		&models.Transaction{},
		&models.BudgetPeriod{},
		&models.Allocation{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	budgetService := services.NewBudgetService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db)
	periodService := services.NewPeriodService(db)
	rolloverService := services.NewRolloverService(db)
	summaryService := services.NewSummaryService(db, transactionService, periodService)
	reportService := services.NewReportService(db)

	// Handlers
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	periodHandler := handlers.NewPeriodHandler(periodService)
	rolloverHandler := handlers.NewRolloverHandler(rolloverService)
	summaryHandler := handlers.NewSummaryHandler(summaryService)
	reportHandler := handlers.NewReportHandler(reportService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	budgets := v1.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.ListBudgets)
	budgets.GET("/:budget_id", budgetHandler.GetBudget)

	categories := budgets.Group("/:budget_id/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := budgets.Group("/:budget_id/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

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

	budgets.POST("/:budget_id/transition", rolloverHandler.Transition)

	reports := budgets.Group("/:budget_id/reports")
	reports.GET("/spending", reportHandler.GetSpendingBreakdown)
	reports.GET("/net-worth", reportHandler.GetNetWorth)

	return &testApp{DB: db, Router: router}
}

func (app *testApp) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// objectID pulls the numeric id from a nested response object like {"budget": {"id": 1}}.
func objectID(t *testing.T, result map[string]interface{}, key string) uint {
	t.Helper()
	obj, ok := result[key].(map[string]interface{})
	if !ok {
		t.Fatalf("expected %q object in response, got: %v", key, result)
	}
	id, ok := obj["id"].(float64)
	if !ok {
		t.Fatalf("expected numeric id in %q object, got: %v", key, obj)
	}
	return uint(id)
}
