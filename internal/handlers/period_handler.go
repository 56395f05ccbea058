package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "satsbudget/internal/errors"
	"satsbudget/internal/pagination"
	"satsbudget/internal/satoshi"
	"satsbudget/internal/services"
)

// PeriodHandler handles budget period requests: the monthly lifecycle and
// its allocations.
type PeriodHandler struct {
	periodService services.PeriodServicer
}

// NewPeriodHandler creates a new PeriodHandler.
func NewPeriodHandler(periodService services.PeriodServicer) *PeriodHandler {
	return &PeriodHandler{periodService: periodService}
}

// CreatePeriodRequest represents the request payload for creating a period
type CreatePeriodRequest struct {
	Year  int `json:"year" binding:"required,min=2000,max=3000"`
	Month int `json:"month" binding:"required,min=1,max=12"`
}

// AllocateRequest represents the request payload for setting a category's
// allocation total
type AllocateRequest struct {
	CategoryID uint  `json:"category_id" binding:"required"`
	Amount     int64 `json:"amount" binding:"min=0"`
}

// AddRolloverRequest represents the request payload for setting a category's
// allocation from its rollover and fresh components
type AddRolloverRequest struct {
	CategoryID    uint  `json:"category_id" binding:"required"`
	Rollover      int64 `json:"rollover" binding:"min=0"`
	NewAllocation int64 `json:"new_allocation" binding:"min=0"`
}

// CreatePeriod handles the creation of a new budget period
func (h *PeriodHandler) CreatePeriod(c *gin.Context) {
	budgetID, err := parsePathID(c, "budget_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	period, err := h.periodService.CreatePeriod(budgetID, req.Year, req.Month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"period": period})
}

// GetPeriod handles the retrieval of a single period
func (h *PeriodHandler) GetPeriod(c *gin.Context) {
	budgetID, err := parsePathID(c, "budget_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.periodService.GetPeriodByID(budgetID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"period": period})
}

// FindPeriod handles lookup of a period by year and month query parameters
func (h *PeriodHandler) FindPeriod(c *gin.Context) {
	budgetID, err := parsePathID(c, "budget_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid year"))
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid month"))
		return
	}

	period, err := h.periodService.FindPeriod(budgetID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"period": period})
}

// ListPeriods handles the retrieval of a budget's periods
func (h *PeriodHandler) ListPeriods(c *gin.Context) {
	budgetID, err := parsePathID(c, "budget_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.periodService.ListPeriods(budgetID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Allocate handles setting a category's allocation total for a period
func (h *PeriodHandler) Allocate(c *gin.Context) {
	budgetID, err := parsePathID(c, "budget_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := satoshi.New(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	allocation, err := h.periodService.Allocate(budgetID, periodID, req.CategoryID, amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"allocation": allocation})
}

// AddRollover handles setting a category's allocation from its components
func (h *PeriodHandler) AddRollover(c *gin.Context) {
	budgetID, err := parsePathID(c, "budget_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddRolloverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rollover, err := satoshi.New(req.Rollover)
	if err != nil {
		respondWithError(c, err)
		return
	}
	fresh, err := satoshi.New(req.NewAllocation)
	if err != nil {
		respondWithError(c, err)
		return
	}

	allocation, err := h.periodService.AddRollover(budgetID, periodID, req.CategoryID, rollover, fresh)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"allocation": allocation})
}

// GetAllocations handles the retrieval of a period's allocations
func (h *PeriodHandler) GetAllocations(c *gin.Context) {
	budgetID, err := parsePathID(c, "budget_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	allocations, err := h.periodService.GetAllocations(budgetID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	total, err := h.periodService.TotalAllocated(budgetID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"allocations":     allocations,
		"total_allocated": total,
	})
}

// ClosePeriod handles closing a period
func (h *PeriodHandler) ClosePeriod(c *gin.Context) {
	budgetID, err := parsePathID(c, "budget_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.periodService.ClosePeriod(budgetID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"period": period})
}

// ReopenPeriod handles reopening a prematurely closed period
func (h *PeriodHandler) ReopenPeriod(c *gin.Context) {
	budgetID, err := parsePathID(c, "budget_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.periodService.ReopenPeriod(budgetID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"period": period})
}
