package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "satsbudget/internal/errors"
	"satsbudget/internal/satoshi"
	"satsbudget/internal/services"
)

// RolloverHandler handles month transition requests.
type RolloverHandler struct {
	rolloverService services.RolloverServicer
}

// NewRolloverHandler creates a new RolloverHandler.
func NewRolloverHandler(rolloverService services.RolloverServicer) *RolloverHandler {
	return &RolloverHandler{rolloverService: rolloverService}
}

// NewAllocationEntry is one category's fresh funding for the next month.
type NewAllocationEntry struct {
	CategoryID uint  `json:"category_id" binding:"required"`
	Amount     int64 `json:"amount" binding:"min=0"`
}

// TransitionRequest represents the request payload for a month transition
type TransitionRequest struct {
	CurrentPeriodID uint                 `json:"current_period_id" binding:"required"`
	NewAllocations  []NewAllocationEntry `json:"new_allocations"`
	CloseCurrent    bool                 `json:"close_current"`
}

// Transition handles moving a budget into the next calendar month
func (h *RolloverHandler) Transition(c *gin.Context) {
	budgetID, err := parsePathID(c, "budget_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	newAllocations := make(map[uint]satoshi.Amount, len(req.NewAllocations))
	for _, entry := range req.NewAllocations {
		amount, err := satoshi.New(entry.Amount)
		if err != nil {
			respondWithError(c, err)
			return
		}
		newAllocations[entry.CategoryID] = amount
	}

	result, err := h.rolloverService.TransitionToNextMonth(budgetID, req.CurrentPeriodID, newAllocations, req.CloseCurrent)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transition": result})
}
