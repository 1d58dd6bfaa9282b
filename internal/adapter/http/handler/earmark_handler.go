package handler

import (
	"solver-rebalancer/internal/adapter/http/dto"
	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/pkg/apperror"
	"solver-rebalancer/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultListLimit = 100

// EarmarkHandler exposes earmarks to operators.
type EarmarkHandler struct {
	earmarkSvc ports.EarmarkService
}

// NewEarmarkHandler creates a new EarmarkHandler.
func NewEarmarkHandler(earmarkSvc ports.EarmarkService) *EarmarkHandler {
	return &EarmarkHandler{earmarkSvc: earmarkSvc}
}

// List handles GET /api/v1/earmarks.
func (h *EarmarkHandler) List(c *gin.Context) {
	var q dto.EarmarkListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	params := ports.EarmarkListParams{InvoiceID: q.InvoiceID, Limit: q.Limit}
	if params.Limit == 0 {
		params.Limit = defaultListLimit
	}
	for _, s := range dto.SplitList(q.Status) {
		params.Statuses = append(params.Statuses, domain.EarmarkStatus(s))
	}

	earmarks, err := h.earmarkSvc.ListEarmarks(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.EarmarkResponse, 0, len(earmarks))
	for i := range earmarks {
		items = append(items, dto.ToEarmarkResponse(&earmarks[i]))
	}
	response.OK(c, dto.NewListResponse(items))
}

// Get handles GET /api/v1/earmarks/:id.
func (h *EarmarkHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid earmark id"))
		return
	}

	earmark, err := h.earmarkSvc.GetEarmark(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if earmark == nil {
		response.Error(c, apperror.ErrNotFound("earmark"))
		return
	}
	response.OK(c, dto.ToEarmarkResponse(earmark))
}

// Cancel handles POST /api/v1/earmarks/:id/cancel. The earmark manager
// rejects the transition if the earmark is already terminal.
func (h *EarmarkHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid earmark id"))
		return
	}

	var req dto.CancelEarmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	ctx := c.Request.Context()
	if err := h.earmarkSvc.UpdateStatus(ctx, id, domain.EarmarkStatusCancelled, req.Reason); err != nil {
		response.Error(c, err)
		return
	}

	earmark, err := h.earmarkSvc.GetEarmark(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToEarmarkResponse(earmark))
}
