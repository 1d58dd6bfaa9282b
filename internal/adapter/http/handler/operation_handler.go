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

// OperationHandler exposes rebalance legs to operators.
type OperationHandler struct {
	opSvc ports.OperationQueryService
}

// NewOperationHandler creates a new OperationHandler.
func NewOperationHandler(opSvc ports.OperationQueryService) *OperationHandler {
	return &OperationHandler{opSvc: opSvc}
}

// List handles GET /api/v1/operations.
func (h *OperationHandler) List(c *gin.Context) {
	var q dto.OperationListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	params := ports.OperationListParams{Unlinked: q.Unlinked, Limit: q.Limit}
	if params.Limit == 0 {
		params.Limit = defaultListLimit
	}
	if q.Ticker != "" {
		params.TickerHash = domain.NormalizeTicker(q.Ticker)
	}
	if q.EarmarkID != "" {
		if q.Unlinked {
			response.Error(c, apperror.Validation("earmark_id and unlinked are mutually exclusive"))
			return
		}
		id := uuid.MustParse(q.EarmarkID)
		params.EarmarkID = &id
	}
	for _, s := range dto.SplitList(q.Status) {
		params.Statuses = append(params.Statuses, domain.OperationStatus(s))
	}

	ops, err := h.opSvc.ListOperations(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.OperationResponse, 0, len(ops))
	for i := range ops {
		items = append(items, dto.ToOperationResponse(&ops[i]))
	}
	response.OK(c, dto.NewListResponse(items))
}
