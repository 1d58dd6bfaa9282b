package dto

import (
	"sort"
	"time"

	"solver-rebalancer/internal/core/domain"
)

// EarmarkListQuery filters GET /api/v1/earmarks.
type EarmarkListQuery struct {
	Status    string `form:"status" binding:"omitempty,earmark_status"`
	InvoiceID string `form:"invoice_id" binding:"omitempty,max=130,safe_id"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// OperationListQuery filters GET /api/v1/operations.
type OperationListQuery struct {
	Status    string `form:"status" binding:"omitempty,operation_status"`
	EarmarkID string `form:"earmark_id" binding:"omitempty,uuid"`
	Ticker    string `form:"ticker" binding:"omitempty,max=130,safe_id"`
	Unlinked  bool   `form:"unlinked"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// CancelEarmarkRequest is the body of POST /api/v1/earmarks/:id/cancel.
type CancelEarmarkRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=200"`
}

// EarmarkResponse is one earmark. Amounts are base-10 strings.
type EarmarkResponse struct {
	ID               string `json:"id"`
	InvoiceID        string `json:"invoice_id"`
	DesignatedDomain string `json:"designated_domain"`
	TickerHash       string `json:"ticker_hash"`
	MinAmount        string `json:"min_amount"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// ReceiptResponse is one recorded transaction of a leg.
type ReceiptResponse struct {
	Domain          string `json:"domain"`
	TransactionHash string `json:"transaction_hash"`
	BlockNumber     uint64 `json:"block_number"`
	Status          uint64 `json:"status"`
	Memo            string `json:"memo,omitempty"`
}

// OperationResponse is one rebalance leg.
type OperationResponse struct {
	ID          string            `json:"id"`
	EarmarkID   *string           `json:"earmark_id,omitempty"`
	Origin      string            `json:"origin_domain"`
	Destination string            `json:"destination_domain"`
	TickerHash  string            `json:"ticker_hash"`
	Amount      string            `json:"amount"`
	Bridge      string            `json:"bridge"`
	Status      string            `json:"status"`
	Recipient   string            `json:"recipient"`
	IsOrphaned  bool              `json:"is_orphaned"`
	Receipts    []ReceiptResponse `json:"receipts"`
	// NextLegStartedAt is set while a follow-up hop is being submitted.
	NextLegStartedAt string `json:"next_leg_started_at,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// ListResponse wraps a list of items.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// NewListResponse builds a ListResponse, never with a nil slice.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}

// ToEarmarkResponse converts a domain earmark.
func ToEarmarkResponse(e *domain.Earmark) EarmarkResponse {
	return EarmarkResponse{
		ID:               e.ID.String(),
		InvoiceID:        e.InvoiceID,
		DesignatedDomain: string(e.DesignatedDomain),
		TickerHash:       string(e.TickerHash),
		MinAmount:        domain.AmountOrZero(e.MinAmount).Dec(),
		Status:           string(e.Status),
		CreatedAt:        e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ToOperationResponse converts a domain leg. Receipts are sorted by domain.
func ToOperationResponse(op *domain.RebalanceOperation) OperationResponse {
	resp := OperationResponse{
		ID:          op.ID.String(),
		Origin:      string(op.Origin),
		Destination: string(op.Destination),
		TickerHash:  string(op.TickerHash),
		Amount:      domain.AmountOrZero(op.Amount).Dec(),
		Bridge:      string(op.Bridge),
		Status:      string(op.Status),
		Recipient:   op.Recipient.Hex(),
		IsOrphaned:  op.IsOrphaned,
		Receipts:    make([]ReceiptResponse, 0, len(op.Receipts)),
		CreatedAt:   op.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   op.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if op.EarmarkID != nil {
		id := op.EarmarkID.String()
		resp.EarmarkID = &id
	}
	if op.NextLegStartedAt != nil {
		resp.NextLegStartedAt = op.NextLegStartedAt.UTC().Format(time.RFC3339)
	}
	for d, r := range op.Receipts {
		resp.Receipts = append(resp.Receipts, ReceiptResponse{
			Domain:          string(d),
			TransactionHash: r.TransactionHash.Hex(),
			BlockNumber:     r.BlockNumber,
			Status:          r.Status,
			Memo:            string(r.Memo),
		})
	}
	sort.Slice(resp.Receipts, func(i, j int) bool { return resp.Receipts[i].Domain < resp.Receipts[j].Domain })
	return resp
}
