package dto

import "time"

type LineItemRequest struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type CreateWorkOrderRequest struct {
	CustomerID     string            `json:"customer_id"`
	ScheduledAt    time.Time         `json:"scheduled_at"`
	Notes          string            `json:"notes"`
	Items          []LineItemRequest `json:"items"`
	WithSettlement bool              `json:"with_settlement"`
	Installments   int               `json:"installments"`
}

type ListWorkOrderResponse struct {
	WorkOrders []WorkOrderResponse `json:"work_orders"`
}

type ResultLineRequest struct {
	Kind      string  `json:"kind"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type RecordResultRequest struct {
	Lines []ResultLineRequest `json:"lines"`
}

type FollowUpRequest struct {
	ScheduledAt    time.Time `json:"scheduled_at"`
	WithSettlement bool      `json:"with_settlement"`
	Installments   int       `json:"installments"`
}

type LineItemResponse struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type ResultItemResponse struct {
	Kind      string  `json:"kind"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type ResultResponse struct {
	Items      []ResultItemResponse `json:"items"`
	TotalValue float64              `json:"total_value"`
}

type PaymentResponse struct {
	ID           string  `json:"id"`
	TotalValue   float64 `json:"total_value"`
	Installments int     `json:"installments"`
	Paid         bool    `json:"paid"`
}

type WorkOrderResponse struct {
	ID          string             `json:"id"`
	CustomerID  string             `json:"customer_id"`
	Status      string             `json:"status"`
	ScheduledAt time.Time          `json:"scheduled_at"`
	VisitedAt   *time.Time         `json:"visited_at,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	Items       []LineItemResponse `json:"items"`
	Result      *ResultResponse    `json:"result,omitempty"`
	Payment     *PaymentResponse   `json:"payment,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
