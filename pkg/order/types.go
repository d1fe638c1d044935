package order

import (
	"fmt"
	"time"
)

// Status is the order lifecycle status.
type Status string

const (
	StatusPending           Status = "pending"
	StatusPaymentProcessing Status = "payment_processing"
	StatusPaymentConfirmed  Status = "payment_confirmed"
	StatusPaymentFailed     Status = "payment_failed"
	StatusPreparing         Status = "preparing"
	StatusReady             Status = "ready"
	StatusOutForDelivery    Status = "out_for_delivery"
	StatusDelivered         Status = "delivered"
	StatusFailed            Status = "failed"
	StatusReturned          Status = "returned"
	StatusCanceled          Status = "canceled"
	StatusRefunded          Status = "refunded"
)

// transitions is the authoritative map of legal status changes. A writer can
// decide legality from the current status alone.
var transitions = map[Status][]Status{
	StatusPending:           {StatusPaymentProcessing, StatusPaymentConfirmed, StatusCanceled},
	StatusPaymentProcessing: {StatusPaymentConfirmed, StatusPaymentFailed, StatusCanceled},
	StatusPaymentConfirmed:  {StatusPreparing, StatusCanceled},
	StatusPaymentFailed:     {StatusPending, StatusCanceled},
	StatusPreparing:         {StatusReady, StatusCanceled},
	StatusReady:             {StatusOutForDelivery, StatusCanceled},
	StatusOutForDelivery:    {StatusDelivered, StatusFailed, StatusReturned},
	StatusDelivered:         {StatusRefunded},
	StatusFailed:            {StatusPending, StatusCanceled},
	StatusReturned:          {StatusPending, StatusCanceled, StatusRefunded},
	StatusCanceled:          {},
	StatusRefunded:          {},
}

// AllStatuses lists every valid order status.
func AllStatuses() []Status {
	statuses := make([]Status, 0, len(transitions))
	for s := range transitions {
		statuses = append(statuses, s)
	}
	return statuses
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether s has no legal successors.
func (s Status) Terminal() bool {
	successors, ok := transitions[s]
	return ok && len(successors) == 0
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// predecessors returns every status from which next is reachable in one step.
func predecessors(next Status) []Status {
	var preds []Status
	for from, successors := range transitions {
		for _, to := range successors {
			if to == next {
				preds = append(preds, from)
			}
		}
	}
	return preds
}

// PaymentStatus is the payment lifecycle status.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// InterfaceType identifies the channel an order came through.
type InterfaceType string

const (
	InterfacePhone InterfaceType = "phone"
	InterfaceWeb   InterfaceType = "web"
)

// PizzaItem is a single line item on an order.
type PizzaItem struct {
	Size     string   `json:"size"`
	Toppings []string `json:"toppings"`
	Quantity int      `json:"quantity"`
	Price    float64  `json:"price"`
}

// Details holds the structured line items of an order.
type Details struct {
	Pizzas []PizzaItem `json:"pizzas"`
}

// Order is a complete order record. Orders are never deleted; finished
// orders sit in a terminal status.
type Order struct {
	ID                int64          `json:"id"`
	CustomerName      string         `json:"customer_name"`
	PhoneNumber       string         `json:"phone_number"`
	Address           string         `json:"address"`
	Details           Details        `json:"order_details"`
	TotalAmount       float64        `json:"total_amount"`
	EstimatedDelivery int            `json:"estimated_delivery"`
	PaymentMethod     string         `json:"payment_method"`
	PaymentStatus     PaymentStatus  `json:"payment_status"`
	PaymentDetails    map[string]any `json:"payment_details"`
	Status            Status         `json:"order_status"`
	InterfaceType     InterfaceType  `json:"interface_type"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// CreateInput holds the caller-validated fields for a new order.
type CreateInput struct {
	CustomerName      string
	PhoneNumber       string
	Address           string
	Details           Details
	TotalAmount       float64
	EstimatedDelivery int
	PaymentMethod     string
	InterfaceType     InterfaceType
}

// InvalidTransitionError reports a rejected status change. The stored status
// is left untouched when this error is returned.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition: %s -> %s", e.From, e.To)
}
