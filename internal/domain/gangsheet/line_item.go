package gangsheet

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/printnest/backend/internal/domain/shared"
)

// LineItem is one product instance to be printed. It is produced by the
// order subsystem and never mutated by the gangsheet engine.
type LineItem struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"` // human-readable, shown in roll footers
	DesignRef   string    `json:"design_ref"`   // opaque storage key or URL for the design image
	PrintWidth  float64   `json:"print_width"`  // inches
	PrintHeight float64   `json:"print_height"` // inches
	Quantity    int       `json:"quantity"`     // expands to this many independent placements
	AllowRotate bool      `json:"allow_rotate"`
}

// NewLineItem creates a validated line item
func NewLineItem(orderID uuid.UUID, orderNumber, designRef string, printWidth, printHeight float64, quantity int, allowRotate bool) (LineItem, error) {
	if orderID == uuid.Nil {
		return LineItem{}, shared.NewDomainError("INVALID_INPUT", "Order ID cannot be empty")
	}
	if orderNumber == "" {
		return LineItem{}, shared.NewDomainError("INVALID_INPUT", "Order number cannot be empty")
	}
	if designRef == "" {
		return LineItem{}, shared.NewDomainError("INVALID_INPUT", "Design reference cannot be empty")
	}
	if printWidth <= 0 || printHeight <= 0 {
		return LineItem{}, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Print dimensions must be positive, got %.2fx%.2f", printWidth, printHeight))
	}
	if quantity < 1 {
		return LineItem{}, shared.NewDomainError("INVALID_INPUT", "Quantity must be at least 1")
	}
	return LineItem{
		OrderID:     orderID,
		OrderNumber: orderNumber,
		DesignRef:   designRef,
		PrintWidth:  printWidth,
		PrintHeight: printHeight,
		Quantity:    quantity,
		AllowRotate: allowRotate,
	}, nil
}
