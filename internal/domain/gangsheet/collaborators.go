package gangsheet

import (
	"context"

	"github.com/google/uuid"
)

// OrderReader is the gangsheet engine's view of the order subsystem.
// Implementations return line items for the requested orders, and must
// fail when any requested order is missing, unpaid, or has nothing
// printable. A selection is packed in full or not at all.
type OrderReader interface {
	FetchPrintableLineItems(ctx context.Context, tenantID uuid.UUID, orderIDs []uuid.UUID) ([]LineItem, error)
}
