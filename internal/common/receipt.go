package common

import (
	"fmt"
)

// Receipt is what the order service hands back for one order call.
// Record is only set when the outcome is fulfilled and the requester's
// aggregate was updated.
type Receipt struct {
	ID        string      // Receipt uuid
	Requester RequesterID // Who placed the order
	Product   string      // Ordered product
	Amount    int64       // Requested quantity
	Outcome   Outcome     //
	Record    *OrderRecord
}

func (r Receipt) String() string {
	record := "<none>"
	if r.Record != nil {
		record = fmt.Sprintf("[\n%s]", r.Record.String())
	}
	return fmt.Sprintf(
		`ID:        %s
Requester: %s
Product:   %s
Amount:    %d
Status:    %v
Quantity:  %d (Version: %d)
Record:    %s`,
		r.ID,
		r.Requester,
		r.Product,
		r.Amount,
		r.Outcome.Status,
		r.Outcome.Quantity,
		r.Outcome.Version,
		record,
	)
}
