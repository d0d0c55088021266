package domain

import "time"

type BatchStatus string

const (
	BatchDraft        BatchStatus = "draft"
	BatchSubmitted    BatchStatus = "submitted"
	BatchInProduction BatchStatus = "in_production"
	BatchShipped      BatchStatus = "shipped"
	BatchReceived     BatchStatus = "received"
)

var batchOrder = []BatchStatus{BatchDraft, BatchSubmitted, BatchInProduction, BatchShipped, BatchReceived}

func batchRank(s BatchStatus) int {
	for i, b := range batchOrder {
		if b == s {
			return i
		}
	}
	return -1
}

// ManufacturerOrder tracks a production run of physical tags.
type ManufacturerOrder struct {
	ID          int64
	BatchNumber string
	Quantity    int
	Status      BatchStatus
	Slugs       []string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Advance moves the batch to the next status. Skipping ahead is allowed,
// moving back is not.
func (m *ManufacturerOrder) Advance(next BatchStatus) error {
	cur, nxt := batchRank(m.Status), batchRank(next)
	if nxt < 0 || nxt <= cur {
		return ErrInvalidStatusTransition
	}
	m.Status = next
	m.UpdatedAt = time.Now().UTC()
	return nil
}
