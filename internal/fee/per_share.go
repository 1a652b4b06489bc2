package fee

import (
	"math"

	"github.com/rxtech-lab/backsim/internal/types"
)

// PerShareModel charges a fee proportional to the traded share count with a
// per-order minimum, the structure used by per-share brokers such as
// Interactive Brokers (0.005 per share, 1.00 minimum).
type PerShareModel struct {
	perShare float64
	minimum  float64
}

func NewPerShareModel(perShare, minimum float64) Model {
	return &PerShareModel{
		perShare: perShare,
		minimum:  minimum,
	}
}

// GetOrderFee implements Model.
func (m *PerShareModel) GetOrderFee(order types.Order) float64 {
	fee := math.Abs(order.Quantity) * m.perShare

	return math.Max(fee, m.minimum)
}
