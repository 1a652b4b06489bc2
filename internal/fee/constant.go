package fee

import (
	"github.com/rxtech-lab/backsim/internal/types"
)

// ConstantModel charges the same flat fee for every order.
type ConstantModel struct {
	value float64
}

func NewConstantModel(value float64) Model {
	return &ConstantModel{value: value}
}

// NewFreeModel charges nothing. The default for backtests without a broker profile.
func NewFreeModel() Model {
	return &ConstantModel{value: 0}
}

// GetOrderFee implements Model.
func (m *ConstantModel) GetOrderFee(types.Order) float64 {
	return m.value
}
