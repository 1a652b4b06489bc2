// Package fee defines the pluggable fee-model capability consumed by the
// account ledger. A fee model is a pure function of the order being applied.
package fee

import (
	"github.com/rxtech-lab/backsim/internal/types"
)

type Model interface {
	// GetOrderFee returns the fee charged for the given order, in account currency.
	GetOrderFee(order types.Order) float64
}

type ModelType string

const (
	ModelTypeFree       ModelType = "free"
	ModelTypeConstant   ModelType = "constant"
	ModelTypePerShare   ModelType = "per_share"
	ModelTypeExpression ModelType = "expression"
)

var AllModelTypes = []any{
	ModelTypeFree,
	ModelTypeConstant,
	ModelTypePerShare,
	ModelTypeExpression,
}
