package fee

import (
	"math"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/rxtech-lab/backsim/internal/logger"
	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/rxtech-lab/backsim/pkg/errors"
	"go.uber.org/zap"
)

// ExpressionModel evaluates the fee as a script expression of the order.
// The expression sees three variables: quantity, price and value
// (quantity * price), plus the tengo math module, e.g.
// "0.001 * math.abs(value)" or "math.max(1.0, 0.005 * math.abs(quantity))".
type ExpressionModel struct {
	expression string
	compiled   *tengo.Compiled
	log        *logger.Logger
}

// NewExpressionModel compiles the expression once; per-order evaluation runs
// against a clone of the compiled script. The expression is validated at
// construction so a malformed fee formula fails at startup, not mid-run.
func NewExpressionModel(expression string, log *logger.Logger) (Model, error) {
	script := tengo.NewScript([]byte("math := import(\"math\")\nfee := " + expression))
	script.SetImports(stdlib.GetModuleMap("math"))

	for _, name := range []string{"quantity", "price", "value"} {
		if err := script.Add(name, 0.0); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidExpression, err, "failed to bind variable %q", name)
		}
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidExpression, err, "failed to compile fee expression %q", expression)
	}

	return &ExpressionModel{
		expression: expression,
		compiled:   compiled,
		log:        log,
	}, nil
}

// GetOrderFee implements Model. An evaluation failure charges no fee and is
// logged; the fee contract has no error channel.
func (m *ExpressionModel) GetOrderFee(order types.Order) float64 {
	run := m.compiled.Clone()

	price := order.Price.TakeOr(0)

	if err := run.Set("quantity", order.Quantity); err != nil {
		m.logEvalError(order, err)
		return 0
	}

	if err := run.Set("price", price); err != nil {
		m.logEvalError(order, err)
		return 0
	}

	if err := run.Set("value", order.Quantity*price); err != nil {
		m.logEvalError(order, err)
		return 0
	}

	if err := run.Run(); err != nil {
		m.logEvalError(order, err)
		return 0
	}

	fee := run.Get("fee").Float()
	if math.IsNaN(fee) || math.IsInf(fee, 0) {
		m.logEvalError(order, errors.Newf(errors.ErrCodeInvalidExpression, "expression produced %f", fee))
		return 0
	}

	return fee
}

func (m *ExpressionModel) logEvalError(order types.Order, err error) {
	if m.log != nil {
		m.log.Warn("fee expression evaluation failed, charging no fee",
			zap.String("expression", m.expression),
			zap.String("order", order.String()),
			zap.Error(err),
		)
	}
}
