package types

import "github.com/moznion/go-optional"

// ExecutionResult aggregates the outcomes of one day's order batch: the
// per-order results, the auto-close results, and the closure counters when
// auto-close ran.
type ExecutionResult struct {
	Orders []OrderResult
	Closes []CloseResult

	ClosedCount optional.Option[int]
	ClosedTotal optional.Option[int]
}

func (r *ExecutionResult) Append(result OrderResult) {
	r.Orders = append(r.Orders, result)
}

func (r *ExecutionResult) AppendClose(result CloseResult) {
	r.Closes = append(r.Closes, result)
}

// ElementCount is the total number of recorded outcomes.
func (r *ExecutionResult) ElementCount() int {
	return len(r.Orders) + len(r.Closes)
}

// TotalFees sums fees across orders and closes.
func (r *ExecutionResult) TotalFees() float64 {
	total := 0.0

	for _, result := range r.Orders {
		total += result.Fee
	}

	for _, result := range r.Closes {
		total += result.Fee
	}

	return total
}

// SuccessCount counts successful orders and closes.
func (r *ExecutionResult) SuccessCount() int {
	count := 0

	for _, result := range r.Orders {
		if result.Success {
			count++
		}
	}

	for _, result := range r.Closes {
		if result.Success {
			count++
		}
	}

	return count
}

// FailedCount counts failed orders and closes.
func (r *ExecutionResult) FailedCount() int {
	return r.ElementCount() - r.SuccessCount()
}

// PriceFallbacks counts closes that were priced with a stale mark.
func (r *ExecutionResult) PriceFallbacks() int {
	count := 0

	for _, result := range r.Closes {
		if result.PriceFallback {
			count++
		}
	}

	return count
}
