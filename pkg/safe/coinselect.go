package safe

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// ErrNoOutputs is returned when there is nothing to select from.
var ErrNoOutputs = errors.New("no unspent outputs available")

// OutputSelection holds the result of coin selection.
type OutputSelection struct {
	Outputs []*UTXO       // Selected outputs to spend.
	Total   types.Integer // Sum of selected amounts.
	Change  types.Integer // Total - target.
}

// SelectOutputs chooses outputs to fund target. It tries two strategies:
//  1. Single output: the smallest single output that covers the target.
//  2. Largest-first accumulation, capped at MaxUTXOs outputs.
//
// Returns the strategy that produces the least change.
func SelectOutputs(utxos []*UTXO, target types.Integer) (*OutputSelection, error) {
	if len(utxos) == 0 {
		return nil, ErrNoOutputs
	}
	if target.Sign() <= 0 {
		return nil, fmt.Errorf("%w: target must be positive", types.ErrValidation)
	}

	candidates := make([]*UTXO, 0, len(utxos))
	for _, u := range utxos {
		if u.Amount.Sign() > 0 {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoOutputs
	}
	slices.SortStableFunc(candidates, func(a, b *UTXO) int {
		return a.Amount.Cmp(b.Amount)
	})

	var single *OutputSelection
	for _, u := range candidates {
		if u.Amount.Cmp(target) >= 0 {
			change, _ := u.Amount.Sub(target)
			single = &OutputSelection{Outputs: []*UTXO{u}, Total: u.Amount, Change: change}
			break
		}
	}

	var accum *OutputSelection
	var selected []*UTXO
	var total types.Integer
	for i := len(candidates) - 1; i >= 0 && len(selected) < MaxUTXOs; i-- {
		selected = append(selected, candidates[i])
		total = total.Add(candidates[i].Amount)
		if total.Cmp(target) >= 0 {
			change, _ := total.Sub(target)
			accum = &OutputSelection{Outputs: selected, Total: total, Change: change}
			break
		}
	}

	switch {
	case single != nil && accum != nil:
		if single.Change.Cmp(accum.Change) <= 0 {
			return single, nil
		}
		return accum, nil
	case single != nil:
		return single, nil
	case accum != nil:
		return accum, nil
	default:
		return nil, fmt.Errorf("%w: have %s in %d outputs, need %s",
			types.ErrInsufficientBalance, totalAmount(candidates), len(candidates), target)
	}
}

func totalAmount(utxos []*UTXO) types.Integer {
	var total types.Integer
	for _, u := range utxos {
		total = total.Add(u.Amount)
	}
	return total
}
