package anomaly

import (
	"fmt"
	"math"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/core/fields"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

const epsilon = 1e-9

func amountOf(in Input, name string) (float64, bool) {
	f, ok := in.Fields[name]
	if !ok || f.Amount == nil {
		return 0, false
	}
	return *f.Amount, true
}

// TotalsReconcile checks subtotal + tax == total within the configured
// tolerance. A missing tax counts as zero; without subtotal or total the
// check is skipped.
func TotalsReconcile(subtotal, tax, total string) Validator {
	return Validator{Name: "totals_reconcile", Check: func(cfg Config, in Input) []entity.Anomaly {
		sub, okSub := amountOf(in, subtotal)
		tot, okTot := amountOf(in, total)
		if !okSub || !okTot {
			return nil
		}
		tx, _ := amountOf(in, tax)
		if math.Abs(sub+tx-tot) <= cfg.AmountTolerance+epsilon {
			return nil
		}
		return []entity.Anomaly{{
			Code:     constants.AnomalyTotalMismatch,
			Severity: constants.SeverityCritical,
			Message: fmt.Sprintf("%s %.2f + %s %.2f = %.2f does not match %s %.2f",
				subtotal, sub, tax, tx, sub+tx, total, tot),
			Fields: []string{subtotal, tax, total},
		}}
	}}
}

// DateOrder checks that later is not before earlier when both parsed.
func DateOrder(earlier, later string) Validator {
	return Validator{Name: "date_order", Check: func(cfg Config, in Input) []entity.Anomaly {
		a, okA := in.Fields[earlier]
		b, okB := in.Fields[later]
		if !okA || !okB || a.Date == nil || b.Date == nil || !b.Date.Before(*a.Date) {
			return nil
		}
		return []entity.Anomaly{{
			Code:     constants.AnomalyDateOrderInvalid,
			Severity: constants.SeverityWarning,
			Message: fmt.Sprintf("%s %s is before %s %s",
				later, b.Date.Format("2006-01-02"), earlier, a.Date.Format("2006-01-02")),
			Fields: []string{earlier, later},
		}}
	}}
}

// LineItemsSum checks that the last amount of every line item adds up to
// the subtotal, or to total minus tax when no subtotal was printed.
func LineItemsSum(items, subtotal, tax, total string) Validator {
	return Validator{Name: "line_items_sum", Check: func(cfg Config, in Input) []entity.Anomaly {
		f, ok := in.Fields[items]
		if !ok || len(f.Items) == 0 {
			return nil
		}
		target, okTarget := amountOf(in, subtotal)
		against := subtotal
		if !okTarget {
			tot, okTot := amountOf(in, total)
			if !okTot {
				return nil
			}
			tx, _ := amountOf(in, tax)
			target, against = tot-tx, total
		}
		var sum float64
		for _, row := range f.Items {
			if amounts := fields.FindAmounts(row); len(amounts) > 0 {
				sum += amounts[len(amounts)-1]
			}
		}
		if math.Abs(sum-target) <= cfg.AmountTolerance+epsilon {
			return nil
		}
		return []entity.Anomaly{{
			Code:     constants.AnomalyLineItemsMismatch,
			Severity: constants.SeverityWarning,
			Message:  fmt.Sprintf("%d line items sum to %.2f but %s implies %.2f", len(f.Items), sum, against, target),
			Fields:   []string{items, against},
		}}
	}}
}

// EmailFormat flags an extracted email that is not a well-formed address.
func EmailFormat(name string) Validator {
	return Validator{Name: "email_format", Check: func(cfg Config, in Input) []entity.Anomaly {
		f, ok := in.Fields[name]
		if !ok || fields.ValidEmail(f.Value) {
			return nil
		}
		return []entity.Anomaly{{
			Code:     constants.AnomalyInvalidFieldFormat,
			Severity: constants.SeverityWarning,
			Message:  fmt.Sprintf("%s %q is not a valid email address", name, f.Value),
			Fields:   []string{name},
		}}
	}}
}
