package booking

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
	"github.com/travelops/backend/internal/domain/party"
)

// costPriceKeys is the ordered list of recognized form-field keys that may
// carry the vendor-side cost price of a quotation. The first key whose
// value parses to a finite number wins. Adding a new recognized key only
// requires extending this list.
var costPriceKeys = []string{
	"costprice",
	"cost_price",
	"costPrice",
	"cost",
	"netrate",
	"net_rate",
	"purchaseprice",
	"purchase_price",
}

// AmountFor resolves the monetary amount the given party role owes or is
// owed for this quotation. Customers owe the selling price; vendors are
// owed the cost price from the form-field bag, falling back to the selling
// price when no recognized key parses.
func (q *Quotation) AmountFor(role party.Role) decimal.Decimal {
	if role != party.RoleVendor {
		return q.TotalAmount
	}
	for _, key := range costPriceKeys {
		v, ok := q.FormFields[key]
		if !ok {
			continue
		}
		if d, ok := parseAmount(v); ok {
			return d
		}
	}
	return q.TotalAmount
}

// parseAmount converts a dynamic form-field value to a decimal. It accepts
// the representations JSON decoding and API clients produce; anything else
// (including NaN and infinities) is rejected.
func parseAmount(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		return parseAmount(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	case string:
		if n == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	case decimal.Decimal:
		return n, true
	default:
		return decimal.Decimal{}, false
	}
}
