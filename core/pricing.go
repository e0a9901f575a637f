package core

// PriorityFeeRate is the surcharge applied to priority orders.
const PriorityFeeRate = 0.2

// Bill is the price breakdown shown both in the cart and on a tracked order.
type Bill struct {
	Subtotal    float64 `json:"subtotal"`
	PriorityFee float64 `json:"priorityFee"`
	Total       float64 `json:"total"`
}

// Subtotal sums the line totals.
func Subtotal(lines []CartLine) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.TotalPrice
	}
	return sum
}

// Price computes the bill for lines, adding the priority fee when requested.
func Price(lines []CartLine, priority bool) Bill {
	subtotal := Subtotal(lines)
	var fee float64
	if priority {
		fee = subtotal * PriorityFeeRate
	}
	return Bill{
		Subtotal:    subtotal,
		PriorityFee: fee,
		Total:       subtotal + fee,
	}
}
