package orders

import "time"

// Stage timing
const (
	StageDuration    = 10 * time.Minute
	DeliveryEstimate = 60 * time.Minute
)

// Stage is one step of the delivery timeline
type Stage struct {
	Status string `json:"status"`
	Label  string `json:"label"`
}

// Stages in delivery order. The last one is terminal.
var Stages = []Stage{
	{Status: "confirmed", Label: "Order Confirmed"},
	{Status: "preparing", Label: "Preparing"},
	{Status: "baking", Label: "Baking"},
	{Status: "ready", Label: "Ready for Delivery"},
	{Status: "delivering", Label: "Out for Delivery"},
	{Status: "delivered", Label: "Delivered"},
}

// TerminalStage is the index of "delivered"
var TerminalStage = len(Stages) - 1

// StageProgress is a stage as seen at one moment
type StageProgress struct {
	Stage
	Complete bool `json:"complete"`
	Current  bool `json:"current"`
	// At is set for completed stages only
	At time.Time `json:"at,omitempty"`
}

// Progress is the derived state of an order at one moment
type Progress struct {
	Index             int             `json:"index"`
	Status            string          `json:"status"`
	OrderTime         time.Time       `json:"orderTime"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery"`
	Stages            []StageProgress `json:"stages"`
}

// Delivered reports whether the terminal stage was reached
func (p Progress) Delivered() bool {
	return p.Index >= TerminalStage
}

// Timeline derives the progress of an order placed at orderTime as of now.
// A zero orderTime is treated as ten minutes before now; a future orderTime
// counts as just placed.
func Timeline(orderTime, now time.Time) Progress {
	if orderTime.IsZero() {
		orderTime = now.Add(-StageDuration)
	}

	elapsed := now.Sub(orderTime)
	if elapsed < 0 {
		elapsed = 0
	}
	elapsedMinutes := int64(elapsed / time.Minute)
	index := int(elapsedMinutes / int64(StageDuration/time.Minute))
	if index > TerminalStage {
		index = TerminalStage
	}

	stages := make([]StageProgress, len(Stages))
	for i, s := range Stages {
		sp := StageProgress{Stage: s, Current: i == index}
		if i <= index {
			sp.Complete = true
			sp.At = orderTime.Add(time.Duration(i) * StageDuration)
		}
		stages[i] = sp
	}

	return Progress{
		Index:             index,
		Status:            Stages[index].Status,
		OrderTime:         orderTime,
		EstimatedDelivery: orderTime.Add(DeliveryEstimate),
		Stages:            stages,
	}
}
