package enums

// EarningsClass is the hold-window classification of seller revenue.
type EarningsClass string

const (
	EarningsClassCompleted EarningsClass = "completed"
	EarningsClassPending   EarningsClass = "pending"
	EarningsClassFailed    EarningsClass = "failed"
)

func (c EarningsClass) String() string {
	return string(c)
}
