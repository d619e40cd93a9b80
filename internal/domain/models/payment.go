package models

type PaymentStatusValue string

const (
	PaymentCOD           PaymentStatusValue = "COD"
	PaymentFullyPaid     PaymentStatusValue = "Fully_Paid"
	PaymentPartiallyPaid PaymentStatusValue = "Partially_Paid"
	PaymentUnpaid        PaymentStatusValue = "Unpaid"
	PaymentFreeOrder     PaymentStatusValue = "Free_Order"
	PaymentUnknown       PaymentStatusValue = "Unknown"
)

// PaymentStatus is the canonical payment classification of one event.
// Exactly one Status is set and the flags agree with it.
type PaymentStatus struct {
	Status PaymentStatusValue `json:"status"`

	IsCOD           bool `json:"is_cod"`
	IsFullyPaid     bool `json:"is_fully_paid"`
	IsPartiallyPaid bool `json:"is_partially_paid"`
	IsPrepaid       bool `json:"is_prepaid"`

	TotalAmount       float64 `json:"total_amount"`
	PaidAmount        float64 `json:"paid_amount"`
	CODAmount         float64 `json:"cod_amount"`
	OutstandingAmount float64 `json:"outstanding_amount"`
}
