// Package classifier derives the canonical payment status of a provider event.
package classifier

import (
	"strings"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
)

var (
	paymentMethodKeys = []string{"payment_method", "payment_mode", "payment_type"}
	codAmountKeys     = []string{"cod_amount", "cod_value"}
	codFlagKeys       = []string{"is_cod", "cod"}
	totalAmountKeys   = []string{"total_amount", "order_total", "sub_total"}
	paidAmountKeys    = []string{"paid_amount", "amount_paid", "prepaid_amount"}
)

// DeterminePaymentStatus classifies data into exactly one payment status.
// Missing or unparsable amounts count as zero.
func DeterminePaymentStatus(data map[string]any) models.PaymentStatus {
	total := models.NumberField(data, totalAmountKeys...)
	paid := models.NumberField(data, paidAmountKeys...)
	codAmount := models.NumberField(data, codAmountKeys...)

	status := models.PaymentStatus{
		TotalAmount: total,
		PaidAmount:  paid,
	}

	switch {
	case isCOD(data, codAmount):
		outstanding := total
		if codAmount > 0 {
			outstanding = codAmount
		}
		status.Status = models.PaymentCOD
		status.IsCOD = true
		status.CODAmount = outstanding
		status.OutstandingAmount = outstanding
	case total > 0 && paid >= total:
		status.Status = models.PaymentFullyPaid
		status.IsFullyPaid = true
		status.IsPrepaid = true
	case paid > 0 && paid < total:
		status.Status = models.PaymentPartiallyPaid
		status.IsPartiallyPaid = true
		status.OutstandingAmount = total - paid
	case paid == 0 && total > 0:
		status.Status = models.PaymentUnpaid
		status.OutstandingAmount = total
	case total == 0:
		status.Status = models.PaymentFreeOrder
		status.IsFullyPaid = true
	default:
		status.Status = models.PaymentUnknown
	}

	return status
}

func isCOD(data map[string]any, codAmount float64) bool {
	method := strings.ToLower(models.TextField(data, paymentMethodKeys...))
	if strings.Contains(method, "cod") || strings.Contains(method, "cash") {
		return true
	}

	return codAmount > 0 || models.FlagField(data, codFlagKeys...)
}
