// Package transformer turns classified provider events into metric records.
package transformer

import (
	"time"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/services/classifier"
)

const (
	MetricOrdersCreated        = "shiprocket_orders_created"
	MetricOrderPaymentStatus   = "shiprocket_order_payment_status"
	MetricCODOrders            = "shiprocket_cod_orders"
	MetricCODAmount            = "shiprocket_cod_amount"
	MetricPrepaidOrders        = "shiprocket_prepaid_orders"
	MetricPrepaidAmount        = "shiprocket_prepaid_amount"
	MetricPartiallyPaidOrders  = "shiprocket_partially_paid_orders"
	MetricPartialPaidAmount    = "shiprocket_partial_paid_amount"
	MetricOutstandingAmount    = "shiprocket_outstanding_amount"
	MetricOrderValue           = "shiprocket_order_value"
	MetricOrderItems           = "shiprocket_order_items"
	MetricOrderQuantity        = "shiprocket_order_quantity"
	MetricShipmentsCreated     = "shiprocket_shipments_created"
	MetricShippingCost         = "shiprocket_shipping_cost"
	MetricProcessingTimeHours  = "shiprocket_processing_time_hours"
	MetricDeliveriesSuccessful = "shiprocket_deliveries_successful"
	MetricCODCollected         = "shiprocket_cod_collected"
	MetricCODCollectedAmount   = "shiprocket_cod_collected_amount"
	MetricPaymentTransition    = "shiprocket_payment_status_transition"
	MetricDeliveryTimeHours    = "shiprocket_delivery_time_hours"
	MetricFulfillmentTimeHours = "shiprocket_total_fulfillment_time_hours"
	MetricOrdersCancelled      = "shiprocket_orders_cancelled"
	MetricLostRevenue          = "shiprocket_lost_revenue"
	MetricRTOOrders            = "shiprocket_rto_orders"
	MetricReturns              = "shiprocket_returns"
	MetricCODFailedCollections = "shiprocket_cod_failed_collections"
	MetricCODFailedAmount      = "shiprocket_cod_failed_amount"
	MetricReturnCost           = "shiprocket_return_cost"
	MetricPickups              = "shiprocket_pickups"
	MetricInTransit            = "shiprocket_in_transit"
	MetricOutForDelivery       = "shiprocket_out_for_delivery"
	MetricFailedDeliveries     = "shiprocket_failed_deliveries"
)

const (
	transitionCODCollected = "COD_Collected"
	transitionFailed       = "Failed"
)

var trackingMetrics = map[models.EventKind]string{
	models.KindShipmentPickup: MetricPickups,
	models.KindInTransit:      MetricInTransit,
	models.KindOutForDelivery: MetricOutForDelivery,
	models.KindFailedDelivery: MetricFailedDeliveries,
}

type Transformer struct {
	now func() time.Time
}

// New returns a Transformer dating events without a date of their own by now.
// A nil now means time.Now.
func New(now func() time.Time) *Transformer {
	if now == nil {
		now = time.Now
	}
	return &Transformer{now: now}
}

// TransformRaw parses and classifies a raw event, then transforms it.
func (t *Transformer) TransformRaw(eventType string, data map[string]any) []models.MetricRecord {
	event := models.ParseEvent(models.RawEvent{EventType: eventType, Data: data})
	return t.Transform(event, classifier.DeterminePaymentStatus(data))
}

// Transform returns a fresh slice of records for ev. Unknown events yield nil.
func (t *Transformer) Transform(ev models.Event, payment models.PaymentStatus) []models.MetricRecord {
	header := ev.Header()

	b := builder{
		date: t.dateOf(header),
		dims: baseDimensions(header),
	}

	switch e := ev.(type) {
	case models.OrderEvent:
		if e.Kind() == models.KindOrderCancelled {
			b.cancelled(e)
		} else {
			b.orderCreated(e, payment)
		}
	case models.ShipmentEvent:
		if e.Kind() == models.KindOrderDelivered {
			b.delivered(e, payment)
		} else {
			b.shipped(e)
		}
	case models.ReturnEvent:
		b.returned(e, payment)
	case models.TrackingEvent:
		b.tracking(e)
	}

	return b.records
}

func (t *Transformer) dateOf(header models.EventHeader) string {
	if header.Date != nil {
		return models.MetricDate(*header.Date)
	}
	return models.MetricDate(t.now())
}

func baseDimensions(header models.EventHeader) map[string]any {
	dims := make(map[string]any, 6)
	for key, value := range map[string]string{
		"order_id":       header.OrderID,
		"channel":        header.Channel,
		"courier":        header.Courier,
		"payment_method": header.PaymentMethod,
		"source":         header.Source,
	} {
		if value != "" {
			dims[key] = value
		}
	}
	return dims
}

type builder struct {
	date    string
	dims    map[string]any
	records []models.MetricRecord
}

// add appends a record whose dimensions are a copy of the base set plus extra.
func (b *builder) add(name string, value float64, extra ...any) {
	dims := make(map[string]any, len(b.dims)+len(extra)/2)
	for k, v := range b.dims {
		dims[k] = v
	}
	for i := 0; i+1 < len(extra); i += 2 {
		dims[extra[i].(string)] = extra[i+1]
	}

	b.records = append(b.records, models.MetricRecord{
		MetricName: name,
		Value:      value,
		Date:       b.date,
		Dimensions: dims,
	})
}

func (b *builder) orderCreated(e models.OrderEvent, payment models.PaymentStatus) {
	status := string(payment.Status)

	b.add(MetricOrdersCreated, 1, "payment_status", status)
	b.add(MetricOrderPaymentStatus, 1, "payment_status", status)

	if payment.IsCOD {
		b.add(MetricCODOrders, 1)
		b.add(MetricCODAmount, payment.CODAmount)
	}
	if payment.IsPrepaid {
		b.add(MetricPrepaidOrders, 1)
		b.add(MetricPrepaidAmount, payment.PaidAmount)
	}
	if payment.IsPartiallyPaid {
		b.add(MetricPartiallyPaidOrders, 1)
		b.add(MetricPartialPaidAmount, payment.PaidAmount)
		b.add(MetricOutstandingAmount, payment.OutstandingAmount)
	}

	if e.TotalAmount != nil {
		b.add(MetricOrderValue, *e.TotalAmount, "payment_status", status)
	}

	if len(e.Products) > 0 {
		var quantity float64
		for _, product := range e.Products {
			quantity += product.Quantity
		}
		b.add(MetricOrderItems, float64(len(e.Products)))
		b.add(MetricOrderQuantity, quantity)
	}
}

func (b *builder) shipped(e models.ShipmentEvent) {
	b.add(MetricShipmentsCreated, 1)

	if e.ShippingCharges != nil {
		b.add(MetricShippingCost, *e.ShippingCharges)
	}
	if hours, ok := hoursBetween(e.OrderCreatedDate, e.ShippedDate); ok {
		b.add(MetricProcessingTimeHours, hours)
	}
}

func (b *builder) delivered(e models.ShipmentEvent, payment models.PaymentStatus) {
	b.add(MetricDeliveriesSuccessful, 1)

	if payment.IsCOD {
		b.add(MetricCODCollected, 1)
		b.add(MetricCODCollectedAmount, payment.CODAmount)
		b.add(MetricPaymentTransition, 1, "from", string(models.PaymentCOD), "to", transitionCODCollected)
	}

	if hours, ok := hoursBetween(e.ShippedDate, e.DeliveredDate); ok {
		b.add(MetricDeliveryTimeHours, hours)
	}
	if hours, ok := hoursBetween(e.OrderCreatedDate, e.DeliveredDate); ok {
		b.add(MetricFulfillmentTimeHours, hours)
	}
}

func (b *builder) cancelled(e models.OrderEvent) {
	b.add(MetricOrdersCancelled, 1)

	if e.TotalAmount != nil {
		b.add(MetricLostRevenue, *e.TotalAmount)
	}
}

func (b *builder) returned(e models.ReturnEvent, payment models.PaymentStatus) {
	if e.RTO {
		b.add(MetricRTOOrders, 1)
	} else {
		b.add(MetricReturns, 1)
	}

	if e.RTO && payment.IsCOD {
		b.add(MetricCODFailedCollections, 1)
		b.add(MetricCODFailedAmount, payment.CODAmount)
		b.add(MetricPaymentTransition, 1, "from", string(models.PaymentCOD), "to", transitionFailed)
	}

	if e.ReturnCharges != nil {
		b.add(MetricReturnCost, *e.ReturnCharges)
	}
}

func (b *builder) tracking(e models.TrackingEvent) {
	var extra []any
	if e.AWB != "" {
		extra = append(extra, "awb", e.AWB)
	}
	if e.Status != "" {
		extra = append(extra, "status", e.Status)
	}
	if e.Location != "" {
		extra = append(extra, "location", e.Location)
	}

	b.add(trackingMetrics[e.Kind()], 1, extra...)
}

// hoursBetween returns to-from in hours. Negative spans are kept as they are.
func hoursBetween(from, to *time.Time) (float64, bool) {
	if from == nil || to == nil {
		return 0, false
	}
	return float64(to.Sub(*from).Milliseconds()) / float64(time.Hour/time.Millisecond), true
}
