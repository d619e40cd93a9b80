package models

import (
	"strings"
	"time"
)

// RawEvent is an untyped provider event as received on the wire.
type RawEvent struct {
	EventType string         `json:"event_type" validate:"required"`
	Data      map[string]any `json:"data" validate:"required"`
	Timestamp string         `json:"timestamp,omitempty"`
	WebhookID string         `json:"webhook_id,omitempty"`

	// Source is the webhook provider name or "batch"; it is not part of the payload.
	Source string `json:"-"`
}

type EventKind string

const (
	KindUnknown        EventKind = "unknown"
	KindOrderCreated   EventKind = "order_created"
	KindOrderShipped   EventKind = "order_shipped"
	KindOrderDelivered EventKind = "order_delivered"
	KindOrderCancelled EventKind = "order_cancelled"
	KindOrderReturned  EventKind = "order_returned"
	KindShipmentPickup EventKind = "shipment_pickup"
	KindInTransit      EventKind = "in_transit"
	KindOutForDelivery EventKind = "out_for_delivery"
	KindFailedDelivery EventKind = "failed_delivery"
)

var eventKinds = map[string]EventKind{
	"order_created":    KindOrderCreated,
	"order_placed":     KindOrderCreated,
	"order_shipped":    KindOrderShipped,
	"shipment_created": KindOrderShipped,
	"order_delivered":  KindOrderDelivered,
	"delivered":        KindOrderDelivered,
	"order_cancelled":  KindOrderCancelled,
	"cancelled":        KindOrderCancelled,
	"order_returned":   KindOrderReturned,
	"rto":              KindOrderReturned,
	"shipment_pickup":  KindShipmentPickup,
	"in_transit":       KindInTransit,
	"out_for_delivery": KindOutForDelivery,
	"failed_delivery":  KindFailedDelivery,
	"delivery_failed":  KindFailedDelivery,
}

func KindOf(eventType string) EventKind {
	if kind, ok := eventKinds[strings.ToLower(strings.TrimSpace(eventType))]; ok {
		return kind
	}
	return KindUnknown
}

// Event is one of OrderEvent, ShipmentEvent, ReturnEvent, TrackingEvent or UnknownEvent.
type Event interface {
	Kind() EventKind
	Header() EventHeader
	isEvent()
}

// EventHeader holds the fields every event category shares.
type EventHeader struct {
	EventKind     EventKind
	Type          string
	Source        string
	OrderID       string
	Channel       string
	Courier       string
	AWB           string
	PaymentMethod string

	// Date is the event-specific date field, nil when the payload has none.
	Date *time.Time
}

func (h EventHeader) Kind() EventKind     { return h.EventKind }
func (h EventHeader) Header() EventHeader { return h }
func (EventHeader) isEvent()              {}

type Product struct {
	Name     string
	SKU      string
	Quantity float64
	Price    float64
}

// OrderEvent covers order_created and order_cancelled.
type OrderEvent struct {
	EventHeader
	TotalAmount *float64
	Products    []Product
}

// ShipmentEvent covers order_shipped and order_delivered.
type ShipmentEvent struct {
	EventHeader
	ShippingCharges  *float64
	OrderCreatedDate *time.Time
	ShippedDate      *time.Time
	DeliveredDate    *time.Time
}

type ReturnEvent struct {
	EventHeader
	RTO           bool
	ReturnCharges *float64
}

// TrackingEvent covers scan-level updates that map to a single metric.
type TrackingEvent struct {
	EventHeader
	Status   string
	Location string
}

type UnknownEvent struct {
	EventHeader
}

var dateFields = map[EventKind][]string{
	KindOrderCreated:   {"order_date", "created_at", "order_created_date"},
	KindOrderShipped:   {"shipped_date", "pickup_date"},
	KindOrderDelivered: {"delivered_date", "delivery_date"},
	KindOrderCancelled: {"cancelled_date", "cancelled_at"},
	KindOrderReturned:  {"rto_date", "return_date", "rto_initiated_date"},
	KindShipmentPickup: {"event_date", "scan_date", "pickup_date"},
	KindInTransit:      {"event_date", "scan_date"},
	KindOutForDelivery: {"event_date", "scan_date"},
	KindFailedDelivery: {"event_date", "scan_date"},
}

// ParseEvent builds the typed variant for raw once, at the boundary.
// It never fails: malformed numbers and dates are treated as absent.
func ParseEvent(raw RawEvent) Event {
	data := raw.Data
	kind := KindOf(raw.EventType)

	header := EventHeader{
		EventKind:     kind,
		Type:          raw.EventType,
		Source:        raw.Source,
		OrderID:       TextField(data, "order_id", "id", "channel_order_id"),
		Channel:       TextField(data, "channel", "channel_name"),
		Courier:       TextField(data, "courier_name", "courier"),
		AWB:           TextField(data, "awb", "awb_code"),
		PaymentMethod: TextField(data, "payment_method", "payment_mode"),
		Date:          TimeField(data, dateFields[kind]...),
	}

	switch kind {
	case KindOrderCreated, KindOrderCancelled:
		return OrderEvent{
			EventHeader: header,
			TotalAmount: NumberPtr(data, "total_amount"),
			Products:    parseProducts(data["products"]),
		}
	case KindOrderShipped, KindOrderDelivered:
		return ShipmentEvent{
			EventHeader:      header,
			ShippingCharges:  NumberPtr(data, "shipping_charges"),
			OrderCreatedDate: TimeField(data, "order_created_date"),
			ShippedDate:      TimeField(data, "shipped_date"),
			DeliveredDate:    TimeField(data, "delivered_date"),
		}
	case KindOrderReturned:
		return ReturnEvent{
			EventHeader:   header,
			RTO:           isRTO(raw.EventType, data),
			ReturnCharges: NumberPtr(data, "return_charges"),
		}
	case KindShipmentPickup, KindInTransit, KindOutForDelivery, KindFailedDelivery:
		return TrackingEvent{
			EventHeader: header,
			Status:      TextField(data, "current_status", "status", "shipment_status"),
			Location:    TextField(data, "location", "current_location"),
		}
	default:
		return UnknownEvent{EventHeader: header}
	}
}

func isRTO(eventType string, data map[string]any) bool {
	if strings.EqualFold(strings.TrimSpace(eventType), "rto") {
		return true
	}
	for _, key := range []string{"event_type", "return_type"} {
		if strings.EqualFold(TextField(data, key), "rto") {
			return true
		}
	}
	return false
}

func parseProducts(value any) []Product {
	items, ok := value.([]any)
	if !ok || len(items) == 0 {
		return nil
	}

	products := make([]Product, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			products = append(products, Product{Quantity: 1})
			continue
		}

		quantity := NumberField(fields, "quantity", "units", "qty")
		if quantity <= 0 {
			quantity = 1
		}

		products = append(products, Product{
			Name:     TextField(fields, "name"),
			SKU:      TextField(fields, "sku"),
			Quantity: quantity,
			Price:    NumberField(fields, "price", "selling_price"),
		})
	}

	return products
}
