package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Domain counters. They resolve against the global meter provider lazily, so
// they are no-ops until InitTelemetry has run.
var (
	domainOnce      sync.Once
	bookingCounter  metric.Int64Counter
	transitionCount metric.Int64Counter
	messageCounter  metric.Int64Counter
	webhookCounter  metric.Int64Counter
)

func domainInstruments() {
	domainOnce.Do(func() {
		m := otel.Meter(instrumentationName)
		bookingCounter, _ = m.Int64Counter("thera_bookings_total",
			metric.WithDescription("Booking attempts by outcome"))
		transitionCount, _ = m.Int64Counter("thera_appointment_transitions_total",
			metric.WithDescription("Appointment status transitions by target status and outcome"))
		messageCounter, _ = m.Int64Counter("thera_messages_sent_total",
			metric.WithDescription("Direct messages stored"))
		webhookCounter, _ = m.Int64Counter("thera_billing_webhooks_total",
			metric.WithDescription("Billing webhook deliveries by event type and outcome"))
	})
}

// RecordBooking counts one booking attempt. outcome is e.g. created, conflict, rejected.
func RecordBooking(ctx context.Context, outcome string) {
	domainInstruments()
	if bookingCounter != nil {
		bookingCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordTransition(ctx context.Context, to, outcome string) {
	domainInstruments()
	if transitionCount != nil {
		transitionCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("to", to),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordMessage(ctx context.Context) {
	domainInstruments()
	if messageCounter != nil {
		messageCounter.Add(ctx, 1)
	}
}

func RecordWebhook(ctx context.Context, eventType, outcome string) {
	domainInstruments()
	if webhookCounter != nil {
		webhookCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", eventType),
			attribute.String("outcome", outcome),
		))
	}
}
