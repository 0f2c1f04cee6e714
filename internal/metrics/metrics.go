// Package metrics exposes Prometheus counters for the payment and
// notification pipelines.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PaymentsTotal counts charge attempts by method and gateway outcome.
	PaymentsTotal = registerCounterVec(prometheus.CounterOpts{
		Name: "simposio_payments_total",
		Help: "Total number of payment charge attempts",
	}, []string{"method", "status"})

	// WebhooksTotal counts gateway webhook deliveries by processing outcome.
	WebhooksTotal = registerCounterVec(prometheus.CounterOpts{
		Name: "simposio_webhooks_total",
		Help: "Total number of payment webhook deliveries",
	}, []string{"outcome"})

	// EmailsTotal counts notification attempts by type and delivery status.
	EmailsTotal = registerCounterVec(prometheus.CounterOpts{
		Name: "simposio_emails_total",
		Help: "Total number of notification email attempts",
	}, []string{"type", "status"})
)

func registerCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := prometheus.DefaultRegisterer.Register(collector); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}
