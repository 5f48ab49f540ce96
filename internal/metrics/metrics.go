// Package metrics описывает Prometheus-метрики биллинга.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PaymentConfirmTotal считает исходы подтверждения платежей по статусу шлюза.
var PaymentConfirmTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "billing_payment_confirm_total",
	Help: "Number of payment confirmations by resulting gateway status.",
}, []string{"status"})

// ReconciliationFailedTotal считает сверки, не применённые локально после
// успешного подтверждения на шлюзе.
var ReconciliationFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "billing_reconciliation_failed_total",
	Help: "Number of reconciliations that failed after a successful gateway confirm.",
})
