package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

var (
	AppointmentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_appointments_created_total",
		Help: "Appointments successfully created.",
	})

	SchedulingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_conflicts_total",
		Help: "Create/update attempts rejected by conflict detection.",
	})

	TransitionRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_invalid_transitions_total",
		Help: "State transitions rejected from a terminal status.",
	})

	LockBusy = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_lock_busy_total",
		Help: "Requests that hit the bounded lock wait.",
	})

	AuditEntriesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_audit_entries_written_total",
		Help: "Audit entries made durable.",
	})

	AuditQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_audit_queue_depth",
		Help: "Audit entries waiting for the recorder worker.",
	})
)

// Handler exposes the default registry on /metrics.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
