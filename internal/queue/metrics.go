package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "branchstack_queue_tasks_submitted_total",
		Help: "Provisioning tasks submitted to the queue.",
	})
	tasksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "branchstack_queue_tasks_failed_total",
		Help: "Provisioning tasks that returned an error or panicked.",
	})
	tasksInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "branchstack_queue_tasks_in_flight",
		Help: "Provisioning tasks currently running or waiting on the concurrency cap.",
	})
)
