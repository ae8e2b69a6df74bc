package main

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	osal "github.com/hq-platform/go-osal"
)

// osalCollector exposes the OSAL activity counters as Prometheus metrics.
type osalCollector struct {
	metrics *osal.Metrics

	tasksCreated  *prometheus.Desc
	tasksRunning  *prometheus.Desc
	queueSends    *prometheus.Desc
	queueReceives *prometheus.Desc
	queueTimeouts *prometheus.Desc
	semGives      *prometheus.Desc
	semTakes      *prometheus.Desc
	timerFires    *prometheus.Desc
}

func newOSALCollector(m *osal.Metrics) *osalCollector {
	return &osalCollector{
		metrics: m,
		tasksCreated: prometheus.NewDesc("osal_tasks_created_total",
			"Tasks created since process start", nil, nil),
		tasksRunning: prometheus.NewDesc("osal_tasks_running",
			"Tasks currently running", nil, nil),
		queueSends: prometheus.NewDesc("osal_queue_sends_total",
			"Successful queue sends", nil, nil),
		queueReceives: prometheus.NewDesc("osal_queue_receives_total",
			"Successful queue receives", nil, nil),
		queueTimeouts: prometheus.NewDesc("osal_queue_timeouts_total",
			"Queue operations that timed out", nil, nil),
		semGives: prometheus.NewDesc("osal_sem_gives_total",
			"Semaphore gives", nil, nil),
		semTakes: prometheus.NewDesc("osal_sem_takes_total",
			"Semaphore takes", nil, nil),
		timerFires: prometheus.NewDesc("osal_timer_fires_total",
			"Timer callback invocations", nil, nil),
	}
}

func (c *osalCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tasksCreated
	ch <- c.tasksRunning
	ch <- c.queueSends
	ch <- c.queueReceives
	ch <- c.queueTimeouts
	ch <- c.semGives
	ch <- c.semTakes
	ch <- c.timerFires
}

func (c *osalCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.metrics.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.tasksCreated, prometheus.CounterValue, float64(s.TasksCreated))
	ch <- prometheus.MustNewConstMetric(c.tasksRunning, prometheus.GaugeValue, float64(s.TasksRunning))
	ch <- prometheus.MustNewConstMetric(c.queueSends, prometheus.CounterValue, float64(s.QueueSends))
	ch <- prometheus.MustNewConstMetric(c.queueReceives, prometheus.CounterValue, float64(s.QueueReceives))
	ch <- prometheus.MustNewConstMetric(c.queueTimeouts, prometheus.CounterValue,
		float64(s.QueueSendTimeouts+s.QueueReceiveTimeouts))
	ch <- prometheus.MustNewConstMetric(c.semGives, prometheus.CounterValue, float64(s.SemGives))
	ch <- prometheus.MustNewConstMetric(c.semTakes, prometheus.CounterValue, float64(s.SemTakes))
	ch <- prometheus.MustNewConstMetric(c.timerFires, prometheus.CounterValue, float64(s.TimerFires))
}

// serveMetrics starts the Prometheus listener in the background. Listener
// errors end the process; the demo has nothing sensible to do without it
// once asked for one.
func serveMetrics(listen string) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(newOSALCollector(osal.DefaultMetrics()))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(listen, mux); err != nil {
			osal.LogErrorf("metrics listener failed: %v", err)
			os.Exit(1)
		}
	}()
}
