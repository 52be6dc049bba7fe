package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "duewatch",
		Subsystem: "monitor",
		Name:      "runs_total",
		Help:      "Runs by outcome (success, failure).",
	}, []string{"outcome"})

	runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "duewatch",
		Subsystem: "monitor",
		Name:      "run_duration_seconds",
		Help:      "Wall time of a full extraction-to-notification run.",
		Buckets:   []float64{1, 5, 10, 20, 30, 60, 120},
	})

	activitiesExtracted = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "duewatch",
		Subsystem: "monitor",
		Name:      "activities_extracted",
		Help:      "Activities found by the most recent extraction.",
	})

	activitiesNew = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "duewatch",
		Subsystem: "monitor",
		Name:      "activities_new_total",
		Help:      "Activities reported as new since the process started.",
	})

	chunksSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "duewatch",
		Subsystem: "notify",
		Name:      "chunks_sent_total",
		Help:      "Message chunks handed to the notification sink.",
	})

	lastSuccessGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "duewatch",
		Subsystem: "monitor",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful run.",
	})
)

func init() {
	prometheus.MustRegister(runsTotal, runDuration, activitiesExtracted, activitiesNew, chunksSent, lastSuccessGauge)
}

// RecordRun accounts for a finished run.
func RecordRun(ok bool, elapsed time.Duration) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	runsTotal.WithLabelValues(outcome).Inc()
	runDuration.Observe(elapsed.Seconds())
}

// RecordExtraction stores the size of the latest extraction and how many
// of its activities were new.
func RecordExtraction(extracted, fresh int) {
	activitiesExtracted.Set(float64(extracted))
	if fresh > 0 {
		activitiesNew.Add(float64(fresh))
	}
}

// RecordChunksSent counts delivered chunks.
func RecordChunksSent(n int) {
	if n > 0 {
		chunksSent.Add(float64(n))
	}
}

// RecordSuccess updates the success watermark.
func RecordSuccess(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastSuccessGauge.Set(float64(ts.Unix()))
}
