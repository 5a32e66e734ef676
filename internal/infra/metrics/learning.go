package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		enrollmentsTotal,
		quizAttemptsTotal,
		lessonCompletionsTotal,
		progressPercent,
	)
}

var (
	enrollmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrollments_total",
			Help: "Enrollments created, labeled by mode (single/group).",
		},
		[]string{"mode"},
	)

	quizAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_attempts_total",
			Help: "Graded quiz attempts by outcome.",
		},
		[]string{"outcome"},
	)

	lessonCompletionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lesson_completions_total",
			Help: "Lessons newly marked complete.",
		},
	)

	progressPercent = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "progress_percent",
			Help:    "Distribution of recomputed course progress percentages.",
			Buckets: []float64{10, 25, 50, 75, 90, 100},
		},
	)
)

func IncEnrollment(mode string) {
	enrollmentsTotal.WithLabelValues(norm(mode)).Inc()
}

func AddEnrollments(mode string, n int) {
	enrollmentsTotal.WithLabelValues(norm(mode)).Add(float64(n))
}

func IncQuizAttempt(passed bool) {
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	quizAttemptsTotal.WithLabelValues(outcome).Inc()
}

func IncLessonCompleted() {
	lessonCompletionsTotal.Inc()
}

func ObserveProgressPercent(pct float64) {
	progressPercent.Observe(pct)
}
