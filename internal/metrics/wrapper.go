package metrics

// MetricsWrapper adapts Metrics to the narrow interfaces used by the ml,
// features and predict packages so they don't import prometheus.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) MLPredictionsInc() {
	w.m.MLPredictions.Inc()
}

func (w *MetricsWrapper) MLFailuresInc() {
	w.m.MLFailures.Inc()
}

func (w *MetricsWrapper) MLTimeoutsInc() {
	w.m.MLTimeouts.Inc()
}

func (w *MetricsWrapper) MLLatencyObserve(v float64) {
	w.m.MLLatency.Observe(v)
}

func (w *MetricsWrapper) MLModelAgeSet(v float64) {
	w.m.MLModelAge.Set(v)
}

func (w *MetricsWrapper) FeatureErrorsInc() {
	w.m.FeatureErrors.Inc()
}

func (w *MetricsWrapper) UnknownCategoryInc(column string) {
	w.m.UnknownCategories.WithLabelValues(column).Inc()
}

func (w *MetricsWrapper) PredictionObserve(price float64, highlyRated bool) {
	w.m.PredictedPrice.Observe(price)
	if highlyRated {
		w.m.HighlyRated.Inc()
	}
}

func (w *MetricsWrapper) SubmissionInc() {
	w.m.Submissions.Inc()
}

func (w *MetricsWrapper) ErrorsInc() {
	w.m.ErrorsTotal.Inc()
}
