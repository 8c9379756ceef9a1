package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveAnalysis(t *testing.T) {
	m := New()

	m.ObserveAnalysis("rekognition", OutcomeFaces, 1, 200*time.Millisecond)
	m.ObserveAnalysis("rekognition", OutcomeFaces, 2, 300*time.Millisecond)
	m.ObserveAnalysis("rekognition", OutcomeFailed, 0, time.Second)
	m.ObserveAnalysis("rekognition", OutcomeNoImage, 0, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyses.WithLabelValues("rekognition", OutcomeFaces)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("rekognition", OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("rekognition", OutcomeNoImage)))
	// single provider label, single histogram series
	assert.Equal(t, 1, testutil.CollectAndCount(m.analysisDuration))
}

func TestMetrics_Push(t *testing.T) {
	m := New()

	m.ObservePush(PushSent)
	m.ObservePush(PushSent)
	m.ObservePush(PushExpired)
	m.SetSubscriptions(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pushDeliveries.WithLabelValues(PushSent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pushDeliveries.WithLabelValues(PushExpired)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.subscriptions))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveAnalysis("mock", OutcomeNoFace, 0, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `facemood_analyses_total{outcome="no_face",provider="mock"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
