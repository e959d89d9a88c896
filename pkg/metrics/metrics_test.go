package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordModeration(t *testing.T) {
	before := testutil.ToFloat64(ModerationTransitionsTotal.WithLabelValues("approve"))
	RecordModeration("approve")
	assert.Equal(t, before+1, testutil.ToFloat64(ModerationTransitionsTotal.WithLabelValues("approve")))
}

func TestRecordIngestion(t *testing.T) {
	before := testutil.ToFloat64(IngestedReviewsTotal.WithLabelValues("fallback", "stored"))
	RecordIngestion("fallback", 3, 1, 0)
	assert.Equal(t, before+3, testutil.ToFloat64(IngestedReviewsTotal.WithLabelValues("fallback", "stored")))
}

func TestRecordDashboardCache(t *testing.T) {
	before := testutil.ToFloat64(DashboardCacheTotal.WithLabelValues("hit"))
	RecordDashboardCache(true)
	assert.Equal(t, before+1, testutil.ToFloat64(DashboardCacheTotal.WithLabelValues("hit")))
}
