package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHelpers_NoopBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordCatalogOperation("b", "update_price", "success")
		RecordAuthError("x")
		SetCatalogSize("b", 3)
		TrackDBOperation("select")(time.Now())
	})
}

func TestInitMetrics_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	initMetrics("test", reg)
	t.Cleanup(func() {
		HttpRequestsTotal, HttpRequestDuration = nil, nil
		AuthAttemptsCounter, AuthErrorsCounter = nil, nil
		DbOperationDuration = nil
		CatalogOperationsCounter, CatalogProductsGauge, BulkPriceProductsCounter = nil, nil, nil
		ExportsCounter = nil
	})

	RecordCatalogOperation("anine-bing", "delete", "failure")
	RecordCatalogOperation("anine-bing", "delete", "failure")
	SetCatalogSize("anine-bing", 12)
	RecordBulkPrice("golden-goose", "increase", 4)

	assert.Equal(t, 2.0, testutil.ToFloat64(CatalogOperationsCounter.WithLabelValues("anine-bing", "delete", "failure")))
	assert.Equal(t, 12.0, testutil.ToFloat64(CatalogProductsGauge.WithLabelValues("anine-bing")))
	assert.Equal(t, 4.0, testutil.ToFloat64(BulkPriceProductsCounter.WithLabelValues("golden-goose", "increase")))
}
