package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve(t *testing.T) {
	okBefore := testutil.ToFloat64(AnalysesTotal.WithLabelValues("unit", StatusSuccess))
	errBefore := testutil.ToFloat64(AnalysesTotal.WithLabelValues("unit", StatusError))
	rowsBefore := testutil.ToFloat64(RowsAnalyzed.WithLabelValues("unit"))

	Observe("unit", 12, 5*time.Millisecond, nil)
	Observe("unit", 99, time.Millisecond, errors.New("bad input"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(AnalysesTotal.WithLabelValues("unit", StatusSuccess)))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(AnalysesTotal.WithLabelValues("unit", StatusError)))
	assert.Equal(t, rowsBefore+12, testutil.ToFloat64(RowsAnalyzed.WithLabelValues("unit")))
}
