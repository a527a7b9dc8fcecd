package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFetch(t *testing.T) {
	m := New()
	m.ObserveFetch("Turkey", 2, true)
	m.ObserveFetch("Iraq", 0, false)
	m.ObserveFetch("Turkey", 3, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetches.WithLabelValues("Turkey", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("Iraq", "error")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.measurements.WithLabelValues("Turkey")))
}

func TestObserveRunOnlyUpdatesOnWrite(t *testing.T) {
	m := New()
	m.ObserveRun(time.Second, 9, false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.placemarks))

	m.ObserveRun(time.Second, 7, true)
	assert.Equal(t, 7.0, testutil.ToFloat64(m.placemarks))
	assert.Greater(t, testutil.ToFloat64(m.lastSuccess), 0.0)
}

func TestDumpAndTextfile(t *testing.T) {
	m := New()
	m.ObserveFetch("Georgia", 4, true)

	assert.Contains(t, m.Dump(), "radiation_live_measurements_total{region=Georgia} 4")

	path := filepath.Join(t.TempDir(), "radiation.prom")
	require.NoError(t, m.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `radiation_live_fetch_requests_total{region="Georgia",status="ok"} 1`)
}
