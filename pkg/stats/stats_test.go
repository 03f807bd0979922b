package stats_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/barterbay/barterd/pkg/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDumpPrometheusDefaults(t *testing.T) {
	stats.RecordTransition("propose", "pending")
	stats.RecordConflict()
	stats.RecordHTTPRequest("GET", 200)

	datadir := t.TempDir()
	require.NoError(t, stats.DumpPrometheusDefaults(datadir))

	buf, err := os.ReadFile(filepath.Join(datadir, "stats"))
	require.NoError(t, err)
	require.Contains(t, string(buf), "barter_exchange_transitions_total")
	require.Contains(t, string(buf), "barter_http_requests_total")
}

func TestActiveReservations(t *testing.T) {
	stats.AddActiveReservations(2)
	stats.AddActiveReservations(-1)

	count, err := testutil.GatherAndCount(
		prometheus.DefaultGatherer, "barter_active_reservations",
	)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
