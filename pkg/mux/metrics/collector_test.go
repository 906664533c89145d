package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ib-77/fairmux/pkg/mux"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCollector_Register(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCollector("test")))

	// A second collector with another name fits in the same registry.
	require.NoError(t, reg.Register(NewCollector("other")))
}

func TestCollector_TracksMux(t *testing.T) {
	c := NewCollector("tracked")
	clk := testclock.NewClock(time.Now())

	cfg := mux.DefaultConfig()
	cfg.Clock = clk
	cfg.Metrics = c

	m, err := mux.New[string, int](cfg)
	require.NoError(t, err)
	defer m.Close()

	a, err := m.Register("a", 4)
	require.NoError(t, err)
	b, err := m.Register("b", 4)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.Send(ctx, 1))
	require.NoError(t, a.Send(ctx, 2))
	require.NoError(t, b.Send(ctx, 3))
	require.NoError(t, a.Close())

	for range 3 {
		_, err := m.Next(ctx)
		require.NoError(t, err)
	}
	// Observes the closure of a.
	_, err = m.TryNext()
	assert.ErrorIs(t, err, mux.ErrNotReady)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.registeredKeys))
	assert.Equal(t, float64(4), testutil.ToFloat64(c.notifications))
	assert.Equal(t, float64(3), testutil.ToFloat64(c.emitted))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.closedKeys))
	assert.Equal(t, float64(0), testutil.ToFloat64(c.readyKeys))
	assert.Equal(t, 1, m.Keys())

	require.NoError(t, b.Close())
}
