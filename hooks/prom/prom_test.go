package promhook

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/pagecache"
)

func TestCountersTrackEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg, "pages")
	require.NoError(t, err)

	h.Hit("k")
	h.Hit("k")
	h.Miss("k")
	h.Coalesced("k")
	h.FetchFailed("k", errors.New("x"))
	h.SelfHealed("k", "corrupt")
	h.Swept(4)
	h.Invalidated(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(h.lookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.lookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.coalesced))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.failures))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.selfHealed.WithLabelValues("corrupt")))
	assert.Equal(t, 4.0, testutil.ToFloat64(h.swept))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.invalidated))
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, "pages")
	require.NoError(t, err)
	_, err = New(reg, "pages")
	require.Error(t, err)

	// a different cache name is a different set of series
	_, err = New(reg, "counts")
	require.NoError(t, err)
}

func TestWiredIntoController(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg, "counts")
	require.NoError(t, err)

	ctl, err := pagecache.New(pagecache.Options[pagecache.OpKey, int]{Hooks: h, SweepInterval: -1})
	require.NoError(t, err)
	defer func() { _ = ctl.Close(context.Background()) }()

	fetch := func(context.Context) (int, error) { return 3, nil }
	_, err = ctl.Fetch(context.Background(), "counts", fetch)
	require.NoError(t, err)
	_, err = ctl.Fetch(context.Background(), "counts", fetch)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.lookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.lookups.WithLabelValues("miss")))
	assert.Equal(t, 2, testutil.CollectAndCount(h.lookups, "pagecache_lookups_total"))
}
