package connection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/couchmesh/core"
	"github.com/hupe1980/couchmesh/internal/testutil"
	"github.com/hupe1980/couchmesh/retry"
)

func testCreds() core.Credentials {
	return core.Credentials{Endpoint: "couchbase://db1", Username: "app", Password: "secret"}
}

func newTestManager(t *testing.T) (*Manager, *testutil.FakeDialer, *testutil.FakeClock, func(core.Credentials)) {
	t.Helper()
	dialer := testutil.NewFakeDialer()
	clock := testutil.NewFakeClock()
	creds := testCreds()
	source := func() (core.Credentials, error) { return creds, nil }
	m := NewManager(dialer, source, func(o *Options) {
		o.Clock = clock
		o.IdleTimeout = time.Minute
	})
	return m, dialer, clock, func(c core.Credentials) { creds = c }
}

func TestManager_ReusesHandleForUnchangedCredentials(t *testing.T) {
	m, dialer, _, _ := newTestManager(t)
	ctx := context.Background()

	h1, err := m.Acquire(ctx)
	require.NoError(t, err)
	h2, err := m.Acquire(ctx)
	require.NoError(t, err)
	h3, err := m.Acquire(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, dialer.DialCount())
	assert.Same(t, h1, h2)
	assert.Same(t, h2, h3)
}

func TestManager_CredentialChangeReplacesHandle(t *testing.T) {
	m, dialer, _, setCreds := newTestManager(t)
	ctx := context.Background()

	h1, err := m.Acquire(ctx)
	require.NoError(t, err)

	changed := testCreds()
	changed.Password = "rotated"
	setCreds(changed)

	h2, err := m.Acquire(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, dialer.DialCount())
	assert.NotSame(t, h1, h2)
	assert.Equal(t, 1, dialer.Handles()[0].CloseCount())
	assert.False(t, dialer.Handles()[1].Closed())
}

func TestManager_CloseFailureDuringReplacementIsSwallowed(t *testing.T) {
	m, dialer, _, setCreds := newTestManager(t)
	ctx := context.Background()

	_, err := m.Acquire(ctx)
	require.NoError(t, err)
	dialer.Handles()[0].FailCloseWith(errors.New("socket gone"))

	changed := testCreds()
	changed.Endpoint = "couchbase://db2"
	setCreds(changed)

	h2, err := m.Acquire(ctx)
	require.NoError(t, err)
	assert.NotNil(t, h2)
	assert.True(t, m.HasActiveConnection())
}

func TestManager_DialFailureResetsState(t *testing.T) {
	m, dialer, _, _ := newTestManager(t)
	ctx := context.Background()

	dialErr := core.Errorf(core.KindAuthentication, "connect", "couchbase://db1", "denied")
	dialer.FailWith(dialErr)

	_, err := m.Acquire(ctx)
	require.Error(t, err)
	assert.True(t, core.IsAuthentication(err))
	assert.False(t, m.HasActiveConnection())

	// A subsequent acquire attempts a fresh dial, no stale partial state.
	dialer.FailWith(nil)
	_, err = m.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dialer.DialCount())
	assert.True(t, m.HasActiveConnection())
}

func TestManager_IdleEvictionClosesHandle(t *testing.T) {
	m, dialer, clock, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, m.HasActiveConnection())

	clock.Advance(time.Minute + time.Second)

	assert.False(t, m.HasActiveConnection())
	assert.Equal(t, 1, dialer.Handles()[0].CloseCount())

	// Acquire after eviction dials again.
	_, err = m.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dialer.DialCount())
}

func TestManager_AcquireReschedulesIdleTimer(t *testing.T) {
	m, _, clock, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Acquire(ctx)
	require.NoError(t, err)

	// Touch the connection just before the idle deadline; the timer must
	// restart from the touch, not the original acquire.
	clock.Advance(50 * time.Second)
	_, err = m.Acquire(ctx)
	require.NoError(t, err)

	clock.Advance(50 * time.Second)
	assert.True(t, m.HasActiveConnection())

	clock.Advance(11 * time.Second)
	assert.False(t, m.HasActiveConnection())
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	m, dialer, _, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Close()) // no handle yet

	_, err := m.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.Equal(t, 1, dialer.Handles()[0].CloseCount())
	assert.False(t, m.HasActiveConnection())
}

func TestManager_IdleTime(t *testing.T) {
	m, _, clock, _ := newTestManager(t)
	ctx := context.Background()

	// Sentinel zero before any handle was ever cached.
	assert.Equal(t, time.Duration(0), m.IdleTime())

	_, err := m.Acquire(ctx)
	require.NoError(t, err)
	clock.Advance(30 * time.Second)
	assert.Equal(t, 30*time.Second, m.IdleTime())
}

func TestManager_ValidatesCredentialsBeforeDialing(t *testing.T) {
	m, dialer, _, setCreds := newTestManager(t)
	ctx := context.Background()

	setCreds(core.Credentials{Endpoint: "", Username: "app", Password: "secret"})

	_, err := m.Acquire(ctx)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.Equal(t, 0, dialer.DialCount())
}

func TestManager_DialRetryRecoversTransientFailure(t *testing.T) {
	dialer := testutil.NewFakeDialer()
	clock := testutil.NewFakeClock()
	attempts := 0
	flaky := &flakyDialer{inner: dialer, failures: 2, count: &attempts}

	m := NewManager(flaky, StaticCredentials(testCreds()), func(o *Options) {
		o.Clock = clock
		o.DialRetry = retry.New(retry.Policy{
			MaxAttempts:       3,
			InitialDelay:      time.Millisecond,
			BackoffMultiplier: 2,
			Sleep:             func(time.Duration) {},
		})
	})

	_, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.True(t, m.HasActiveConnection())
}

// flakyDialer fails the first n dials with a transient error.
type flakyDialer struct {
	inner    core.Dialer
	failures int
	count    *int
}

func (d *flakyDialer) Dial(ctx context.Context, creds core.Credentials, timeout time.Duration) (core.Handle, error) {
	*d.count++
	if *d.count <= d.failures {
		return nil, core.Errorf(core.KindUnavailable, "connect", creds.Endpoint, "warming up")
	}
	return d.inner.Dial(ctx, creds, timeout)
}
