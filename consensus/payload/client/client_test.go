package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
	"github.com/FinnTew/gravity-sdk/consensus/payload/client"
	"github.com/FinnTew/gravity-sdk/consensus/payload/mempool"
)

func txEntry(b byte) client.TransactionEntry {
	var h model.Hash
	h[0] = b
	return client.TransactionEntry{Hash: h, Bytes: []byte{b}}
}

func TestClient_Pull_ReturnsImmediatelyWhenPayloadAvailable(t *testing.T) {
	requestCh := make(chan client.GetPayloadRequest, 4)
	provider := mempool.NewProvider(requestCh)
	defer provider.Stop()
	provider.Submit(txEntry(1))
	provider.Submit(txEntry(2))

	c := client.New(zerolog.Nop(), requestCh, client.BackpressureConfig{
		FillThreshold:         0.5,
		PendingBlockThreshold: 10,
		PullTimeoutMS:         200,
		RetrySleep:            5 * time.Millisecond,
	}, nil, nil)

	payload, err := c.Pull(context.Background(), client.PullRequest{
		MaxPollTime: 100 * time.Millisecond,
		MaxItems:    10,
		MaxBytes:    1024,
	})
	require.NoError(t, err)
	assert.Len(t, payload, 2)
}

func TestClient_Pull_RetriesUntilPayloadArrivesOrDeadline(t *testing.T) {
	requestCh := make(chan client.GetPayloadRequest, 4)
	provider := mempool.NewProvider(requestCh)
	defer provider.Stop()

	c := client.New(zerolog.Nop(), requestCh, client.BackpressureConfig{
		FillThreshold:         0.5,
		PendingBlockThreshold: 10,
		PullTimeoutMS:         200,
		RetrySleep:            5 * time.Millisecond,
	}, nil, nil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		provider.Submit(txEntry(1))
	}()

	payload, err := c.Pull(context.Background(), client.PullRequest{
		MaxPollTime: 500 * time.Millisecond,
		MaxItems:    10,
		MaxBytes:    1024,
	})
	require.NoError(t, err)
	assert.Len(t, payload, 1)
}

func TestClient_Pull_ReturnsEmptyWhenMaxPollTimeElapsesWithNoPayload(t *testing.T) {
	requestCh := make(chan client.GetPayloadRequest, 4)
	provider := mempool.NewProvider(requestCh)
	defer provider.Stop()

	c := client.New(zerolog.Nop(), requestCh, client.BackpressureConfig{
		FillThreshold:         0.5,
		PendingBlockThreshold: 10,
		PullTimeoutMS:         50,
		RetrySleep:            5 * time.Millisecond,
	}, nil, nil)

	payload, err := c.Pull(context.Background(), client.PullRequest{
		MaxPollTime: 30 * time.Millisecond,
		MaxItems:    10,
		MaxBytes:    1024,
	})
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestClient_Pull_BackpressureSkipsRetryWhenPendingOrderingAndNotFull(t *testing.T) {
	requestCh := make(chan client.GetPayloadRequest, 4)
	provider := mempool.NewProvider(requestCh)
	defer provider.Stop()
	// No entries submitted: with return_empty true, Pull must not enter the
	// retry-sleep loop waiting for one to arrive -- it returns the empty
	// payload on the first round trip, well before MaxPollTime elapses.
	c := client.New(zerolog.Nop(), requestCh, client.BackpressureConfig{
		FillThreshold:         0.5,
		PendingBlockThreshold: 10,
		PullTimeoutMS:         200,
		RetrySleep:            200 * time.Millisecond,
	}, nil, nil)

	start := time.Now()
	payload, err := c.Pull(context.Background(), client.PullRequest{
		MaxPollTime:              2 * time.Second,
		MaxItems:                 10,
		MaxBytes:                 1024,
		PendingOrdering:          true,
		RecentMaxFillFraction:    0.1,
		PendingUncommittedBlocks: 1,
	})
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.Empty(t, payload)
	assert.Less(t, elapsed, 200*time.Millisecond, "return_empty must short-circuit the retry loop instead of sleeping RetrySleep")
}

func TestClient_Pull_FailureInjectorShortCircuitsAsInternalFailure(t *testing.T) {
	requestCh := make(chan client.GetPayloadRequest, 4)
	c := client.New(zerolog.Nop(), requestCh, client.BackpressureConfig{PullTimeoutMS: 50}, nil, nil)
	c.FailureInjector = func(point string) error {
		assert.Equal(t, "consensus::pull_payload", point)
		return assert.AnError
	}

	_, err := c.Pull(context.Background(), client.PullRequest{MaxPollTime: 10 * time.Millisecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInternalFailure)
}

func TestClient_Pull_ContextCancelledWhileWaitingReturnsCouldNotGetData(t *testing.T) {
	requestCh := make(chan client.GetPayloadRequest, 4)
	provider := mempool.NewProvider(requestCh)
	defer provider.Stop()

	c := client.New(zerolog.Nop(), requestCh, client.BackpressureConfig{
		PullTimeoutMS: 500,
		RetrySleep:    50 * time.Millisecond,
	}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := c.Pull(ctx, client.PullRequest{
		MaxPollTime: time.Second,
		MaxItems:    10,
		MaxBytes:    1024,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCouldNotGetData)
}
