// Package client implements the Payload-Pull Client (spec §4.4): a
// bounded-wait request/response dance against a payload provider, with a
// wait-for-full-blocks back-pressure heuristic. Grounded on
// original_source/aptos-core/consensus/src/payload_client/user/quorum_store_client.rs,
// restructured into the teacher's context.Context-threaded, zerolog-logged
// idiom.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
	"github.com/FinnTew/gravity-sdk/module/metrics"
	"github.com/FinnTew/gravity-sdk/module/trace"
)

// Client pulls block payloads from a payload provider reachable over
// requestCh. A fresh sender is cloned per call (spec §5: "The outgoing
// channel to the payload provider is an owned sender cloned per call");
// since Go channels are already reference values, Client simply holds the
// shared send side.
type Client struct {
	log       zerolog.Logger
	requestCh chan<- GetPayloadRequest
	cfg       BackpressureConfig
	metrics   *metrics.Collector
	tracer    trace.Tracer

	// FailureInjector, if set, is consulted before every pull attempt; a
	// non-nil error short-circuits the call as ErrInternalFailure.
	// Supplements spec §6's InternalFailure error kind with a concrete
	// mechanism, grounded on the original's fail_point!("consensus::pull_payload").
	FailureInjector func(point string) error
}

// New constructs a Client.
func New(log zerolog.Logger, requestCh chan<- GetPayloadRequest, cfg BackpressureConfig, m *metrics.Collector, tracer trace.Tracer) *Client {
	if cfg.RetrySleep == 0 {
		cfg.RetrySleep = DefaultRetrySleep
	}
	return &Client{
		log:       log.With().Str("component", "payload_pull_client").Logger(),
		requestCh: requestCh,
		cfg:       cfg,
		metrics:   m,
		tracer:    tracer,
	}
}

// Pull requests a payload, honoring req's deadline, size caps, exclusion
// filter, and the wait-for-full-blocks back-pressure heuristic (spec
// §4.4). It implements the documented retry loop, not the original
// source's unconditional `done = true` shortcut (spec §9's Open Question:
// that shortcut is a bug, not the specified contract).
func (c *Client) Pull(ctx context.Context, req PullRequest) (Payload, error) {
	if c.tracer != nil {
		span, spanCtx := c.tracer.StartSpanFromContext(ctx, "pull_payload")
		ctx = spanCtx
		defer span.Finish()
	}

	if c.FailureInjector != nil {
		if err := c.FailureInjector("consensus::pull_payload"); err != nil {
			return nil, errors.Wrap(model.ErrInternalFailure, err.Error())
		}
	}

	returnNonFull := req.RecentMaxFillFraction < c.cfg.FillThreshold &&
		req.PendingUncommittedBlocks < c.cfg.PendingBlockThreshold
	returnEmpty := req.PendingOrdering && returnNonFull

	if c.metrics != nil {
		observed := 0.0
		if !returnNonFull {
			observed = 1.0
		}
		c.metrics.WaitForFullBlocksTriggered.Observe(observed)
	}

	start := time.Now()
	waitCallbackFired := false

	var payload Payload
	for {
		done := time.Since(start) >= req.MaxPollTime
		resp, err := c.pullOnce(ctx, req, returnNonFull || returnEmpty || done)
		if err != nil {
			return nil, err
		}
		payload = resp

		if payload.IsEmpty() && !returnEmpty && !done {
			if !waitCallbackFired && req.WaitCallback != nil {
				waitCallbackFired = true
				req.WaitCallback()
			}
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %s", model.ErrCouldNotGetData, ctx.Err())
			case <-time.After(c.cfg.RetrySleep):
			}
			continue
		}
		break
	}

	c.log.Info().
		Dur("elapsed", time.Since(start)).
		Dur("max_poll_time", req.MaxPollTime).
		Int("payload_len", len(payload)).
		Bool("pending_ordering", req.PendingOrdering).
		Bool("return_empty", returnEmpty).
		Bool("return_non_full", returnNonFull).
		Msg("pulled payload for proposal")

	return payload, nil
}

func (c *Client) pullOnce(ctx context.Context, req PullRequest, returnNonFull bool) (Payload, error) {
	reply := make(chan GetPayloadResponse, 1)
	getReq := GetPayloadRequest{
		MaxItems:                   req.MaxItems,
		MaxItemsAfterFiltering:     req.MaxItemsAfterFiltering,
		SoftMaxItemsAfterFiltering: req.SoftMaxItemsAfterFiltering,
		MaxBytes:                   req.MaxBytes,
		MaxInlineItems:             req.MaxInlineItems,
		MaxInlineBytes:             req.MaxInlineBytes,
		ReturnNonFull:              returnNonFull,
		Exclude:                    req.Exclude,
		BlockTimestamp:             req.BlockTimestamp,
		Reply:                      reply,
	}

	pullCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.PullTimeoutMS)*time.Millisecond)
	defer cancel()

	select {
	case c.requestCh <- getReq:
	case <-pullCtx.Done():
		return nil, fmt.Errorf("%w: request channel full or closed", model.ErrCouldNotGetData)
	}

	select {
	case resp, ok := <-reply:
		if !ok {
			return nil, fmt.Errorf("%w: reply channel closed", model.ErrCouldNotGetData)
		}
		return resp.Payload, nil
	case <-pullCtx.Done():
		return nil, fmt.Errorf("%w: did not receive payload on time", model.ErrCouldNotGetData)
	}
}
