// Command mockdriver runs a single local round-management core against a
// fixed, deterministic committee, timing out and advancing rounds purely
// off locally generated votes. It exists to exercise RoundState, the
// timeout Scheduler, and the payload-pull Client end to end without a
// network stack (spec §6's "standalone fixed-tempo block proposer"),
// grounded stylistically on cmd/root.go's cobra.Command wiring and
// cmd/bootstrap/cmd/qc.go's log.Fatal-on-setup-error convention.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/committee"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/pendingvotes"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/roundstate"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/timeout"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/tracker"
	"github.com/FinnTew/gravity-sdk/consensus/payload/client"
	"github.com/FinnTew/gravity-sdk/consensus/payload/mempool"
	"github.com/FinnTew/gravity-sdk/module/metrics"
	"github.com/FinnTew/gravity-sdk/module/timeservice"
	"github.com/FinnTew/gravity-sdk/module/trace"
)

type flags struct {
	baseMS       int64
	exponentBase float64
	maxExponent  uint
	validators   int
	rounds       int
	delayedQC    bool
	serviceName  string
}

func main() {
	var f flags

	rootCmd := &cobra.Command{
		Use:   "mockdriver",
		Short: "Drive a single round-management core against a fixed committee",
		Run: func(cmd *cobra.Command, args []string) {
			run(f)
		},
	}
	rootCmd.PersistentFlags().Int64Var(&f.baseMS, "base-ms", 500, "base round duration in milliseconds")
	rootCmd.PersistentFlags().Float64Var(&f.exponentBase, "exponent-base", 1.5, "exponential backoff base")
	rootCmd.PersistentFlags().UintVar(&f.maxExponent, "max-exponent", 6, "exponential backoff cap")
	rootCmd.PersistentFlags().IntVar(&f.validators, "validators", 4, "number of validators in the fixed committee")
	rootCmd.PersistentFlags().IntVar(&f.rounds, "rounds", 10, "number of rounds to drive before exiting")
	rootCmd.PersistentFlags().BoolVar(&f.delayedQC, "delayed-qc", false, "use delayed QC aggregation mode")
	rootCmd.PersistentFlags().StringVar(&f.serviceName, "service-name", "mockdriver", "Jaeger service name reported by the tracer")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(f flags) {
	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Str("node", "mockdriver").Logger()

	if f.validators < 1 {
		log.Fatal().Int("validators", f.validators).Msg("need at least one validator")
	}

	powers := make(map[model.VoterID]uint64, f.validators)
	var self model.VoterID
	for i := 0; i < f.validators; i++ {
		var v model.VoterID
		v[0] = byte(i + 1)
		powers[v] = 1
		if i == 0 {
			self = v
		}
	}
	verifier := committee.NewStaticVerifier(powers, nil)

	tracer, err := trace.NewTracer(log, f.serviceName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start tracer")
	}
	<-tracer.Ready()
	defer func() { <-tracer.Done() }()

	interval, err := timeout.NewExponentialTimeInterval(time.Duration(f.baseMS)*time.Millisecond, f.exponentBase, f.maxExponent)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid timeout interval configuration")
	}

	clock := timeservice.NewClock()
	timeoutCh := make(chan model.Round, 1)
	sched := timeout.NewScheduler(interval, clock, timeoutCh)

	delayedCh := make(chan pendingvotes.DelayedQcMsgEnvelope, 16)
	qcMode := pendingvotes.Eager()
	if f.delayedQC {
		qcMode = pendingvotes.DelayedMode(uint64(f.baseMS / 4))
	}

	m := metrics.NewCollector(nil)
	rs := roundstate.New(roundstate.Config{
		Log:          log,
		TimeInterval: interval,
		Scheduler:    sched,
		Metrics:      m,
		QcAggMode:    qcMode,
		DelayedQCTx:  delayedCh,
	})

	requestCh := make(chan client.GetPayloadRequest, 1)
	provider := mempool.NewProvider(requestCh)
	defer provider.Stop()
	for i := 0; i < 50; i++ {
		var h model.Hash
		h[0] = byte(i)
		provider.Submit(client.TransactionEntry{Hash: h, Bytes: []byte{byte(i)}})
	}
	payloadClient := client.New(log, requestCh, client.BackpressureConfig{
		FillThreshold:         0.8,
		PendingBlockThreshold: 2,
		PullTimeoutMS:         500,
	}, m, tracer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	qcTracker := tracker.NewNewestQCTracker()
	tcTracker := tracker.NewNewestTCTracker()

	// Prime the first round, mirroring eventhandler.EventHandler's pattern
	// of an initial Start() call: an empty SyncInfo advances the state from
	// round 0 to round 1 and arms round 1's timer.
	rs.ProcessCertificates(model.SyncInfo{})

	roundsSeen := 0
	for roundsSeen < f.rounds {
		select {
		case round := <-timeoutCh:
			rs.ProcessLocalTimeout(round)
			vote := selfTimeoutVote(self, round)
			rs.RecordVote(vote)
			result := rs.InsertVote(vote, verifier)
			logResult(log, result)
			advanceOnCertificate(log, rs, tracer, qcTracker, tcTracker, result)

		case envelope := <-delayedCh:
			result := rs.ProcessDelayedQCMsg(verifier, envelope)
			logResult(log, result)
			advanceOnCertificate(log, rs, tracer, qcTracker, tcTracker, result)

		default:
			payload, err := payloadClient.Pull(ctx, client.PullRequest{
				MaxPollTime: 50 * time.Millisecond,
				MaxItems:    20,
				MaxBytes:    4096,
			})
			if err != nil {
				log.Warn().Err(err).Msg("payload pull failed")
				continue
			}
			hash := hashPayload(payload)
			vote := &model.Vote{VoterID: self, VoteData: model.VoteData{
				ProposedBlockHash: hash,
				ProposedRound:     rs.CurrentRound(),
			}}

			voteSpan, _ := tracer.StartVoteSpan(ctx, vote.ID(), "record_self_vote")
			rs.RecordVote(vote)
			result := rs.InsertVote(vote, verifier)
			voteSpan.Finish()

			logResult(log, result)
			roundsSeen += advanceOnCertificate(log, rs, tracer, qcTracker, tcTracker, result)
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func selfTimeoutVote(self model.VoterID, round model.Round) *model.Vote {
	return &model.Vote{VoterID: self, VoteData: model.VoteData{ProposedRound: round, IsTimeout: true}}
}

func hashPayload(p client.Payload) model.Hash {
	var h model.Hash
	for _, entry := range p {
		h[0] ^= entry.Hash[0]
	}
	return h
}

func logResult(log zerolog.Logger, r pendingvotes.Result) {
	log.Debug().Str("result", r.Kind.String()).Msg("vote inserted")
}

// advanceOnCertificate reacts to a fresh QC/TC by feeding it back into
// ProcessCertificates, and returns 1 if the round actually advanced. A
// round driven by a fresh QC gets a span rooted at the certified block
// hash, so every span touching that block during the round nests under
// one trace (trace.OpenTracer.StartRoundSpan).
func advanceOnCertificate(log zerolog.Logger, rs *roundstate.RoundState, tracer *trace.OpenTracer, qcTracker *tracker.NewestQCTracker, tcTracker *tracker.NewestTCTracker, r pendingvotes.Result) int {
	var syncInfo model.SyncInfo
	var rootedHash *model.Hash
	switch r.Kind {
	case pendingvotes.NewQuorumCertificate:
		qcTracker.Track(r.QC)
		syncInfo = model.SyncInfo{HighestCertifiedRound: r.QC.Round, HighestOrderedRound: r.QC.Round}
		rootedHash = &r.QC.BlockHash
	case pendingvotes.NewTimeoutCertificate:
		tcTracker.Track(r.TC)
		syncInfo = model.SyncInfo{HighestTimeoutRound: r.TC.Round}
	default:
		return 0
	}

	if rootedHash != nil {
		span, _ := tracer.StartRoundSpan(context.Background(), *rootedHash, "certify_round")
		defer span.Finish()
	}

	if event := rs.ProcessCertificates(syncInfo); event != nil {
		log.Info().Uint64("round", uint64(event.Round)).Str("reason", event.Reason.String()).Msg("round advanced")
		return 1
	}
	return 0
}
