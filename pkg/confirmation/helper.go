package confirmation

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/Layr-Labs/multisig-go/pkg/execution"
	"github.com/Layr-Labs/multisig-go/pkg/metrics"
	"github.com/Layr-Labs/multisig-go/pkg/relay"
	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/Layr-Labs/multisig-go/pkg/signatureStore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultCooldown = 30 * time.Second

	updatesBuffer = 16
)

// Config holds the session settings.
type Config struct {
	// Cooldown after a confirmation request during which further request events are ignored
	Cooldown time.Duration
}

// SubmitTransactionHelper starts confirmation sessions.
type SubmitTransactionHelper struct {
	cfg     *Config
	repo    execution.IExecutionRepository
	relay   relay.IRelayService
	metrics *metrics.SessionMetrics
	logger  *zap.Logger
}

// NewSubmitTransactionHelper creates a SubmitTransactionHelper. A zero Cooldown uses DefaultCooldown.
func NewSubmitTransactionHelper(
	cfg *Config,
	repo execution.IExecutionRepository,
	relayService relay.IRelayService,
	m *metrics.SessionMetrics,
	logger *zap.Logger,
) *SubmitTransactionHelper {
	c := *cfg
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultCooldown
	}
	return &SubmitTransactionHelper{
		cfg:     &c,
		repo:    repo,
		relay:   relayService,
		metrics: m,
		logger:  logger,
	}
}

// Observe starts a session for tx on safeAddress. initial holds signatures that are already known,
// for example the requester's confirmation; they are verified against every estimate and only
// those recovering to a current owner are kept.
//
// The session runs until it reaches a terminal state or ctx is cancelled. Cancelling ctx stops
// listening and any estimation or request in flight, a submission that already started completes.
func (h *SubmitTransactionHelper) Observe(
	ctx context.Context,
	events Events,
	safeAddress common.Address,
	loader InfoLoader,
	tx *safe.SafeTransaction,
	initial []safe.Signature,
) *Session {
	id := uuid.New().String()
	l := h.logger.With(zap.String("sessionId", id))
	store := signatureStore.NewSignatureStore(l)

	s := &Session{
		id:          id,
		cfg:         h.cfg,
		events:      events,
		safeAddress: safeAddress,
		loader:      loader,
		tx:          tx,
		initial:     append([]safe.Signature(nil), initial...),
		store:       store,
		dispatcher:  NewDispatcher(h.relay, store, l),
		listener:    NewListener(h.relay, h.repo, l),
		submitter:   NewSubmitter(h.repo, h.relay, h.metrics, l),
		metrics:     h.metrics,
		logger:      l,
		updates:     make(chan ViewUpdate, updatesBuffer),
		done:        make(chan struct{}),
		estimates:   make(chan estimateResult),
		requests:    make(chan requestResult),
		submits:     make(chan submitResult),
		verified:    make(chan VerifiedEvent),
	}
	h.metrics.SessionStarted()

	sessionCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer close(s.done)
		defer cancel()
		s.run(sessionCtx)
	}()
	return s
}

type estimateResult struct {
	info *safe.ExecuteInformation
	err  error
}

type requestResult struct {
	info    *safe.ExecuteInformation
	targets []common.Address
	err     error
}

type submitResult struct {
	chainHash string
	err       error
}

// Session is a running confirmation session. All fields below logger are owned by the run goroutine.
type Session struct {
	id          string
	cfg         *Config
	events      Events
	safeAddress common.Address
	loader      InfoLoader
	tx          *safe.SafeTransaction
	initial     []safe.Signature
	store       *signatureStore.SignatureStore
	dispatcher  *Dispatcher
	listener    *Listener
	submitter   *Submitter
	metrics     *metrics.SessionMetrics
	logger      *zap.Logger

	state   atomic.Int32
	updates chan ViewUpdate
	done    chan struct{}

	estimates chan estimateResult
	requests  chan requestResult
	submits   chan submitResult
	verified  chan VerifiedEvent

	info             *safe.ExecuteInformation
	seededHash       common.Hash
	seeded           bool
	stopListener     context.CancelFunc
	estimateInFlight bool
	requestInFlight  bool
	submitInFlight   bool
	cooldownUntil    time.Time
}

// ID returns the session id attached to every log line of the session.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state of the session.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Updates returns the view updates of the session. The channel is closed when the session ends.
func (s *Session) Updates() <-chan ViewUpdate {
	return s.updates
}

// Done is closed when the session ended.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Signatures streams the collected signatures with replay-latest semantics until ctx ends.
func (s *Session) Signatures(ctx context.Context) <-chan safe.SignatureSet {
	return s.store.Current(ctx)
}

func (s *Session) setState(state State) {
	old := State(s.state.Swap(int32(state)))
	if old != state {
		s.logger.Sugar().Debugw("Session state changed",
			zap.String("from", old.String()),
			zap.String("to", state.String()),
		)
	}
}

func (s *Session) emit(ctx context.Context, update ViewUpdate) {
	select {
	case s.updates <- update:
	case <-ctx.Done():
	}
}

func (s *Session) run(ctx context.Context) {
	defer close(s.updates)
	defer func() {
		if s.stopListener != nil {
			s.stopListener()
		}
	}()

	s.logger.Sugar().Infow("Starting confirmation session",
		zap.String("safe", s.safeAddress.String()),
		zap.String("to", s.tx.To.String()),
	)
	s.emit(ctx, TransactionInfo{Safe: s.safeAddress, Transaction: s.tx})
	s.startEstimate(ctx)

	retry := s.events.RetryEstimate
	request := s.events.RequestConfirmations
	submit := s.events.Submit
	signatures := s.store.Current(ctx)

	for !s.State().IsTerminal() {
		select {
		case <-ctx.Done():
			s.logger.Sugar().Infow("Confirmation session cancelled", zap.String("state", s.State().String()))
			return
		case _, ok := <-retry:
			if !ok {
				retry = nil
				continue
			}
			s.onRetryEstimate(ctx)
		case _, ok := <-request:
			if !ok {
				request = nil
				continue
			}
			s.onRequestConfirmations(ctx)
		case _, ok := <-submit:
			if !ok {
				submit = nil
				continue
			}
			s.onSubmit(ctx)
		case r := <-s.estimates:
			s.onEstimate(ctx, r)
		case r := <-s.requests:
			s.onRequestResult(ctx, r)
		case r := <-s.submits:
			s.onSubmitResult(ctx, r)
		case v := <-s.verified:
			s.onVerified(ctx, v)
		case set, ok := <-signatures:
			if !ok {
				return
			}
			s.onSignatures(ctx, set)
		}
	}
	s.logger.Sugar().Infow("Confirmation session ended", zap.String("state", s.State().String()))
}

func (s *Session) startEstimate(ctx context.Context) {
	s.estimateInFlight = true
	s.setState(Estimating)
	go func() {
		info, err := s.loader(ctx, s.tx)
		select {
		case s.estimates <- estimateResult{info: info, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (s *Session) onRetryEstimate(ctx context.Context) {
	switch {
	case s.estimateInFlight:
		s.logger.Sugar().Debugw("Ignoring retry, estimation in progress")
	case s.submitInFlight:
		s.logger.Sugar().Debugw("Ignoring retry, submission in progress")
	default:
		s.startEstimate(ctx)
	}
}

func (s *Session) onEstimate(ctx context.Context, r estimateResult) {
	s.estimateInFlight = false
	s.metrics.Estimate(r.err)
	if r.err != nil {
		s.logger.Sugar().Warnw("Estimation failed", zap.Error(r.err))
		s.setState(EstimateFailed)
		s.emit(ctx, EstimateError{Err: r.err})
		return
	}

	info := r.info
	fees := info.GasCosts()
	balance := info.Balance
	if balance == nil {
		balance = new(big.Int)
	}
	balanceAfter := new(big.Int).Sub(balance, fees)
	sufficient := balanceAfter.Sign() >= 0
	s.emit(ctx, Estimate{Info: info, Fees: fees, BalanceAfter: balanceAfter, SufficientFunds: sufficient})

	if !sufficient {
		// nothing can be submitted, stop collecting until a retry finds enough funds
		s.stopListening()
		s.info = info
		s.setState(InsufficientFunds)
		return
	}

	firstForHash := !s.seeded || s.seededHash != info.TransactionHash
	s.info = info
	var set safe.SignatureSet
	if firstForHash {
		set = s.store.Seed(info.TransactionHash, info.Owners, s.verifiedInitial(info))
		s.seeded = true
		s.seededHash = info.TransactionHash
		s.cooldownUntil = time.Time{}
		s.startListening(ctx, info)
	} else {
		set = s.store.Update(info.TransactionHash, info.Owners)
		if s.stopListener == nil {
			// listening stopped while funds were insufficient
			s.startListening(ctx, info)
		}
	}
	s.setState(AwaitingConfirmations)

	if firstForHash && !info.IsReady(set) {
		s.startRequest(ctx)
	}
}

// verifiedInitial maps the initial signatures to the owners they recover to under info.
func (s *Session) verifiedInitial(info *safe.ExecuteInformation) safe.SignatureSet {
	set := safe.SignatureSet{}
	for _, sig := range s.initial {
		owner, err := s.listener.Verify(info, relay.Confirmed, sig)
		if err != nil {
			s.logger.Sugar().Warnw("Dropping initial signature",
				zap.String("hash", info.TransactionHash.String()),
				zap.Error(err),
			)
			continue
		}
		set[owner] = sig
	}
	return set
}

func (s *Session) startListening(ctx context.Context, info *safe.ExecuteInformation) {
	s.stopListening()
	listenCtx, cancel := context.WithCancel(ctx)
	s.stopListener = cancel
	go s.listener.Run(listenCtx, info, s.verified)
}

func (s *Session) stopListening() {
	if s.stopListener != nil {
		s.stopListener()
		s.stopListener = nil
	}
}

func (s *Session) onSignatures(ctx context.Context, set safe.SignatureSet) {
	if s.info == nil {
		return
	}
	s.emit(ctx, Confirmations{
		Hash:       s.info.TransactionHash,
		Signatures: set,
		IsReady:    s.info.IsReady(set),
	})
}

func (s *Session) onRequestConfirmations(ctx context.Context) {
	state := s.State()
	if state != AwaitingConfirmations && state != Failed {
		s.logger.Sugar().Debugw("Ignoring confirmation request", zap.String("state", state.String()))
		return
	}
	if s.requestInFlight {
		s.logger.Sugar().Debugw("Ignoring confirmation request, request in progress")
		return
	}
	if time.Now().Before(s.cooldownUntil) {
		s.metrics.Request(metrics.RequestCooling)
		s.logger.Sugar().Debugw("Ignoring confirmation request during cooldown",
			zap.Time("until", s.cooldownUntil),
		)
		return
	}
	s.startRequest(ctx)
}

func (s *Session) startRequest(ctx context.Context) {
	s.requestInFlight = true
	info := s.info
	go func() {
		targets, err := s.dispatcher.Request(ctx, info)
		select {
		case s.requests <- requestResult{info: info, targets: targets, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (s *Session) onRequestResult(ctx context.Context, r requestResult) {
	s.requestInFlight = false
	if !s.isCurrent(r.info) {
		s.logger.Sugar().Debugw("Dropping request result for a previous estimate")
		return
	}
	if r.err != nil {
		s.metrics.Request(metrics.RequestFailed)
		s.logger.Sugar().Warnw("Confirmation request failed", zap.Error(r.err))
		s.emit(ctx, ConfirmationsError{Err: r.err})
		return
	}
	if len(r.targets) == 0 {
		s.metrics.Request(metrics.RequestSkipped)
		s.emit(ctx, ConfirmationsRequested{})
		return
	}
	s.metrics.Request(metrics.RequestSent)
	s.cooldownUntil = time.Now().Add(s.cfg.Cooldown)
	s.emit(ctx, ConfirmationsRequested{Targets: r.targets, Cooldown: s.cfg.Cooldown})
}

// isCurrent reports whether info has the hash of the latest estimate. Retries that keep the hash
// return new snapshots, so results are matched by hash.
func (s *Session) isCurrent(info *safe.ExecuteInformation) bool {
	return info != nil && s.info != nil && info.TransactionHash == s.info.TransactionHash
}

func (s *Session) onVerified(ctx context.Context, v VerifiedEvent) {
	if !s.isCurrent(v.Info) || s.State() == InsufficientFunds {
		s.metrics.Confirmation(metrics.ConfirmationIgnored)
		s.logger.Sugar().Debugw("Ignoring push for a previous estimate", zap.String("hash", v.Info.TransactionHash.String()))
		return
	}
	if s.submitInFlight {
		s.metrics.Confirmation(metrics.ConfirmationIgnored)
		s.logger.Sugar().Infow("Ignoring push, submission in progress",
			zap.String("kind", v.Kind.String()),
			zap.String("owner", v.Owner.String()),
		)
		return
	}

	if v.Kind == relay.Rejected {
		s.metrics.Rejected()
		s.logger.Sugar().Infow("Transaction rejected", zap.String("owner", v.Owner.String()))
		s.stopListening()
		s.setState(Rejected)
		s.emit(ctx, TransactionRejected{Owner: v.Owner})
		return
	}

	if v.Err != nil {
		s.metrics.Confirmation(metrics.ConfirmationInvalid)
		s.emit(ctx, InvalidConfirmation{Err: v.Err})
		return
	}
	if _, err := s.store.Add(v.Owner, v.Signature); err != nil {
		switch {
		case errors.Is(err, signatureStore.ErrSignatureExists):
			s.metrics.Confirmation(metrics.ConfirmationIgnored)
		case errors.Is(err, signatureStore.ErrConflictingSignature):
			s.metrics.Confirmation(metrics.ConfirmationConflict)
			s.emit(ctx, InvalidConfirmation{Err: err})
		default:
			s.metrics.Confirmation(metrics.ConfirmationInvalid)
			s.emit(ctx, InvalidConfirmation{Err: err})
		}
		return
	}
	s.metrics.Confirmation(metrics.ConfirmationAccepted)
	s.logger.Sugar().Infow("Accepted confirmation", zap.String("owner", v.Owner.String()))
}

func (s *Session) onSubmit(ctx context.Context) {
	if s.submitInFlight {
		s.logger.Sugar().Infow("Ignoring submit, submission in progress")
		return
	}
	state := s.State()
	if state != AwaitingConfirmations && state != Failed {
		s.logger.Sugar().Infow("Ignoring submit", zap.String("state", state.String()))
		return
	}

	s.submitInFlight = true
	s.setState(Submitting)
	info := s.info
	signatures := s.store.Load()
	go func() {
		chainHash, err := s.submitter.Submit(ctx, info, signatures)
		select {
		case s.submits <- submitResult{chainHash: chainHash, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (s *Session) onSubmitResult(ctx context.Context, r submitResult) {
	s.submitInFlight = false
	if r.err != nil {
		s.logger.Sugar().Errorw("Submission failed", zap.Error(r.err))
		if errors.Is(r.err, ErrThresholdNotMet) {
			s.setState(AwaitingConfirmations)
		} else {
			s.setState(Failed)
		}
		s.emit(ctx, TransactionSubmitted{Success: false, Err: r.err})
		return
	}
	s.stopListening()
	s.setState(Submitted)
	s.emit(ctx, TransactionSubmitted{Success: true, ChainHash: r.chainHash})
}
