package confirmation

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/Layr-Labs/multisig-go/pkg/execution"
	"github.com/Layr-Labs/multisig-go/pkg/metrics"
	"github.com/Layr-Labs/multisig-go/pkg/ownerSigner"
	"github.com/Layr-Labs/multisig-go/pkg/relay"
	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testSafe = common.HexToAddress("0x1f81FFF89Bd57811983a35650296681f99C65C7E")
	testTo   = common.HexToAddress("0xc257274276a4e539741ca11b590b9447b26a8051")
)

const waitTimeout = 2 * time.Second

// testRelay sends outgoing notifications to a mock and delivers pushes through a real hub.
type testRelay struct {
	*relay.MockIRelayService
	hub *relay.Hub
}

func (r *testRelay) Observe(hash common.Hash) *relay.Subscription {
	return r.hub.Observe(hash)
}

type fixture struct {
	a, b, c, outsider *ownerSigner.PrivateKeySigner

	api     *execution.MockIRelayServiceAPI
	relay   *testRelay
	repo    *execution.Repository
	helper  *SubmitTransactionHelper
	metrics *metrics.SessionMetrics
}

func newSigner(t *testing.T) *ownerSigner.PrivateKeySigner {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return ownerSigner.NewPrivateKeySignerFromKey(key)
}

func newFixture(t *testing.T, cooldown time.Duration) *fixture {
	l, _ := zap.NewDevelopment()
	f := &fixture{
		a:        newSigner(t),
		b:        newSigner(t),
		c:        newSigner(t),
		outsider: newSigner(t),
		api:      execution.NewMockIRelayServiceAPI(t),
		relay: &testRelay{
			MockIRelayService: relay.NewMockIRelayService(t),
			hub:               relay.NewHub(l),
		},
		metrics: metrics.NewNoopSessionMetrics(),
	}
	f.repo = execution.NewRepository(execution.NewMockISafeStateReader(t), f.api, f.a, l)
	f.helper = NewSubmitTransactionHelper(&Config{Cooldown: cooldown}, f.repo, f.relay, f.metrics, l)
	return f
}

func (f *fixture) owners() []common.Address {
	return []common.Address{f.a.GetAddress(), f.b.GetAddress(), f.c.GetAddress()}
}

func testTx() *safe.SafeTransaction {
	return &safe.SafeTransaction{To: testTo, Value: big.NewInt(1000), Operation: safe.Call}
}

// info builds a snapshot with A as the local sender.
func (f *fixture) info(threshold int, gasPrice int64) *safe.ExecuteInformation {
	info := safe.NewExecuteInformation(safe.ExecuteInformation{
		Safe:           testSafe,
		Transaction:    testTx().WithNonce(big.NewInt(0)),
		Sender:         f.a.GetAddress(),
		Threshold:      threshold,
		Owners:         f.owners(),
		SafeVersion:    safe.Version{Major: 1, Minor: 1, Patch: 1},
		GasPrice:       big.NewInt(gasPrice),
		TxGas:          big.NewInt(50000),
		DataGas:        big.NewInt(30000),
		OperationalGas: big.NewInt(10000),
		Balance:        big.NewInt(1e18),
	})
	info.TransactionHash = info.ComputeHash()
	return info
}

// loader returns the results in order and repeats the last one.
func loader(results ...any) InfoLoader {
	var mu sync.Mutex
	calls := 0
	return func(context.Context, *safe.SafeTransaction) (*safe.ExecuteInformation, error) {
		mu.Lock()
		defer mu.Unlock()
		r := results[min(calls, len(results)-1)]
		calls++
		if err, ok := r.(error); ok {
			return nil, err
		}
		return r.(*safe.ExecuteInformation), nil
	}
}

type testEvents struct {
	retry   chan struct{}
	request chan struct{}
	submit  chan struct{}
}

func newTestEvents() *testEvents {
	return &testEvents{
		retry:   make(chan struct{}),
		request: make(chan struct{}),
		submit:  make(chan struct{}),
	}
}

func (e *testEvents) events() Events {
	return Events{RetryEstimate: e.retry, RequestConfirmations: e.request, Submit: e.submit}
}

func send(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case ch <- struct{}{}:
	case <-time.After(waitTimeout):
		t.Fatal("session did not accept event")
	}
}

type recorder struct {
	mu      sync.Mutex
	updates []ViewUpdate
}

func record(s *Session) *recorder {
	r := &recorder{}
	go func() {
		for u := range s.Updates() {
			r.mu.Lock()
			r.updates = append(r.updates, u)
			r.mu.Unlock()
		}
	}()
	return r
}

func matching[T ViewUpdate](r *recorder, match func(T) bool) []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []T
	for _, u := range r.updates {
		if v, ok := u.(T); ok && (match == nil || match(v)) {
			out = append(out, v)
		}
	}
	return out
}

func waitFor[T ViewUpdate](t *testing.T, r *recorder, match func(T) bool) T {
	t.Helper()
	var found T
	require.Eventually(t, func() bool {
		all := matching(r, match)
		if len(all) == 0 {
			return false
		}
		found = all[len(all)-1]
		return true
	}, waitTimeout, 5*time.Millisecond, "no %T update", found)
	return found
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(waitTimeout):
		t.Fatal("session did not end")
	}
}

func (f *fixture) waitObserved(t *testing.T, hashes int) {
	t.Helper()
	require.Eventually(t, func() bool { return f.relay.hub.ObservedHashes() == hashes }, waitTimeout, 5*time.Millisecond)
}

func (f *fixture) confirm(t *testing.T, signer *ownerSigner.PrivateKeySigner, info *safe.ExecuteInformation) safe.Signature {
	sig, err := signer.SignHash(context.Background(), info.TransactionHash)
	require.NoError(t, err)
	f.relay.hub.HandlePushMessage(&relay.PushMessage{Type: relay.TypeConfirmTransaction, Hash: info.TransactionHash, Signature: sig})
	return sig
}

func (f *fixture) reject(t *testing.T, signer *ownerSigner.PrivateKeySigner, info *safe.ExecuteInformation) {
	sig, err := signer.SignHash(context.Background(), safe.RejectionHash(info.TransactionHash))
	require.NoError(t, err)
	f.relay.hub.HandlePushMessage(&relay.PushMessage{Type: relay.TypeRejectTransaction, Hash: info.TransactionHash, Signature: sig})
}

func TestSession_TwoOfThreeScenario(t *testing.T) {
	f := newFixture(t, time.Minute)
	info := f.info(2, 10)
	owners := f.owners()

	f.relay.On("RequestConfirmations", mock.Anything, info, []common.Address{owners[1], owners[2]}).Return(nil).Once()

	ev := newTestEvents()
	s := f.helper.Observe(context.Background(), ev.events(), testSafe, loader(info), testTx(), nil)
	r := record(s)

	waitFor(t, r, func(u Estimate) bool { return u.SufficientFunds })
	waitFor(t, r, func(u Confirmations) bool { return !u.IsReady && len(u.Signatures) == 0 })
	requested := waitFor[ConfirmationsRequested](t, r, nil)
	assert.Equal(t, []common.Address{owners[1], owners[2]}, requested.Targets)
	assert.Equal(t, time.Minute, requested.Cooldown)
	f.waitObserved(t, 1)

	sigB := f.confirm(t, f.b, info)
	ready := waitFor(t, r, func(u Confirmations) bool { return u.IsReady })
	assert.Len(t, ready.Signatures, 1)
	assert.True(t, sigB.Equal(ready.Signatures[owners[1]]))

	var executed *execution.ExecuteParams
	f.api.On("Execute", mock.Anything, testSafe, mock.AnythingOfType("*execution.ExecuteParams")).
		Run(func(args mock.Arguments) { executed = args.Get(2).(*execution.ExecuteParams) }).
		Return(&execution.RelayExecution{TransactionHash: "0xc4a1"}, nil).Once()
	f.relay.On("PropagateSubmittedTransaction", mock.Anything, info, "0xc4a1", []common.Address{owners[1], owners[2]}).Return(nil).Once()

	send(t, ev.submit)
	submitted := waitFor[TransactionSubmitted](t, r, nil)
	assert.True(t, submitted.Success)
	assert.Equal(t, "0xc4a1", submitted.ChainHash)
	waitDone(t, s)
	assert.Equal(t, Submitted, s.State())

	require.NotNil(t, executed)
	require.Len(t, executed.Signatures, 2)
	signers := map[common.Address]bool{}
	for _, es := range executed.Signatures {
		sig, err := safe.SignatureFromDecimal(es.R, es.S, big.NewInt(int64(es.V)).String())
		require.NoError(t, err)
		owner, err := safe.Recover(info.TransactionHash, sig)
		require.NoError(t, err)
		signers[owner] = true
	}
	assert.Equal(t, map[common.Address]bool{owners[0]: true, owners[1]: true}, signers)
	f.waitObserved(t, 0)
}

func TestSession_SubmitAtMostOnce(t *testing.T) {
	f := newFixture(t, time.Minute)
	info := f.info(1, 10)

	release := make(chan struct{})
	f.api.On("Execute", mock.Anything, testSafe, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(&execution.RelayExecution{TransactionHash: "0x01"}, nil).Once()
	f.relay.On("PropagateSubmittedTransaction", mock.Anything, info, "0x01", mock.Anything).Return(nil).Once()

	ev := newTestEvents()
	s := f.helper.Observe(context.Background(), ev.events(), testSafe, loader(info), testTx(), nil)
	r := record(s)
	waitFor(t, r, func(u Confirmations) bool { return u.IsReady })

	send(t, ev.submit)
	send(t, ev.submit)
	send(t, ev.submit)
	assert.Equal(t, Submitting, s.State())
	close(release)

	waitFor(t, r, func(u TransactionSubmitted) bool { return u.Success })
	waitDone(t, s)
	f.api.AssertNumberOfCalls(t, "Execute", 1)
	assert.Len(t, matching[TransactionSubmitted](r, nil), 1)
}

func TestSession_InvalidConfirmationKeepsListening(t *testing.T) {
	f := newFixture(t, time.Minute)
	info := f.info(3, 10)
	f.relay.On("RequestConfirmations", mock.Anything, info, mock.Anything).Return(nil)

	s := f.helper.Observe(context.Background(), newTestEvents().events(), testSafe, loader(info), testTx(), nil)
	r := record(s)
	waitFor[ConfirmationsRequested](t, r, nil)
	f.waitObserved(t, 1)

	f.confirm(t, f.outsider, info)
	invalid := waitFor[InvalidConfirmation](t, r, nil)
	assert.ErrorIs(t, invalid.Err, ErrInvalidSignature)

	// signed over a different hash
	other := f.info(3, 11)
	sig, err := f.b.SignHash(context.Background(), other.TransactionHash)
	require.NoError(t, err)
	f.relay.hub.HandlePushMessage(&relay.PushMessage{Type: relay.TypeConfirmTransaction, Hash: info.TransactionHash, Signature: sig})
	require.Eventually(t, func() bool { return len(matching[InvalidConfirmation](r, nil)) == 2 }, waitTimeout, 5*time.Millisecond)

	f.confirm(t, f.c, info)
	accepted := waitFor(t, r, func(u Confirmations) bool { return len(u.Signatures) == 1 })
	assert.Contains(t, accepted.Signatures, f.c.GetAddress())
	assert.Equal(t, AwaitingConfirmations, s.State())
}

func TestSession_DuplicateConfirmation(t *testing.T) {
	f := newFixture(t, time.Minute)
	info := f.info(3, 10)
	f.relay.On("RequestConfirmations", mock.Anything, info, mock.Anything).Return(nil)

	s := f.helper.Observe(context.Background(), newTestEvents().events(), testSafe, loader(info), testTx(), nil)
	r := record(s)
	waitFor[ConfirmationsRequested](t, r, nil)
	f.waitObserved(t, 1)

	f.confirm(t, f.b, info)
	waitFor(t, r, func(u Confirmations) bool { return len(u.Signatures) == 1 })
	f.confirm(t, f.b, info)
	f.confirm(t, f.c, info)
	waitFor(t, r, func(u Confirmations) bool { return len(u.Signatures) == 2 })
	assert.Empty(t, matching[InvalidConfirmation](r, nil))
	assert.Len(t, s.store.Load(), 2)
}

func TestSession_RejectionIsTerminal(t *testing.T) {
	f := newFixture(t, time.Minute)
	info := f.info(2, 10)
	f.relay.On("RequestConfirmations", mock.Anything, info, mock.Anything).Return(nil)

	ev := newTestEvents()
	s := f.helper.Observe(context.Background(), ev.events(), testSafe, loader(info), testTx(), nil)
	r := record(s)
	waitFor[ConfirmationsRequested](t, r, nil)
	f.waitObserved(t, 1)

	// rejections from non owners are ignored
	f.reject(t, f.outsider, info)
	f.reject(t, f.c, info)
	rejected := waitFor[TransactionRejected](t, r, nil)
	assert.Equal(t, f.c.GetAddress(), rejected.Owner)
	waitDone(t, s)
	assert.Equal(t, Rejected, s.State())
	assert.Len(t, matching[TransactionRejected](r, nil), 1)

	f.waitObserved(t, 0)
	f.confirm(t, f.b, info)
	assert.Equal(t, Rejected, s.State())
	assert.Empty(t, matching(r, func(u Confirmations) bool { return len(u.Signatures) > 0 }))
}

func TestSession_GasPriceChangeInvalidatesSignatures(t *testing.T) {
	f := newFixture(t, time.Minute)
	first := f.info(3, 10)
	second := f.info(3, 20)
	require.NotEqual(t, first.TransactionHash, second.TransactionHash)
	f.relay.On("RequestConfirmations", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	ev := newTestEvents()
	s := f.helper.Observe(context.Background(), ev.events(), testSafe, loader(first, second), testTx(), nil)
	r := record(s)
	waitFor[ConfirmationsRequested](t, r, nil)
	f.waitObserved(t, 1)

	f.confirm(t, f.b, first)
	waitFor(t, r, func(u Confirmations) bool { return u.Hash == first.TransactionHash && len(u.Signatures) == 1 })

	send(t, ev.retry)
	cleared := waitFor(t, r, func(u Confirmations) bool { return u.Hash == second.TransactionHash })
	assert.Empty(t, cleared.Signatures)
	assert.Empty(t, s.store.Load())
	assert.Equal(t, second.TransactionHash, s.store.Hash())

	// pushes for the old hash no longer reach the session
	stale := &relay.PushMessage{Type: relay.TypeConfirmTransaction, Hash: first.TransactionHash, Signature: safe.Signature{R: big.NewInt(1), S: big.NewInt(1), V: 27}}
	require.Eventually(t, func() bool {
		return f.relay.hub.ObservedHashes() == 1 && !f.relay.hub.HandlePushMessage(stale)
	}, waitTimeout, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(matching[ConfirmationsRequested](r, nil)) == 2 }, waitTimeout, 5*time.Millisecond)
	f.relay.AssertNumberOfCalls(t, "RequestConfirmations", 2)
}

func TestSession_SameHashRetryKeepsCollecting(t *testing.T) {
	f := newFixture(t, time.Minute)
	first := f.info(2, 10)
	second := f.info(2, 10)
	require.Equal(t, first.TransactionHash, second.TransactionHash)
	f.relay.On("RequestConfirmations", mock.Anything, first, mock.Anything).Return(nil).Once()

	ev := newTestEvents()
	s := f.helper.Observe(context.Background(), ev.events(), testSafe, loader(first, second), testTx(), nil)
	r := record(s)
	waitFor[ConfirmationsRequested](t, r, nil)
	f.waitObserved(t, 1)

	send(t, ev.retry)
	waitFor(t, r, func(u Estimate) bool { return u.Info == second })
	require.Eventually(t, func() bool { return s.State() == AwaitingConfirmations }, waitTimeout, 5*time.Millisecond)

	// the listener still holds the first snapshot
	sigB := f.confirm(t, f.b, first)
	ready := waitFor(t, r, func(u Confirmations) bool { return u.IsReady })
	assert.True(t, sigB.Equal(ready.Signatures[f.b.GetAddress()]))
	assert.Contains(t, s.store.Load(), f.b.GetAddress())
	f.relay.AssertNumberOfCalls(t, "RequestConfirmations", 1)
}

func TestSession_ListensAgainAfterFundsRecover(t *testing.T) {
	f := newFixture(t, time.Minute)
	funded := f.info(2, 10)
	poor := f.info(2, 10)
	poor.Balance = big.NewInt(1)
	refunded := f.info(2, 10)
	require.Equal(t, funded.TransactionHash, poor.TransactionHash)
	f.relay.On("RequestConfirmations", mock.Anything, funded, mock.Anything).Return(nil).Once()

	ev := newTestEvents()
	s := f.helper.Observe(context.Background(), ev.events(), testSafe, loader(funded, poor, refunded), testTx(), nil)
	r := record(s)
	waitFor[ConfirmationsRequested](t, r, nil)
	f.waitObserved(t, 1)

	send(t, ev.retry)
	require.Eventually(t, func() bool { return s.State() == InsufficientFunds }, waitTimeout, 5*time.Millisecond)
	f.waitObserved(t, 0)

	send(t, ev.retry)
	waitFor(t, r, func(u Estimate) bool { return u.Info == refunded && u.SufficientFunds })
	f.waitObserved(t, 1)
	require.Eventually(t, func() bool { return s.State() == AwaitingConfirmations }, waitTimeout, 5*time.Millisecond)

	f.confirm(t, f.b, refunded)
	ready := waitFor(t, r, func(u Confirmations) bool { return u.IsReady })
	assert.Contains(t, ready.Signatures, f.b.GetAddress())
}

func TestSession_RequestResultAfterSameHashRetry(t *testing.T) {
	f := newFixture(t, time.Minute)
	first := f.info(3, 10)
	second := f.info(3, 10)
	owners := f.owners()

	release := make(chan struct{})
	f.relay.On("RequestConfirmations", mock.Anything, first, []common.Address{owners[1], owners[2]}).
		Run(func(mock.Arguments) { <-release }).
		Return(nil).Once()

	ev := newTestEvents()
	s := f.helper.Observe(context.Background(), ev.events(), testSafe, loader(first, second), testTx(), nil)
	r := record(s)
	waitFor(t, r, func(u Estimate) bool { return u.Info == first })

	send(t, ev.retry)
	waitFor(t, r, func(u Estimate) bool { return u.Info == second })
	close(release)

	requested := waitFor[ConfirmationsRequested](t, r, nil)
	assert.Equal(t, []common.Address{owners[1], owners[2]}, requested.Targets)
	assert.Equal(t, time.Minute, requested.Cooldown)

	// the cooldown was armed by the result
	send(t, ev.request)
	send(t, ev.request)
	assert.Len(t, matching[ConfirmationsRequested](r, nil), 1)
	f.relay.AssertNumberOfCalls(t, "RequestConfirmations", 1)
}

func TestSession_InitialSignatures(t *testing.T) {
	f := newFixture(t, time.Minute)
	info := f.info(2, 10)

	sigB, err := f.b.SignHash(context.Background(), info.TransactionHash)
	require.NoError(t, err)
	sigOutsider, err := f.outsider.SignHash(context.Background(), info.TransactionHash)
	require.NoError(t, err)

	s := f.helper.Observe(context.Background(), newTestEvents().events(), testSafe, loader(info), testTx(), []safe.Signature{sigB, sigOutsider})
	r := record(s)

	seeded := waitFor[Confirmations](t, r, nil)
	assert.True(t, seeded.IsReady)
	assert.Equal(t, safe.SignatureSet{f.b.GetAddress(): sigB}, seeded.Signatures)

	// ready from the seed alone, nothing is requested
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, matching[ConfirmationsRequested](r, nil))
}

func TestSession_RequestCooldown(t *testing.T) {
	f := newFixture(t, time.Hour)
	info := f.info(3, 10)
	f.relay.On("RequestConfirmations", mock.Anything, info, mock.Anything).Return(nil).Once()

	ev := newTestEvents()
	s := f.helper.Observe(context.Background(), ev.events(), testSafe, loader(info), testTx(), nil)
	r := record(s)
	waitFor[ConfirmationsRequested](t, r, nil)

	send(t, ev.request)
	send(t, ev.request)
	send(t, ev.submit)
	waitFor(t, r, func(u TransactionSubmitted) bool { return !u.Success })
	assert.Len(t, matching[ConfirmationsRequested](r, nil), 1)
	assert.Equal(t, AwaitingConfirmations, s.State())
}

func TestSession_RequestFailureCanBeRetried(t *testing.T) {
	f := newFixture(t, time.Minute)
	info := f.info(3, 10)
	f.relay.On("RequestConfirmations", mock.Anything, info, mock.Anything).Return(errors.New("push down")).Once()
	f.relay.On("RequestConfirmations", mock.Anything, info, mock.Anything).Return(nil).Once()

	ev := newTestEvents()
	s := f.helper.Observe(context.Background(), ev.events(), testSafe, loader(info), testTx(), nil)
	r := record(s)

	failed := waitFor[ConfirmationsError](t, r, nil)
	assert.ErrorIs(t, failed.Err, ErrConfirmationRequestFailed)
	assert.Equal(t, AwaitingConfirmations, s.State())

	send(t, ev.request)
	waitFor[ConfirmationsRequested](t, r, nil)
}

func TestSession_ThresholdNotMet(t *testing.T) {
	f := newFixture(t, time.Minute)
	info := f.info(3, 10)
	f.relay.On("RequestConfirmations", mock.Anything, info, mock.Anything).Return(nil)

	ev := newTestEvents()
	s := f.helper.Observe(context.Background(), ev.events(), testSafe, loader(info), testTx(), nil)
	r := record(s)
	waitFor[ConfirmationsRequested](t, r, nil)

	send(t, ev.submit)
	result := waitFor[TransactionSubmitted](t, r, nil)
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, ErrThresholdNotMet)
	assert.Equal(t, AwaitingConfirmations, s.State())
}

func TestSession_SubmissionFailureCanBeRetried(t *testing.T) {
	f := newFixture(t, time.Minute)
	info := f.info(1, 10)
	f.api.On("Execute", mock.Anything, testSafe, mock.Anything).Return(nil, errors.New("nonce too low")).Once()
	f.api.On("Execute", mock.Anything, testSafe, mock.Anything).Return(&execution.RelayExecution{TransactionHash: "0x02"}, nil).Once()
	f.relay.On("PropagateSubmittedTransaction", mock.Anything, info, "0x02", mock.Anything).Return(errors.New("push down")).Once()

	ev := newTestEvents()
	s := f.helper.Observe(context.Background(), ev.events(), testSafe, loader(info), testTx(), nil)
	r := record(s)
	waitFor(t, r, func(u Confirmations) bool { return u.IsReady })

	send(t, ev.submit)
	failed := waitFor(t, r, func(u TransactionSubmitted) bool { return !u.Success })
	assert.ErrorIs(t, failed.Err, ErrSubmissionFailed)
	require.Eventually(t, func() bool { return s.State() == Failed }, waitTimeout, 5*time.Millisecond)

	send(t, ev.submit)
	succeeded := waitFor(t, r, func(u TransactionSubmitted) bool { return u.Success })
	assert.Equal(t, "0x02", succeeded.ChainHash)
	waitDone(t, s)
}

func TestSession_EstimateErrorAndRetry(t *testing.T) {
	f := newFixture(t, time.Minute)
	info := f.info(1, 10)

	ev := newTestEvents()
	s := f.helper.Observe(context.Background(), ev.events(), testSafe, loader(execution.ErrEstimationFailed, info), testTx(), nil)
	r := record(s)

	estimateErr := waitFor[EstimateError](t, r, nil)
	assert.ErrorIs(t, estimateErr.Err, ErrEstimationFailed)
	require.Eventually(t, func() bool { return s.State() == EstimateFailed }, waitTimeout, 5*time.Millisecond)

	// submit is not possible without an estimate
	send(t, ev.submit)
	assert.Equal(t, EstimateFailed, s.State())

	send(t, ev.retry)
	waitFor[Estimate](t, r, nil)
	require.Eventually(t, func() bool { return s.State() == AwaitingConfirmations }, waitTimeout, 5*time.Millisecond)
}

func TestSession_InsufficientFunds(t *testing.T) {
	f := newFixture(t, time.Minute)
	info := f.info(2, 10)
	info.Balance = big.NewInt(1)

	s := f.helper.Observe(context.Background(), newTestEvents().events(), testSafe, loader(info), testTx(), nil)
	r := record(s)

	estimate := waitFor[Estimate](t, r, nil)
	assert.False(t, estimate.SufficientFunds)
	assert.Equal(t, big.NewInt(900000), estimate.Fees)
	assert.Equal(t, big.NewInt(-899999), estimate.BalanceAfter)
	require.Eventually(t, func() bool { return s.State() == InsufficientFunds }, waitTimeout, 5*time.Millisecond)
	assert.Equal(t, 0, f.relay.hub.ObservedHashes())
	assert.Empty(t, matching[Confirmations](r, nil))
}

func TestSession_CancelStopsListening(t *testing.T) {
	f := newFixture(t, time.Minute)
	info := f.info(2, 10)
	f.relay.On("RequestConfirmations", mock.Anything, info, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	s := f.helper.Observe(ctx, newTestEvents().events(), testSafe, loader(info), testTx(), nil)
	r := record(s)
	waitFor[ConfirmationsRequested](t, r, nil)
	f.waitObserved(t, 1)

	cancel()
	waitDone(t, s)
	f.waitObserved(t, 0)
	assert.Equal(t, AwaitingConfirmations, s.State())
}

func TestState(t *testing.T) {
	for _, state := range []State{Building, Estimating, EstimateFailed, InsufficientFunds, AwaitingConfirmations, Submitting, Failed} {
		assert.False(t, state.IsTerminal(), state.String())
	}
	assert.True(t, Submitted.IsTerminal())
	assert.True(t, Rejected.IsTerminal())
}
