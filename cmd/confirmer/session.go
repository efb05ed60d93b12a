package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Layr-Labs/multisig-go/pkg/confirmation"
	"github.com/Layr-Labs/multisig-go/pkg/execution"
	"github.com/Layr-Labs/multisig-go/pkg/httpClient"
	"github.com/Layr-Labs/multisig-go/pkg/metrics"
	"github.com/Layr-Labs/multisig-go/pkg/ownerSigner"
	"github.com/Layr-Labs/multisig-go/pkg/relay"
	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func setupRelayService(c *cli.Context, signer ownerSigner.IOwnerSigner, hub *relay.Hub, l *zap.Logger) (*relay.Service, error) {
	if c.String("push-url") == "" {
		return nil, fmt.Errorf("--push-url is required")
	}
	client := relay.NewPushClient(&relay.PushClientConfig{
		BaseURL: c.String("push-url"),
		Client: httpClient.NewClient(&httpClient.Config{
			Timeout:   c.Duration("http-timeout"),
			RetryMax:  c.Int("push-retries"),
			Component: "push",
		}, l),
	}, signer, l)
	return relay.NewService(client, hub), nil
}

func parseSignatures(raw []string) ([]safe.Signature, error) {
	sigs := make([]safe.Signature, 0, len(raw))
	for _, s := range raw {
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("invalid signature %q: %w", s, err)
		}
		sig, err := safe.SignatureFromBytes(b)
		if err != nil {
			return nil, fmt.Errorf("invalid signature %q: %w", s, err)
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// serveHTTP runs an HTTP server in g until ctx is done.
func serveHTTP(ctx context.Context, g *errgroup.Group, name string, addr string, handler http.Handler, l *zap.Logger) {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		l.Sugar().Infow("Starting server", zap.String("server", name), zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server failed: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
}

func confirmAction(c *cli.Context) error {
	l, err := setupLogger(c)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	ctx, stop := signalContext()
	defer stop()

	safeAddress, tx, err := parseTransaction(c)
	if err != nil {
		return err
	}
	gasToken, err := parseGasToken(c)
	if err != nil {
		return err
	}
	initial, err := parseSignatures(c.StringSlice("signature"))
	if err != nil {
		return err
	}

	signer, err := setupOwnerSigner(ctx, c, l)
	if err != nil {
		return fmt.Errorf("failed to setup owner signer: %w", err)
	}
	repo, err := setupRepository(ctx, c, signer, l)
	if err != nil {
		return fmt.Errorf("failed to setup execution repository: %w", err)
	}
	hub := relay.NewHub(l)
	relayService, err := setupRelayService(c, signer, hub, l)
	if err != nil {
		return fmt.Errorf("failed to setup relay service: %w", err)
	}

	registry := prometheus.NewRegistry()
	helper := confirmation.NewSubmitTransactionHelper(&confirmation.Config{
		Cooldown: c.Duration("confirmation-cooldown"),
	}, repo, relayService, metrics.NewSessionMetrics(registry), l)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	serveHTTP(gctx, g, "push", c.String("push-listen"), relay.NewPushHandler(hub, l).Routes(), l)
	if addr := c.String("metrics-listen"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		serveHTTP(gctx, g, "metrics", addr, mux, l)
	}
	if addr := c.String("redis-addr"); addr != "" {
		sub, err := relay.NewRedisSubscriber(ctx, &relay.RedisSubscriberConfig{
			Addr:    addr,
			Channel: c.String("redis-channel"),
		}, hub, l)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		defer sub.Close()
		g.Go(func() error {
			return sub.Run(gctx)
		})
	}

	var final confirmation.State
	g.Go(func() error {
		// the servers only live as long as the session
		defer cancel()
		final = runSession(gctx, helper, safeAddress, confirmation.EstimateLoader(repo, safeAddress, gasToken), tx, initial, os.Stdin, os.Stdout)
		return nil
	})

	if err := g.Wait(); !isClosed(err) {
		return err
	}
	switch final {
	case confirmation.Submitted:
		return nil
	case confirmation.Rejected:
		return confirmation.ErrTransactionRejected
	default:
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("session ended in state %s", final)
	}
}

// runSession drives one confirmation session from line commands read from in and prints every
// view update to out until the session ends. It returns the final state.
func runSession(
	ctx context.Context,
	helper *confirmation.SubmitTransactionHelper,
	safeAddress common.Address,
	loader confirmation.InfoLoader,
	tx *safe.SafeTransaction,
	initial []safe.Signature,
	in io.Reader,
	out io.Writer,
) confirmation.State {
	retry := make(chan struct{}, 1)
	request := make(chan struct{}, 1)
	submit := make(chan struct{}, 1)
	go readCommands(ctx, in, out, map[string]chan struct{}{
		"retry":   retry,
		"request": request,
		"submit":  submit,
	})

	session := helper.Observe(ctx, confirmation.Events{
		RetryEstimate:        retry,
		RequestConfirmations: request,
		Submit:               submit,
	}, safeAddress, loader, tx, initial)
	fmt.Fprintf(out, "Session %s started\n", session.ID())

	for update := range session.Updates() {
		printUpdate(out, update)
	}
	<-session.Done()
	return session.State()
}

// readCommands forwards one event per line. The channels are closed when in is exhausted.
func readCommands(ctx context.Context, in io.Reader, out io.Writer, commands map[string]chan struct{}) {
	defer func() {
		for _, ch := range commands {
			close(ch)
		}
	}()
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ch, ok := commands[line]
		if !ok {
			fmt.Fprintf(out, "Unknown command %q (retry, request, submit)\n", line)
			continue
		}
		select {
		case ch <- struct{}{}:
		case <-ctx.Done():
			return
		default:
			// a previous identical command is still pending
		}
	}
}

func printUpdate(out io.Writer, update confirmation.ViewUpdate) {
	switch u := update.(type) {
	case confirmation.TransactionInfo:
		fmt.Fprintf(out, "Safe: %s\nTo: %s\nValue: %s\nOperation: %s\n", u.Safe.Hex(), u.Transaction.To.Hex(), u.Transaction.ValueOrZero(), u.Transaction.Operation)
	case confirmation.Estimate:
		fmt.Fprintf(out, "Transaction Hash: %s\nNonce: %s\nFees: %s\nBalance After: %s\nSufficient Funds: %t\n",
			u.Info.TransactionHash.Hex(), u.Info.Transaction.NonceOrZero(), u.Fees, u.BalanceAfter, u.SufficientFunds)
	case confirmation.EstimateError:
		fmt.Fprintf(out, "Estimate failed: %v\n", u.Err)
	case confirmation.Confirmations:
		fmt.Fprintf(out, "Confirmations: %d (ready: %t)\n", len(u.Signatures), u.IsReady)
		for owner := range u.Signatures {
			fmt.Fprintf(out, "  %s\n", owner.Hex())
		}
	case confirmation.ConfirmationsRequested:
		if len(u.Targets) == 0 {
			fmt.Fprintln(out, "Every owner already confirmed")
			return
		}
		fmt.Fprintf(out, "Requested confirmations from %d owners, next request in %s\n", len(u.Targets), u.Cooldown)
	case confirmation.ConfirmationsError:
		fmt.Fprintf(out, "Confirmation request failed: %v\n", u.Err)
	case confirmation.InvalidConfirmation:
		fmt.Fprintf(out, "Discarded confirmation: %v\n", u.Err)
	case confirmation.TransactionRejected:
		fmt.Fprintf(out, "Rejected by %s\n", u.Owner.Hex())
	case confirmation.TransactionSubmitted:
		if u.Success {
			fmt.Fprintf(out, "Submitted: %s\n", u.ChainHash)
		} else {
			fmt.Fprintf(out, "Submission failed: %v\n", u.Err)
		}
	}
}

func reviewAction(c *cli.Context) error {
	l, err := setupLogger(c)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	ctx, stop := signalContext()
	defer stop()

	safeAddress, tx, err := parseTransaction(c)
	if err != nil {
		return err
	}
	gasToken, err := parseGasToken(c)
	if err != nil {
		return err
	}
	if !common.IsHexAddress(c.String("requester")) {
		return fmt.Errorf("invalid requester: %s", c.String("requester"))
	}
	hashBytes, err := hexutil.Decode(c.String("hash"))
	if err != nil || len(hashBytes) != common.HashLength {
		return fmt.Errorf("invalid hash: %s", c.String("hash"))
	}
	req := &execution.RequestedTransaction{
		Safe:     safeAddress,
		Hash:     common.BytesToHash(hashBytes),
		GasToken: gasToken,
	}
	if req.TxGas, err = parseBig(c, "tx-gas"); err != nil {
		return err
	}
	if req.DataGas, err = parseBig(c, "data-gas"); err != nil {
		return err
	}
	if req.GasPrice, err = parseBig(c, "gas-price"); err != nil {
		return err
	}
	nonce, err := parseBig(c, "nonce")
	if err != nil {
		return err
	}
	req.Transaction = tx.WithNonce(nonce)

	signer, err := setupOwnerSigner(ctx, c, l)
	if err != nil {
		return fmt.Errorf("failed to setup owner signer: %w", err)
	}
	repo, err := setupRepository(ctx, c, signer, l)
	if err != nil {
		return fmt.Errorf("failed to setup execution repository: %w", err)
	}
	relayService, err := setupRelayService(c, signer, relay.NewHub(l), l)
	if err != nil {
		return fmt.Errorf("failed to setup relay service: %w", err)
	}

	info, err := confirmation.RequestedLoader(repo, req)(ctx, req.Transaction)
	if err != nil {
		return err
	}
	reviewer := confirmation.NewReviewer(repo, relayService, l)

	if c.Bool("reject") {
		sig, err := reviewer.Reject(ctx, info)
		if err != nil && !errors.Is(err, confirmation.ErrPropagationFailed) {
			return err
		}
		fmt.Printf("Rejection: %s\n", hexutil.Encode(sig.Bytes()))
		return err
	}
	sig, err := reviewer.Approve(ctx, info, common.HexToAddress(c.String("requester")))
	if err != nil {
		return err
	}
	fmt.Printf("Confirmation: %s\n", hexutil.Encode(sig.Bytes()))
	return nil
}
