package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/K-Pomian/synthetify-protocol/internal/exchange"
	"github.com/K-Pomian/synthetify-protocol/internal/metrics"
)

// Client signs, submits and confirms transactions for a single payer.
type Client struct {
	RPC             *rpc.Client
	Payer           solana.PrivateKey
	Commit          rpc.CommitmentType
	SkipPreflight   bool
	ConfirmInterval time.Duration
	ConfirmTimeout  time.Duration

	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// ClientOption configures Client construction parameters.
type ClientOption func(*Client)

// WithConfirmPolicy overrides how often and how long confirmations are polled.
func WithConfirmPolicy(interval, timeout time.Duration) ClientOption {
	return func(c *Client) {
		if interval > 0 {
			c.ConfirmInterval = interval
		}
		if timeout > 0 {
			c.ConfirmTimeout = timeout
		}
	}
}

// WithSkipPreflight mirrors the deploy script's preflight setting.
func WithSkipPreflight(skip bool) ClientOption {
	return func(c *Client) { c.SkipPreflight = skip }
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

func NewClient(rpcURL string, payer solana.PrivateKey, commit rpc.CommitmentType, opts ...ClientOption) *Client {
	c := &Client{
		RPC:             rpc.New(rpcURL),
		Payer:           payer,
		Commit:          commit,
		ConfirmInterval: 500 * time.Millisecond,
		ConfirmTimeout:  60 * time.Second,
		log:             zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "solana-rpc",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return c
}

// Submit signs ixs with the payer plus extra signers, sends them and waits for the configured commitment.
func (c *Client) Submit(ctx context.Context, label string, ixs []solana.Instruction, signers ...solana.PrivateKey) (solana.Signature, error) {
	start := time.Now()
	res, err := c.breaker.Execute(func() (any, error) {
		return c.send(ctx, ixs, signers)
	})
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues(label, "send_error").Inc()
		if errors.Is(err, gobreaker.ErrOpenState) {
			return solana.Signature{}, fmt.Errorf("%s: rpc circuit open: %w", label, err)
		}
		return solana.Signature{}, fmt.Errorf("%s: send: %w", label, err)
	}
	sig := res.(solana.Signature)
	c.log.Debug().Str("ix", label).Str("sig", sig.String()).Msg("submitted")

	if err := c.waitConfirmed(ctx, sig); err != nil {
		metrics.TransactionsTotal.WithLabelValues(label, "unconfirmed").Inc()
		return sig, fmt.Errorf("%s: %w", label, err)
	}
	metrics.TransactionsTotal.WithLabelValues(label, "ok").Inc()
	metrics.ConfirmSeconds.Observe(time.Since(start).Seconds())
	c.log.Info().Str("ix", label).Str("sig", sig.String()).Dur("took", time.Since(start)).Msg("confirmed")
	return sig, nil
}

func (c *Client) send(ctx context.Context, ixs []solana.Instruction, signers []solana.PrivateKey) (solana.Signature, error) {
	recent, err := c.RPC.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(ixs, recent.Value.Blockhash, solana.TransactionPayer(c.Payer.PublicKey()))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build tx: %w", err)
	}
	keys := append([]solana.PrivateKey{c.Payer}, signers...)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if key.Equals(keys[i].PublicKey()) {
				return &keys[i]
			}
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sign: %w", err)
	}
	return c.RPC.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       c.SkipPreflight,
		PreflightCommitment: c.Commit,
	})
}

var errPending = errors.New("signature pending")

func (c *Client) waitConfirmed(ctx context.Context, sig solana.Signature) error {
	waitCtx, cancel := context.WithTimeout(ctx, c.ConfirmTimeout)
	defer cancel()

	op := func() error {
		out, err := c.RPC.GetSignatureStatuses(waitCtx, false, sig)
		if err != nil {
			return err
		}
		if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
			return errPending
		}
		status := out.Value[0]
		if status.Err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", exchange.ErrTransactionFailed, status.Err))
		}
		if !Reached(status.ConfirmationStatus, c.Commit) {
			return errPending
		}
		return nil
	}
	err := backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(c.ConfirmInterval), waitCtx))
	if err != nil && ctx.Err() == nil && waitCtx.Err() != nil {
		return fmt.Errorf("%w: %s after %s", exchange.ErrConfirmationTimeout, sig, c.ConfirmTimeout)
	}
	return err
}

// Reached reports whether status satisfies the target commitment.
func Reached(status rpc.ConfirmationStatusType, target rpc.CommitmentType) bool {
	rank := func(s string) int {
		switch s {
		case string(rpc.ConfirmationStatusProcessed):
			return 1
		case string(rpc.ConfirmationStatusConfirmed):
			return 2
		case string(rpc.ConfirmationStatusFinalized):
			return 3
		}
		return 0
	}
	have := rank(string(status))
	return have > 0 && have >= rank(string(target))
}

// AccountData fetches raw account bytes, mapping missing accounts to exchange.ErrNotFound.
func (c *Client) AccountData(ctx context.Context, addr solana.PublicKey) ([]byte, solana.PublicKey, error) {
	out, err := c.RPC.GetAccountInfoWithOpts(ctx, addr, &rpc.GetAccountInfoOpts{Commitment: c.Commit})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, solana.PublicKey{}, fmt.Errorf("%s: %w", addr, exchange.ErrNotFound)
		}
		return nil, solana.PublicKey{}, err
	}
	if out == nil || out.Value == nil {
		return nil, solana.PublicKey{}, fmt.Errorf("%s: %w", addr, exchange.ErrNotFound)
	}
	return out.Value.Data.GetBinary(), out.Value.Owner, nil
}

// AccountExists reports whether addr holds an account, for query-before-create.
func (c *Client) AccountExists(ctx context.Context, addr solana.PublicKey) (bool, error) {
	_, _, err := c.AccountData(ctx, addr)
	if errors.Is(err, exchange.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// createAccountIx allocates a rent-exempt account of size owned by owner.
func (c *Client) createAccountIx(ctx context.Context, account, owner solana.PublicKey, size uint64) (solana.Instruction, error) {
	lamports, err := c.RPC.GetMinimumBalanceForRentExemption(ctx, size, c.Commit)
	if err != nil {
		return nil, fmt.Errorf("rent exemption: %w", err)
	}
	return system.NewCreateAccountInstruction(lamports, size, owner, c.Payer.PublicKey(), account).Build(), nil
}
