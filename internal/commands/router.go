package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/port402/x402-router/internal/config"
	"github.com/port402/x402-router/internal/output"
	"github.com/port402/x402-router/internal/payment"
	"github.com/port402/x402-router/internal/router"
	"github.com/port402/x402-router/internal/wallet"
)

var _ payment.Invalidator = (*router.Resolver)(nil)

// newResolver builds the discovery resolver for the configured router.
func newResolver(cfg *config.Config, logger *slog.Logger) *router.Resolver {
	return router.NewResolver(cfg.RouterURL,
		router.WithDefaults(router.Defaults{
			Network:       cfg.Network,
			PaymentHeader: cfg.PaymentHeader,
		}),
		router.WithTTL(cfg.ConfigTTL),
		router.WithLogger(logger),
	)
}

// newPaymentTransport returns the round tripper for router requests and a
// function releasing its resources.
//
// Without any key source, a static payment signature sends requests
// unsigned through the default transport; the client carries the header.
// keyIn is read for a hex key only when nothing else provides one.
func newPaymentTransport(
	ctx context.Context,
	cfg *config.Config,
	keyIn io.Reader,
	resolver payment.Resolver,
	logger *slog.Logger,
	onOutcome func(payment.Outcome),
) (http.RoundTripper, func(), error) {
	noop := func() {}

	key, err := wallet.Load(wallet.Source{
		Keystore: cfg.Keystore,
		Password: cfg.KeystorePassword,
		Hex:      cfg.PrivateKey,
		Stdin:    keyIn,
	})
	if errors.Is(err, wallet.ErrNoKeySource) {
		if cfg.PaymentSignature != "" {
			logger.Debug("no private key, using static payment signature",
				slog.String("header", cfg.PaymentHeader))
			return http.DefaultTransport, noop, nil
		}
		return nil, noop, exitErr(output.ExitError, config.ErrMissingPrivateKey)
	}
	if err != nil {
		return nil, noop, exitErr(output.ExitError, fmt.Errorf("loading private key: %w", err))
	}

	var nonces wallet.NonceSource = wallet.StaticNonce(0)
	closeFn := noop
	if cfg.RPCURL != "" {
		source, closeRPC, err := wallet.DialNonceSource(ctx, cfg.RPCURL)
		if err != nil {
			return nil, noop, exitErr(output.ExitNetwork, err)
		}
		nonces, closeFn = source, closeRPC
	}

	signer := wallet.NewPermitSigner(
		wallet.WithNonceSource(nonces),
		wallet.WithPermitTTL(cfg.PermitTTL),
	)

	logger.Debug("payer loaded", slog.String("address", wallet.GetAddress(key)))

	tr, err := payment.New(payment.Config{
		RouterURL:  cfg.RouterURL,
		PrivateKey: wallet.EncodeHex(key),
		Cap:        cfg.PermitCap,
		Resolver:   resolver,
		Signer:     signer,
	}, payment.WithLogger(logger), payment.WithOutcome(onOutcome))
	if err != nil {
		closeFn()
		return nil, noop, exitErr(output.ExitError, err)
	}
	return tr, closeFn, nil
}
