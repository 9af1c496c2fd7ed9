package formance

import (
	"context"
	"errors"
	"fmt"

	"statement-ledger-go/internal/models"
	"statement-ledger-go/internal/store"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.LedgerStore.
var _ store.LedgerStore = (*Service)(nil)

// assetPrecision maps asset symbols to their decimal precision.
var assetPrecision = map[string]int{
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"JPY": 0,
	"BRL": 2,
}

const defaultPrecision = 2

// Service implements store.LedgerStore backed by a Formance Stack ledger.
// Every statement is one Formance transaction between @world and the
// user's account; the transaction metadata carries the statement fields.
type Service struct {
	client *v3.Formance
	ledger string
	asset  string
}

// NewService creates a Formance-backed LedgerStore.
// It connects to the stack, creates the ledger if it doesn't already exist, and returns ready to use.
func NewService(ctx context.Context, cfg models.FormanceConfig) (*Service, error) {
	if cfg.StackURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("formance config requires StackURL, ClientID, and ClientSecret")
	}
	if cfg.LedgerName == "" {
		cfg.LedgerName = "statement-ledger"
	}
	if cfg.Asset == "" {
		cfg.Asset = "USD"
	}

	zap.L().Info("Connecting to Formance Stack",
		zap.String("stack_url", cfg.StackURL),
		zap.String("ledger", cfg.LedgerName),
		zap.String("asset", formanceAsset(cfg.Asset)))

	client := v3.New(
		v3.WithServerURL(cfg.StackURL),
		v3.WithSecurity(shared.Security{
			ClientID:     v3.Pointer(cfg.ClientID),
			ClientSecret: v3.Pointer(cfg.ClientSecret),
		}),
	)

	svc := newService(client, cfg.LedgerName, cfg.Asset)

	if err := svc.ensureLedger(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger exists: %w", err)
	}

	zap.L().Info("Formance service initialized", zap.String("ledger", cfg.LedgerName))
	return svc, nil
}

func newService(client *v3.Formance, ledger, asset string) *Service {
	return &Service{client: client, ledger: ledger, asset: asset}
}

// ensureLedger creates the ledger if it does not already exist.
func (s *Service) ensureLedger(ctx context.Context) error {
	_, err := s.client.Ledger.V2.CreateLedger(ctx, operations.V2CreateLedgerRequest{
		Ledger: s.ledger,
		V2CreateLedgerRequest: shared.V2CreateLedgerRequest{
			Metadata: map[string]string{
				"application": "statement-ledger",
			},
		},
	})
	if err != nil {
		if isFormanceError(err, shared.V2ErrorsEnumLedgerAlreadyExists) {
			zap.L().Info("Ledger already exists", zap.String("ledger", s.ledger))
			return nil
		}
		return err
	}
	zap.L().Info("Ledger created", zap.String("ledger", s.ledger))
	return nil
}

// Close is a no-op for the Formance backend (HTTP client needs no teardown).
func (s *Service) Close() {}

// ---------- helpers ----------

// formanceAsset returns the Formance UMN notation, e.g. "USD/2".
func formanceAsset(symbol string) string {
	return fmt.Sprintf("%s/%d", symbol, precisionFor(symbol))
}

func precisionFor(symbol string) int {
	if p, ok := assetPrecision[symbol]; ok {
		return p
	}
	return defaultPrecision
}

// toMinorUnits converts an amount to the integer the ledger posts. Amounts
// finer than the asset precision cannot be represented and are rejected.
func toMinorUnits(amount decimal.Decimal, symbol string) (string, error) {
	shifted := amount.Shift(int32(precisionFor(symbol)))
	if !shifted.Equal(shifted.Truncate(0)) {
		return "", fmt.Errorf("%w: %s exceeds %s precision of %d decimals",
			store.ErrInvalidAmount, amount.String(), symbol, precisionFor(symbol))
	}
	return shifted.BigInt().String(), nil
}

func isFormanceError(err error, code shared.V2ErrorsEnum) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == code
}

// isConflictError checks whether a Formance SDK error is a CONFLICT (duplicate reference).
func isConflictError(err error) bool {
	return isFormanceError(err, shared.V2ErrorsEnumConflict)
}

// isNotFoundError checks whether a Formance SDK error is NOT_FOUND.
func isNotFoundError(err error) bool {
	return isFormanceError(err, shared.V2ErrorsEnumNotFound)
}

func isInsufficientFundError(err error) bool {
	return isFormanceError(err, shared.V2ErrorsEnumInsufficientFund)
}

func strPtr(s string) *string { return &s }
