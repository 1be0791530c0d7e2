package otim

import (
	"context"

	"github.com/otimlabs/otim-go/authorization"
)

// PaymentsAPI is the contract with the payments collaborator. Implementations
// live outside this package (see the http package); the authorizer only
// depends on this interface.
type PaymentsAPI interface {
	// CurrentGasFees returns the current fee estimates for a chain
	CurrentGasFees(ctx context.Context, chainID uint64) (GasFees, error)

	// BuildPayment builds an unsigned payment request for the given sweep parameters
	BuildPayment(ctx context.Context, params BuildPaymentParams) (*PaymentRequest, error)

	// DelegateAddress resolves the delegate contract address for a chain
	DelegateAddress(ctx context.Context, chainID uint64) (string, error)

	// SubmitPayment submits the signed payment request
	SubmitPayment(ctx context.Context, req SubmitPaymentRequest) (*SubmitPaymentResponse, error)
}

// Signer is the contract with the remote signing collaborator. It signs a
// batch of 32-byte digests with the key behind signWith and returns one raw
// signature per payload, in submitted order. signWith must be a checksummed
// Ethereum address.
type Signer interface {
	SignPayloads(ctx context.Context, signWith string, payloads []string) ([]authorization.RawSignature, error)
}
