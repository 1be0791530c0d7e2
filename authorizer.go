// Package otim orchestrates a payment-authorization flow: it builds a sweep
// payment request with the payments API, computes the EIP-7702 authorization
// digest and the EIP-712 instruction digests, has a remote signer sign the
// batch, and submits the reassembled signatures back to the payments API.
package otim

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/otimlabs/otim-go/authorization"
	"github.com/otimlabs/otim-go/sweep"
)

// authorizationChainID is the chain id bound into the EIP-7702 authorization
// digest. It stays zero: the signed tuple encodes the wildcard chain id, and
// the digest must be computed over the same value for the signature to
// recover on chain.
const authorizationChainID = 0

// authorizationNonce is fixed at zero; the authorization is always the
// delegating account's first.
const authorizationNonce = 0

// Authorizer runs the payment-authorization flow. Every step depends on the
// previous one's output, so execution is strictly sequential; a failure at
// any step aborts the run.
type Authorizer struct {
	cfg      Config
	payments PaymentsAPI
	signer   Signer
}

// NewAuthorizer validates the configuration and creates an authorizer.
func NewAuthorizer(cfg Config, payments PaymentsAPI, signer Signer) (*Authorizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if payments == nil || signer == nil {
		return nil, NewFlowError(ErrCodeConfig, "payments API and signer are required", nil)
	}
	return &Authorizer{cfg: cfg, payments: payments, signer: signer}, nil
}

// Run executes the flow end to end and returns the payments API's
// acknowledgement of the signed submission.
func (a *Authorizer) Run(ctx context.Context) (*SubmitPaymentResponse, error) {
	fees, err := a.payments.CurrentGasFees(ctx, a.cfg.ChainID)
	if err != nil {
		return nil, NewFlowError(ErrCodeExternalCall, "failed to fetch gas fees", err)
	}
	log.Debug().
		Str("maxBaseFeePerGas", fees.MaxBaseFeePerGas).
		Str("maxPriorityFeePerGas", fees.MaxPriorityFeePerGas).
		Msg("Fetched gas fees")

	request, err := a.payments.BuildPayment(ctx, a.buildParams(fees))
	if err != nil {
		return nil, NewFlowError(ErrCodeExternalCall, "failed to build payment request", err)
	}
	log.Info().
		Str("paymentId", request.ID).
		Int("completionInstructions", len(request.CompletionInstructions)).
		Int("instructions", len(request.Instructions)).
		Msg("Built payment request")

	// Resolved once and reused for every digest in the batch, so all digests
	// share the same verifying contract.
	delegateHex, err := a.payments.DelegateAddress(ctx, a.cfg.ChainID)
	if err != nil {
		return nil, NewFlowError(ErrCodeExternalCall, "failed to resolve delegate address", err)
	}
	if !common.IsHexAddress(delegateHex) {
		return nil, NewFlowError(ErrCodeExternalCall, fmt.Sprintf("payments API returned malformed delegate address: %q", delegateHex), nil)
	}
	delegate := common.HexToAddress(delegateHex)

	hashes, err := a.AssembleSigningHashes(delegate, request)
	if err != nil {
		return nil, err
	}

	sigs, err := a.signer.SignPayloads(ctx, common.HexToAddress(a.cfg.SignerAddress).Hex(), hashes)
	if err != nil {
		return nil, NewFlowError(ErrCodeExternalCall, "remote signing failed", err)
	}
	log.Info().Int("signatures", len(sigs)).Msg("Received signatures")

	authorizationHex, err := a.AttachSignatures(delegate, request, sigs)
	if err != nil {
		return nil, err
	}

	response, err := a.payments.SubmitPayment(ctx, SubmitPaymentRequest{
		PaymentID:              request.ID,
		Authorization:          authorizationHex,
		CompletionInstructions: request.CompletionInstructions,
		Instructions:           request.Instructions,
	})
	if err != nil {
		return nil, NewFlowError(ErrCodeExternalCall, "failed to submit payment", err)
	}
	log.Info().Str("paymentId", response.PaymentID).Str("status", response.Status).Msg("Payment submitted")

	return response, nil
}

func (a *Authorizer) buildParams(fees GasFees) BuildPaymentParams {
	endBalance := a.cfg.EndBalance
	if endBalance == "" {
		endBalance = "0"
	}
	return BuildPaymentParams{
		ChainID:              a.cfg.ChainID,
		Token:                common.HexToAddress(a.cfg.Token).Hex(),
		Target:               common.HexToAddress(a.cfg.Target).Hex(),
		Threshold:            a.cfg.Threshold,
		EndBalance:           endBalance,
		FeeToken:             common.Address{}.Hex(),
		MaxBaseFeePerGas:     fees.MaxBaseFeePerGas,
		MaxPriorityFeePerGas: fees.MaxPriorityFeePerGas,
		ExecutionFee:         "0",
	}
}

// AssembleSigningHashes produces the ordered list of digests to sign: the
// authorization digest first, then one instruction digest per completion
// instruction, then one per regular instruction. The signer returns
// signatures positionally matched to this order, and AttachSignatures slices
// them back apart by the same boundaries.
func (a *Authorizer) AssembleSigningHashes(delegate common.Address, request *PaymentRequest) ([]string, error) {
	authDigest, err := authorization.Digest(authorizationChainID, delegate, authorizationNonce)
	if err != nil {
		return nil, NewFlowError(ErrCodeEncoding, "failed to compute authorization digest", err)
	}

	hashes := make([]string, 0, 1+len(request.CompletionInstructions)+len(request.Instructions))
	hashes = append(hashes, authDigest.Hex())

	for i := range request.CompletionInstructions {
		digest, err := a.instructionDigest(delegate, &request.CompletionInstructions[i])
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, digest.Hex())
	}
	for i := range request.Instructions {
		digest, err := a.instructionDigest(delegate, &request.Instructions[i])
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, digest.Hex())
	}

	return hashes, nil
}

func (a *Authorizer) instructionDigest(delegate common.Address, inst *Instruction) (common.Hash, error) {
	salt, err := sweep.ParseBig(inst.Salt)
	if err != nil {
		return common.Hash{}, NewFlowError(ErrCodeDecode, "invalid instruction salt", err)
	}
	maxExecutions, err := sweep.ParseBig(inst.MaxExecutions)
	if err != nil {
		return common.Hash{}, NewFlowError(ErrCodeDecode, "invalid instruction maxExecutions", err)
	}
	if !common.IsHexAddress(inst.Action) {
		return common.Hash{}, NewFlowError(ErrCodeDecode, fmt.Sprintf("invalid instruction action address: %q", inst.Action), nil)
	}

	args, err := sweep.DecodeArguments(inst.Arguments)
	if err != nil {
		return common.Hash{}, NewFlowError(ErrCodeDecode, "failed to decode instruction arguments", err)
	}

	digest, err := sweep.Digest(delegate, inst.ChainID, sweep.Message{
		Salt:          salt,
		MaxExecutions: maxExecutions,
		Action:        common.HexToAddress(inst.Action),
		Args:          args,
	})
	if err != nil {
		return common.Hash{}, NewFlowError(ErrCodeEncoding, "failed to compute instruction digest", err)
	}
	return digest, nil
}

// AttachSignatures distributes the signer's output back onto the payment
// request. Position 0 is always the authorization signature and becomes the
// RLP-encoded signed authorization; the remaining signatures attach to the
// completion instructions and then the instructions, in assembly order.
// Returns the hex-encoded signed authorization.
func (a *Authorizer) AttachSignatures(delegate common.Address, request *PaymentRequest, sigs []authorization.RawSignature) (string, error) {
	want := 1 + len(request.CompletionInstructions) + len(request.Instructions)
	if len(sigs) != want {
		return "", NewFlowError(ErrCodeSignatureCount, fmt.Sprintf("signer returned %d signatures, want %d", len(sigs), want), nil)
	}

	authSig, err := authorization.Normalize(sigs[0])
	if err != nil {
		return "", NewFlowError(ErrCodeEncoding, "failed to normalize authorization signature", err)
	}
	encoded, err := authorization.Encode(delegate, authSig)
	if err != nil {
		return "", NewFlowError(ErrCodeEncoding, "failed to encode signed authorization", err)
	}

	next := 1
	for _, list := range [][]Instruction{request.CompletionInstructions, request.Instructions} {
		for i := range list {
			compact, err := authorization.Normalize(sigs[next])
			if err != nil {
				return "", NewFlowError(ErrCodeEncoding, fmt.Sprintf("failed to normalize signature %d", next), err)
			}
			list[i].Activation = &ActivationSignature{
				R:       compact.R,
				S:       compact.S,
				YParity: compact.YParity,
			}
			next++
		}
	}

	return "0x" + hex.EncodeToString(encoded), nil
}
