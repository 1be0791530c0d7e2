package sweep

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// EIP-712 domain constants for the delegate contract. The salt is a protocol
// constant: the keccak256 hash of the ASCII protocol tag, not a per-call value.
const (
	DomainName    = "OtimDelegate"
	DomainVersion = "1"

	domainSaltTag = "ON_TIME_INSTRUCTED_MONEY"
)

// DomainSalt is the fixed 32-byte salt bound into every instruction digest.
var DomainSalt = crypto.Keccak256Hash([]byte(domainSaltTag))

// typedDataTypes declares the Instruction -> SweepERC20 -> Fee type tree.
// Field order is load-bearing: the digest changes if any field moves.
func typedDataTypes() apitypes.Types {
	return apitypes.Types{
		"EIP712Domain": {
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
			{Name: "salt", Type: "bytes32"},
		},
		"Instruction": {
			{Name: "salt", Type: "uint256"},
			{Name: "maxExecutions", Type: "uint256"},
			{Name: "action", Type: "address"},
			{Name: "sweepERC20", Type: "SweepERC20"},
		},
		"SweepERC20": {
			{Name: "token", Type: "address"},
			{Name: "target", Type: "address"},
			{Name: "threshold", Type: "uint256"},
			{Name: "endBalance", Type: "uint256"},
			{Name: "fee", Type: "Fee"},
		},
		"Fee": {
			{Name: "token", Type: "address"},
			{Name: "maxBaseFeePerGas", Type: "uint256"},
			{Name: "maxPriorityFeePerGas", Type: "uint256"},
			{Name: "executionFee", Type: "uint256"},
		},
	}
}

// Digest computes the EIP-712 digest of a sweep instruction for the given
// delegate contract and chain id.
//
// The digest is keccak256("\x19\x01" || domainSeparator || structHash), with
// the domain separator and struct hash computed over the declared type tree.
// Identical inputs always produce the identical digest.
func Digest(delegate common.Address, chainID uint64, msg Message) (common.Hash, error) {
	if err := validateMessage(msg); err != nil {
		return common.Hash{}, err
	}

	typedData := apitypes.TypedData{
		Types:       typedDataTypes(),
		PrimaryType: "Instruction",
		Domain: apitypes.TypedDataDomain{
			Name:              DomainName,
			Version:           DomainVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).SetUint64(chainID)),
			VerifyingContract: delegate.Hex(),
			Salt:              DomainSalt.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"salt":          msg.Salt,
			"maxExecutions": msg.MaxExecutions,
			"action":        msg.Action.Hex(),
			"sweepERC20": map[string]interface{}{
				"token":      msg.Args.Token.Hex(),
				"target":     msg.Args.Target.Hex(),
				"threshold":  msg.Args.Threshold,
				"endBalance": msg.Args.EndBalance,
				"fee": map[string]interface{}{
					"token":                msg.Args.FeeToken.Hex(),
					"maxBaseFeePerGas":     msg.Args.MaxBaseFeePerGas,
					"maxPriorityFeePerGas": msg.Args.MaxPriorityFeePerGas,
					"executionFee":         msg.Args.ExecutionFee,
				},
			},
		},
	}

	structHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash instruction struct: %w", err)
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash domain: %w", err)
	}

	return crypto.Keccak256Hash([]byte{0x19, 0x01}, domainSeparator, structHash), nil
}

func validateMessage(msg Message) error {
	if msg.Salt == nil {
		return fmt.Errorf("instruction salt is nil")
	}
	if msg.MaxExecutions == nil {
		return fmt.Errorf("instruction maxExecutions is nil")
	}
	if msg.Args == nil {
		return fmt.Errorf("instruction arguments are nil")
	}
	for name, v := range map[string]*big.Int{
		"threshold":            msg.Args.Threshold,
		"endBalance":           msg.Args.EndBalance,
		"maxBaseFeePerGas":     msg.Args.MaxBaseFeePerGas,
		"maxPriorityFeePerGas": msg.Args.MaxPriorityFeePerGas,
		"executionFee":         msg.Args.ExecutionFee,
	} {
		if v == nil {
			return fmt.Errorf("argument %s is nil", name)
		}
	}
	return nil
}
