package sweep

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	wordSize = 32

	// encodedArgumentsLen is the exact byte length of a SweepERC20 argument
	// blob: eight 32-byte words.
	encodedArgumentsLen = 8 * wordSize
)

var (
	addressType = mustNewType("address")
	uint256Type = mustNewType("uint256")

	// argumentLayout names each 32-byte word of the argument blob in order.
	argumentLayout = abi.Arguments{
		{Name: "token", Type: addressType},
		{Name: "target", Type: addressType},
		{Name: "threshold", Type: uint256Type},
		{Name: "endBalance", Type: uint256Type},
		{Name: "feeToken", Type: addressType},
		{Name: "maxBaseFeePerGas", Type: uint256Type},
		{Name: "maxPriorityFeePerGas", Type: uint256Type},
		{Name: "executionFee", Type: uint256Type},
	}
)

func mustNewType(t string) abi.Type {
	ty, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return ty
}

// DecodeArguments decodes a hex-encoded SweepERC20 argument blob into its
// eight typed fields. The blob must decode to exactly eight 32-byte words; a
// leading ABI length word (value 256) is tolerated and stripped. Addresses
// are taken from the low 20 bytes of their word, integers are the full
// 32-byte big-endian value.
func DecodeArguments(argumentsHex string) (*Arguments, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(argumentsHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("arguments are not valid hex: %w", err)
	}

	// Some encoders prepend the dynamic-bytes length word.
	if len(data) == encodedArgumentsLen+wordSize {
		length := new(big.Int).SetBytes(data[:wordSize])
		if length.Cmp(big.NewInt(encodedArgumentsLen)) != 0 {
			return nil, fmt.Errorf("unexpected length prefix %s, want %d", length, encodedArgumentsLen)
		}
		data = data[wordSize:]
	}

	if len(data) != encodedArgumentsLen {
		return nil, fmt.Errorf("arguments must be %d bytes, got %d", encodedArgumentsLen, len(data))
	}

	values, err := argumentLayout.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack arguments: %w", err)
	}

	args := &Arguments{
		Token:                values[0].(common.Address),
		Target:               values[1].(common.Address),
		Threshold:            values[2].(*big.Int),
		EndBalance:           values[3].(*big.Int),
		FeeToken:             values[4].(common.Address),
		MaxBaseFeePerGas:     values[5].(*big.Int),
		MaxPriorityFeePerGas: values[6].(*big.Int),
		ExecutionFee:         values[7].(*big.Int),
	}

	return args, nil
}

// EncodeArguments encodes the eight argument fields back into the hex blob
// form DecodeArguments accepts.
func EncodeArguments(args *Arguments) (string, error) {
	if args == nil {
		return "", fmt.Errorf("arguments are nil")
	}
	for name, v := range map[string]*big.Int{
		"threshold":            args.Threshold,
		"endBalance":           args.EndBalance,
		"maxBaseFeePerGas":     args.MaxBaseFeePerGas,
		"maxPriorityFeePerGas": args.MaxPriorityFeePerGas,
		"executionFee":         args.ExecutionFee,
	} {
		if v == nil {
			return "", fmt.Errorf("argument %s is nil", name)
		}
	}

	data, err := argumentLayout.Pack(
		args.Token,
		args.Target,
		args.Threshold,
		args.EndBalance,
		args.FeeToken,
		args.MaxBaseFeePerGas,
		args.MaxPriorityFeePerGas,
		args.ExecutionFee,
	)
	if err != nil {
		return "", fmt.Errorf("failed to pack arguments: %w", err)
	}

	return "0x" + hex.EncodeToString(data), nil
}

// ParseBig parses a decimal or 0x-prefixed hex string into a big integer.
func ParseBig(s string) (*big.Int, error) {
	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		digits = s[2:]
	}
	v, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("invalid integer value: %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value not allowed: %q", s)
	}
	return v, nil
}
