package authorization

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// RawSignature is a signature as returned by the remote signer: r and s as
// 32-byte hex strings plus the recovery id, one per submitted payload.
type RawSignature struct {
	R string `json:"r"`
	S string `json:"s"`
	V string `json:"v"`
}

// CompactSignature is the EIP-2098 form of a signature: the recovery id
// normalized to a 0/1 parity bit. R and S are 0x-prefixed 32-byte hex.
type CompactSignature struct {
	YParity uint8  `json:"yParity"`
	R       string `json:"r"`
	S       string `json:"s"`
}

// NormalizeV maps any recovery id onto a 0/1 parity bit. Values 0 and 1 pass
// through, legacy 27/28 map to 0/1, and EIP-155 values (35 + chainId*2 +
// yParity) map via (v-35) mod 2. The function is total: anything else falls
// back to v mod 2.
func NormalizeV(v uint64) uint8 {
	switch {
	case v == 0 || v == 1:
		return uint8(v)
	case v == 27 || v == 28:
		return uint8(v - 27)
	case v >= 35:
		return uint8((v - 35) % 2)
	default:
		return uint8(v % 2)
	}
}

// Normalize converts a raw signature into its EIP-2098 compact form.
func Normalize(raw RawSignature) (CompactSignature, error) {
	v, err := parseV(raw.V)
	if err != nil {
		return CompactSignature{}, err
	}
	r, err := padWord(raw.R)
	if err != nil {
		return CompactSignature{}, fmt.Errorf("invalid signature r: %w", err)
	}
	s, err := padWord(raw.S)
	if err != nil {
		return CompactSignature{}, fmt.Errorf("invalid signature s: %w", err)
	}
	return CompactSignature{
		YParity: NormalizeV(v),
		R:       "0x" + r,
		S:       "0x" + s,
	}, nil
}

// Flat renders a raw signature as the concatenated r || s || v hex string the
// payments API expects, with v as a two-digit lowercase byte.
func Flat(raw RawSignature) (string, error) {
	v, err := parseV(raw.V)
	if err != nil {
		return "", err
	}
	if v > 0xff {
		return "", fmt.Errorf("recovery id does not fit one byte: %d", v)
	}
	r, err := padWord(raw.R)
	if err != nil {
		return "", fmt.Errorf("invalid signature r: %w", err)
	}
	s, err := padWord(raw.S)
	if err != nil {
		return "", fmt.Errorf("invalid signature s: %w", err)
	}
	return fmt.Sprintf("0x%s%s%02x", r, s, v), nil
}

func parseV(v string) (uint64, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(v, "0x"), "0X")
	if digits == "" {
		return 0, fmt.Errorf("empty recovery id")
	}
	parsed, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid recovery id %q: %w", v, err)
	}
	return parsed, nil
}

// padWord validates a hex word and left-pads it to 32 bytes (64 characters).
func padWord(word string) (string, error) {
	digits := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(word, "0x"), "0X"))
	if len(digits)%2 != 0 {
		digits = "0" + digits
	}
	if _, err := hex.DecodeString(digits); err != nil {
		return "", err
	}
	if len(digits) > 64 {
		return "", fmt.Errorf("value longer than 32 bytes: %d hex chars", len(digits))
	}
	return strings.Repeat("0", 64-len(digits)) + digits, nil
}

func parseWord(word string) (*uint256.Int, error) {
	padded, err := padWord(word)
	if err != nil {
		return nil, err
	}
	b, err := hex.DecodeString(padded)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(b), nil
}
