// Package authorization implements EIP-7702 authorization hashing and the
// signed-authorization wire encoding, plus signature format conversion for
// raw signer output.
package authorization

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// SetCodeMagic is the EIP-7702 authorization domain separator. Signatures
// must be over keccak256(0x05 || rlp([chainId, address, nonce])).
const SetCodeMagic = 0x05

type authorizationTuple struct {
	ChainID *uint256.Int
	Address common.Address
	Nonce   uint64
}

// Digest computes the EIP-7702 authorization digest for delegating to the
// given address. The chain id is an explicit parameter: a zero chain id makes
// the authorization valid on any chain, and the digest must be computed over
// the same chain id the signed tuple encodes.
func Digest(chainID uint64, delegate common.Address, nonce uint64) (common.Hash, error) {
	encoded, err := rlp.EncodeToBytes(&authorizationTuple{
		ChainID: uint256.NewInt(chainID),
		Address: delegate,
		Nonce:   nonce,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode authorization tuple: %w", err)
	}
	return crypto.Keccak256Hash([]byte{SetCodeMagic}, encoded), nil
}

// SignedAuthorization is the signed EIP-7702 authorization tuple. In this
// flow the chain id stays zero (wildcard) and the nonce stays zero, so both
// encode as empty strings; yParity encodes as empty when 0.
type SignedAuthorization struct {
	ChainID *uint256.Int
	Address common.Address
	Nonce   uint64
	YParity uint8
	R       *uint256.Int
	S       *uint256.Int
}

// Encode produces the RLP bytes of a signed authorization for the given
// delegate and compact signature, with chain id and nonce pinned to zero.
func Encode(delegate common.Address, sig CompactSignature) ([]byte, error) {
	r, err := parseWord(sig.R)
	if err != nil {
		return nil, fmt.Errorf("invalid signature r: %w", err)
	}
	s, err := parseWord(sig.S)
	if err != nil {
		return nil, fmt.Errorf("invalid signature s: %w", err)
	}

	encoded, err := rlp.EncodeToBytes(&SignedAuthorization{
		ChainID: uint256.NewInt(0),
		Address: delegate,
		Nonce:   0,
		YParity: sig.YParity,
		R:       r,
		S:       s,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode signed authorization: %w", err)
	}
	return encoded, nil
}

// Decode parses RLP signed-authorization bytes produced by Encode.
func Decode(data []byte) (*SignedAuthorization, error) {
	var auth SignedAuthorization
	if err := rlp.DecodeBytes(data, &auth); err != nil {
		return nil, fmt.Errorf("failed to decode signed authorization: %w", err)
	}
	return &auth, nil
}
