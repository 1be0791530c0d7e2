package turnkey

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
)

// parseAPIPrivateKey parses a hex-encoded P-256 scalar into a signing key.
func parseAPIPrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	raw, err := hex.DecodeString(trimHexPrefix(privateKeyHex))
	if err != nil {
		return nil, errors.Wrap(err, "API private key is not valid hex")
	}

	curve := elliptic.P256()
	d := new(big.Int).SetBytes(raw)
	if d.Sign() == 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, errors.New("API private key is out of range")
	}

	key := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve},
		D:         d,
	}
	key.PublicKey.X, key.PublicKey.Y = curve.ScalarBaseMult(d.Bytes())
	return key, nil
}

// stampBody signs the request body with the API key and returns the base64url
// X-Stamp header value.
func stampBody(key *ecdsa.PrivateKey, publicKeyHex string, body []byte) (string, error) {
	digest := sha256.Sum256(body)

	signature, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	if err != nil {
		return "", errors.Wrap(err, "failed to sign request body")
	}

	stamp := Stamp{
		PublicKey: trimHexPrefix(publicKeyHex),
		Signature: hex.EncodeToString(signature),
		Scheme:    signatureSchemeAPIP256,
	}
	encoded, err := json.Marshal(stamp)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal stamp")
	}

	return base64.RawURLEncoding.EncodeToString(encoded), nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
