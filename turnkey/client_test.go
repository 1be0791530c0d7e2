package turnkey_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otimlabs/otim-go/turnkey"
)

func testAPIKey(t *testing.T) (*ecdsa.PrivateKey, string, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	privateHex := hex.EncodeToString(key.D.FillBytes(make([]byte, 32)))
	publicHex := hex.EncodeToString(elliptic.MarshalCompressed(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y))
	return key, publicHex, privateHex
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*turnkey.Client, *ecdsa.PrivateKey, string) {
	t.Helper()
	key, publicHex, privateHex := testAPIKey(t)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := turnkey.NewClient(&turnkey.ClientConfig{
		BaseURL:        server.URL,
		OrganizationID: "org-1",
		APIPublicKey:   publicHex,
		APIPrivateKey:  privateHex,
	})
	require.NoError(t, err)
	return client, key, publicHex
}

func TestNewClient(t *testing.T) {
	t.Run("Rejects missing configuration", func(t *testing.T) {
		_, err := turnkey.NewClient(nil)
		assert.Error(t, err)

		_, err = turnkey.NewClient(&turnkey.ClientConfig{OrganizationID: "org-1", APIPrivateKey: "11"})
		assert.Error(t, err)

		_, err = turnkey.NewClient(&turnkey.ClientConfig{BaseURL: "https://example.test", APIPrivateKey: "11"})
		assert.Error(t, err)
	})

	t.Run("Rejects malformed private key", func(t *testing.T) {
		_, err := turnkey.NewClient(&turnkey.ClientConfig{
			BaseURL:        "https://example.test",
			OrganizationID: "org-1",
			APIPrivateKey:  "not-hex",
		})
		assert.Error(t, err)
	})

	t.Run("Rejects out-of-range private key", func(t *testing.T) {
		_, err := turnkey.NewClient(&turnkey.ClientConfig{
			BaseURL:        "https://example.test",
			OrganizationID: "org-1",
			APIPrivateKey:  strings.Repeat("00", 32),
		})
		assert.Error(t, err)
	})
}

func TestSignPayloads(t *testing.T) {
	payloads := []string{
		"0x" + strings.Repeat("aa", 32),
		"0x" + strings.Repeat("bb", 32),
	}

	signResponse := func(n int) string {
		sigs := make([]string, n)
		for i := range sigs {
			sigs[i] = fmt.Sprintf(`{"r":"0x%s","s":"0x%s","v":"01"}`,
				strings.Repeat("11", 32), strings.Repeat("22", 32))
		}
		return fmt.Sprintf(`{
			"activity": {
				"id": "act-1",
				"status": "ACTIVITY_STATUS_COMPLETED",
				"result": {"signRawPayloadsResult": {"signatures": [%s]}}
			}
		}`, strings.Join(sigs, ","))
	}

	t.Run("Submits a stamped activity and returns signatures", func(t *testing.T) {
		var gotBody []byte
		var gotStamp string
		client, key, publicHex := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/public/v1/submit/sign_raw_payloads", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			gotStamp = r.Header.Get("X-Stamp")

			var err error
			gotBody, err = io.ReadAll(r.Body)
			require.NoError(t, err)

			w.Write([]byte(signResponse(2)))
		})

		sigs, err := client.SignPayloads(context.Background(), "0x1111111111111111111111111111111111111111", payloads)
		require.NoError(t, err)
		require.Len(t, sigs, 2)
		assert.Equal(t, "0x"+strings.Repeat("11", 32), sigs[0].R)

		var request struct {
			Type           string `json:"type"`
			OrganizationID string `json:"organizationId"`
			Parameters     struct {
				SignWith     string   `json:"signWith"`
				Payloads     []string `json:"payloads"`
				Encoding     string   `json:"encoding"`
				HashFunction string   `json:"hashFunction"`
			} `json:"parameters"`
		}
		require.NoError(t, json.Unmarshal(gotBody, &request))
		assert.Equal(t, "ACTIVITY_TYPE_SIGN_RAW_PAYLOADS", request.Type)
		assert.Equal(t, "org-1", request.OrganizationID)
		assert.Equal(t, payloads, request.Parameters.Payloads)
		assert.Equal(t, "PAYLOAD_ENCODING_HEXADECIMAL", request.Parameters.Encoding)
		assert.Equal(t, "HASH_FUNCTION_NO_OP", request.Parameters.HashFunction)

		// The stamp must verify as a P-256 signature over the exact body.
		stampJSON, err := base64.RawURLEncoding.DecodeString(gotStamp)
		require.NoError(t, err)
		var stamp turnkey.Stamp
		require.NoError(t, json.Unmarshal(stampJSON, &stamp))
		assert.Equal(t, publicHex, stamp.PublicKey)
		assert.Equal(t, "SIGNATURE_SCHEME_TK_API_P256", stamp.Scheme)

		signature, err := hex.DecodeString(stamp.Signature)
		require.NoError(t, err)
		digest := sha256.Sum256(gotBody)
		assert.True(t, ecdsa.VerifyASN1(&key.PublicKey, digest[:], signature),
			"stamp signature should verify over the request body")
	})

	t.Run("Rejects empty payload list", func(t *testing.T) {
		client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("No request expected")
		})
		_, err := client.SignPayloads(context.Background(), "0x1111111111111111111111111111111111111111", nil)
		assert.Error(t, err)
	})

	t.Run("Rejects signature count mismatch", func(t *testing.T) {
		client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(signResponse(1)))
		})
		_, err := client.SignPayloads(context.Background(), "0x1111111111111111111111111111111111111111", payloads)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 signatures for 2 payloads")
	})

	t.Run("Rejects missing sign result", func(t *testing.T) {
		client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"activity": {"id": "act-1", "status": "ACTIVITY_STATUS_FAILED", "result": {}}}`))
		})
		_, err := client.SignPayloads(context.Background(), "0x1111111111111111111111111111111111111111", payloads)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ACTIVITY_STATUS_FAILED")
	})

	t.Run("Surfaces non-200 responses", func(t *testing.T) {
		client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"bad stamp"}`))
		})
		_, err := client.SignPayloads(context.Background(), "0x1111111111111111111111111111111111111111", payloads)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
		assert.Contains(t, err.Error(), "bad stamp")
	})
}

func TestCreateEphemeralWallet(t *testing.T) {
	t.Run("Creates a sub-organization wallet", func(t *testing.T) {
		client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/public/v1/submit/create_sub_organization", r.URL.Path)
			assert.NotEmpty(t, r.Header.Get("X-Stamp"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), "ACTIVITY_TYPE_CREATE_SUB_ORGANIZATION_V7")
			assert.Contains(t, string(body), "CURVE_SECP256K1")
			assert.Contains(t, string(body), "ADDRESS_FORMAT_ETHEREUM")

			w.Write([]byte(`{
				"activity": {
					"id": "act-2",
					"status": "ACTIVITY_STATUS_COMPLETED",
					"result": {
						"createSubOrganizationResultV7": {
							"subOrganizationId": "sub-1",
							"wallet": {
								"walletId": "wallet-1",
								"addresses": ["0x1111111111111111111111111111111111111111"]
							}
						}
					}
				}
			}`))
		})

		wallet, err := client.CreateEphemeralWallet(context.Background(), "sweep-signer")
		require.NoError(t, err)
		assert.Equal(t, "sub-1", wallet.SubOrganizationID)
		assert.Equal(t, "wallet-1", wallet.WalletID)
		assert.Equal(t, "0x1111111111111111111111111111111111111111", wallet.Address)
	})

	t.Run("Rejects missing wallet in result", func(t *testing.T) {
		client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"activity": {"id": "act-2", "status": "ACTIVITY_STATUS_COMPLETED", "result": {}}}`))
		})
		_, err := client.CreateEphemeralWallet(context.Background(), "sweep-signer")
		assert.Error(t, err)
	})
}
