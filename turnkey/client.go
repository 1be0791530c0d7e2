// Package turnkey provides the HTTP client for the remote key-custody signer.
//
// Every request body is signed with the caller's P-256 API key and carried in
// the X-Stamp header alongside the body.
package turnkey

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/otimlabs/otim-go/authorization"
)

// Client talks to the signer API. Implements otim.Signer.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	organizationID string
	apiPublicKey   string
	apiPrivateKey  *ecdsa.PrivateKey
	now            func() time.Time
}

// ClientConfig configures the signer client.
type ClientConfig struct {
	// BaseURL is the signer API base URL
	BaseURL string

	// OrganizationID scopes every activity
	OrganizationID string

	// APIPublicKey and APIPrivateKey are the hex-encoded P-256 API key pair
	APIPublicKey  string
	APIPrivateKey string

	// HTTPClient is the HTTP client to use (optional)
	HTTPClient *http.Client

	// Timeout for requests (optional, defaults to 30s)
	Timeout time.Duration
}

// NewClient creates a signer client, parsing and validating the API key pair.
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.BaseURL == "" {
		return nil, errors.New("BaseURL is required")
	}
	if config.OrganizationID == "" {
		return nil, errors.New("OrganizationID is required")
	}

	privateKey, err := parseAPIPrivateKey(config.APIPrivateKey)
	if err != nil {
		return nil, err
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{
			Timeout: timeout,
		}
	}

	return &Client{
		baseURL:        config.BaseURL,
		httpClient:     httpClient,
		organizationID: config.OrganizationID,
		apiPublicKey:   config.APIPublicKey,
		apiPrivateKey:  privateKey,
		now:            time.Now,
	}, nil
}

// SignPayloads submits the hex digests for signing with the key behind the
// signWith address and returns one raw signature per payload, in submitted
// order.
func (c *Client) SignPayloads(ctx context.Context, signWith string, payloads []string) ([]authorization.RawSignature, error) {
	if len(payloads) == 0 {
		return nil, errors.New("no payloads to sign")
	}

	request := signRawPayloadsRequest{
		Type:           activitySignRawPayloads,
		TimestampMs:    c.timestampMs(),
		OrganizationID: c.organizationID,
		Parameters: signRawPayloadsParameters{
			SignWith:     signWith,
			Payloads:     payloads,
			Encoding:     payloadEncodingHexadecimal,
			HashFunction: hashFunctionNoOp,
		},
	}

	var response activityResponse
	if err := c.submit(ctx, "/public/v1/submit/sign_raw_payloads", request, &response); err != nil {
		return nil, err
	}

	result := response.Activity.Result.SignRawPayloadsResult
	if result == nil {
		return nil, errors.Errorf("signer activity %s returned no sign result (status %s)",
			response.Activity.ID, response.Activity.Status)
	}
	if len(result.Signatures) != len(payloads) {
		return nil, errors.Errorf("signer returned %d signatures for %d payloads",
			len(result.Signatures), len(payloads))
	}

	return result.Signatures, nil
}

// CreateEphemeralWallet creates a sub-organization holding a single-account
// Ethereum wallet and returns its address.
func (c *Client) CreateEphemeralWallet(ctx context.Context, name string) (*Wallet, error) {
	request := createSubOrganizationRequest{
		Type:           activityCreateSubOrganization,
		TimestampMs:    c.timestampMs(),
		OrganizationID: c.organizationID,
		Parameters: createSubOrganizationParameters{
			SubOrganizationName: name,
			RootQuorumThreshold: 1,
			Wallet: walletParams{
				WalletName: name,
				Accounts: []walletAccount{{
					Curve:         "CURVE_SECP256K1",
					PathFormat:    "PATH_FORMAT_BIP32",
					Path:          "m/44'/60'/0'/0/0",
					AddressFormat: "ADDRESS_FORMAT_ETHEREUM",
				}},
			},
		},
	}

	var response activityResponse
	if err := c.submit(ctx, "/public/v1/submit/create_sub_organization", request, &response); err != nil {
		return nil, err
	}

	result := response.Activity.Result.CreateSubOrganizationResultV7
	if result == nil || result.Wallet == nil || len(result.Wallet.Addresses) == 0 {
		return nil, errors.Errorf("signer activity %s returned no wallet (status %s)",
			response.Activity.ID, response.Activity.Status)
	}

	return &Wallet{
		SubOrganizationID: result.SubOrganizationID,
		WalletID:          result.Wallet.WalletID,
		Address:           result.Wallet.Addresses[0],
	}, nil
}

func (c *Client) submit(ctx context.Context, path string, request interface{}, response *activityResponse) error {
	body, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "failed to marshal activity request")
	}

	stamp, err := stampBody(c.apiPrivateKey, c.apiPublicKey, body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", strings.TrimSuffix(c.baseURL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create activity request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Stamp", stamp)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "signer request failed")
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read signer response")
	}

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("signer %s failed (%d): %s", path, resp.StatusCode, string(responseBody))
	}

	if err := json.Unmarshal(responseBody, response); err != nil {
		return errors.Wrap(err, "failed to decode signer response")
	}
	return nil
}

func (c *Client) timestampMs() string {
	return strconv.FormatInt(c.now().UnixMilli(), 10)
}
