package turnkey

import "github.com/otimlabs/otim-go/authorization"

// Activity type identifiers for the signer API.
const (
	activitySignRawPayloads       = "ACTIVITY_TYPE_SIGN_RAW_PAYLOADS"
	activityCreateSubOrganization = "ACTIVITY_TYPE_CREATE_SUB_ORGANIZATION_V7"

	payloadEncodingHexadecimal = "PAYLOAD_ENCODING_HEXADECIMAL"
	hashFunctionNoOp           = "HASH_FUNCTION_NO_OP"

	signatureSchemeAPIP256 = "SIGNATURE_SCHEME_TK_API_P256"
)

// Stamp is the authentication stamp carried in the X-Stamp header, base64url
// encoded.
type Stamp struct {
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
	Scheme    string `json:"scheme"`
}

type signRawPayloadsRequest struct {
	Type           string                    `json:"type"`
	TimestampMs    string                    `json:"timestampMs"`
	OrganizationID string                    `json:"organizationId"`
	Parameters     signRawPayloadsParameters `json:"parameters"`
}

type signRawPayloadsParameters struct {
	SignWith     string   `json:"signWith"`
	Payloads     []string `json:"payloads"`
	Encoding     string   `json:"encoding"`
	HashFunction string   `json:"hashFunction"`
}

type createSubOrganizationRequest struct {
	Type           string                          `json:"type"`
	TimestampMs    string                          `json:"timestampMs"`
	OrganizationID string                          `json:"organizationId"`
	Parameters     createSubOrganizationParameters `json:"parameters"`
}

type createSubOrganizationParameters struct {
	SubOrganizationName string       `json:"subOrganizationName"`
	RootQuorumThreshold int          `json:"rootQuorumThreshold"`
	Wallet              walletParams `json:"wallet"`
}

type walletParams struct {
	WalletName string          `json:"walletName"`
	Accounts   []walletAccount `json:"accounts"`
}

type walletAccount struct {
	Curve         string `json:"curve"`
	PathFormat    string `json:"pathFormat"`
	Path          string `json:"path"`
	AddressFormat string `json:"addressFormat"`
}

// activityResponse is the signer API's activity envelope. Only the result
// variants this client uses are declared.
type activityResponse struct {
	Activity struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Result struct {
			SignRawPayloadsResult *struct {
				Signatures []authorization.RawSignature `json:"signatures"`
			} `json:"signRawPayloadsResult"`
			CreateSubOrganizationResultV7 *struct {
				SubOrganizationID string `json:"subOrganizationId"`
				Wallet            *struct {
					WalletID  string   `json:"walletId"`
					Addresses []string `json:"addresses"`
				} `json:"wallet"`
			} `json:"createSubOrganizationResultV7"`
		} `json:"result"`
	} `json:"activity"`
}

// Wallet identifies a sub-organization and the ephemeral wallet created
// inside it.
type Wallet struct {
	SubOrganizationID string
	WalletID          string
	Address           string
}
