package otim

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Config holds every setting the flow needs. It is populated once at startup
// (commands read it from the environment) and validated before any component
// is constructed; nothing in this module reads the process environment.
type Config struct {
	// Payments API
	OtimBaseURL string
	OtimAPIKey  string

	// Signer API
	TurnkeyBaseURL        string
	TurnkeyOrganizationID string
	TurnkeyAPIPublicKey   string
	TurnkeyAPIPrivateKey  string

	// SignerAddress is the EOA whose key the remote signer controls
	SignerAddress string

	// Sweep parameters
	ChainID    uint64
	Token      string
	Target     string
	Threshold  string
	EndBalance string
}

// Validate checks the configuration and reports every missing field at once.
func (c *Config) Validate() error {
	var missing []string

	if c.OtimBaseURL == "" {
		missing = append(missing, "OtimBaseURL")
	}
	if c.OtimAPIKey == "" {
		missing = append(missing, "OtimAPIKey")
	}
	if c.TurnkeyBaseURL == "" {
		missing = append(missing, "TurnkeyBaseURL")
	}
	if c.TurnkeyOrganizationID == "" {
		missing = append(missing, "TurnkeyOrganizationID")
	}
	if c.TurnkeyAPIPublicKey == "" {
		missing = append(missing, "TurnkeyAPIPublicKey")
	}
	if c.TurnkeyAPIPrivateKey == "" {
		missing = append(missing, "TurnkeyAPIPrivateKey")
	}
	if c.SignerAddress == "" {
		missing = append(missing, "SignerAddress")
	}
	if c.ChainID == 0 {
		missing = append(missing, "ChainID")
	}
	if c.Token == "" {
		missing = append(missing, "Token")
	}
	if c.Target == "" {
		missing = append(missing, "Target")
	}
	if c.Threshold == "" {
		missing = append(missing, "Threshold")
	}

	if len(missing) > 0 {
		return NewFlowError(ErrCodeConfig, fmt.Sprintf("missing configuration: %s", strings.Join(missing, ", ")), nil)
	}

	for name, addr := range map[string]string{
		"SignerAddress": c.SignerAddress,
		"Token":         c.Token,
		"Target":        c.Target,
	} {
		if !common.IsHexAddress(addr) {
			return NewFlowError(ErrCodeConfig, fmt.Sprintf("%s is not a valid address: %s", name, addr), nil)
		}
	}

	return nil
}
