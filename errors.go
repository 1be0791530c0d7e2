package otim

import "fmt"

// FlowError represents a failure in the payment-authorization flow
type FlowError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	// ErrCodeDecode indicates a malformed or wrong-length ABI argument blob
	ErrCodeDecode = "decode_failed"
	// ErrCodeEncoding indicates a typed-data or RLP assembly failure
	ErrCodeEncoding = "encoding_failed"
	// ErrCodeExternalCall indicates a failure from either collaborator API
	ErrCodeExternalCall = "external_call_failed"
	// ErrCodeConfig indicates missing or invalid startup configuration
	ErrCodeConfig = "invalid_config"
	// ErrCodeSignatureCount indicates the signer returned the wrong number of signatures
	ErrCodeSignatureCount = "signature_count_mismatch"
)

// NewFlowError creates a new flow error
func NewFlowError(code, message string, err error) *FlowError {
	return &FlowError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
