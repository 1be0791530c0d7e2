package otim

// Instruction is a single instruction inside a payment request, as returned
// by the payments API. Numeric fields are decimal or 0x-prefixed hex strings;
// Arguments is the hex-encoded ABI argument blob for the instruction's action.
type Instruction struct {
	ChainID       uint64               `json:"chainId"`
	Salt          string               `json:"salt"`
	MaxExecutions string               `json:"maxExecutions"`
	Action        string               `json:"action"`
	Arguments     string               `json:"arguments"`
	Activation    *ActivationSignature `json:"activationSignature,omitempty"`
}

// ActivationSignature is the compact signature attached to an instruction
// before submission.
type ActivationSignature struct {
	R       string `json:"r"`
	S       string `json:"s"`
	YParity uint8  `json:"yParity"`
}

// PaymentRequest is the unsigned payment request built by the payments API.
// Completion instructions always precede regular instructions in signing order.
type PaymentRequest struct {
	ID                     string        `json:"id"`
	ChainID                uint64        `json:"chainId"`
	CompletionInstructions []Instruction `json:"completionInstructions"`
	Instructions           []Instruction `json:"instructions"`
}

// GasFees holds the current fee estimates reported by the payments API,
// in wei as decimal strings.
type GasFees struct {
	MaxBaseFeePerGas     string `json:"maxBaseFeePerGas"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
}

// BuildPaymentParams are the sweep parameters sent to the payments API when
// building a payment request.
type BuildPaymentParams struct {
	ChainID              uint64 `json:"chainId"`
	Token                string `json:"token"`
	Target               string `json:"target"`
	Threshold            string `json:"threshold"`
	EndBalance           string `json:"endBalance"`
	FeeToken             string `json:"feeToken"`
	MaxBaseFeePerGas     string `json:"maxBaseFeePerGas"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
	ExecutionFee         string `json:"executionFee"`
}

// SubmitPaymentRequest is the final signed submission sent to the payments API.
// Authorization is the hex-encoded RLP signed-authorization tuple; every
// instruction carries its activation signature.
type SubmitPaymentRequest struct {
	PaymentID              string        `json:"paymentId"`
	Authorization          string        `json:"authorization"`
	CompletionInstructions []Instruction `json:"completionInstructions"`
	Instructions           []Instruction `json:"instructions"`
}

// SubmitPaymentResponse is the payments API acknowledgement of a submission.
type SubmitPaymentResponse struct {
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}
