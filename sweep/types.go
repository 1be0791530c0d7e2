package sweep

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Arguments are the decoded fields of a SweepERC20 instruction's ABI argument
// blob, in declaration order. Each field occupies one 32-byte word in the
// encoded form.
type Arguments struct {
	Token                common.Address
	Target               common.Address
	Threshold            *big.Int
	EndBalance           *big.Int
	FeeToken             common.Address
	MaxBaseFeePerGas     *big.Int
	MaxPriorityFeePerGas *big.Int
	ExecutionFee         *big.Int
}

// Message is the decoded, typed form of an instruction, ready for typed-data
// hashing.
type Message struct {
	Salt          *big.Int
	MaxExecutions *big.Int
	Action        common.Address
	Args          *Arguments
}
