// Package sandbox emulates both collaborator APIs in process: the payments
// API endpoints and the signer's activity endpoints, signing with a local
// secp256k1 key. It exists so the flow can run end to end without network
// access to the real services.
package sandbox

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	otim "github.com/otimlabs/otim-go"
	"github.com/otimlabs/otim-go/authorization"
	"github.com/otimlabs/otim-go/sweep"
)

// delegateAddress is the emulator's fixed delegate contract address.
var delegateAddress = common.HexToAddress("0x7702770277027702770277027702770277027702")

// Server holds the emulator state for one run: the signing key, built
// payment requests, and accepted submissions.
type Server struct {
	engine *gin.Engine
	key    *ecdsa.PrivateKey

	mu        sync.Mutex
	payments  map[string]*otim.PaymentRequest
	submitted map[string]otim.SubmitPaymentRequest
}

// New creates a sandbox server with a freshly generated signing key.
func New() (*Server, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate sandbox key: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine:    gin.New(),
		key:       key,
		payments:  make(map[string]*otim.PaymentRequest),
		submitted: make(map[string]otim.SubmitPaymentRequest),
	}

	s.engine.GET("/v1/chains/:chainId/fees", s.handleGasFees)
	s.engine.GET("/v1/chains/:chainId/delegate", s.handleDelegate)
	s.engine.POST("/v1/payments/build", s.handleBuild)
	s.engine.POST("/v1/payments/submit", s.handleSubmit)
	s.engine.POST("/public/v1/submit/sign_raw_payloads", s.handleSignRawPayloads)
	s.engine.POST("/public/v1/submit/create_sub_organization", s.handleCreateSubOrganization)

	return s, nil
}

// Handler exposes the emulator as an http.Handler for httptest or a real
// listener.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// SignerAddress returns the address of the sandbox signing key.
func (s *Server) SignerAddress() string {
	return crypto.PubkeyToAddress(s.key.PublicKey).Hex()
}

// DelegateAddress returns the emulator's delegate contract address.
func (s *Server) DelegateAddress() string {
	return delegateAddress.Hex()
}

// Submitted returns the accepted submission for a payment id, if any.
func (s *Server) Submitted(paymentID string) (otim.SubmitPaymentRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submitted[paymentID]
	return sub, ok
}

func (s *Server) handleGasFees(c *gin.Context) {
	c.JSON(http.StatusOK, otim.GasFees{
		MaxBaseFeePerGas:     "2000000000",
		MaxPriorityFeePerGas: "1000000000",
	})
}

func (s *Server) handleDelegate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"address": delegateAddress.Hex()})
}

func (s *Server) handleBuild(c *gin.Context) {
	var params otim.BuildPaymentParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instruction, err := s.buildInstruction(params, "1")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	completion, err := s.buildInstruction(params, "2")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request := &otim.PaymentRequest{
		ID:                     uuid.NewString(),
		ChainID:                params.ChainID,
		CompletionInstructions: []otim.Instruction{*completion},
		Instructions:           []otim.Instruction{*instruction},
	}

	s.mu.Lock()
	s.payments[request.ID] = request
	s.mu.Unlock()

	c.JSON(http.StatusOK, request)
}

func (s *Server) buildInstruction(params otim.BuildPaymentParams, salt string) (*otim.Instruction, error) {
	threshold, err := sweep.ParseBig(params.Threshold)
	if err != nil {
		return nil, fmt.Errorf("invalid threshold: %w", err)
	}
	endBalance, err := sweep.ParseBig(defaultString(params.EndBalance, "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid endBalance: %w", err)
	}
	maxBaseFee, err := sweep.ParseBig(defaultString(params.MaxBaseFeePerGas, "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid maxBaseFeePerGas: %w", err)
	}
	maxPriorityFee, err := sweep.ParseBig(defaultString(params.MaxPriorityFeePerGas, "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid maxPriorityFeePerGas: %w", err)
	}
	executionFee, err := sweep.ParseBig(defaultString(params.ExecutionFee, "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid executionFee: %w", err)
	}

	arguments, err := sweep.EncodeArguments(&sweep.Arguments{
		Token:                common.HexToAddress(params.Token),
		Target:               common.HexToAddress(params.Target),
		Threshold:            threshold,
		EndBalance:           endBalance,
		FeeToken:             common.HexToAddress(params.FeeToken),
		MaxBaseFeePerGas:     maxBaseFee,
		MaxPriorityFeePerGas: maxPriorityFee,
		ExecutionFee:         executionFee,
	})
	if err != nil {
		return nil, err
	}

	return &otim.Instruction{
		ChainID:       params.ChainID,
		Salt:          salt,
		MaxExecutions: "1",
		Action:        "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		Arguments:     arguments,
	}, nil
}

func (s *Server) handleSubmit(c *gin.Context) {
	var submission otim.SubmitPaymentRequest
	if err := c.ShouldBindJSON(&submission); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	_, known := s.payments[submission.PaymentID]
	s.mu.Unlock()
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown payment id"})
		return
	}

	for _, inst := range append(submission.CompletionInstructions, submission.Instructions...) {
		if inst.Activation == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "instruction missing activation signature"})
			return
		}
	}

	if err := s.verifyAuthorization(submission.Authorization); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.submitted[submission.PaymentID] = submission
	s.mu.Unlock()

	c.JSON(http.StatusOK, otim.SubmitPaymentResponse{
		PaymentID: submission.PaymentID,
		Status:    "submitted",
	})
}

// verifyAuthorization decodes the signed authorization and checks that the
// signature recovers to the sandbox signing key.
func (s *Server) verifyAuthorization(authorizationHex string) error {
	raw, err := hex.DecodeString(strings.TrimPrefix(authorizationHex, "0x"))
	if err != nil {
		return fmt.Errorf("authorization is not valid hex: %w", err)
	}

	auth, err := authorization.Decode(raw)
	if err != nil {
		return err
	}
	if auth.Address != delegateAddress {
		return fmt.Errorf("authorization delegates to %s, want %s", auth.Address.Hex(), delegateAddress.Hex())
	}

	digest, err := authorization.Digest(auth.ChainID.Uint64(), auth.Address, auth.Nonce)
	if err != nil {
		return err
	}

	sig := make([]byte, 65)
	r := auth.R.Bytes32()
	sv := auth.S.Bytes32()
	copy(sig[0:32], r[:])
	copy(sig[32:64], sv[:])
	sig[64] = auth.YParity

	pub, err := crypto.SigToPub(digest[:], sig)
	if err != nil {
		return fmt.Errorf("authorization signature does not recover: %w", err)
	}
	if recovered := crypto.PubkeyToAddress(*pub); recovered != crypto.PubkeyToAddress(s.key.PublicKey) {
		return fmt.Errorf("authorization signed by %s, want %s", recovered.Hex(), s.SignerAddress())
	}
	return nil
}

func (s *Server) handleSignRawPayloads(c *gin.Context) {
	if c.GetHeader("X-Stamp") == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-Stamp header"})
		return
	}

	var request struct {
		OrganizationID string `json:"organizationId"`
		Parameters     struct {
			SignWith string   `json:"signWith"`
			Payloads []string `json:"payloads"`
		} `json:"parameters"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.Parameters.SignWith != s.SignerAddress() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown signing address"})
		return
	}

	signatures := make([]gin.H, 0, len(request.Parameters.Payloads))
	for _, payload := range request.Parameters.Payloads {
		digest, err := hex.DecodeString(strings.TrimPrefix(payload, "0x"))
		if err != nil || len(digest) != 32 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("payload is not a 32-byte hex digest: %q", payload)})
			return
		}

		sig, err := crypto.Sign(digest, s.key)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		signatures = append(signatures, gin.H{
			"r": hex.EncodeToString(sig[0:32]),
			"s": hex.EncodeToString(sig[32:64]),
			"v": fmt.Sprintf("%02x", sig[64]),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"activity": gin.H{
			"id":     uuid.NewString(),
			"status": "ACTIVITY_STATUS_COMPLETED",
			"result": gin.H{
				"signRawPayloadsResult": gin.H{
					"signatures": signatures,
				},
			},
		},
	})
}

func (s *Server) handleCreateSubOrganization(c *gin.Context) {
	if c.GetHeader("X-Stamp") == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-Stamp header"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activity": gin.H{
			"id":     uuid.NewString(),
			"status": "ACTIVITY_STATUS_COMPLETED",
			"result": gin.H{
				"createSubOrganizationResultV7": gin.H{
					"subOrganizationId": uuid.NewString(),
					"wallet": gin.H{
						"walletId":  uuid.NewString(),
						"addresses": []string{s.SignerAddress()},
					},
				},
			},
		},
	})
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
