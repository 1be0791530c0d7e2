// Command otim-sweep runs the sweep payment-authorization flow once against
// the configured payments API and remote signer.
package main

import (
	"context"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	otim "github.com/otimlabs/otim-go"
	otimhttp "github.com/otimlabs/otim-go/http"
	"github.com/otimlabs/otim-go/turnkey"
)

var (
	envFile   string
	ephemeral bool
	debug     bool
)

var rootCmd = &cobra.Command{
	Use:   "otim-sweep",
	Short: "Authorize and submit a sweep payment",
	Long: `Builds a sweep payment request with the payments API, signs the
authorization and instruction digests through the remote signer, and submits
the signed payment. Requires configuration through ENV.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "load environment from this file before reading config")
	rootCmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "create a fresh signer wallet instead of using SIGNER_ADDRESS")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func run(cmd *cobra.Command, _ []string) error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return err
		}
	} else {
		// Best effort: a local .env is optional.
		_ = godotenv.Load()
	}

	cfg, err := configFromEnv()
	if err != nil {
		return err
	}

	signer, err := turnkey.NewClient(&turnkey.ClientConfig{
		BaseURL:        cfg.TurnkeyBaseURL,
		OrganizationID: cfg.TurnkeyOrganizationID,
		APIPublicKey:   cfg.TurnkeyAPIPublicKey,
		APIPrivateKey:  cfg.TurnkeyAPIPrivateKey,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()

	if ephemeral {
		wallet, err := signer.CreateEphemeralWallet(ctx, "otim-sweep")
		if err != nil {
			return err
		}
		log.Info().
			Str("subOrganizationId", wallet.SubOrganizationID).
			Str("address", wallet.Address).
			Msg("Created ephemeral signer wallet")
		cfg.SignerAddress = wallet.Address
	}

	payments := otimhttp.NewPaymentsClient(&otimhttp.PaymentsConfig{
		URL:    cfg.OtimBaseURL,
		APIKey: cfg.OtimAPIKey,
	})

	authorizer, err := otim.NewAuthorizer(cfg, payments, signer)
	if err != nil {
		return err
	}

	response, err := authorizer.Run(ctx)
	if err != nil {
		return err
	}

	log.Info().Str("paymentId", response.PaymentID).Str("status", response.Status).Msg("Done")
	return nil
}

func configFromEnv() (otim.Config, error) {
	cfg := otim.Config{
		OtimBaseURL:           os.Getenv("OTIM_API_URL"),
		OtimAPIKey:            os.Getenv("OTIM_API_KEY"),
		TurnkeyBaseURL:        os.Getenv("TURNKEY_API_URL"),
		TurnkeyOrganizationID: os.Getenv("TURNKEY_ORGANIZATION_ID"),
		TurnkeyAPIPublicKey:   os.Getenv("TURNKEY_API_PUBLIC_KEY"),
		TurnkeyAPIPrivateKey:  os.Getenv("TURNKEY_API_PRIVATE_KEY"),
		SignerAddress:         os.Getenv("SIGNER_ADDRESS"),
		Token:                 os.Getenv("SWEEP_TOKEN"),
		Target:                os.Getenv("SWEEP_TARGET"),
		Threshold:             os.Getenv("SWEEP_THRESHOLD"),
		EndBalance:            os.Getenv("SWEEP_END_BALANCE"),
	}

	if raw := os.Getenv("CHAIN_ID"); raw != "" {
		chainID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return otim.Config{}, err
		}
		cfg.ChainID = chainID
	}

	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Run failed")
		os.Exit(1)
	}
}
