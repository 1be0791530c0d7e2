// Command otim-sandbox serves the in-process emulator of the payments API
// and the remote signer, for running the sweep flow locally.
package main

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/otimlabs/otim-go/sandbox"
)

var addr string

var rootCmd = &cobra.Command{
	Use:   "otim-sandbox",
	Short: "Serve a local emulator of the payments API and the remote signer",
	RunE: func(_ *cobra.Command, _ []string) error {
		server, err := sandbox.New()
		if err != nil {
			return err
		}

		log.Info().
			Str("addr", addr).
			Str("signerAddress", server.SignerAddress()).
			Str("delegateAddress", server.DelegateAddress()).
			Msg("Sandbox listening")

		return http.ListenAndServe(addr, server.Handler())
	},
}

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", ":8099", "listen address")
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Sandbox failed")
		os.Exit(1)
	}
}
