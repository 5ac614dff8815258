// Command pdfseal is a CLI tool for PDF signing and verification.
//
// Usage:
//
//	pdfseal <command> [options] <args>
//
// Commands:
//
//	keygen   Generate a new RSA keypair and store it in the key file
//	export   Export the stored keypair as PEM
//	sign     Sign a PDF file
//	verify   Verify the signature of a PDF file
//	version  Show version information
//	help     Show help message
//
// Examples:
//
//	# Generate a keypair
//	pdfseal keygen -key signer.key
//
//	# Sign a PDF
//	pdfseal sign -key signer.key -name "John Doe" input.pdf output.pdf
//
//	# Verify a PDF
//	pdfseal verify -key signer.key document.pdf
package main

import (
	"os"

	"github.com/pdfseal/pdfseal/cli"
)

// These variables are set at build time using ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/pdfseal
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cli.Version = version
	cli.BuildTime = buildTime

	cli.Run(os.Args)
}
