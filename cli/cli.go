// Package cli provides the command-line interface for signing and
// verifying PDF documents.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/pdfseal/pdfseal/config"
	"github.com/pdfseal/pdfseal/engine"
)

// Version information
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// osExit is a variable for os.Exit to allow testing
var osExit = os.Exit

// Exit codes. Verification mismatch gets its own code so scripts can
// tell "invalid signature" from "could not verify".
const (
	exitOK       = 0
	exitError    = 1
	exitMismatch = 2
)

// Run executes the CLI with the given arguments.
// This is the main entry point for the CLI.
func Run(args []string) {
	if len(args) < 2 {
		Usage()
		return
	}

	command := args[1]

	switch command {
	case "keygen":
		KeygenCommand(args)
	case "export":
		ExportCommand(args)
	case "sign":
		SignCommand(args)
	case "verify":
		VerifyCommand(args)
	case "version":
		VersionCommand()
	case "help", "-h", "--help":
		Usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		Usage()
		osExit(exitError)
	}
}

// Usage prints the CLI usage information.
func Usage() {
	fmt.Printf("pdfseal - PDF signing and verification tool\n\n")
	fmt.Printf("Usage: %s <command> [options] <args>\n\n", os.Args[0])
	fmt.Println("Commands:")
	fmt.Println("  keygen   Generate a new RSA keypair and store it in the key file")
	fmt.Println("  export   Export the stored keypair as PEM")
	fmt.Println("  sign     Sign a PDF file")
	fmt.Println("  verify   Verify the signature of a PDF file")
	fmt.Println("  version  Show version information")
	fmt.Println("  help     Show this help message")
	fmt.Println("")
	fmt.Printf("Use '%s <command> -h' for command-specific help\n", os.Args[0])
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Printf("  %s keygen -key signer.key\n", os.Args[0])
	fmt.Printf("  %s sign -key signer.key -name \"John Doe\" input.pdf output.pdf\n", os.Args[0])
	fmt.Printf("  %s verify -key signer.key document.pdf\n", os.Args[0])
}

// VersionCommand prints version information.
func VersionCommand() {
	fmt.Printf("pdfseal version %s\n", Version)
	fmt.Printf("Build time: %s\n", BuildTime)
}

// loadConfig reads the configuration file when one is given, with flag
// overrides applied on top.
func loadConfig(path, keyFile, scheme string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if keyFile != "" {
		cfg.KeyFile = keyFile
	}
	if scheme != "" {
		cfg.Scheme = scheme
	}
	return cfg, cfg.Validate()
}

// newEngine builds an engine from the configuration.
func newEngine(cfg *config.Config, verbose bool) *engine.Engine {
	opts := []engine.Option{
		engine.WithScheme(cfg.Scheme),
		engine.WithStampStyle(cfg.Stamp.Style()),
	}
	if verbose {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		opts = append(opts, engine.WithLogger(log))
	}
	return engine.New(opts...)
}
