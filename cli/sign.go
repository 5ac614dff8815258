package cli

import (
	"flag"
	"fmt"
	"os"
)

// SignOptions contains options for the sign command.
type SignOptions struct {
	Name   string
	Extra  string
	Scheme string
}

// SignCommand implements the 'sign' command.
func SignCommand(args []string) {
	signFlags := flag.NewFlagSet("sign", flag.ExitOnError)

	var (
		opts       SignOptions
		configPath string
		keyFile    string
		verbose    bool
	)

	signFlags.StringVar(&opts.Name, "name", "", "Name of the signer (required)")
	signFlags.StringVar(&opts.Extra, "extra", "", "Extra text shown in the watermark")
	signFlags.StringVar(&opts.Scheme, "scheme", "", "Signature scheme identifier (overrides config)")
	signFlags.StringVar(&configPath, "config", "", "Path to configuration file")
	signFlags.StringVar(&keyFile, "key", "", "Path of the key file (overrides config)")
	signFlags.BoolVar(&verbose, "verbose", false, "Log operation details to stderr")

	signFlags.Usage = func() {
		fmt.Printf("Usage: %s sign [options] <input.pdf> <output.pdf>\n\n", os.Args[0])
		fmt.Println("Sign a PDF file with the stored key.")
		fmt.Println("")
		fmt.Println("Arguments:")
		fmt.Println("  input.pdf   Input PDF file to sign")
		fmt.Println("  output.pdf  Output file for the signed PDF")
		fmt.Println("")
		fmt.Println("Options:")
		signFlags.PrintDefaults()
		fmt.Println("")
		fmt.Println("Examples:")
		fmt.Printf("  %s sign -key signer.key -name \"John Doe\" input.pdf output.pdf\n", os.Args[0])
		fmt.Printf("  %s sign -name \"John Doe\" -extra \"Approved\" input.pdf output.pdf\n", os.Args[0])
	}

	if err := signFlags.Parse(args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		osExit(exitError)
	}

	if len(signFlags.Args()) < 2 {
		signFlags.Usage()
		osExit(exitError)
	}

	inputPath := signFlags.Arg(0)
	outputPath := signFlags.Arg(1)

	if err := signPDF(inputPath, outputPath, configPath, keyFile, verbose, &opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		osExit(exitError)
	}

	fmt.Printf("Successfully signed PDF: %s\n", outputPath)
}

// signPDF performs the actual PDF signing.
func signPDF(inputPath, outputPath, configPath, keyFile string, verbose bool, opts *SignOptions) error {
	cfg, err := loadConfig(configPath, keyFile, opts.Scheme)
	if err != nil {
		return err
	}

	eng := newEngine(cfg, verbose)
	if err := eng.Store().LoadFromFile(cfg.KeyFile, cfg.Passphrase()); err != nil {
		return fmt.Errorf("failed to load key: %w", err)
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	signed, err := eng.SignPDF(data, opts.Name, opts.Extra)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, signed.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
