package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pdfseal/pdfseal/sig"
)

// VerifyOutput is the JSON-serializable verification report.
type VerifyOutput struct {
	File       string `json:"file"`
	Signed     bool   `json:"signed"`
	Message    string `json:"message"`
	SignerName string `json:"signer_name,omitempty"`
	Extra      string `json:"extra,omitempty"`
	Time       string `json:"time,omitempty"`
	Scheme     string `json:"scheme,omitempty"`
}

// VerifyCommand implements the 'verify' command.
func VerifyCommand(args []string) {
	verifyFlags := flag.NewFlagSet("verify", flag.ExitOnError)

	var (
		configPath string
		keyFile    string
		asJSON     bool
		verbose    bool
	)

	verifyFlags.StringVar(&configPath, "config", "", "Path to configuration file")
	verifyFlags.StringVar(&keyFile, "key", "", "Path of the key file (overrides config)")
	verifyFlags.BoolVar(&asJSON, "json", false, "Output results in JSON format")
	verifyFlags.BoolVar(&verbose, "verbose", false, "Log operation details to stderr")

	verifyFlags.Usage = func() {
		fmt.Printf("Usage: %s verify [options] <input.pdf>\n\n", os.Args[0])
		fmt.Println("Verify the signature of a PDF file against the stored key.")
		fmt.Println("")
		fmt.Println("Arguments:")
		fmt.Println("  input.pdf  PDF file to verify")
		fmt.Println("")
		fmt.Println("Options:")
		verifyFlags.PrintDefaults()
		fmt.Println("")
		fmt.Println("Examples:")
		fmt.Printf("  %s verify -key signer.key document.pdf\n", os.Args[0])
		fmt.Printf("  %s verify -json document.pdf\n", os.Args[0])
	}

	if err := verifyFlags.Parse(args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		osExit(exitError)
	}

	if len(verifyFlags.Args()) < 1 {
		verifyFlags.Usage()
		osExit(exitError)
	}

	inputPath := verifyFlags.Arg(0)

	result, err := verifyPDF(inputPath, configPath, keyFile, verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		osExit(exitError)
	}

	output := buildOutput(inputPath, result)
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(output)
	} else {
		printOutput(output)
	}

	// A present-but-invalid signature is a distinct reportable state.
	if !result.IsSigned && result.Message != sig.MessageNotSigned {
		osExit(exitMismatch)
	}
}

// verifyPDF performs the actual verification.
func verifyPDF(inputPath, configPath, keyFile string, verbose bool) (*sig.Result, error) {
	cfg, err := loadConfig(configPath, keyFile, "")
	if err != nil {
		return nil, err
	}

	eng := newEngine(cfg, verbose)
	if err := eng.Store().LoadFromFile(cfg.KeyFile, cfg.Passphrase()); err != nil {
		return nil, fmt.Errorf("failed to load key: %w", err)
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	return eng.VerifyPDF(data)
}

func buildOutput(path string, result *sig.Result) *VerifyOutput {
	out := &VerifyOutput{
		File:    path,
		Signed:  result.IsSigned,
		Message: result.Message,
	}
	if result.Record != nil {
		out.SignerName = result.Record.SignerName
		out.Extra = result.Record.Extra
		out.Time = result.Record.Time.UTC().Format(time.RFC3339)
		out.Scheme = result.Record.SchemeID
	}
	return out
}

func printOutput(out *VerifyOutput) {
	fmt.Printf("File:    %s\n", out.File)
	fmt.Printf("Status:  %s\n", out.Message)
	if out.SignerName != "" {
		fmt.Printf("Signer:  %s\n", out.SignerName)
	}
	if out.Time != "" {
		fmt.Printf("Signed:  %s\n", out.Time)
	}
	if out.Scheme != "" {
		fmt.Printf("Scheme:  %s\n", out.Scheme)
	}
	if out.Extra != "" {
		fmt.Printf("Extra:   %s\n", out.Extra)
	}
}
