package cli

import (
	"flag"
	"fmt"
	"os"
)

// KeygenCommand implements the 'keygen' command.
func KeygenCommand(args []string) {
	keygenFlags := flag.NewFlagSet("keygen", flag.ExitOnError)

	var (
		configPath string
		keyFile    string
		force      bool
		verbose    bool
	)

	keygenFlags.StringVar(&configPath, "config", "", "Path to configuration file")
	keygenFlags.StringVar(&keyFile, "key", "", "Path of the key file to write (overrides config)")
	keygenFlags.BoolVar(&force, "force", false, "Overwrite an existing key file")
	keygenFlags.BoolVar(&verbose, "verbose", false, "Log operation details to stderr")

	keygenFlags.Usage = func() {
		fmt.Printf("Usage: %s keygen [options]\n\n", os.Args[0])
		fmt.Println("Generate a new RSA keypair and store it in the key file.")
		fmt.Println("")
		fmt.Println("Options:")
		keygenFlags.PrintDefaults()
	}

	if err := keygenFlags.Parse(args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		osExit(exitError)
	}

	cfg, err := loadConfig(configPath, keyFile, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		osExit(exitError)
	}

	if !force {
		if _, err := os.Stat(cfg.KeyFile); err == nil {
			fmt.Fprintf(os.Stderr, "Error: key file %s already exists (use -force to overwrite)\n", cfg.KeyFile)
			osExit(exitError)
		}
	}

	eng := newEngine(cfg, verbose)
	if _, err := eng.GenerateKeypair(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		osExit(exitError)
	}
	if err := eng.Store().SaveToFile(cfg.KeyFile, cfg.Passphrase()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		osExit(exitError)
	}

	fmt.Printf("Generated keypair: %s\n", cfg.KeyFile)
}

// ExportCommand implements the 'export' command.
func ExportCommand(args []string) {
	exportFlags := flag.NewFlagSet("export", flag.ExitOnError)

	var (
		configPath string
		keyFile    string
		public     bool
		verbose    bool
	)

	exportFlags.StringVar(&configPath, "config", "", "Path to configuration file")
	exportFlags.StringVar(&keyFile, "key", "", "Path of the key file to read (overrides config)")
	exportFlags.BoolVar(&public, "public", false, "Export only the public key")
	exportFlags.BoolVar(&verbose, "verbose", false, "Log operation details to stderr")

	exportFlags.Usage = func() {
		fmt.Printf("Usage: %s export [options]\n\n", os.Args[0])
		fmt.Println("Export the stored keypair as PEM on stdout.")
		fmt.Println("")
		fmt.Println("Options:")
		exportFlags.PrintDefaults()
	}

	if err := exportFlags.Parse(args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		osExit(exitError)
	}

	cfg, err := loadConfig(configPath, keyFile, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		osExit(exitError)
	}

	eng := newEngine(cfg, verbose)
	if err := eng.Store().LoadFromFile(cfg.KeyFile, cfg.Passphrase()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		osExit(exitError)
	}

	if public {
		pub, err := eng.GetPublicKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			osExit(exitError)
		}
		os.Stdout.Write(pub)
		return
	}

	priv, pub, err := eng.ExportKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		osExit(exitError)
	}
	os.Stdout.Write(pub)
	os.Stdout.Write(priv)
}
