package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Keep a global lazy-loaded instance of the configuration
var configuration *Configuration

// GetConfiguration returns a lazily-loaded configuration parsed from environment.
// It prints usage and exits when -h or --help is on the command line.
func GetConfiguration() Configuration {
	if configuration == nil {
		if helpRequested(os.Args) {
			Usage(os.Stdout)
			os.Exit(1)
		}
		conf, err := Load()
		if err != nil {
			log.Fatalf("[config] %s", err)
		}
		configuration = &conf
	}
	return *configuration
}

// Load reads an optional .env file and parses the environment.
func Load() (Configuration, error) {
	var conf Configuration

	// ignore simple "not found" errors
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return conf, fmt.Errorf("failed to load dotenv: %w", err)
	}
	if err := envconfig.Process(envprefix, &conf); err != nil {
		return conf, fmt.Errorf("failed parsing config: %w", err)
	}
	return conf, nil
}

// Usage writes the table of environment variables.
func Usage(w io.Writer) {
	tabs := tabwriter.NewWriter(w, 1, 0, 4, ' ', 0)
	_ = envconfig.Usagef(envprefix, &Configuration{}, tabs, usageHelpFormat)
	_ = tabs.Flush()
}

func helpRequested(args []string) bool {
	return len(args) >= 2 && slices.ContainsFunc(args[1:], func(arg string) bool {
		return arg == "-h" || arg == "--help"
	})
}

// see https://github.com/kelseyhightower/envconfig/blob/v1.4.0/usage.go#L31
const usageHelpFormat = `This application is configured with the following environment variables:
KEY	DESCRIPTION	DEFAULT
{{range .}}{{usage_key .}}	{{usage_description .}}	{{usage_default .}}
{{end}}`
