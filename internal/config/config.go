// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Options holds the configuration values for the application.
type Options struct {
	// ClassifierURL is the endpoint of the food classification API.
	ClassifierURL string

	// StoreURL is the base URL of the account & data store.
	StoreURL string

	// StoreKey is the anon API key sent with every data store request.
	StoreKey string

	// SessionFile is the path where the signed-in session is persisted.
	SessionFile string

	// PollSeconds is the recent-scans refresh interval in seconds.
	PollSeconds int

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.ClassifierURL, "api", "", "classification API URL")
	flag.StringVar(&options.StoreURL, "store", "", "account & data store base URL")
	flag.StringVar(&options.StoreKey, "key", "", "data store anon key")
	flag.StringVar(&options.SessionFile, "session", "session.json", "path to persisted session file")
	flag.IntVar(&options.PollSeconds, "poll", 10, "recent scans refresh interval, seconds")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if apiURL := os.Getenv("API_URL"); apiURL != "" {
		options.ClassifierURL = apiURL
	}
	if storeURL := os.Getenv("STORE_URL"); storeURL != "" {
		options.StoreURL = storeURL
	}
	if storeKey := os.Getenv("STORE_ANON_KEY"); storeKey != "" {
		options.StoreKey = storeKey
	}

	if options.PollSeconds <= 0 {
		options.PollSeconds = 10
	}

	return options
}
