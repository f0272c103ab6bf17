package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ErrConfig is returned when the IMAP settings are missing or invalid.
var ErrConfig = errors.New("invalid configuration")

type Config struct {
	Environment  string
	IMAPHost     string
	IMAPPort     string
	IMAPUser     string
	IMAPPassword string
	IMAPMailbox  string
	IMAPUseTLS   bool
}

func NewConfig() (*Config, error) {
	env := os.Getenv("MAYRIST_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using environment variables")
		}
	}

	useTLS, err := strconv.ParseBool(getEnvOrDefault("IMAP_TLS", "true"))
	if err != nil {
		return nil, fmt.Errorf("%w: IMAP_TLS must be a boolean", ErrConfig)
	}

	config := &Config{
		Environment:  env,
		IMAPHost:     os.Getenv("IMAP_HOST"),
		IMAPPort:     getEnvOrDefault("IMAP_PORT", "993"),
		IMAPUser:     os.Getenv("IMAP_USER"),
		IMAPPassword: os.Getenv("IMAP_PASSWORD"),
		IMAPMailbox:  getEnvOrDefault("IMAP_MAILBOX", "INBOX"),
		IMAPUseTLS:   useTLS,
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.IMAPHost == "" {
		return fmt.Errorf("%w: IMAP_HOST is required", ErrConfig)
	}

	if c.IMAPUser == "" {
		return fmt.Errorf("%w: IMAP_USER is required", ErrConfig)
	}

	if c.IMAPPassword == "" {
		return fmt.Errorf("%w: IMAP_PASSWORD is required", ErrConfig)
	}

	if port, err := strconv.Atoi(c.IMAPPort); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: IMAP_PORT is not a valid port number", ErrConfig)
	}

	return nil
}

// Address returns the host:port to dial.
func (c *Config) Address() string {
	return net.JoinHostPort(c.IMAPHost, c.IMAPPort)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
