package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const (
	configDirName  = ".hal"
	configFileName = "config.yml"
	notSet         = "(not set)"
)

// Config represents the CLI configuration.
type Config struct {
	Endpoint     string     `json:"endpoint,omitempty"       yaml:"endpoint,omitempty"`
	PublicKey    string     `json:"public_key,omitempty"     yaml:"public_key,omitempty"`
	PrivateKey   string     `json:"private_key,omitempty"    yaml:"private_key,omitempty"`
	Token        string     `json:"token,omitempty"          yaml:"token,omitempty"`
	TokenCommand string     `json:"token_command,omitempty"  yaml:"token_command,omitempty"`
	LastRefresh  *time.Time `json:"last_refreshed,omitempty" yaml:"last_refreshed,omitempty"`

	// Transport settings
	UserAgent       string `json:"user_agent,omitempty"       yaml:"user_agent,omitempty"`
	RequestAttempts int    `json:"request_attempts,omitempty" yaml:"request_attempts,omitempty"`

	// Global settings
	Output string `json:"output" yaml:"output"`

	Cache *hal.CacheConfig `json:"cache,omitempty" yaml:"cache,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage HAL CLI configuration including the endpoint, credentials and cache",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigClearCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := redactConfig(loadConfig())

			return renderOutput(cmd.OutOrStdout(), viper.GetString("output"), config,
				[]string{"Property", "Value"}, configRows(config))
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + strings.Join(configKeys(), ", "),
		Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			config := loadConfig()

			err := setConfigValue(config, key, value)
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if isSecretKey(key) {
				value = maskSecret(value)
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Set", key, value)
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			config := loadConfig()

			err := unsetConfigValue(config, key)
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Unset", key, "")
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear configuration",
		Long:  "Remove the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, err := configFilePath()
			if err != nil {
				return err
			}

			err = os.Remove(configFile)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to remove config file: %w", err)
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Cleared", "all configuration", "")
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Configure the endpoint and signing keys interactively",
		Long:  "Prompt for the service endpoint and key pair and save them. The private key is read without echo.",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			reader := bufio.NewReader(cmd.InOrStdin())
			out := cmd.ErrOrStderr()

			endpoint, err := prompt(reader, out, "Endpoint", config.Endpoint)
			if err != nil {
				return err
			}

			publicKey, err := prompt(reader, out, "Public key", config.PublicKey)
			if err != nil {
				return err
			}

			privateKey, err := promptSecret(reader, out, "Private key")
			if err != nil {
				return err
			}

			config.Endpoint = endpoint
			config.PublicKey = publicKey

			if privateKey != "" {
				config.PrivateKey = privateKey
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Configured", "endpoint", config.Endpoint)
		},
	}
}

func prompt(reader *bufio.Reader, out io.Writer, label, current string) (string, error) {
	if current != "" {
		_, _ = fmt.Fprintf(out, "%s [%s]: ", label, current)
	} else {
		_, _ = fmt.Fprintf(out, "%s: ", label)
	}

	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return current, nil
	}

	return line, nil
}

// promptSecret reads without echo when stdin is a terminal.
func promptSecret(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return prompt(reader, out, label, "")
	}

	_, _ = fmt.Fprintf(out, "%s: ", label)

	secret, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}

	_, _ = fmt.Fprintln(out)

	return strings.TrimSpace(string(secret)), nil
}

func loadConfig() *Config {
	config := &Config{
		Endpoint:        viper.GetString("endpoint"),
		PublicKey:       viper.GetString("public_key"),
		PrivateKey:      viper.GetString("private_key"),
		Token:           viper.GetString("token"),
		TokenCommand:    viper.GetString("token_command"),
		UserAgent:       viper.GetString("user_agent"),
		RequestAttempts: viper.GetInt("request_attempts"),
		Output:          viper.GetString("output"),
	}

	if viper.IsSet("last_refreshed") {
		refreshed := viper.GetTime("last_refreshed")
		config.LastRefresh = &refreshed
	}

	if viper.IsSet("cache.type") {
		config.Cache = &hal.CacheConfig{Type: hal.CacheType(viper.GetString("cache.type"))}

		if viper.IsSet("cache.memory.max_size") {
			config.Cache.Memory = &hal.MemoryCacheConfig{MaxSize: viper.GetInt("cache.memory.max_size")}
		}

		if viper.IsSet("cache.nats.url") {
			config.Cache.NATS = &hal.NATSKVConfig{
				URL:    viper.GetString("cache.nats.url"),
				Bucket: viper.GetString("cache.nats.bucket"),
				TTL:    viper.GetDuration("cache.nats.ttl"),
			}
		}
	}

	return config
}

func configFilePath() (string, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, configDirName, configFileName), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	return writeConfig(configFile, config)
}

func writeConfig(configFile string, config *Config) error {
	err := os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// configHandlers maps every settable key to its setter.
func configHandlers() map[string]func(*Config, string) error {
	return map[string]func(*Config, string) error{
		"endpoint":      func(c *Config, v string) error { c.Endpoint = v; return nil },
		"public_key":    func(c *Config, v string) error { c.PublicKey = v; return nil },
		"private_key":   func(c *Config, v string) error { c.PrivateKey = v; return nil },
		"token":         func(c *Config, v string) error { c.Token = v; return nil },
		"token_command": func(c *Config, v string) error { c.TokenCommand = v; return nil },
		"user_agent":    func(c *Config, v string) error { c.UserAgent = v; return nil },
		"output": func(c *Config, v string) error {
			switch v {
			case constants.FormatJSON, constants.FormatYAML, constants.FormatTable:
				c.Output = v

				return nil
			default:
				return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, v)
			}
		},
		"request_attempts": func(c *Config, v string) error {
			attempts, err := strconv.Atoi(v)
			if err != nil || attempts < 1 {
				return fmt.Errorf("%w: request_attempts must be a positive integer", hal.ErrInvalidConfig)
			}

			c.RequestAttempts = attempts

			return nil
		},
		"cache": func(c *Config, v string) error {
			cache := ensureCache(c)
			cache.Type = hal.CacheType(v)

			return cache.Validate()
		},
		"cache_size": func(c *Config, v string) error {
			size, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: cache_size must be an integer", hal.ErrInvalidConfig)
			}

			ensureCache(c).Memory = &hal.MemoryCacheConfig{MaxSize: size}

			return ensureCache(c).Validate()
		},
		"nats_url": func(c *Config, v string) error {
			ensureNATS(ensureCache(c)).URL = v

			return nil
		},
		"nats_bucket": func(c *Config, v string) error {
			ensureNATS(ensureCache(c)).Bucket = v

			return nil
		},
	}
}

func ensureCache(config *Config) *hal.CacheConfig {
	if config.Cache == nil {
		config.Cache = &hal.CacheConfig{Type: hal.CacheTypeMemory}
	}

	return config.Cache
}

func ensureNATS(cache *hal.CacheConfig) *hal.NATSKVConfig {
	if cache.NATS == nil {
		cache.NATS = &hal.NATSKVConfig{}
	}

	return cache.NATS
}

func configKeys() []string {
	handlers := configHandlers()

	keys := make([]string, 0, len(handlers))
	for key := range handlers {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func setConfigValue(config *Config, key, value string) error {
	handler, exists := configHandlers()[key]
	if !exists {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return handler(config, value)
}

func unsetConfigValue(config *Config, key string) error {
	switch key {
	case "endpoint":
		config.Endpoint = ""
	case "public_key":
		config.PublicKey = ""
	case "private_key":
		config.PrivateKey = ""
	case "token":
		config.Token = ""
		config.LastRefresh = nil
	case "token_command":
		config.TokenCommand = ""
	case "user_agent":
		config.UserAgent = ""
	case "output":
		config.Output = constants.FormatTable
	case "request_attempts":
		config.RequestAttempts = 0
	case "cache":
		config.Cache = nil
	case "cache_size":
		if config.Cache != nil {
			config.Cache.Memory = nil
		}
	case "nats_url", "nats_bucket":
		if config.Cache != nil {
			config.Cache.NATS = nil
		}
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func isSecretKey(key string) bool {
	return key == "private_key" || key == "token"
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}

	const visible = 4
	if len(value) <= visible {
		return "****"
	}

	return "****" + value[len(value)-visible:]
}

// redactConfig returns a copy of config that is safe to print.
func redactConfig(config *Config) *Config {
	redacted := *config
	redacted.PrivateKey = maskSecret(config.PrivateKey)
	redacted.Token = maskSecret(config.Token)

	return &redacted
}

func configRows(config *Config) [][]string {
	value := func(v string) string {
		if v == "" {
			return notSet
		}

		return v
	}

	rows := [][]string{
		{"Endpoint", value(config.Endpoint)},
		{"Public Key", value(config.PublicKey)},
		{"Private Key", value(config.PrivateKey)},
		{"Token", value(config.Token)},
		{"Token Command", value(config.TokenCommand)},
		{"User Agent", value(config.UserAgent)},
		{"Output", value(config.Output)},
	}

	if config.RequestAttempts > 0 {
		rows = append(rows, []string{"Request Attempts", strconv.Itoa(config.RequestAttempts)})
	}

	if config.LastRefresh != nil {
		rows = append(rows, []string{"Last Refreshed", config.LastRefresh.Format(time.RFC3339)})
	}

	if config.Cache != nil {
		rows = append(rows, []string{"Cache", string(config.Cache.Type)})

		if config.Cache.NATS != nil {
			rows = append(rows, []string{"NATS URL", config.Cache.NATS.URL})
		}
	}

	return rows
}

func outputConfigUpdateResult(out io.Writer, action, key, value string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	rows := [][]string{{"Action", action}, {"Key", key}}

	if value != "" {
		result["value"] = value
		rows = append(rows, []string{"Value", value})
	}

	return renderOutput(out, viper.GetString("output"), result, []string{"Property", "Value"}, rows)
}
