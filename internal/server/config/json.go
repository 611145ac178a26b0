package config

import (
	"encoding/json"
	"os"
	"strings"
	"time"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. The token TTL is a duration string such as "10h".
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files; after unmarshalling, its fields are copied into the
// runtime Config struct.
type JsonConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	DatabaseDSN      string `json:"database_dsn"`
	EmailTokenSecret string `json:"email_token_secret"`
	EmailTokenTTL    string `json:"email_token_ttl"`
	ClientBaseURL    string `json:"client_base_url"`
	SendGridAPIKey   string `json:"sendgrid_api_key"`
	SenderAddress    string `json:"sender_address"`
	SenderName       string `json:"sender_name"`
	BcryptCost       int    `json:"bcrypt_cost"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; if
// neither is set, no JSON file is loaded. Fields absent from the file keep
// their current values. If the file cannot be read or contains invalid
// JSON (or an invalid duration), the function panics.
func parseJson(config *Config) {
	jsonConfigFile := jsonConfigPath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	applyJson(config, c)
}

func applyJson(config *Config, c *JsonConfig) {
	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.EmailTokenSecret != "" {
		config.EmailTokenSecret = c.EmailTokenSecret
	}
	if c.EmailTokenTTL != "" {
		d, err := time.ParseDuration(c.EmailTokenTTL)
		if err != nil {
			panic(err)
		}
		config.EmailTokenTTL = d
	}
	if c.ClientBaseURL != "" {
		config.ClientBaseURL = c.ClientBaseURL
	}
	if c.SendGridAPIKey != "" {
		config.SendGridAPIKey = c.SendGridAPIKey
	}
	if c.SenderAddress != "" {
		config.SenderAddress = c.SenderAddress
	}
	if c.SenderName != "" {
		config.SenderName = c.SenderName
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
}

// jsonConfigPath extracts the value of the -c/-config flag from args without
// involving the flag package, since the full command line also carries flags
// not known to this component.
func jsonConfigPath(args []string) string {
	for i := 0; i < len(args); i++ {
		name, value, hasValue := strings.Cut(args[i], "=")
		if name != "-c" && name != "-config" && name != "--config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
