package config

import (
	"flag"
	"os"
	"slices"
	"strings"
	"time"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   HMAC secret for verification tokens
//	-t int      verification token validity, hours
//	-l string   client base URL for the emailed verification link
//	-k string   SendGrid API key
//	-f string   sender email address
//	-n string   sender display name
//	-w int      bcrypt work factor
//
// Notes:
//   - os.Args is first reduced to the flags recognized here, so parsing does
//     not trip over flags belonging to other consumers of the command line
//     (the -c/-config file path is read by parseJson, test binaries add
//     -test.* flags).
//   - The duration flag is accepted as an integer in hours and then
//     converted to a time.Duration.
func parseFlags(config *Config) {
	args := filterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-l", "-k", "-f", "-n", "-w"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.EmailTokenSecret, "s", config.EmailTokenSecret, "verification token secret key")

	emailTokenTTL := fs.Int("t", int(config.EmailTokenTTL.Hours()), "email_token_ttl (in hours)")

	fs.StringVar(&config.ClientBaseURL, "l", config.ClientBaseURL, "client base URL")
	fs.StringVar(&config.SendGridAPIKey, "k", config.SendGridAPIKey, "SendGrid API key")
	fs.StringVar(&config.SenderAddress, "f", config.SenderAddress, "sender email address")
	fs.StringVar(&config.SenderName, "n", config.SenderName, "sender display name")
	fs.IntVar(&config.BcryptCost, "w", config.BcryptCost, "bcrypt work factor")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.EmailTokenTTL = time.Duration(*emailTokenTTL) * time.Hour
}

// filterArgs returns only the arguments whose flag name is in known,
// keeping "-f value" pairs together and "-f=value" forms intact.
func filterArgs(args []string, known []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		name, _, hasValue := strings.Cut(args[i], "=")
		if !slices.Contains(known, name) {
			continue
		}
		out = append(out, args[i])
		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}
