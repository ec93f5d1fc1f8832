package container

import "fmt"

// Options is the server configuration. humacli maps every field to a flag
// and a SERVICE_* environment variable.
type Options struct {
	Port                 int    `default:"8888"           help:"Port to listen on"                                  short:"p"`
	BaseURL              string `help:"Prefix of short URLs (default http://localhost:<port>/)"`
	DefaultExpireMinutes int    `default:"5"              help:"Minutes a link lives when the request names none"`
	JWTSecret            string `help:"HS256 secret for access tokens, at least 32 bytes (random if empty)"`
	TokenTTLMinutes      int    `default:"1440"           help:"Access token lifetime in minutes"`
	DatabaseURL          string `help:"PostgreSQL URL, empty uses the in-memory store"                        short:"d"`
	RedisAddr            string `default:"localhost:6379" help:"Redis server address, empty disables Redis"      short:"r"`
	SweepIntervalSeconds int    `default:"60"             help:"Seconds between expiration sweeps"`
	LogFormat            string `default:"console"        help:"Log format: console or json"`
	RateLimit            bool   `default:"true"           help:"Enable per-client rate limiting"`
}

// PublicBaseURL returns BaseURL, or the localhost URL for Port when unset.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d/", o.Port)
}
