package ratelimit

import (
	"time"
)

type KeyStrategyId string

const (
	RemoteIpKeyStrategy KeyStrategyId = "remote_ip"
)

// RestHTTPConfig is read with the RATE_LIMIT_ prefix. Out of the box every route
// shares a 120 requests/minute budget per remote IP:
//
//	RATE_LIMIT_DEFAULT_LIMIT=120
//	RATE_LIMIT_DEFAULT_WINDOW=1m
//	RATE_LIMIT_DEFAULT_KEY_STRATEGY=remote_ip
//
// Route specific rules override the default, e.g.
//
//	RATE_LIMIT_ROUTE_0_PATTERN=/api/profile
//	RATE_LIMIT_ROUTE_0_POLICY_0_METHOD=POST
//	RATE_LIMIT_ROUTE_0_POLICY_0_LIMIT=30
//	RATE_LIMIT_ROUTE_0_POLICY_0_WINDOW=1m
//	RATE_LIMIT_ROUTE_0_POLICY_0_KEY_STRATEGY=remote_ip
type (
	RestHTTPConfig struct {
		Disabled            bool         `env:"DISABLED"`
		Routes              []Route      `envPrefix:"ROUTE_"`
		DefaultPolicy       EndpointRule `envPrefix:"DEFAULT_"`
		AllowIfNoMatch      bool         `env:"ALLOW_IF_NO_MATCH" envDefault:"true"`
		AllowIfNoIdentifier bool         `env:"ALLOW_IF_NO_ID"`
		// Only enable behind a proxy that appends the client address to X-Forwarded-For.
		TrustForwardedFor   bool         `env:"TRUST_FORWARDED_FOR"`
	}

	Route struct {
		// Path as seen in the request URL, e.g. /api/profile
		Pattern       string         `env:"PATTERN"`
		EndpointRules []EndpointRule `envPrefix:"POLICY_"`
	}

	EndpointRule struct {
		Method      string        `env:"METHOD"`
		Limit       int64         `env:"LIMIT" envDefault:"120"`
		Window      time.Duration `env:"WINDOW" envDefault:"1m"`
		KeyStrategy KeyStrategyId `env:"KEY_STRATEGY" envDefault:"remote_ip"`
	}
)
