package ratelimit

import (
	"time"
)

type KeyStrategyId string

const (
	RemoteIpKeyStrategy KeyStrategyId = "remote_ip"
)

type (
	RestHTTPConfig struct {
		Enabled             bool        `env:"ENABLED" envDefault:"true"`
		Routes              []Route     `envPrefix:"ROUTE_"`
		DefaultPolicy       DefaultRule `envPrefix:"DEFAULT_"`
		AllowIfNoMatch      bool        `env:"ALLOW_IF_NO_MATCH"`
		AllowIfNoIdentifier bool        `env:"ALLOW_IF_NO_ID"`
	}

	Route struct {
		// Pattern is compared with the ServeMux pattern, or the raw path
		// before routing, e.g. "/register".
		Pattern       string         `env:"PATTERN"`
		EndpointRules []EndpointRule `envPrefix:"POLICY_"`
	}

	// DefaultRule applies to routes without an explicit rule; it defaults to
	// 120 requests per minute per remote IP.
	DefaultRule struct {
		Method      string        `env:"METHOD"`
		Limit       int64         `env:"LIMIT" envDefault:"120"`
		Window      time.Duration `env:"WINDOW" envDefault:"1m"`
		KeyStrategy KeyStrategyId `env:"KEY_STRATEGY" envDefault:"remote_ip"`
	}

	EndpointRule struct {
		Method      string        `env:"METHOD"`
		Limit       int64         `env:"LIMIT" envDefault:"10000"`
		Window      time.Duration `env:"WINDOW"`
		KeyStrategy KeyStrategyId `env:"KEY_STRATEGY"`
	}
)
