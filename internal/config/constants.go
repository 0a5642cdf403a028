package config

import "spcpulse/pkg/contracts"

// Application constants
const (
	AppName    = "spc-pulse"
	AppVersion = contracts.Version

	DefaultRateLimit    = 100 // requests per second
	DefaultBurstSize    = 50
	DefaultMaxBodyBytes = 10 << 20
	DefaultLogFile      = "logs/spc.log"
)
