package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 30 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database and redis ping timeout at startup
const PingTimeout = 5 * time.Second

// Background sweep pass deadline
const SweepPassTimeout = 10 * time.Second

// Rate limiting window for the public pairing API
const RateLimitWindow = time.Minute

// Maximum attempts to draw an unused pairing code
const MaxCodeAttempts = 10

// WebSocket push channel
const (
	WSWriteWait        = 10 * time.Second
	WSPongWait         = 60 * time.Second
	WSPingPeriod       = (WSPongWait * 9) / 10
	WSMaxMessageSize   = 4 << 10
	WSMaxSubscriptions = 16
	WSSendBuffer       = 16
)

// SSE heartbeat comment interval
const SSEHeartbeatInterval = 30 * time.Second
