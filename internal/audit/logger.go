package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/pairing-relay-go/internal/httputil"
)

type EventType string

const (
	EventCodeGenerate       EventType = "code_generate"
	EventCodeRedeem         EventType = "code_redeem"
	EventCodeRedeemRejected EventType = "code_redeem_rejected"
	EventPremiumRedeem      EventType = "premium_redeem"
	EventPremiumRejected    EventType = "premium_redeem_rejected"
	EventRateLimitExceed    EventType = "rate_limit_exceeded"
)

type Event struct {
	Type      EventType
	UserID    string
	DeviceID  string
	IP        string
	UserAgent string
	Details   map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	child := log.With().
		Str("audit", "security").
		Str("eventType", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.UserID != "" {
		child = child.With().Str("userId", event.UserID).Logger()
	}
	if event.DeviceID != "" {
		child = child.With().Str("deviceId", event.DeviceID).Logger()
	}
	if event.IP != "" {
		child = child.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		child = child.With().Str("userAgent", event.UserAgent).Logger()
	}

	logEvent := child.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logEvent = logEvent.Str("requestId", reqID)
	}
	logEvent.Msg("security audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}

func LogFromRequest(r *http.Request, event Event) {
	event.IP = httputil.ClientIP(r)
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}
