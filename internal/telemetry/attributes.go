// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the SDK.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// LIME attributes
	LimeKindKey        = "lime.kind"
	LimeIDKey          = "lime.id"
	LimeToKey          = "lime.to"
	LimeMethodKey      = "lime.command.method"
	LimeURIKey         = "lime.command.uri"
	LimeStatusKey      = "lime.command.status"
	LimeReasonCodeKey  = "lime.reason.code"
	LimeEventKey       = "lime.notification.event"
	LimeSessionKey     = "lime.session.state"
	LimeTransportKey   = "lime.transport"
	LimeCacheResultKey = "lime.cache.result"

	// Bot attributes
	BotIdentityKey = "blip.bot.identity"
	BotDomainKey   = "blip.bot.domain"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// EnvelopeAttributes describes an outbound or inbound envelope.
func EnvelopeAttributes(kind, id, to string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	attrs = append(attrs, attribute.String(LimeKindKey, kind))
	if id != "" {
		attrs = append(attrs, attribute.String(LimeIDKey, id))
	}
	if to != "" {
		attrs = append(attrs, attribute.String(LimeToKey, to))
	}
	return attrs
}

// CommandAttributes describes a command request. The query string is dropped
// from the URI so span cardinality stays bounded.
func CommandAttributes(method, uri string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(LimeMethodKey, method),
		attribute.String(LimeURIKey, routeOf(uri)),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}

func routeOf(uri string) string {
	for i := 0; i < len(uri); i++ {
		if uri[i] == '?' {
			return uri[:i]
		}
	}
	return uri
}
