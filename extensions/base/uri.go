// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package base

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Escape percent-encodes s for use as a single path segment or query value.
// Spaces become %20 and "/" is encoded.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// escapePath is Escape with "/" left intact.
func escapePath(s string) string {
	return strings.ReplaceAll(Escape(s), "%2F", "/")
}

// BuildURI formats format with each argument escaped. Slashes inside the
// arguments are kept so nested ids address nested resources.
func BuildURI(format string, args ...any) string {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = escapePath(formatValue(a))
	}
	return fmt.Sprintf(format, escaped...)
}

// QueryParam is one key/value pair appended by BuildResourceQuery.
type QueryParam struct {
	Key   string
	Value any
}

// Param is shorthand for QueryParam{key, value}.
func Param(key string, value any) QueryParam {
	return QueryParam{Key: key, Value: value}
}

// BuildResourceQuery appends params to uri in order. Params with a nil value
// are skipped.
func BuildResourceQuery(uri string, params ...QueryParam) string {
	var parts []string
	for _, p := range params {
		if p.Value == nil {
			continue
		}
		parts = append(parts, p.Key+"="+Escape(formatValue(p.Value)))
	}
	if len(parts) == 0 {
		return uri
	}
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + strings.Join(parts, "&")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	}
	return fmt.Sprint(v)
}

// Page is a skip/take window. Paged calls use DefaultTake when Take is zero.
type Page struct {
	Skip int
	Take int
}

const DefaultTake = 100

// Params returns $skip and $take, applying DefaultTake.
func (p Page) Params() []QueryParam {
	take := p.Take
	if take <= 0 {
		take = DefaultTake
	}
	return []QueryParam{Param("$skip", p.Skip), Param("$take", take)}
}

// OptionalParams returns only the values that were set.
func (p Page) OptionalParams() []QueryParam {
	var out []QueryParam
	if p.Skip > 0 {
		out = append(out, Param("$skip", p.Skip))
	}
	if p.Take > 0 {
		out = append(out, Param("$take", p.Take))
	}
	return out
}
