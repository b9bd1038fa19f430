// Package auth provides Dreo access-token helpers used to log in over WebSocket.
//
// A Dreo access token may carry its home region as a suffix ("<jwt>:EU").
// The suffix selects the regional endpoint and is stripped before the token
// is sent to the server.
package auth

import (
	"strconv"
	"strings"
	"time"
)

// Regional REST endpoints. ParseTokenAndGetEndpoint returns one of these.
const (
	EUBaseURL = "https://app-api-eu.dreo-cloud.com"
	USBaseURL = "https://app-api-us.dreo-cloud.com"
)

// Region is the two-letter code substituted into regional URL templates.
type Region string

const (
	RegionEU Region = "eu"
	RegionUS Region = "us"
)

// String returns the region code.
func (r Region) String() string {
	return string(r)
}

// regionSeparator splits the token from its region suffix.
const regionSeparator = ":"

// CleanToken returns the token without its region suffix.
func CleanToken(token string) string {
	token = strings.TrimSpace(token)
	if i := strings.LastIndex(token, regionSeparator); i >= 0 {
		return token[:i]
	}
	return token
}

// TimestampAt formats t as Unix milliseconds.
func TimestampAt(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseTokenAndGetEndpoint returns the REST endpoint the token belongs to.
// Tokens without a recognised suffix belong to the US endpoint.
func ParseTokenAndGetEndpoint(token string) string {
	token = strings.TrimSpace(token)
	i := strings.LastIndex(token, regionSeparator)
	if i < 0 {
		return USBaseURL
	}

	if strings.EqualFold(token[i+1:], "EU") {
		return EUBaseURL
	}
	return USBaseURL
}

// RegionFor maps a token to its region code.
func RegionFor(token string) Region {
	if ParseTokenAndGetEndpoint(token) == EUBaseURL {
		return RegionEU
	}
	return RegionUS
}
