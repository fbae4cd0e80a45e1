// Package common contains shared constants and sentinel errors used across
// the placement tracker components.
package common

// AuthorizationHeaderName carries the bearer access token on inbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the scheme prefix expected in the Authorization header.
const BearerPrefix = "Bearer "

// MinPasswordLength is the shortest password accepted on registration and
// password change.
const MinPasswordLength = 8

// MaxPasswordBytes is the longest password bcrypt hashes without truncation.
const MaxPasswordBytes = 72

// MaxDeviceInfoLength bounds the stored User-Agent string.
const MaxDeviceInfoLength = 255
