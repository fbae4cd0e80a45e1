// Package cli implements trackerctl, the operator command line for the
// placement tracker. It talks to the configured storage directly and never
// goes through the HTTP API.
//
// Commands:
//
//	create-user -email E -username U [-staff] [-first-name F] [-last-name L]
//	import-users -file legacy.json [-dry-run]
package cli
