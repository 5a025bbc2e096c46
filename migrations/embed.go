// Package migrations carries the schema files applied at boot. Every file is
// written to be re-runnable, so the runner does not track applied versions.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
