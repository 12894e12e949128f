// Package scripts bundles Risor scripts for common rename and audit jobs.
// Each script runs against one loaded document and reads its parameters from
// the args map.
package scripts

import "embed"

// FS holds the bundled scripts, addressed as "<dir>/<name>.risor".
//
//go:embed rename/*.risor report/*.risor
var FS embed.FS
