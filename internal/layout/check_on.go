//go:build !nocheck

package layout

// Checks reports whether element bounds checks and stale-view checks are
// compiled in. Build with the nocheck tag to remove them.
const Checks = true
