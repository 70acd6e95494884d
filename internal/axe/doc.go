// Package axe runs the axe-core accessibility engine inside a browser page.
//
// The engine does not implement any rule itself. It injects the axe-core
// library into the page, calls axe.run restricted to the requested WCAG tags
// and hands the raw result to the scanner for normalization.
//
// Design decision: the axe-core script is not bundled in the binary. It is
// read from a configured file, from the XDG cache directory, or downloaded
// once from the CDN and cached. Pinning the version keeps rule results
// reproducible between machines.
package axe
