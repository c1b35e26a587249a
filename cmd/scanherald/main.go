// Package main provides the entry point for the scanherald CLI.
//
// scanherald reconciles an Acunetix-compatible scanning service with an
// inbox: it finds completed scans, downloads their reports, emails them to
// the configured recipients, and remembers what it already delivered.
//
// Usage:
//
//	scanherald run -c scanherald.yaml
//	scanherald history -n 20
//
// See --help for all available options.
package main

// main is the entry point for scanherald.
func main() {
	Execute()
}
