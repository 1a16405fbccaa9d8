// Package main provides the entry point for the vigireport CLI.
//
// vigireport downloads adverse drug reaction statistics from VigiAccess,
// reverses the character obfuscation applied to every label and writes a
// readable report.
//
// Usage:
//
//	vigireport fetch
//	vigireport fetch --term aspirin --format markdown
//	vigireport history --unknown
//
// See --help for all available options.
package main

func main() {
	Execute()
}
