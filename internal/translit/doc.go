// Package translit reverses the character obfuscation applied by VigiAccess
// to its textual labels.
//
// The service replaces ASCII letters with visually similar code points
// (Cherokee, Lisu, Roman numerals, Armenian and a few others) and sprinkles
// invisible formatting characters into the text. A Translator classifies
// every code point of its input independently:
//
//  1. space: kept
//  2. known substitution: replaced by its ASCII letter
//  3. dropped character: removed
//  4. ASCII letter: kept
//  5. anything else: removed and recorded in the Ledger
//
// The order matters. A substitution always wins over the ASCII letter check.
//
// # Usage
//
//	tr := translit.New(translit.WithLogger(logger))
//	label := tr.Translate(obfuscated)
//	...
//	for cp, diag := range tr.DrainLedger() {
//	    logger.Info("unknown character", "code_point", cp, "diagnostic", diag)
//	}
//
// A Translator is a per-run session object and is not safe for concurrent use.
package translit
