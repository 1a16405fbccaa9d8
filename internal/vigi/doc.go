// Package vigi is a client for the VigiAccess protocol endpoints.
//
// Three operations are exposed: SearchDrug resolves a search term to an
// encrypted drug identifier, Distribution fetches the aggregate statistics
// for a drug and DetailPage fetches one page of reaction terms inside a
// category.
//
// Every request carries a timeout and is retried with exponential backoff
// when the failure looks transient (network errors, HTTP 429 and 5xx).
// A token bucket spaces requests out, retries included. Requests can
// optionally be routed through a SOCKS5 proxy.
//
// Labels are returned exactly as the service delivers them, obfuscated.
// De-obfuscation is the job of package translit.
package vigi
