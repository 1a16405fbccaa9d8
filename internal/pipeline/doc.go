// Package pipeline runs the steps of a report run in order.
//
// A run resolves the drug, fetches its aggregate statistics, drains every
// reaction category, computes the side distributions and finally attaches
// the unknown character ledger. Each stage is a Step that receives the
// report being built. Steps run strictly one after another; the first
// failing step aborts the run.
package pipeline
