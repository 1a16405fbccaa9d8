// Package collector turns VigiAccess records into resolved report lines.
//
// Collector drains the paginated term list of one reaction category at a
// time, translating every label as it arrives. Distribute computes the
// percentage tables for the side distributions.
package collector
