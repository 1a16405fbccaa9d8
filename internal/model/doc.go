// Package model defines the data structures shared by the VigiAccess
// client, the collector, the report writers and the history database.
//
// The types split into two groups:
//   - Records as delivered by the service: Category, Detail, Record, Summary.
//     Their descriptions are still obfuscated.
//   - The resolved Report: Line, Distribution and UnknownChar, all of
//     which hold de-obfuscated text and serialize to JSON.
package model
