// Package models defines the domain records of the song catalogue.
//
// The package contains:
//   - [Song] : the single persisted entity, a typed row of the canciones table
//   - [Page] : one page of a (possibly filtered) song listing with its pagination math
//
// Optional columns are pointers so that a NULL in the database stays distinguishable from an empty string.
package models
