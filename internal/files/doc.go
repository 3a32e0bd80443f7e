// Package files implements the file inventory: uploads into the blob store,
// soft deletes in the record store, and the reconciliation between the two.
//
// The blob store and the record store are mutated independently and never
// inside one transaction. Writes go blob first, record second; any gap left
// behind by a failure in between is found and resolved by Audit.
package files
