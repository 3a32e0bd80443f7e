// Package server implements the HTTP surface of the file drop: bearer
// authentication, upload and delete for owners, reconciliation and
// ownership transfer for admins, and health probes. It wires the routes to
// the files service and provides lifecycle helpers used by tests and the
// production binary.
package server
