// Package models holds the value types shared by the record store, the
// blob store adapters and the HTTP layer.
package models
