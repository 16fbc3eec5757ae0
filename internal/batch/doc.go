// Package batch reads the verb list that drives a deck build. Records come
// from a JSON array or a YAML sequence and are validated before any media
// is fetched.
package batch
