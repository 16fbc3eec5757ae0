// Package archive moves a generated directory aside into a timestamped
// sibling archive folder instead of deleting it.
package archive
