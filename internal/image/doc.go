// Package image downloads the picture shown on the front of a card. Each verb
// record names its image URL directly; the Fetcher retrieves it with a
// timeout and a size limit and writes it into the media directory.
package image
