// Package processor turns a list of verb records into an Anki deck. For each
// record it fetches the optional image, synthesizes one audio clip per
// conjugation and maps everything onto the verb model's fields; the finished
// deck is handed to a Packager. Image fetching, speech synthesis, translation
// and packaging are collaborators behind small interfaces so that the card
// mapping can be tested without network access.
package processor
