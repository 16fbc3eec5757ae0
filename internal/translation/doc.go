// Package translation fills in missing English translations of conjugated
// verb forms using the OpenAI chat API. Results are cached in memory for the
// duration of a run.
package translation
