// Package models lists the OpenAI models available for an API key, split
// into speech models for audio generation and chat models for translation.
package models
