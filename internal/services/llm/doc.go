// Package llm wraps the OpenRouter chat completion API used by the
// compression service to generate social media metadata for a clip.
package llm
