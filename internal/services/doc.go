// Package services holds the shared error taxonomy for components that talk
// to external collaborators (the local engine, the backend, the LLM).
package services
