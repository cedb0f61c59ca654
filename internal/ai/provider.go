package ai

// Provider is a stateless prompt-in/text-out generation backend.
type Provider interface {
	Generate(prompt string, temperature float64) (string, error)
}
