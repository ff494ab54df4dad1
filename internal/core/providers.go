package core

import "context"

// Encoder turns text into a fixed-length embedding.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Dims() int
}

// ChatProvider is the text-in/text-out language model boundary.
type ChatProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
