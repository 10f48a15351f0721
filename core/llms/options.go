package llms

type StructuredPromptOptions struct {
	// Instructions is the system prompt sent ahead of the user prompt.
	Instructions string
	// Temperature overrides the provider default when non-nil.
	Temperature *float64
}

type StructuredPromptOption func(*StructuredPromptOptions)

func WithInstructions(instructions string) StructuredPromptOption {
	return func(o *StructuredPromptOptions) { o.Instructions = instructions }
}

func WithTemperature(temperature float64) StructuredPromptOption {
	return func(o *StructuredPromptOptions) { o.Temperature = &temperature }
}
