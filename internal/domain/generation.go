package domain

// Generation is a single model output.
type Generation interface {
	GenerationText() string
	GenerationKind() string
}

// Generation kind constants.
const (
	KindCompletion = "completion"
	KindChat       = "chat"
)

// Completion is a plain text generation. This is the only kind the
// semantic cache stores.
type Completion struct {
	Text string
	Info map[string]any
}

// GenerationText returns the generated text.
func (c Completion) GenerationText() string { return c.Text }

// GenerationKind returns KindCompletion.
func (c Completion) GenerationKind() string { return KindCompletion }

// ChatCompletion is a chat-style generation carrying a role.
type ChatCompletion struct {
	Role string
	Text string
	Info map[string]any
}

// GenerationText returns the generated text.
func (c ChatCompletion) GenerationText() string { return c.Text }

// GenerationKind returns KindChat.
func (c ChatCompletion) GenerationKind() string { return KindChat }
