package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or fall back to defaults
// embedded in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next
	// access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer is the single-shot answer prompt. The template
	// expects two %s placeholders: the assembled context and the user
	// question.
	PromptAnswer = "answer"

	// PromptChatSystem is the system prompt for the chat TUI. No
	// placeholders.
	PromptChatSystem = "chat_system"
)
