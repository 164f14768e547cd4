package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/stagepost-api/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetAssistantSystemPrompt loads the default instruction for plain chat turns
func (l *Loader) GetAssistantSystemPrompt() string {
	return strings.TrimSpace(string(embedded.AssistantSystemPromptTxt))
}

// GetTitleSystemPrompt loads the chat title generator instruction
func (l *Loader) GetTitleSystemPrompt() string {
	return strings.TrimSpace(string(embedded.TitleSystemPromptTxt))
}

// GetArtistPostTemplate loads the text/template source for the artist post prompt
func (l *Loader) GetArtistPostTemplate() string {
	return strings.TrimSpace(string(embedded.ArtistPostPromptTxt))
}

// GetVariantOutputInstructions loads the structured output rules appended to variant requests
func (l *Loader) GetVariantOutputInstructions() string {
	return strings.TrimSpace(string(embedded.VariantOutputInstructionsTxt))
}
