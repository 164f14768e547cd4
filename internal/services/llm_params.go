package services

// LLMStage names the kind of model call being made
type LLMStage string

const (
	LLMStageTitle    LLMStage = "title"
	LLMStageVariants LLMStage = "variants"
	LLMStageChat     LLMStage = "chat"
)

// Reasoning effort constants
const (
	reasoningEffortMinimal = "minimal"
	reasoningEffortLow     = "low"
)

// LLMParameters are the per-stage defaults applied to a request that sets none
type LLMParameters struct {
	ReasoningEffort string // minimal, low, medium, high
}

// GetLLMParameters returns the defaults for a stage
func GetLLMParameters(stage LLMStage) LLMParameters {
	switch stage {
	case LLMStageTitle:
		// A handful of words; latency matters more than depth
		return LLMParameters{ReasoningEffort: reasoningEffortMinimal}

	case LLMStageVariants:
		// Three distinct takes on one brief benefit from a little planning
		return LLMParameters{ReasoningEffort: reasoningEffortLow}

	case LLMStageChat:
		fallthrough
	default:
		// Streamed replies: fastest time to first token
		return LLMParameters{ReasoningEffort: reasoningEffortMinimal}
	}
}
