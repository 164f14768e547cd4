package embedded

import (
	_ "embed"
)

// Embed prompt data files
//
//go:embed data/prompts/assistant_system_prompt.txt
var AssistantSystemPromptTxt []byte

//go:embed data/prompts/title_system_prompt.txt
var TitleSystemPromptTxt []byte

//go:embed data/prompts/artist_post_prompt.txt
var ArtistPostPromptTxt []byte

//go:embed data/prompts/variant_output_instructions.txt
var VariantOutputInstructionsTxt []byte
