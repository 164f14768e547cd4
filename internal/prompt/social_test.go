package prompt

import (
	"strings"
	"testing"
	"text/template"

	"github.com/Conceptual-Machines/stagepost-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indieProfile() models.ArtistProfile {
	return models.ArtistProfile{
		Genre:       "indie",
		Age:         28,
		ArtistType:  models.ArtistTypeSolo,
		Instruments: []string{"guitar", "vocals"},
		Audience:    "young adults",
		Tone:        "nostalgic",
	}
}

func TestBuildArtistPrompt_ProfileSection(t *testing.T) {
	p := BuildArtistPrompt(indieProfile())

	assert.True(t, strings.HasPrefix(p, "You are an AI social media manager for a solo indie artist.\n"))
	assert.Contains(t, p, "- Genre: indie\n")
	assert.Contains(t, p, "- Age: 28\n")
	assert.Contains(t, p, "- Type: solo\n")
	assert.Contains(t, p, "- Instruments/Role: guitar, vocals\n")
	assert.Contains(t, p, "- Target Audience: young adults\n")
	assert.Contains(t, p, "- Voice Tone: nostalgic\n")
}

func TestBuildArtistPrompt_Constraints(t *testing.T) {
	p := BuildArtistPrompt(indieProfile())

	assert.Contains(t, p, "1. Stay under 280 characters")
	assert.Contains(t, p, "2. Match the nostalgic tone")
	assert.Contains(t, p, "3. Appeal to young adults")
	assert.Contains(t, p, "4. Reflect the indie music scene")
	assert.Contains(t, p, "5. Are authentic to a 28-year-old solo artist")
}

func TestBuildArtistPrompt_VariantsAndFormat(t *testing.T) {
	p := BuildArtistPrompt(indieProfile())

	assert.Contains(t, p, "- Variant 1: Wistful memory reflection")
	assert.Contains(t, p, "- Variant 2: Vintage sound exploration")
	assert.Contains(t, p, "- Variant 3: Bittersweet musical memory")
	assert.True(t, strings.HasSuffix(p, "VARIANT 1: [post content]\nVARIANT 2: [post content]\nVARIANT 3: [post content]"))
}

func TestBuildArtistPrompt_UnknownToneAndNoInstruments(t *testing.T) {
	profile := indieProfile()
	profile.Tone = "melancholic"
	profile.Instruments = nil

	p := BuildArtistPrompt(profile)

	assert.Contains(t, p, "- Instruments/Role: \n")
	assert.Contains(t, p, "- Variant 1: Detached creative observation")
	assert.Contains(t, p, "- Variant 3: Emotionally distant content")
}

func TestLoader_Prompts(t *testing.T) {
	loader := NewPromptLoader()

	assert.Equal(t, "You are a helpful assistant that can answer questions and help.", loader.GetAssistantSystemPrompt())
	assert.Contains(t, loader.GetTitleSystemPrompt(), "less than 30 characters")
	assert.Contains(t, loader.GetVariantOutputInstructions(), "280 characters")
}

func TestMustExecute(t *testing.T) {
	tmpl := template.Must(template.New("greeting").Parse("hello {{.Name}}"))
	assert.Equal(t, "hello band", mustExecute(tmpl, struct{ Name string }{"band"}))

	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.Contains(t, r, "prompt: execute greeting")
		assert.Contains(t, r, "can't evaluate field Name")
	}()
	mustExecute(tmpl, struct{ Genre string }{"indie"})
	t.Fatal("mustExecute did not panic")
}
