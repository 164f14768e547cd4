package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Conceptual-Machines/stagepost-api/internal/models"
)

// VariantMarker labels each variant in free-text model output ("VARIANT 1: ...")
const VariantMarker = "VARIANT"

var artistPostTemplate = template.Must(template.New("artist_post").Parse(NewPromptLoader().GetArtistPostTemplate()))

type artistPostData struct {
	Genre       string
	Age         int
	ArtistType  string
	Instruments string
	Audience    string
	Tone        string
	Variant1    string
	Variant2    string
	Variant3    string
}

// BuildArtistPrompt builds the post generation instruction for a profile.
// The output format section is what the variant parser relies on.
func BuildArtistPrompt(profile models.ArtistProfile) string {
	data := artistPostData{
		Genre:       profile.Genre,
		Age:         profile.Age,
		ArtistType:  profile.ArtistType,
		Instruments: strings.Join(profile.Instruments, ", "),
		Audience:    profile.Audience,
		Tone:        profile.Tone,
		Variant1:    DescribeVariant(profile.Tone, 0),
		Variant2:    DescribeVariant(profile.Tone, 1),
		Variant3:    DescribeVariant(profile.Tone, 2),
	}

	return mustExecute(artistPostTemplate, data)
}

// mustExecute renders t and panics if it fails, like template.Must does for parsing
func mustExecute(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		panic(fmt.Sprintf("prompt: execute %s: %v", t.Name(), err))
	}
	return buf.String()
}
