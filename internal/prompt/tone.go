package prompt

import "sort"

// VariantCount is the number of post variants requested per generation
const VariantCount = 3

// toneVariants maps a tone to the approach of variant 1, 2 and 3
var toneVariants = map[string][VariantCount]string{
	"professional":  {"Industry insight or achievement", "Behind-the-scenes content", "Gratitude or community focus"},
	"fun":           {"Relatable musician humor", "Playful observation", "Light-hearted music content"},
	"edgy":          {"Bold artistic statement", "Rebellious or authentic take", "Raw, unfiltered perspective"},
	"dramatic":      {"Intense emotional revelation", "Theatrical process reveal", "Epic artistic declaration"},
	"romantic":      {"Heartfelt love declaration", "Passionate music dedication", "Tender musical moment"},
	"whimsical":     {"Magical creative daydream", "Playful creative adventure", "Fanciful sound experiment"},
	"quirky":        {"Oddly charming observation", "Unconventional studio moment", "Endearingly weird insight"},
	"absurd":        {"Nonsensical artistic manifesto", "Surreal creative process", "Logic-defying creative statement"},
	"sarcastic":     {"Witty industry criticism", "Deadpan music commentary", "Mockingly appreciative post"},
	"poetic":        {"Lyrical artistic expression", "Metaphorical sound journey", "Eloquent artistic meditation"},
	"mysterious":    {"Cryptic creative hint", "Enigmatic project tease", "Shadowy creative revelation"},
	"inspirational": {"Motivational artistic journey", "Uplifting creative message", "Empowering artistic wisdom"},
	"nostalgic":     {"Wistful memory reflection", "Vintage sound exploration", "Bittersweet musical memory"},
	"humorous":      {"Clever music joke", "Self-deprecating music humor", "Absurd musical anecdote"},
	"casual":        {"Laid-back studio update", "Everyday creative moment", "Chill creative sharing"},
}

// defaultVariants is used for any tone not in toneVariants
var defaultVariants = [VariantCount]string{
	"Detached creative observation",
	"Indifferent artistic update",
	"Emotionally distant content",
}

// DescribeVariant returns the approach for the variant at index (0-based) under tone.
// Unknown tones use the default set; out-of-range indices are clamped.
func DescribeVariant(tone string, index int) string {
	if index < 0 {
		index = 0
	}
	if index >= VariantCount {
		index = VariantCount - 1
	}
	if phrases, ok := toneVariants[tone]; ok {
		return phrases[index]
	}
	return defaultVariants[index]
}

// KnownTones lists the tones with their own variant approaches
func KnownTones() []string {
	tones := make([]string, 0, len(toneVariants))
	for tone := range toneVariants {
		tones = append(tones, tone)
	}
	sort.Strings(tones)
	return tones
}
