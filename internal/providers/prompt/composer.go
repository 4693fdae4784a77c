package prompt

import (
	"fmt"
	"strings"

	"outfitgen/internal/domain"
)

// Outfit description bounds requested from the text model.
const (
	DescriptionMinWords = 20
	DescriptionMaxWords = 30
)

// OutfitPrompt builds the instruction sent to the text model. Attribute values
// are interpolated as given.
func OutfitPrompt(req domain.StyleRequest) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Create a stylish outfit described in %d to %d words, naming the top, the bottoms and the footwear. ", DescriptionMinWords, DescriptionMaxWords)
	fmt.Fprintf(sb, "Base it on this style idea: %s. ", req.StyleIdea)
	fmt.Fprintf(sb, "It is for a %s person of %s ethnicity, %s years old, with %s complexion. ", req.Gender, req.Ethnicity, req.Age, req.SkinColor)
	fmt.Fprintf(sb, "It will be worn in %s for %s, with %s accessories and matching footwear. ", req.Season, req.Occasion, req.Accessories)
	sb.WriteString("Reply with the outfit description only.")
	return sb.String()
}

// ImagePrompt builds the text-to-image prompt from the generated outfit
// description and the model's appearance.
func ImagePrompt(req domain.StyleRequest, description string) string {
	lines := []string{
		fmt.Sprintf("A %s model, %s years old, of %s ethnicity with %s complexion.", req.Gender, req.Age, req.Ethnicity, req.SkinColor),
		fmt.Sprintf("Wearing %s.", strings.TrimRight(strings.TrimSpace(description), ".")),
		fmt.Sprintf("Styled for %s in %s with %s accessories, inspired by %s.", req.Occasion, req.Season, req.Accessories, req.StyleIdea),
		"Full body shot, head to toe in frame, model looking straight into the camera.",
		"Perfect studio-grade lighting, sharp focus, photorealistic.",
		"Background complements the outfit and enhances both the outfit and the model.",
	}
	return strings.Join(lines, "\n")
}
