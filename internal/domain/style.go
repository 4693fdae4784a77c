package domain

import (
	"fmt"
	"strings"
)

// StyleRequest carries the attributes a caller wants the outfit tailored to.
// Every field is required free text.
type StyleRequest struct {
	StyleIdea   string `json:"style_idea"`
	Gender      string `json:"gender"`
	Ethnicity   string `json:"ethnicity"`
	Age         string `json:"age"`
	SkinColor   string `json:"skin_color"`
	Season      string `json:"season"`
	Accessories string `json:"accessories"`
	Occasion    string `json:"occasion"`
}

// OutfitResult is returned once both the description and the image exist.
type OutfitResult struct {
	OutfitDescription string `json:"outfit_description"`
	ImageURL          string `json:"image_url"`
}

// Validate reports every blank field by its JSON name.
func (r StyleRequest) Validate() error {
	var missing []string
	for _, f := range r.fields() {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

// Values returns the attribute values in declaration order.
func (r StyleRequest) Values() []string {
	fields := r.fields()
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.value)
	}
	return out
}

type styleField struct {
	name  string
	value string
}

func (r StyleRequest) fields() []styleField {
	return []styleField{
		{"style_idea", r.StyleIdea},
		{"gender", r.Gender},
		{"ethnicity", r.Ethnicity},
		{"age", r.Age},
		{"skin_color", r.SkinColor},
		{"season", r.Season},
		{"accessories", r.Accessories},
		{"occasion", r.Occasion},
	}
}
