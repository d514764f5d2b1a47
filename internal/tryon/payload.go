package tryon

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/unicode/norm"

	"tryon/internal/domain"
)

const (
	FieldPersonImage   = "person_image"
	FieldClothingImage = "clothing_image"
)

// Payload is the input of one try-on request. Image fields hold base64 text,
// optionally prefixed with a data URL header.
type Payload struct {
	PersonImage   string `json:"person_image"`
	ClothingImage string `json:"clothing_image"`
	Prompt        string `json:"prompt,omitempty"`
}

// ParsePayload decodes a JSON request body. Unknown fields are ignored.
func ParsePayload(data []byte) (Payload, error) {
	var p Payload
	if len(strings.TrimSpace(string(data))) == 0 {
		return p, domain.ValidationError("Request body is empty")
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, &domain.Error{Kind: domain.KindValidation, Message: "Invalid JSON body", Err: err}
	}
	return p, nil
}

// MissingFields lists the required image fields that are absent or blank.
func (p Payload) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(p.PersonImage) == "" {
		missing = append(missing, FieldPersonImage)
	}
	if strings.TrimSpace(p.ClothingImage) == "" {
		missing = append(missing, FieldClothingImage)
	}
	return missing
}

// NormalizedPrompt returns the trimmed NFC form of the prompt, or def when
// the prompt is blank.
func (p Payload) NormalizedPrompt(def string) string {
	prompt := strings.TrimSpace(norm.NFC.String(p.Prompt))
	if prompt == "" {
		return def
	}
	return prompt
}

// MissingInputsMessage is the default validation message for absent fields.
func MissingInputsMessage(missing []string) string {
	if len(missing) == 1 {
		return "Missing " + missing[0] + " input"
	}
	return "Missing required inputs: person_image and clothing_image"
}

// MissingFieldsMessage is the web variant, which never names a single field.
func MissingFieldsMessage([]string) string {
	return "Missing required fields: person_image and clothing_image"
}
