package critique

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/parla/internal/model"
)

// Request is one utterance sent for assessment.
type Request struct {
	Utterance string
	Level     model.Level
	Strict    bool
}

const (
	strictPersona  = "You are a VERY STRICT English teacher. No praise. Point out every mistake."
	lenientPersona = "You are a patient, encouraging English tutor. Keep corrections short and friendly."
)

// SystemPrompt returns the assessor persona for the request.
func SystemPrompt(req Request) string {
	if req.Strict {
		return strictPersona
	}
	return lenientPersona
}

// UserPrompt asks for the labelled answer format the parser understands.
func UserPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Student level: %s\n", req.Level)
	fmt.Fprintf(&b, "User said: %q\n\n", strings.TrimSpace(req.Utterance))
	b.WriteString("Answer using exactly these labels, one per line:\n")
	b.WriteString(LabelCorrection + ": the corrected sentence\n")
	b.WriteString(LabelReply + ": a short conversational reply\n")
	b.WriteString(LabelLevel + ": the CEFR level (A1, A2, B1, B2 or C1) the sentence shows\n")
	b.WriteString(LabelMistakes + ": the mistakes, or none\n")
	b.WriteString(LabelPronunciation + ": words that are easy to mispronounce, or none\n")
	return b.String()
}
