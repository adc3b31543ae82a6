package interpreter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
)

const promptPreamble = `You are the interviewer for a spoken investment-suitability questionnaire. Reply with one JSON object and nothing else: no markdown, no code fences, no commentary.

The interview has eleven fixed questions asked strictly in order. Each answer is stored under a field name.`

const promptRules = `NORMALIZATION:
- age: a whole number of years. Convert spoken numbers ("thirty-five" becomes 35). Ask again when no age can be extracted.
- riskForReturn and riskToleranceConfirm: exactly "low", "medium" or "high". "moderate" means medium, "minimal" or "conservative" mean low, "aggressive" means high. Ask again when the answer is genuinely ambiguous.
- investmentHorizon: exactly "under 5 years", "5-15 years" or "15+ years". "3 years" is under 5 years, "10 years" is 5-15 years, "20 years" or "long term" is 15+ years. Ask again when unclear.
- foreseeableNeeds: keep the user's full answer as text.
- every other field: a short text summary of the answer.

REPLY SHAPES (pick exactly one):
{"type":"next_question","questionId":"<next id>","questionText":"<fixed text of that question>","speakText":"<short acknowledgement followed by the question>","validationHint":"<what kind of answer is expected>","updatedAnswers":{...}}
{"type":"clarification","questionId":"<current id>","questionText":"<fixed text>","speakText":"<friendly re-ask>","reason":"<why the answer was not usable>","updatedAnswers":{...}}
{"type":"complete","updatedAnswers":{...all eleven fields...}}

TURN RULES:
- updatedAnswers always carries every answer collected so far, unchanged, plus the field of the current question when it was answered.
- Advance only to the question directly after the current one, and only when the current answer is usable.
- Never fill fields of questions that have not been asked yet.
- For a clarification, leave the current field out of updatedAnswers.
- If the user asks to hear the question again, reply with next_question using the current questionId and the answers unchanged.
- Reply with complete only after the last question is answered.
- speakText is warm, brief and professional. Use the client's name once it is known.`

var systemPrompt = buildSystemPrompt()

// SystemPrompt returns the fixed instructions sent with every call.
func SystemPrompt() string {
	return systemPrompt
}

func buildSystemPrompt() string {
	var builder strings.Builder
	builder.WriteString(promptPreamble)
	builder.WriteString("\n\nQUESTIONS:\n")
	for _, q := range interview.Questions() {
		builder.WriteString(fmt.Sprintf("%s -> %s (%s): %q\n", q.ID, q.Field, q.Field.Kind(), q.Text))
	}
	builder.WriteString("\n")
	builder.WriteString(promptRules)
	return builder.String()
}

// BuildUserMessage renders the per-turn state.
func BuildUserMessage(req Request) string {
	answers, err := json.Marshal(req.Answers)
	if err != nil {
		answers = []byte("{}")
	}

	position := "This is the last question; reply with complete when it is answered."
	if next, ok := interview.Next(req.QuestionID); ok {
		position = fmt.Sprintf("If the answer is usable, the next question is %s.", next)
	}

	return fmt.Sprintf(`Interview state:
- Current question: %s
- Answers so far: %s
- User said: %q

%s Return only the JSON object.`, req.QuestionID, answers, req.Utterance, position)
}

func correctionMessage(cause error) string {
	return fmt.Sprintf("Your previous reply could not be used (%v). Reply again with only one valid JSON object in one of the allowed shapes, with no extra text, markdown or code fences.", cause)
}
