package interview

// QuestionID identifies one of the fixed interview questions.
type QuestionID string

const (
	Q1  QuestionID = "Q1"
	Q2  QuestionID = "Q2"
	Q3  QuestionID = "Q3"
	Q4  QuestionID = "Q4"
	Q5  QuestionID = "Q5"
	Q6  QuestionID = "Q6"
	Q7  QuestionID = "Q7"
	Q8  QuestionID = "Q8"
	Q9  QuestionID = "Q9"
	Q10 QuestionID = "Q10"
	Q11 QuestionID = "Q11"
)

const (
	FirstQuestion = Q1
	LastQuestion  = Q11
)

// Question is a static catalog entry. Entries are never created or changed at runtime.
type Question struct {
	ID     QuestionID `json:"id"`
	Number int        `json:"number"`
	Label  string     `json:"label"`
	Text   string     `json:"text"`
	Field  Field      `json:"field"`
	Hint   string     `json:"hint"`
	Part   string     `json:"part"`
}

const (
	partBackground = "Part 1 — Client Background"
	partObjective  = "Part 2 — Return Objective"
	partRisk       = "Part 3 — Risk Tolerance"
)

var catalog = []Question{
	{ID: Q1, Label: "Name", Field: FieldName, Part: partBackground,
		Text: "Can you tell me your name please?",
		Hint: "Your first name, or the name you would like to be called."},
	{ID: Q2, Label: "Age", Field: FieldAge, Part: partBackground,
		Text: "What is your age?",
		Hint: "Your age in years, for example 42."},
	{ID: Q3, Label: "Family Details", Field: FieldFamilySituation, Part: partBackground,
		Text: "What is your family situation?",
		Hint: "Marital status, children or other dependants."},
	{ID: Q4, Label: "Wealth Source", Field: FieldWealthSource, Part: partBackground,
		Text: "What is your salary income, business earnings or anything relevant?",
		Hint: "Main sources of income or wealth."},
	{ID: Q5, Label: "Core Values", Field: FieldCoreValues, Part: partBackground,
		Text: "Any preferred areas of investments?",
		Hint: "Sectors, themes or values you care about."},
	{ID: Q6, Label: "Key Goals", Field: FieldInvestmentGoal, Part: partObjective,
		Text: "What is your investment goal?",
		Hint: "What you want this money to achieve."},
	{ID: Q7, Label: "Risk for Return", Field: FieldRiskForReturn, Part: partObjective,
		Text: "How much risk are you willing to take to make this return? (low/medium/high)",
		Hint: "One of low, medium or high."},
	{ID: Q8, Label: "Investment Amount", Field: FieldInvestmentAmount, Part: partObjective,
		Text: "How regularly and how much do you want to deposit? And do you want to put a lump sum up front?",
		Hint: "Deposit amount and frequency, plus any lump sum."},
	{ID: Q9, Label: "Foreseeable Needs", Field: FieldForeseeableNeeds, Part: partRisk,
		Text: "Do you have any foreseeable cash needs in the next few years?",
		Hint: "Any large expenses coming up, or no."},
	{ID: Q10, Label: "Investment Horizon", Field: FieldInvestmentHorizon, Part: partRisk,
		Text: "What is your investment horizon? (under 5 years / 5–15 years / 15+ years)",
		Hint: "One of under 5 years, 5-15 years or 15+ years."},
	{ID: Q11, Label: "Risk Tolerance Confirm", Field: FieldRiskToleranceConfirm, Part: partRisk,
		Text: "To confirm, is your risk tolerance low, medium, or high?",
		Hint: "One of low, medium or high."},
}

var (
	questionIndex = make(map[QuestionID]int, len(catalog))
	fieldIndex    = make(map[Field]int, len(catalog))
)

func init() {
	for i := range catalog {
		catalog[i].Number = i + 1
		questionIndex[catalog[i].ID] = i
		fieldIndex[catalog[i].Field] = i
	}
}

// Questions returns the catalog in interview order.
func Questions() []Question {
	return append([]Question(nil), catalog...)
}

// Lookup returns the catalog entry for id.
func Lookup(id QuestionID) (Question, bool) {
	idx, ok := questionIndex[id]
	if !ok {
		return Question{}, false
	}
	return catalog[idx], true
}

// Valid reports whether id names a catalog question.
func (id QuestionID) Valid() bool {
	_, ok := questionIndex[id]
	return ok
}

// Next returns the question after id. The second value is false for the last question
// and for unknown ids.
func Next(id QuestionID) (QuestionID, bool) {
	idx, ok := questionIndex[id]
	if !ok || idx+1 >= len(catalog) {
		return "", false
	}
	return catalog[idx+1].ID, true
}

// QuestionForField returns the question whose answer is stored under field.
func QuestionForField(field Field) (Question, bool) {
	idx, ok := fieldIndex[field]
	if !ok {
		return Question{}, false
	}
	return catalog[idx], true
}
