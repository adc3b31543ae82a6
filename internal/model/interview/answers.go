package interview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field is the answer key a question stores its value under.
type Field string

const (
	FieldName                 Field = "name"
	FieldAge                  Field = "age"
	FieldFamilySituation      Field = "familySituation"
	FieldWealthSource         Field = "wealthSource"
	FieldCoreValues           Field = "coreValues"
	FieldInvestmentGoal       Field = "investmentGoal"
	FieldRiskForReturn        Field = "riskForReturn"
	FieldInvestmentAmount     Field = "investmentAmount"
	FieldForeseeableNeeds     Field = "foreseeableNeeds"
	FieldInvestmentHorizon    Field = "investmentHorizon"
	FieldRiskToleranceConfirm Field = "riskToleranceConfirm"
)

// Kind is the value domain of a field.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindRisk
	KindHorizon
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindRisk:
		return "risk level"
	case KindHorizon:
		return "investment horizon"
	default:
		return "text"
	}
}

// Valid reports whether f is one of the catalog fields.
func (f Field) Valid() bool {
	_, ok := fieldIndex[f]
	return ok
}

// Kind returns the value domain of f.
func (f Field) Kind() Kind {
	switch f {
	case FieldAge:
		return KindInteger
	case FieldRiskForReturn, FieldRiskToleranceConfirm:
		return KindRisk
	case FieldInvestmentHorizon:
		return KindHorizon
	default:
		return KindText
	}
}

// RiskLevel is the three-level risk scale.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid reports whether r is in the enum domain.
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Horizon is one of the three investment horizon bands.
type Horizon string

const (
	HorizonShort  Horizon = "under 5 years"
	HorizonMedium Horizon = "5-15 years"
	HorizonLong   Horizon = "15+ years"
)

// Valid reports whether h is in the enum domain.
func (h Horizon) Valid() bool {
	return h == HorizonShort || h == HorizonMedium || h == HorizonLong
}

const (
	minAge = 0
	maxAge = 150
)

var riskSynonyms = map[string]RiskLevel{
	"low":          RiskLow,
	"minimal":      RiskLow,
	"conservative": RiskLow,
	"medium":       RiskMedium,
	"moderate":     RiskMedium,
	"high":         RiskHigh,
	"aggressive":   RiskHigh,
}

// ParseRiskLevel normalizes a risk answer, mapping the accepted synonyms onto the scale.
func ParseRiskLevel(raw string) (RiskLevel, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if level, ok := riskSynonyms[normalized]; ok {
		return level, nil
	}
	return "", fmt.Errorf("unrecognised risk level %q", raw)
}

// ParseHorizon normalizes a horizon answer onto one of the three bands.
func ParseHorizon(raw string) (Horizon, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "–", "-")
	normalized = strings.ReplaceAll(normalized, " - ", "-")
	switch Horizon(normalized) {
	case HorizonShort, HorizonMedium, HorizonLong:
		return Horizon(normalized), nil
	}
	return "", fmt.Errorf("unrecognised investment horizon %q", raw)
}

// ParseAge parses a bare integer age and checks its range.
func ParseAge(raw string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("age must be a whole number: %q", raw)
	}
	if age < minAge || age > maxAge {
		return 0, fmt.Errorf("age %d out of range %d-%d", age, minAge, maxAge)
	}
	return age, nil
}

// ValidateField checks that v is a correctly typed, in-domain value for f.
func ValidateField(f Field, v any) error {
	switch f.Kind() {
	case KindInteger:
		age, ok := v.(int)
		if !ok {
			return fmt.Errorf("%s must be an integer", f)
		}
		if age < minAge || age > maxAge {
			return fmt.Errorf("%s %d out of range %d-%d", f, age, minAge, maxAge)
		}
	case KindRisk:
		level, ok := v.(RiskLevel)
		if !ok || !level.Valid() {
			return fmt.Errorf("%s must be one of low, medium, high; got %v", f, v)
		}
	case KindHorizon:
		horizon, ok := v.(Horizon)
		if !ok || !horizon.Valid() {
			return fmt.Errorf("%s must be one of %q, %q, %q; got %v", f, HorizonShort, HorizonMedium, HorizonLong, v)
		}
	default:
		text, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s must be text", f)
		}
		if f == FieldName && strings.TrimSpace(text) == "" {
			return fmt.Errorf("%s must not be empty", f)
		}
	}
	return nil
}

// AnswerSet is the partial, field-keyed answer map carried between turns. Values are
// string for text fields, int for age, RiskLevel and Horizon for the enums.
type AnswerSet map[Field]any

// Clone returns an independent copy.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Has reports whether f has a value.
func (a AnswerSet) Has(f Field) bool {
	_, ok := a[f]
	return ok
}

// Text returns a text field.
func (a AnswerSet) Text(f Field) (string, bool) {
	v, ok := a[f].(string)
	return v, ok
}

// Age returns the age field.
func (a AnswerSet) Age() (int, bool) {
	v, ok := a[FieldAge].(int)
	return v, ok
}

// Risk returns one of the two risk-level fields.
func (a AnswerSet) Risk(f Field) (RiskLevel, bool) {
	v, ok := a[f].(RiskLevel)
	return v, ok
}

// Horizon returns the investment horizon field.
func (a AnswerSet) Horizon() (Horizon, bool) {
	v, ok := a[FieldInvestmentHorizon].(Horizon)
	return v, ok
}

// Fields lists the answered fields in catalog order.
func (a AnswerSet) Fields() []Field {
	fields := make([]Field, 0, len(a))
	for _, q := range catalog {
		if a.Has(q.Field) {
			fields = append(fields, q.Field)
		}
	}
	return fields
}

// Beyond lists answered fields whose question comes after id.
func (a AnswerSet) Beyond(id QuestionID) []Field {
	qi, ok := questionIndex[id]
	if !ok {
		return nil
	}
	var fields []Field
	for _, q := range catalog[qi+1:] {
		if a.Has(q.Field) {
			fields = append(fields, q.Field)
		}
	}
	return fields
}

// Equal reports whether both sets hold the same fields with the same values.
func (a AnswerSet) Equal(b AnswerSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		other, ok := b[k]
		if !ok || other != v {
			return false
		}
	}
	return true
}

// Complete is the single gate from a partial set to fully typed Answers. Every field
// must be present and in-domain; otherwise a *ValidationError lists what is wrong.
func (a AnswerSet) Complete() (Answers, error) {
	verr := &ValidationError{}
	for _, q := range catalog {
		v, ok := a[q.Field]
		if !ok {
			verr.Missing = append(verr.Missing, q.Field)
			continue
		}
		if err := ValidateField(q.Field, v); err != nil {
			verr.Invalid = append(verr.Invalid, FieldProblem{Field: q.Field, Reason: err.Error()})
		}
	}
	if verr.HasProblems() {
		return Answers{}, verr
	}

	age, _ := a.Age()
	risk, _ := a.Risk(FieldRiskForReturn)
	confirm, _ := a.Risk(FieldRiskToleranceConfirm)
	horizon, _ := a.Horizon()
	text := func(f Field) string {
		v, _ := a.Text(f)
		return v
	}

	return Answers{
		Name:                 text(FieldName),
		Age:                  age,
		FamilySituation:      text(FieldFamilySituation),
		WealthSource:         text(FieldWealthSource),
		CoreValues:           text(FieldCoreValues),
		InvestmentGoal:       text(FieldInvestmentGoal),
		RiskForReturn:        risk,
		InvestmentAmount:     text(FieldInvestmentAmount),
		ForeseeableNeeds:     text(FieldForeseeableNeeds),
		InvestmentHorizon:    horizon,
		RiskToleranceConfirm: confirm,
	}, nil
}

// MarshalJSON encodes a nil set as an empty object.
func (a AnswerSet) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[Field]any(a))
}

// UnmarshalJSON decodes strictly by JSON type: text fields must be strings, age an
// integral number, enums strings. Unknown keys and nulls are skipped. Domain checks are
// left to ValidateField.
func (a *AnswerSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("answers must be a JSON object: %w", err)
	}

	out := make(AnswerSet, len(raw))
	for key, msg := range raw {
		field := Field(key)
		if !field.Valid() || bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			continue
		}
		value, err := decodeField(field, msg)
		if err != nil {
			return err
		}
		out[field] = value
	}
	*a = out
	return nil
}

func decodeField(field Field, msg json.RawMessage) (any, error) {
	if field.Kind() == KindInteger {
		var num float64
		if err := json.Unmarshal(msg, &num); err != nil {
			return nil, &FieldTypeError{Field: field, Want: KindInteger}
		}
		if num != math.Trunc(num) || math.Abs(num) > math.MaxInt32 {
			return nil, &FieldTypeError{Field: field, Want: KindInteger}
		}
		return int(num), nil
	}

	var text string
	if err := json.Unmarshal(msg, &text); err != nil {
		return nil, &FieldTypeError{Field: field, Want: field.Kind()}
	}
	switch field.Kind() {
	case KindRisk:
		return RiskLevel(text), nil
	case KindHorizon:
		return Horizon(text), nil
	default:
		return text, nil
	}
}

// FieldTypeError reports a value whose JSON type does not match its field.
type FieldTypeError struct {
	Field Field
	Want  Kind
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("answer %q must be %s", e.Field, e.Want)
}

// Answers is the complete, fully typed answer record.
type Answers struct {
	Name                 string    `json:"name"`
	Age                  int       `json:"age"`
	FamilySituation      string    `json:"familySituation"`
	WealthSource         string    `json:"wealthSource"`
	CoreValues           string    `json:"coreValues"`
	InvestmentGoal       string    `json:"investmentGoal"`
	RiskForReturn        RiskLevel `json:"riskForReturn"`
	InvestmentAmount     string    `json:"investmentAmount"`
	ForeseeableNeeds     string    `json:"foreseeableNeeds"`
	InvestmentHorizon    Horizon   `json:"investmentHorizon"`
	RiskToleranceConfirm RiskLevel `json:"riskToleranceConfirm"`
}

// AnswerSet converts back to the partial representation.
func (a Answers) AnswerSet() AnswerSet {
	return AnswerSet{
		FieldName:                 a.Name,
		FieldAge:                  a.Age,
		FieldFamilySituation:      a.FamilySituation,
		FieldWealthSource:         a.WealthSource,
		FieldCoreValues:           a.CoreValues,
		FieldInvestmentGoal:       a.InvestmentGoal,
		FieldRiskForReturn:        a.RiskForReturn,
		FieldInvestmentAmount:     a.InvestmentAmount,
		FieldForeseeableNeeds:     a.ForeseeableNeeds,
		FieldInvestmentHorizon:    a.InvestmentHorizon,
		FieldRiskToleranceConfirm: a.RiskToleranceConfirm,
	}
}

// Validate re-runs the domain checks on a complete record.
func (a Answers) Validate() error {
	_, err := a.AnswerSet().Complete()
	return err
}
