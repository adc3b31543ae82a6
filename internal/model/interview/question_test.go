package interview

import "testing"

func TestCatalogOrder(t *testing.T) {
	questions := Questions()
	if len(questions) != 11 {
		t.Fatalf("expected 11 questions, got %d", len(questions))
	}
	for i, q := range questions {
		if q.Number != i+1 {
			t.Fatalf("question %s has number %d, want %d", q.ID, q.Number, i+1)
		}
		if q.Text == "" || q.Label == "" || q.Hint == "" || q.Part == "" {
			t.Fatalf("question %s has empty catalog text", q.ID)
		}
	}
	if questions[0].ID != FirstQuestion || questions[10].ID != LastQuestion {
		t.Fatalf("unexpected catalog bounds %s..%s", questions[0].ID, questions[10].ID)
	}
}

func TestNext(t *testing.T) {
	if next, ok := Next(Q9); !ok || next != Q10 {
		t.Fatalf("Next(Q9) = %s, %v", next, ok)
	}
	if _, ok := Next(Q11); ok {
		t.Fatal("Q11 should have no successor")
	}
	if _, ok := Next("Q12"); ok {
		t.Fatal("unknown id should have no successor")
	}
}

func TestQuestionForField(t *testing.T) {
	q, ok := QuestionForField(FieldForeseeableNeeds)
	if !ok || q.ID != Q9 {
		t.Fatalf("expected Q9 for foreseeableNeeds, got %s", q.ID)
	}
	if _, ok := QuestionForField("shoeSize"); ok {
		t.Fatal("unexpected question for unknown field")
	}
}

func TestQuestionsReturnsCopy(t *testing.T) {
	questions := Questions()
	questions[0].Text = "changed"
	if q, _ := Lookup(Q1); q.Text == "changed" {
		t.Fatal("catalog mutated through Questions()")
	}
}
