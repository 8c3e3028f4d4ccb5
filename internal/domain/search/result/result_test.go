package result

import "testing"

func TestNew_ClampsScores(t *testing.T) {
	r := New("doc1", -0.2, 1.4, 0.5, nil)

	if r.VectorScore() != 0 {
		t.Errorf("vector score = %v, want 0", r.VectorScore())
	}
	if r.TextScore() != 1 {
		t.Errorf("text score = %v, want 1", r.TextScore())
	}
	if r.CombinedScore() != 0.5 {
		t.Errorf("combined score = %v, want 0.5", r.CombinedScore())
	}
}

func TestAccessors(t *testing.T) {
	breakdown := map[string]float64{"title": 0.8}
	r := New("doc1", 0.7, 0.3, 0.56, breakdown)

	if r.DocumentID() != "doc1" {
		t.Errorf("id = %q", r.DocumentID())
	}
	if r.FieldScores()["title"] != 0.8 {
		t.Errorf("field scores = %v", r.FieldScores())
	}
}
