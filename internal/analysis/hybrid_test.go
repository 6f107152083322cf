package analysis

import "testing"

func TestAnalyzeSemanticWins(t *testing.T) {
	cfg := DefaultConfig()
	// Transcript mentions exercise keywords, but the semantic path already
	// scored the item above the fallback threshold.
	topics := []TopicScore{{Topic: "Physical Exercise", Confidence: 0.9}}
	transcript := "Patient goes to the gym and enjoys running."

	res := Analyze(topics, transcript, cfg)

	ir := res.Items["exercise"]
	if ir.Method != MethodSemantic {
		t.Errorf("method = %s, want semantic", ir.Method)
	}
	if ir.Points != 20 {
		t.Errorf("points = %d, want 20 (keyword hits must not stack on a semantic hit)", ir.Points)
	}
}

func TestAnalyzeKeywordFallback(t *testing.T) {
	cfg := DefaultConfig()
	// Below-threshold classification falls through to the keyword scan.
	topics := []TopicScore{{Topic: "Physical Exercise", Confidence: 0.78}}
	transcript := "Patient mentioned starting light exercise again."

	res := Analyze(topics, transcript, cfg)

	ir := res.Items["exercise"]
	if ir.Method != MethodKeyword {
		t.Errorf("method = %s, want keyword", ir.Method)
	}
	if ir.Points != 20 {
		t.Errorf("points = %d, want 20", ir.Points)
	}
}

func TestAnalyzeFallbackOnlyBelowHalfHit(t *testing.T) {
	cfg := DefaultConfig()

	// Weight 0.7 topic scores 14 points: at or above the fallback threshold
	// of 10, so the keyword path must not run for the item.
	topics := []TopicScore{{Topic: "Hopelessness", Confidence: 0.9}}
	transcript := "Feeling depressed and hopeless most days."

	res := Analyze(topics, transcript, cfg)

	ir := res.Items["depression-scale"]
	if ir.Method != MethodSemantic {
		t.Errorf("method = %s, want semantic", ir.Method)
	}
	if ir.Points != 14 {
		t.Errorf("points = %d, want 14", ir.Points)
	}
}

func TestAnalyzeMissedItemScoresZero(t *testing.T) {
	cfg := DefaultConfig()

	res := Analyze(nil, "Short visit, nothing notable.", cfg)

	ir, ok := res.Items["therapy-homework"]
	if !ok {
		t.Fatal("every defined item must appear in the result")
	}
	if ir.Points != 0 || ir.Method != MethodNone {
		t.Errorf("got points=%d method=%s, want 0/none", ir.Points, ir.Method)
	}
}

func TestAnalyzeIdempotentMethodSelection(t *testing.T) {
	cfg := DefaultConfig()
	topics := []TopicScore{
		{Topic: "Depression", Confidence: 0.92},
		{Topic: "Physical Exercise", Confidence: 0.78},
	}
	transcript := "Discussed depression scores and a new exercise plan."

	first := Analyze(topics, transcript, cfg)
	second := Analyze(topics, transcript, cfg)

	for id, ir := range first.Items {
		if second.Items[id] != ir {
			t.Errorf("item %s: first run %+v, second run %+v", id, ir, second.Items[id])
		}
	}

	if first.Items["depression-scale"].Method != MethodSemantic {
		t.Errorf("depression-scale method = %s, want semantic", first.Items["depression-scale"].Method)
	}
	if first.Items["exercise"].Method != MethodKeyword {
		t.Errorf("exercise method = %s, want keyword", first.Items["exercise"].Method)
	}
}

func TestAnalyzeDiscussed(t *testing.T) {
	cfg := DefaultConfig()
	topics := []TopicScore{
		{Topic: "Anxiety", Confidence: 0.9},
		{Topic: "Sleep Quality", Confidence: 0.88},
	}

	res := Analyze(topics, "", cfg)

	got := res.Discussed()
	want := []string{"sleep", "anxiety"} // definition order
	if len(got) != len(want) {
		t.Fatalf("Discussed() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Discussed()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
