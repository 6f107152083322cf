package analysis

import "testing"

func TestScoreSemantic(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name   string
		topics []TopicScore
		want   map[string]int
	}{
		{
			name:   "confident depression topic scores full weight",
			topics: []TopicScore{{Topic: "Depression", Confidence: 0.92}},
			want:   map[string]int{"depression-scale": 20},
		},
		{
			name:   "below threshold scores nothing",
			topics: []TopicScore{{Topic: "Physical Exercise", Confidence: 0.78}},
			want:   map[string]int{},
		},
		{
			name:   "exactly at threshold scores",
			topics: []TopicScore{{Topic: "Anxiety", Confidence: 0.85}},
			want:   map[string]int{"anxiety": 20},
		},
		{
			name:   "unmapped topic ignored",
			topics: []TopicScore{{Topic: "Weather", Confidence: 0.99}},
			want:   map[string]int{},
		},
		{
			name: "weight multiplier rounds",
			// Hopelessness carries weight 0.7: round(20 * 0.7) = 14
			topics: []TopicScore{{Topic: "Hopelessness", Confidence: 0.9}},
			want:   map[string]int{"depression-scale": 14},
		},
		{
			name: "multiple topics accumulate on one item",
			topics: []TopicScore{
				{Topic: "Depression", Confidence: 0.95},
				{Topic: "Depressive Symptoms", Confidence: 0.9},
				{Topic: "Hopelessness", Confidence: 0.88},
			},
			// 20 + 18 + 14
			want: map[string]int{"depression-scale": 52},
		},
		{
			name: "accumulation caps at max",
			topics: []TopicScore{
				{Topic: "Sleep Quality", Confidence: 0.9},
				{Topic: "Sleep Quality", Confidence: 0.9},
				{Topic: "Sleep Quality", Confidence: 0.9},
				{Topic: "Insomnia", Confidence: 0.9},
				{Topic: "Insomnia", Confidence: 0.9},
				{Topic: "Insomnia", Confidence: 0.9},
			},
			want: map[string]int{"sleep": 100},
		},
		{
			name: "independent items score independently",
			topics: []TopicScore{
				{Topic: "Anxiety", Confidence: 0.9},
				{Topic: "Substance Use", Confidence: 0.86},
				{Topic: "Appetite", Confidence: 0.2},
			},
			want: map[string]int{"anxiety": 20, "substance-use": 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreSemantic(tt.topics, cfg)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d scored items, want %d: %v", len(got), len(tt.want), got)
			}
			for id, pts := range tt.want {
				if got[id] != pts {
					t.Errorf("item %s: got %d points, want %d", id, got[id], pts)
				}
			}
		})
	}
}

func TestScoreSemanticCustomThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConfidenceThreshold = 0.5

	got := ScoreSemantic([]TopicScore{{Topic: "Physical Exercise", Confidence: 0.78}}, cfg)
	if got["exercise"] != 20 {
		t.Errorf("lowered threshold should admit 0.78 confidence: got %d, want 20", got["exercise"])
	}
}
