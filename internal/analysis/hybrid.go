package analysis

// ItemResult is the outcome of one analysis run for one checklist item.
type ItemResult struct {
	ItemID string
	Label  string
	Points int
	Method Method
}

// Result holds per-item outcomes for a full analysis run, keyed by item id.
// Every defined checklist item appears, including zero-point misses.
type Result struct {
	Items map[string]ItemResult
}

// Analyze runs the hybrid scoring pass: the semantic path first, then the
// keyword fallback for items whose semantic score stayed below half the
// per-hit value. Semantic results above that threshold are never touched by
// the fallback, so re-running analysis selects the same method per item.
func Analyze(topics []TopicScore, transcript string, cfg Config) Result {
	semantic := ScoreSemantic(topics, cfg)

	result := Result{Items: make(map[string]ItemResult, len(defaultItems))}
	for _, item := range defaultItems {
		sem := semantic[item.ID]

		ir := ItemResult{ItemID: item.ID, Label: item.Label, Points: sem, Method: MethodNone}
		if sem > 0 {
			ir.Method = MethodSemantic
		}

		if sem < cfg.fallbackThreshold() {
			if kw := scoreKeywordsForItem(transcript, item.ID, cfg); kw > 0 {
				total := sem + kw
				if total > cfg.MaxItemPoints {
					total = cfg.MaxItemPoints
				}
				ir.Points = total
				ir.Method = MethodKeyword
			}
		}

		result.Items[item.ID] = ir
	}

	return result
}

// Discussed returns the ids of items that scored any points, in definition order.
func (r Result) Discussed() []string {
	ids := make([]string, 0, len(r.Items))
	for _, item := range defaultItems {
		if ir, ok := r.Items[item.ID]; ok && ir.Points > 0 {
			ids = append(ids, item.ID)
		}
	}
	return ids
}
