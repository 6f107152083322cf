package analysis

import "math"

// TopicScore is one topic detection from the transcript classifier.
type TopicScore struct {
	Topic      string  `json:"topic"`
	Confidence float64 `json:"confidence_score"`
}

// Method records which scoring path produced an item's points.
type Method string

const (
	MethodNone     Method = "none"
	MethodSemantic Method = "semantic"
	MethodKeyword  Method = "keyword"
)

// Config tunes the scoring engine. Zero values are invalid; use
// DefaultConfig and override from configuration.
type Config struct {
	// ConfidenceThreshold is the minimum classifier confidence for a topic
	// to score points through the semantic path.
	ConfidenceThreshold float64
	// PointsPerHit is the base point value of one detection at weight 1.0.
	PointsPerHit int
	// MaxItemPoints caps accumulated points per checklist item.
	MaxItemPoints int
}

func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.85,
		PointsPerHit:        20,
		MaxItemPoints:       100,
	}
}

// fallbackThreshold is the semantic score below which the keyword scanner
// runs for an item: half the per-hit value.
func (c Config) fallbackThreshold() int {
	return c.PointsPerHit / 2
}

// ScoreSemantic maps classified topics onto checklist item points. Topics
// below the confidence threshold or without a mapping entry score nothing.
// Each qualifying hit adds round(PointsPerHit × weight), capped at
// MaxItemPoints per item.
func ScoreSemantic(topics []TopicScore, cfg Config) map[string]int {
	points := make(map[string]int)

	for _, t := range topics {
		if t.Confidence < cfg.ConfidenceThreshold {
			continue
		}
		m, ok := MappingFor(t.Topic)
		if !ok {
			continue
		}

		award := int(math.Round(float64(cfg.PointsPerHit) * m.Weight))
		total := points[m.ItemID] + award
		if total > cfg.MaxItemPoints {
			total = cfg.MaxItemPoints
		}
		points[m.ItemID] = total
	}

	return points
}
