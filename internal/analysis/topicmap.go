// Package analysis scores a visit transcript against the follow-up
// checklist. Two paths feed the score: semantic topic classifications from
// the language model, and a keyword scan of the raw transcript used as a
// fallback when the semantic path misses an item.
package analysis

import "sort"

// TopicMapping binds a canonical topic label to a checklist item with a
// weight multiplier applied to the per-hit point value.
type TopicMapping struct {
	ItemID string
	Weight float64
}

// ItemDef is the static definition of a checklist item: its id, the label
// shown to clinicians, and the keyword list used by the fallback scanner.
type ItemDef struct {
	ID       string
	Label    string
	Keywords []string
}

var defaultItems = []ItemDef{
	{
		ID:       "sleep",
		Label:    "Sleep",
		Keywords: []string{"sleep", "sleeping", "insomnia", "nightmares", "waking up"},
	},
	{
		ID:       "exercise",
		Label:    "Exercise",
		Keywords: []string{"exercise", "gym", "workout", "walking", "running"},
	},
	{
		ID:       "medication-adherence",
		Label:    "Medication adherence",
		Keywords: []string{"medication", "meds", "dose", "prescription", "refill"},
	},
	{
		ID:       "side-effects",
		Label:    "Medication side effects",
		Keywords: []string{"side effect", "side effects", "nausea", "drowsy", "dizziness", "weight gain"},
	},
	{
		ID:       "mood",
		Label:    "Mood",
		Keywords: []string{"mood", "irritable", "irritability", "angry"},
	},
	{
		ID:       "anxiety",
		Label:    "Anxiety",
		Keywords: []string{"anxiety", "anxious", "panic", "worry", "worried"},
	},
	{
		ID:       "depression-scale",
		Label:    "Depression screening",
		Keywords: []string{"depressed", "depression", "hopeless", "worthless", "low mood"},
	},
	{
		ID:       "suicidal-ideation",
		Label:    "Suicidal ideation",
		Keywords: []string{"suicide", "suicidal", "self-harm", "hurt myself", "end my life"},
	},
	{
		ID:       "substance-use",
		Label:    "Substance use",
		Keywords: []string{"alcohol", "drinking", "cannabis", "marijuana", "drugs"},
	},
	{
		ID:       "appetite",
		Label:    "Appetite",
		Keywords: []string{"appetite", "eating", "meals", "weight loss"},
	},
	{
		ID:       "social-support",
		Label:    "Social support",
		Keywords: []string{"family", "friends", "partner", "lonely", "isolation"},
	},
	{
		ID:       "therapy-homework",
		Label:    "Therapy homework",
		Keywords: []string{"homework", "journaling", "breathing exercises", "coping skills"},
	},
}

// defaultTopicMap maps the classifier's canonical topic labels onto checklist
// items. Several topics may feed one item; weights below 1.0 mark weaker
// signals.
var defaultTopicMap = map[string]TopicMapping{
	"Sleep Quality": {ItemID: "sleep", Weight: 1.0},
	"Insomnia":      {ItemID: "sleep", Weight: 1.0},

	"Physical Exercise": {ItemID: "exercise", Weight: 1.0},
	"Physical Activity": {ItemID: "exercise", Weight: 0.9},

	"Medication Adherence":  {ItemID: "medication-adherence", Weight: 1.0},
	"Medication Compliance": {ItemID: "medication-adherence", Weight: 1.0},

	"Medication Side Effects": {ItemID: "side-effects", Weight: 1.0},

	"Mood":        {ItemID: "mood", Weight: 1.0},
	"Mood Swings": {ItemID: "mood", Weight: 0.9},

	"Anxiety":       {ItemID: "anxiety", Weight: 1.0},
	"Panic Attacks": {ItemID: "anxiety", Weight: 0.9},

	"Depression":          {ItemID: "depression-scale", Weight: 1.0},
	"Depressive Symptoms": {ItemID: "depression-scale", Weight: 0.9},
	"Hopelessness":        {ItemID: "depression-scale", Weight: 0.7},

	"Suicidal Ideation": {ItemID: "suicidal-ideation", Weight: 1.0},
	"Self Harm":         {ItemID: "suicidal-ideation", Weight: 0.9},

	"Substance Use": {ItemID: "substance-use", Weight: 1.0},
	"Alcohol Use":   {ItemID: "substance-use", Weight: 0.9},

	"Appetite":      {ItemID: "appetite", Weight: 1.0},
	"Eating Habits": {ItemID: "appetite", Weight: 0.8},

	"Social Support": {ItemID: "social-support", Weight: 1.0},
	"Relationships":  {ItemID: "social-support", Weight: 0.8},

	"Therapy Homework": {ItemID: "therapy-homework", Weight: 1.0},
	"Coping Skills":    {ItemID: "therapy-homework", Weight: 0.8},
}

// Items returns the static checklist item definitions.
func Items() []ItemDef {
	out := make([]ItemDef, len(defaultItems))
	copy(out, defaultItems)
	return out
}

// ItemByID looks up a checklist item definition.
func ItemByID(id string) (ItemDef, bool) {
	for _, item := range defaultItems {
		if item.ID == id {
			return item, true
		}
	}
	return ItemDef{}, false
}

// TopicLabels returns the canonical topic labels the classifier is allowed
// to emit, sorted for stable prompt construction.
func TopicLabels() []string {
	labels := make([]string, 0, len(defaultTopicMap))
	for label := range defaultTopicMap {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// MappingFor returns the checklist mapping for a topic label, if any.
func MappingFor(topic string) (TopicMapping, bool) {
	m, ok := defaultTopicMap[topic]
	return m, ok
}
