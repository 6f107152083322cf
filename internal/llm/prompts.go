package llm

import (
	"fmt"
	"strings"

	"github.com/psyscribe/psyscribe/internal/analysis"
)

const soapSystemPrompt = `You are a clinical documentation assistant for outpatient psychiatry. Given a visit transcript, write a SOAP note. Return ONLY valid JSON with this schema:
{
  "subjective": string (patient-reported symptoms, history, concerns, in clinical prose),
  "objective": string (mental status examination observations evident from the transcript),
  "assessment": string (clinical impression and symptom trajectory; do not invent diagnoses not supported by the transcript),
  "plan": string (medication changes, follow-up interval, therapy tasks, safety planning)
}
Write in third person. Use only information present in the transcript and the patient context. Never fabricate vitals, scores, or medication doses. If a section has no supporting content, state "Not assessed this visit."`

func buildSOAPUserPrompt(transcript string, pc PatientContext) string {
	var b strings.Builder

	b.WriteString("Patient context:\n")
	fmt.Fprintf(&b, "Name: %s\n", pc.Name)
	if pc.Age > 0 {
		fmt.Fprintf(&b, "Age: %d\n", pc.Age)
	}
	if pc.Pronouns != "" {
		fmt.Fprintf(&b, "Pronouns: %s\n", pc.Pronouns)
	}
	if pc.PrimaryDiagnosis != "" {
		fmt.Fprintf(&b, "Primary diagnosis: %s\n", pc.PrimaryDiagnosis)
	}
	if len(pc.Medications) > 0 {
		fmt.Fprintf(&b, "Current medications: %s\n", strings.Join(pc.Medications, ", "))
	}

	b.WriteString("\nVisit transcript:\n")
	b.WriteString(transcript)

	return b.String()
}

// topicSystemPrompt constrains the classifier to the canonical topic labels
// the scoring engine knows how to map.
func topicSystemPrompt() string {
	labels := analysis.TopicLabels()
	return fmt.Sprintf(`You are a clinical topic classifier. Identify which of the following topics the visit transcript discusses. Allowed topics (use these labels exactly):
%s

Return ONLY valid JSON with this schema:
{
  "topics": [{"topic": string (one of the allowed labels), "confidence_score": number (0 to 1)}]
}
Include a topic only if the transcript contains a substantive mention, not a passing word. confidence_score reflects how certain you are that the topic was actually discussed.`,
		"- "+strings.Join(labels, "\n- "))
}

func buildTopicUserPrompt(transcript string) string {
	return "Visit transcript:\n" + transcript
}
