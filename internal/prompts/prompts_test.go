package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildEnrichmentPrompt(t *testing.T) {
	prompt := NewBuilder().BuildEnrichmentPrompt(`{"title": "ICU Nurse"}`)
	assert.Contains(t, prompt, `{"title": "ICU Nurse"}`)
	assert.Contains(t, prompt, "highlightedBenefits")
	assert.Contains(t, prompt, "Return valid JSON only")
}

func TestBuildFieldEnrichmentPrompt(t *testing.T) {
	prompt := NewBuilder().BuildFieldEnrichmentPrompt("summary", `{"summary": "text"}`)
	assert.Contains(t, prompt, `"summary"`)
	assert.Contains(t, prompt, `{"summary": "text"}`)
}

func TestExtractionSystem_SchemaKeys(t *testing.T) {
	for _, key := range []string{
		"salaryRange", "responsibilities", "qualifications", "benefitsData",
		"visaSponsorship", "fullTime", "partTime", "nightShift", "isRemote",
	} {
		assert.Contains(t, ExtractionSystem, key)
	}
}

func TestMatchingSystem_RubricWeights(t *testing.T) {
	assert.Contains(t, MatchingSystem, "overall_match_percentage")
	// the four main rubric dimensions must be spelled out
	for _, dim := range []string{"specialty", "experience", "qualification", "location"} {
		assert.Contains(t, strings.ToLower(MatchingSystem), dim)
	}
}

func TestBuildMatchingPrompt(t *testing.T) {
	prompt := NewBuilder().BuildMatchingPrompt("RESUME BODY", "JOB BODY")
	assert.Contains(t, prompt, "RESUME BODY")
	assert.Contains(t, prompt, "JOB BODY")
	assert.Less(t, strings.Index(prompt, "RESUME BODY"), strings.Index(prompt, "JOB BODY"))
}

func TestResumeParserSystem_OutputContract(t *testing.T) {
	for _, key := range []string{
		"detected_language", "was_translated", "profile", "experiences",
		"educations", "languages", "certifications", "awards", "publications", "scores",
	} {
		assert.Contains(t, ResumeParserSystem, key)
	}
}

func TestBuildTextParsePrompt(t *testing.T) {
	prompt := NewBuilder().BuildTextParsePrompt("resume body text")
	assert.Contains(t, prompt, "resume body text")
}

func TestBuildSpecialtyMatchPrompt(t *testing.T) {
	prompt := NewBuilder().BuildSpecialtyMatchPrompt("cardiology resume", []string{"Cardiology", "Neurology"})
	assert.Contains(t, prompt, "cardiology resume")
	assert.Contains(t, prompt, "Cardiology")
	assert.Contains(t, prompt, "Neurology")
}
