package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/models"
	"github.com/carematch/ai-services/internal/prompts"
)

func strPtr(s string) *string { return &s }

func TestScoreMatch(t *testing.T) {
	client := &fakeLLM{response: `{
		"overall_match_percentage": 85,
		"specialty_match": {"score": 38, "notes": "strong overlap"},
		"recommendation": "strong fit"
	}`}
	svc := &matcherService{
		client:  client,
		cfg:     testLLMConfig(),
		prompts: prompts.NewBuilder(),
		logger:  zap.NewNop(),
	}

	score, details, err := svc.scoreMatch(context.Background(), "resume text", "job description")
	require.NoError(t, err)
	assert.InDelta(t, 0.85, score, 0.001)

	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal(details, &stored))
	assert.Equal(t, "fit", stored["type_of_match"])
	assert.Equal(t, "strong fit", stored["recommendation"])

	require.Len(t, client.requests, 1)
	assert.InDelta(t, 0.1, client.requests[0].Temperature, 0.001)
	assert.Equal(t, int32(4096), client.requests[0].MaxTokens)
}

func TestScoreMatch_QuotedPercentage(t *testing.T) {
	client := &fakeLLM{response: `{"overall_match_percentage": "72.5%"}`}
	svc := &matcherService{
		client:  client,
		cfg:     testLLMConfig(),
		prompts: prompts.NewBuilder(),
		logger:  zap.NewNop(),
	}

	score, _, err := svc.scoreMatch(context.Background(), "resume", "job")
	require.NoError(t, err)
	assert.InDelta(t, 0.725, score, 0.001)
}

func TestScoreMatch_MissingPercentage(t *testing.T) {
	client := &fakeLLM{response: `{"recommendation": "unclear"}`}
	svc := &matcherService{
		client:  client,
		cfg:     testLLMConfig(),
		prompts: prompts.NewBuilder(),
		logger:  zap.NewNop(),
	}

	_, _, err := svc.scoreMatch(context.Background(), "resume", "job")
	assert.Error(t, err)
}

func TestRenderProfileResume(t *testing.T) {
	start := time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC)
	endYear := 2016

	data := &models.ProfileData{
		Profile: models.UserProfile{
			UserID:    uuid.New(),
			FirstName: "Ana",
			LastName:  "Silva",
			Email:     strPtr("ana@example.com"),
			City:      strPtr("Lisbon"),
			Country:   strPtr("Portugal"),
			Position:  strPtr("Staff Nurse"),
		},
		Specialties: []models.MedicalSpecialty{
			{IDRosetta: "2212.1", Name: "Intensive Care"},
		},
		Experience: []models.UserExperience{
			{
				Position:     strPtr("ICU Nurse"),
				Organization: strPtr("Hospital de Santa Maria"),
				StartDate:    &start,
			},
		},
		Education: []models.UserEducation{
			{Degree: strPtr("BSc Nursing"), Organization: strPtr("University of Lisbon"), EndYear: &endYear},
		},
		Languages: []models.UserLanguage{
			{Language: strPtr("Portuguese"), Proficiency: strPtr("native")},
		},
	}

	resume, err := RenderProfileResume(data)
	require.NoError(t, err)

	assert.Contains(t, resume, "=== PERSONAL INFORMATION ===")
	assert.Contains(t, resume, "Name: Ana Silva")
	assert.Contains(t, resume, "Location: Lisbon, Portugal")
	assert.Contains(t, resume, "=== MEDICAL SPECIALTIES ===")
	assert.Contains(t, resume, "Intensive Care")
	assert.Contains(t, resume, "=== WORK EXPERIENCE ===")
	assert.Contains(t, resume, "ICU Nurse at Hospital de Santa Maria (2018-03 - present)")
	assert.Contains(t, resume, "=== EDUCATION ===")
	assert.Contains(t, resume, "=== LANGUAGES ===")
	assert.Contains(t, resume, "=== STRUCTURED DATA (JSON) ===")
	assert.Contains(t, resume, `"first_name": "Ana"`)
}

func TestRenderProfileResume_SkipsEmptySections(t *testing.T) {
	data := &models.ProfileData{
		Profile: models.UserProfile{FirstName: "Bo", LastName: "Chen"},
	}

	resume, err := RenderProfileResume(data)
	require.NoError(t, err)
	assert.Contains(t, resume, "Name: Bo Chen")
	assert.NotContains(t, resume, "=== WORK EXPERIENCE ===")
	assert.NotContains(t, resume, "=== CERTIFICATIONS ===")
}

func TestRenderJobDescription(t *testing.T) {
	dept := "Cardiology"
	country := "Austria"
	remote := "true"
	years := 5
	minSalary := 70000.0

	job := &models.Job{
		ID:                      42,
		Title:                   "Cardiologist",
		Description:             "Full job text here",
		Organization:            "Vienna General",
		Department:              &dept,
		Country:                 &country,
		IsRemote:                &remote,
		PreviousExperienceYears: &years,
		MinYearlySalary:         &minSalary,
	}

	text := RenderJobDescription(job)
	assert.Contains(t, text, "Job Title: Cardiologist")
	assert.Contains(t, text, "Organization: Vienna General")
	assert.Contains(t, text, "Department: Cardiology")
	assert.Contains(t, text, "Remote: yes")
	assert.Contains(t, text, "Required Experience: 5 years")
	assert.Contains(t, text, "Full job text here")
}
