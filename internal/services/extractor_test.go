package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/models"
	"github.com/carematch/ai-services/internal/prompts"
)

func TestExtract_DecodesJobSchema(t *testing.T) {
	client := &fakeLLM{response: `{
		"id": 0,
		"title": "Senior Radiologist",
		"summary": "Lead our imaging department",
		"department": "Radiology",
		"location": "Munich",
		"jobType": "full-time",
		"status": "open",
		"postedAt": "2026-08-01",
		"salaryRange": {"min": 90000, "max": 120000, "currency": "EUR", "display": "90000 - 120000 EUR"},
		"responsibilities": ["Read imaging studies"],
		"qualifications": ["Board certification"],
		"perks": ["Research time"],
		"benefitsData": [1, 4],
		"specialty": "Radiology",
		"organization": "City Clinic",
		"country": "Germany",
		"isRemote": false,
		"visaSponsorship": true,
		"fullTime": true,
		"partTime": false,
		"nightShift": false
	}`}

	svc := &extractorService{client: client, cfg: testLLMConfig(), logger: zap.NewNop()}

	job, err := svc.extract(context.Background(), config.EnvProduction, "posting text")
	require.NoError(t, err)
	assert.Equal(t, "Senior Radiologist", job.Title)
	assert.Equal(t, "Radiology", job.Specialty)
	require.NotNil(t, job.SalaryRange)
	assert.Equal(t, "EUR", job.SalaryRange.Currency)
	assert.True(t, job.VisaSponsorship)
	assert.Equal(t, []int{1, 4}, job.BenefitsData)
}

func TestExtract_NullSalaryRange(t *testing.T) {
	client := &fakeLLM{response: `{"title": "Nurse", "salaryRange": null}`}
	svc := &extractorService{client: client, cfg: testLLMConfig(), logger: zap.NewNop()}

	job, err := svc.extract(context.Background(), config.EnvProduction, "posting text")
	require.NoError(t, err)
	assert.Nil(t, job.SalaryRange)
}

func TestExtract_ZeroTemperature(t *testing.T) {
	client := &fakeLLM{response: `{"title": "Nurse"}`}
	svc := &extractorService{client: client, cfg: testLLMConfig(), logger: zap.NewNop()}

	_, err := svc.extract(context.Background(), config.EnvProduction, "posting text")
	require.NoError(t, err)
	require.Len(t, client.requests, 1)
	assert.Zero(t, client.requests[0].Temperature)
}

func TestExtract_TruncatesLongContent(t *testing.T) {
	client := &fakeLLM{response: `{"title": "Nurse"}`}
	svc := &extractorService{client: client, cfg: testLLMConfig(), logger: zap.NewNop()}

	_, err := svc.extract(context.Background(), config.EnvProduction, strings.Repeat("x", 20000))
	require.NoError(t, err)
	require.Len(t, client.requests, 1)
	assert.Len(t, client.requests[0].User, maxExtractionInput)
}

func TestExtract_MissingTitle(t *testing.T) {
	client := &fakeLLM{response: `{"summary": "no title field"}`}
	svc := &extractorService{client: client, cfg: testLLMConfig(), logger: zap.NewNop()}

	_, err := svc.extract(context.Background(), config.EnvProduction, "posting text")
	assert.Error(t, err)
}

type fakeSpecialtyLister struct {
	specialties []models.MedicalSpecialty
	err         error
}

func (f *fakeSpecialtyLister) AllSpecialties(env string) ([]models.MedicalSpecialty, error) {
	return f.specialties, f.err
}

func TestExtract_ResolvesSpecialty(t *testing.T) {
	client := &fakeLLM{responses: []string{
		`{"title": "Cardiologist", "specialty": "heart doctor"}`,
		"Cardiology",
	}}
	svc := &extractorService{
		client: client,
		specialties: &fakeSpecialtyLister{specialties: []models.MedicalSpecialty{
			{IDRosetta: "R-CARD", Name: "Cardiology"},
			{IDRosetta: "R-NEUR", Name: "Neurology"},
		}},
		cfg:     testLLMConfig(),
		prompts: prompts.NewBuilder(),
		logger:  zap.NewNop(),
	}

	job, err := svc.extract(context.Background(), config.EnvProduction, "posting text")
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", job.Specialty)

	require.Len(t, client.requests, 2)
	assert.Contains(t, client.requests[1].User, "Cardiology, Neurology")
}

func TestExtract_SpecialtyNoMatchKeepsExtractedValue(t *testing.T) {
	client := &fakeLLM{responses: []string{
		`{"title": "Administrator", "specialty": "management"}`,
		"None",
	}}
	svc := &extractorService{
		client: client,
		specialties: &fakeSpecialtyLister{specialties: []models.MedicalSpecialty{
			{IDRosetta: "R-CARD", Name: "Cardiology"},
		}},
		cfg:     testLLMConfig(),
		prompts: prompts.NewBuilder(),
		logger:  zap.NewNop(),
	}

	job, err := svc.extract(context.Background(), config.EnvProduction, "posting text")
	require.NoError(t, err)
	assert.Equal(t, "management", job.Specialty)
}

func TestExtract_SpecialtyListerFailureIsNotFatal(t *testing.T) {
	client := &fakeLLM{response: `{"title": "Nurse"}`}
	svc := &extractorService{
		client:      client,
		specialties: &fakeSpecialtyLister{err: errors.New("db down")},
		cfg:         testLLMConfig(),
		prompts:     prompts.NewBuilder(),
		logger:      zap.NewNop(),
	}

	job, err := svc.extract(context.Background(), config.EnvProduction, "posting text")
	require.NoError(t, err)
	assert.Equal(t, "Nurse", job.Title)
	require.Len(t, client.requests, 1)
}
