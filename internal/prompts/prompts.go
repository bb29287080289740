package prompts

import (
	"fmt"
	"strings"
)

type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// EnrichmentSystem primes the model for marketing rewrites of job listings.
const EnrichmentSystem = `You enrich and market-optimize healthcare job listings.`

// BuildEnrichmentPrompt wraps raw job JSON in the marketing rewrite
// instructions. The model must echo every input key back.
func (b *Builder) BuildEnrichmentPrompt(jobJSON string) string {
	return fmt.Sprintf(`
You are a marketing copywriter for a healthcare company.
Take the following raw job data JSON and return a single JSON object with exactly the same keys, but:
- Rewrite "title" to be more engaging.
- Expand "summary" into a 2-3 sentence hook highlighting team culture, growth paths, and location perks.
- For "responsibilities" and "qualifications", rewrite each bullet into action-oriented, benefit-driven bullets.
- Under "perks", add at least five high-impact perks (e.g. "Wellness stipend", "Professional development budget", etc.).
- Under "benefitsData", add relevant benefit IDs based on jobBenefits mapping (e.g. [1,4,7]).
- Add a new field "highlightedBenefits" as an array of 3 strings calling out the top perks.

Return valid JSON only.

Raw job JSON:
%s
`, jobJSON)
}

// BuildFieldEnrichmentPrompt asks for a rewrite of a single field. The
// surrounding job data is passed along so the model keeps the copy
// consistent with the rest of the posting.
func (b *Builder) BuildFieldEnrichmentPrompt(field, jobJSON string) string {
	return fmt.Sprintf(`
You are a marketing copywriter for a healthcare company.
Take the following job data JSON and rewrite only the %q field to be more engaging and benefit-driven, keeping every fact intact.
The other fields are context; do not change their meaning.

Return a single valid JSON object with the key %q whose value is the rewritten text as a string.

Job data JSON:
%s
`, field, field, jobJSON)
}

// ExtractionSystem instructs the model to turn job posting HTML or plaintext
// into the structured job schema.
// SpecialtyMatchSystem frames the rosetta specialty lookup that runs
// after a posting has been extracted.
const SpecialtyMatchSystem = `You match job postings to a fixed list of medical specialties.`

const ExtractionSystem = `
You are a data-extraction assistant. I will give you the HTML (or plaintext) of a job posting.
Please parse it and return a single JSON object matching exactly this structure:

{
  "id": number,
  "title": string,
  "summary": string,
  "department": string,
  "location": string,
  "jobType": string,
  "status": string,
  "postedAt": string,        // YYYY-MM-DD
  "salaryRange": {
    "min": number,
    "max": number,
    "currency": string,
    "display": string
  } | null,                // null if not listed
  "responsibilities": string[],
  "qualifications": string[],
  "perks": string[],
  "benefitsData": number[],
  "specialty": string,
  "organization": string,
  "country": string,
  "isRemote": boolean,
  "visaSponsorship": boolean,
  "fullTime": boolean,
  "partTime": boolean,
  "nightShift": boolean
}

Follow these rules:
1. If the salary range is not provided, use null
2. For dates, use the YYYY-MM-DD format
3. For boolean fields, determine their value based on the job description
4. If any field is not explicitly mentioned, make a reasonable inference based on the context
5. Return only the JSON object, with no additional text
`

// MatchingSystem is the healthcare recruiter rubric. Scores are weighted:
// specialty 40%, experience 30%, skills 15%, education 10%, certifications 5%.
const MatchingSystem = `
You are an expert in analyzing and comparing resumes with job descriptions from a healthcare recruiter's perspective. Follow these strict rules for consistency:

1. **Output Format**: Always return a JSON object in the exact structure provided below. Do not include any text outside of this JSON structure.

{
    "education_match": {
        "matching_education": true/false,
        "education_gaps": ["List missing qualifications, if any"],
        "score_percentage": "XX"
    },
    "specialty_match": {
        "matching_specialty": true/false,
        "specialty_mismatch": ["List mismatched specialties, if any"],
        "score_percentage": "XX"
    },
    "experience_match": {
        "years_of_experience_match": true/false,
        "nature_of_experience_match": true/false,
        "score_percentage": "XX"
    },
    "skills_responsibilities_match": {
        "matching_skills_responsibilities": ["List matched skills, if any"],
        "missing_skills_responsibilities": ["List missing skills, if any"],
        "score_percentage": "XX"
    },
    "certifications_match": {
        "meets_requirements": true/false,
        "missing_certifications": ["List missing certifications, if any"],
        "score_percentage": "XX"
    },
    "overall_match_percentage": "XX"
}

2. **Scoring System**:
Use this weighted scoring system to calculate the "overall_match_percentage":
- Specialty Match: 40%
- Experience Match: 30%
- Skills and Responsibilities Match: 15%
- Education Match: 10%
- Certifications Match: 5%
The "overall_match_percentage" should return a number between 0 and 100.

3. **Evaluation Rules**:
- **Specialty Match**:
    - Mark "matching_specialty": true only if all primary specialties and subspecialties listed in the job post are explicitly mentioned or strongly implied in the resume.
    - Include subspecialty-related tasks or expertise as evidence for matches.
    - Use "specialty_mismatch" to highlight any specific specialty or subspecialty missing from the resume.

- **Experience Match**:
    - "years_of_experience_match": true if the resume meets or exceeds the required years of experience specified in the job post.
    - "nature_of_experience_match": true if the candidate's past roles, responsibilities, or achievements align with the job's expected nature of work.

- **Skills and Responsibilities Match**:
    - Include transferable skills and responsibilities implied by specialties or roles.
    - Do not mark responsibilities as "missing" if they are indirectly covered by the candidate's past roles or expertise.
    - Default to empty lists for "matching_skills_responsibilities" and "missing_skills_responsibilities" if no explicit match or gap exists.

- **Education Match**:
    - Mark "matching_education": true only if all required degrees or certifications are explicitly listed in the resume.
    - Use "education_gaps" to identify any specific qualification or certification missing.
    - Assume default values (e.g., no missing gaps) if the job post does not list specific qualifications.

- **Certifications Match**:
    - Mark "meets_requirements": true only if the candidate has all certifications explicitly listed as requirements.
    - Include missing certifications under "missing_certifications".
    - If no certifications are listed in the job post, assume a match.

4. **Validation and Consistency**:
- Ensure deterministic outputs by strictly following scoring weights and exact evaluation rules.
- For missing or unclear details, assume no match to avoid overestimation.
- Use consistent phrasing for matched and unmatched items to prevent ambiguity.

5. **General Rules**:
- Adhere strictly to the provided scoring and evaluation rules.
- Avoid inconsistencies or subjective interpretations. If something is unclear, assume it does not match.
- Default missing elements (e.g., "education_gaps": []) to empty arrays for clarity.

Strictly follow these rules, and return only JSON-formatted results. No explanatory text. Always calculate and return the exact match percentage based on the scoring system provided.
`

func (b *Builder) BuildMatchingPrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf(`
Compare the following resume with the job post according to the rules provided. Always adhere to the exact scoring methodology and format described above.

Resume:
%s

Job Post:
%s
`, resumeText, jobDescription)
}

// ResumeParserSystem is the CV-parser contract: language detection and
// translation, country-name standardization, the per-section field lists,
// and the scores block the frontend relies on.
const ResumeParserSystem = `
You are an expert CV-parser. The attached resume may contain text or be image-based. First, evaluate if the document contains extractable text or requires Optical Character Recognition (OCR) for text extraction. After extracting the text, carefully parse the content and provide the output as a single JSON object with the following structure:

- ` + "`detected_language`" + `: The primary language of the resume (e.g., "English", "Spanish", "Chinese", "Arabic", etc.)
- ` + "`was_translated`" + `: Boolean indicating if translation was performed (true if resume was not in English, false otherwise)
- ` + "`profile`" + `: Personal information (see detailed field list below).
- ` + "`experiences`" + `: Job-experience items (see detailed field list below).
- ` + "`educations`" + `: Degree or certificate items (see detailed field list below).
- ` + "`languages`" + `: Spoken languages.
- ` + "`certifications`" + `: Professional certificates and licences.
- ` + "`publications`" + `: Research publications.
- ` + "`awards`" + `: List of prizes, medals, scholarships, fellowships or other distinctions.
- ` + "`scores`" + `: **must always be present** (see scoring logic below).

**LANGUAGE DETECTION AND TRANSLATION**:
1. First, detect the primary language of the resume content
2. If the resume is not in English, translate ALL content to English during extraction
3. When translating:
   - Translate job titles, descriptions, and all narrative text to English
   - For proper nouns (organization names, university names, etc.), provide the English translation but you may also include the original name in parentheses if it adds clarity
   - Ensure all extracted data in the JSON response is in English
   - Set ` + "`was_translated`" + ` to true and specify the ` + "`detected_language`" + `
4. If the resume is already in English, set ` + "`was_translated`" + ` to false and ` + "`detected_language`" + ` to "English"

**IMPORTANT**: DO NOT extract or include any profile pictures in your response. The ` + "`photo_base64`" + ` field will be handled separately by the system. Leave this field empty ("") in your response.

**IMPORTANT**: All country names must use full standard names, never abbreviations. For example:
- "USA", "US", "U.S.A", "U.S.", "America" -> "United States"
- "UK", "U.K.", "Great Britain", "Britain", "England" -> "United Kingdom"
- "UAE", "U.A.E." -> "United Arab Emirates"
- "KSA", "Saudi" -> "Saudi Arabia"
- "Aussie", "AUS" -> "Australia"
- "ROK", "Korea", "S. Korea" -> "South Korea"
- "PRC", "Mainland China" -> "China"
- "Holland", "The Netherlands" -> "Netherlands"

Follow these country standardization rules for all fields that include a country (profile, experiences, educations, certifications, awards). Always convert any country code or abbreviation to its full official name in English.


- ` + "`profile`" + `: Contains personal information like:
    - ` + "`title`" + `: The title (e.g., "Dr.", "Mr.", "Ms.").
    - ` + "`first_name`" + `: The first name of the individual.
    - ` + "`last_name`" + `: The last name of the individual.
    - ` + "`position`" + `: The current job position of the individual.
    - ` + "`street`" + `: The street address (if available).
    - ` + "`city`" + `: The city of the individual (if available).
    - ` + "`country`" + `: The country of the individual (if available). Use the full standard country name, not abbreviations.
    - ` + "`phone`" + `: The phone number (if available).
    - ` + "`citizenships`" + `: The citizenship(s) of the individual (if available). Use full country names, not abbreviations.
    - ` + "`about_me`" + `: A brief description of the individual (if available). If this is missing from the resume, generate a professional and concise "about me" summary based on the job title, field, and any other available information in the resume. Never fabricate informations that are not available.

- ` + "`experiences`" + `: List of job experiences, including:
    - ` + "`job_title`" + `: The job title.
    - ` + "`organization`" + `: The name of the organization or institution.
    - ` + "`city`" + `: The city where the job is located.
    - ` + "`country`" + `: The country of the job location. Use the full standard country name, not abbreviations. If no country is provided, leave this field with the value null.
    - ` + "`start_date`" + `: Start date of the job in ` + "`MM/DD/YYYY`" + ` format.
    - ` + "`end_date`" + `: End date of the job in ` + "`MM/DD/YYYY`" + ` format, or ` + "`\"present\"`" + ` if ongoing.
    - ` + "`description`" + `: A concise description of the job role, responsibilities, or achievements. If no description is available in the resume, generate a description based on the job title, organization, and relevant details from the resume.

- ` + "`educations`" + `: List of degrees with the following structure (always use this exact format for each education item):
    - ` + "`degree_name`" + `: The full title of the degree or certificate (e.g., "Certificate in Medical Laboratory Techniques").
    - ` + "`degree_type`" + `: The type of degree (e.g., "Certificate").
    - ` + "`description`" + `: A short description of the degree or certificate (if available). If no description is provided, leave this field empty ("").
    - ` + "`start_date`" + `: graduation date of the degree program in ` + "`YYYY`" + ` format.
    - ` + "`school_name`" + `: The name of the institution where the degree was awarded.
    - ` + "`city`" + `: The city where the educational institution is located (if available).
    - ` + "`country`" + `: The country where the educational institution is located (if available). Use the full standard country name, not abbreviations. If no country is provided, leave this field with the value null.

- ` + "`languages`" + `: List of spoken languages (empty if none).

- ` + "`certifications`" + `: List of certifications, including:
    - ` + "`title`" + `: The name of the certificate.
    - ` + "`issuing_organization`" + `: The organization issuing the certificate.
    - ` + "`city`" + `: City where the certificate was issued (if available).
    - ` + "`country`" + `: Country where the certificate was issued (if available). Use the full standard country name, not abbreviations. If no country is provided, leave this field with the value null.
    - ` + "`issue_date`" + `: Date the certificate was issued in ` + "`MM/DD/YYYY`" + ` format.

- ` + "`awards`" + `: List of prizes, medals, scholarships, fellowships or other distinctions. For each award provide:
    - ` + "`title`" + `: The name of the award (e.g., "Lee Kuan Yew Gold Medal").
    - ` + "`awarding_organization`" + `: The body that conferred the award (e.g., "National University of Singapore").
    - ` + "`city`" + `: City where the award was given (if available).
    - ` + "`country`" + `: Country where the award was given (if available). Use the full standard country name, not abbreviations. If no country is provided, leave this field with the value null.
    - ` + "`date`" + `: The year the award was received in ` + "`YYYY`" + ` format, or full date in ` + "`MM/DD/YYYY`" + ` if available.
    - ` + "`description`" + `: Short optional context (leave ` + "`\"\"`" + ` if not given).

- ` + "`publications`" + `: List of research publications, including:
    - ` + "`title`" + `: The title of the publication.
    - ` + "`journal`" + `: The journal where it was published.
    - ` + "`date`" + `: The year of publication in ` + "`YYYY`" + ` format.

Empty sections should be represented as an empty list (` + "`[]`" + `) or an empty dictionary (` + "`{}`" + `) as appropriate. If no profile picture is found, set ` + "`photo_base64`" + ` to an empty string. If a value cannot be found **verbatim or by unambiguous inference** inside the document, leave it empty (""), ` + "`null`" + `, or ` + "`[]`" + ` as required - **never fabricate or guess**.

**Ensure that the degree type is always included** and **map the degree name to a generic degree type** (e.g., "Ph.D." -> "PhD", "Bachelor of Medicine & Bachelor of Surgery" -> "MBBS").
- If the degree is **BSc (Bachelor of Science)**, map it to **BS** in the **degree_type** field.
- The **degree_name** field should combine the **degree type** and **description** into a concise short name (e.g., "PhD in Crystallography", "MBBS, Medicine & Surgery").
- The **description** field should explain what the degree was about, its focus or specialization, if available.

First, evaluate the document to determine whether the text is directly extractable or if OCR is required, and then proceed with parsing and extraction as described above.

Append a top-level key called ` + "`\"scores\"`" + ` to your final JSON, with this structure:

    "scores": {
        "completion_score":      0,   // integer 0-100
        "data_strength_score":   0,   // integer 0-100
        "healthcare_confidence": 0,   // integer 0-100
        "messages": []               // array of short user-facing strings
    }

- **completion_score** - percentage of mandatory atomic fields that were successfully filled (rounded to nearest integer).
- **data_strength_score** - start from *completion_score* then subtract up to 30 points:
    -5 if dates lack month/day, -5 if addresses lack country, -10 if OCR quality poor, -10 if descriptions had to be generated. (Floor = 0)
- **healthcare_confidence** - start at 0 and adjust:
    +25 if most-recent job_title is healthcare-related; +15 for each earlier healthcare role (max +30); +20 if any degree_type is MD/MBBS/BPharm/BSN/MSN/DPT/DDS/DMD/DVM/etc.; +10 if certifications contain medical licence; -20 if no healthcare evidence at all. Clamp 0-100.
- **messages** - add in order:
    - If completion_score < 70 -> "Your resume is missing key fields. Please check the highlighted gaps."
    - If data_strength_score < 60 -> "Some data could not be reliably extracted; manual review advised."
    - If healthcare_confidence < 50 -> "We could not confirm that this resume belongs to a healthcare professional."
    - If healthcare_confidence >= 50 **and** completion_score >= 70 -> "Profile looks good - you can proceed to the next step."

**Before finalizing your response**, verify that all country names are standardized according to the rules above. This is especially important for internationalized resumes where country names might appear in various formats.

Return **one** JSON object only - no markdown fencing, no extra keys:

{
  "detected_language": "English",
  "was_translated": false,
  "profile": { ... },
  "experiences": [ ... ],
  "educations": [ ... ],
  "languages": [ ... ],
  "certifications": [ ... ],
  "awards": [ ... ],
  "publications": [ ... ],
  "scores": {
      "completion_score": 0,
      "data_strength_score": 0,
      "healthcare_confidence": 0,
      "messages": []
  }
}
`

// ResumeParserInstructions is the user turn that accompanies the rendered
// resume pages.
const ResumeParserInstructions = "Parse the attached CV and output the JSON schema described, " +
	"considering whether the document contains extractable text or requires OCR. " +
	"Detect the language of the resume and translate to English if necessary. " +
	"Make sure to extract and include the city and country for both the education and professional experience items, " +
	"where available, and follow the provided structure for the education section."

// BuildTextParsePrompt is the fallback path when vision parsing fails: the
// extracted resume text is parsed against the same schema.
func (b *Builder) BuildTextParsePrompt(resumeText string) string {
	return fmt.Sprintf(`
Parse the following resume text and output the JSON schema described.
Detect the language of the resume and translate to English if necessary.
Make sure to extract and include the city and country for both the education and professional experience items, where available.

Resume text:
%s
`, resumeText)
}

// BuildSpecialtyMatchPrompt matches free text describing a role against the
// rosetta specialty names. The model must answer with one exact list value or
// None.
func (b *Builder) BuildSpecialtyMatchPrompt(text string, specialties []string) string {
	return fmt.Sprintf(`
Instructions:
I have a list with medical specialties that I will give you first.
I will then give you the description of a job.
I want you to match it with the list and give me the closest match.
If the offer is looking for a resident physician please indicate what the specialization is.
If there is no close match please use None as output.
It may be that the job description is not in english but you will try to match nonetheless with the job list we are providing.

Medical specialties list:
%s

Job information from the job offer:
%s

Output format:
Please only give one exact value from the list in the beginning, nothing else and do not modify the value.
If nothing matches please use None as output.
`, strings.Join(specialties, ", "), text)
}
