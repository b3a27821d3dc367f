package patentanalysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/joelkehle/patent-research/internal/patentdoc"
)

const (
	descriptionContextCap = 5000
	truncationMarker      = "...[truncated]"
)

const analysisPromptHeader = `You are an expert patent analyst specializing in pharmaceutical and biotech patents.

Analyze the following patent and provide a structured scientific analysis.

`

const analysisPromptInstructions = `

Please provide your analysis in the following JSON format. Be precise and only extract information that is EXPLICITLY stated in the patent. Do not infer or speculate.

{
  "biology": {
    "targets": "Primary biological targets (e.g., PI4K, mTOR, EGFR)",
    "mechanism": "Mechanism of action description",
    "indications": "Diseases or conditions targeted (e.g., malaria, cancer, diabetes)",
    "confidence": "HIGH/MEDIUM/LOW"
  },
  "medicinal_chemistry": {
    "series_description": "Description of the chemical series or compound class",
    "key_features": "Key structural features or modifications",
    "novelty": "What makes this chemistry novel or different",
    "confidence": "HIGH/MEDIUM/LOW"
  },
  "therapeutic_area": "Primary therapeutic area (e.g., Infectious Diseases, Oncology, CNS)",
  "innovation_level": "BREAKTHROUGH/INCREMENTAL/DEFENSIVE",
  "key_insights": [
    "List 3-5 key insights",
    "Include competitive advantages",
    "Note potential commercial value"
  ],
  "summary": "One paragraph executive summary"
}

IMPORTANT:
- Only extract information explicitly stated in the patent
- If information is unclear or not stated, say "Not specified"
- Set confidence to LOW if you're uncertain
- Respond with ONLY the JSON object, no additional text

JSON Response:`

type Requester struct {
	caller LLMCaller
}

func NewRequester(caller LLMCaller) *Requester {
	return &Requester{caller: caller}
}

// Request runs the analysis for one extracted record. The returned Record
// is always fully populated: on any failure it is FailedRecord and the
// error says why, so callers can report the outcome without ever handling
// a partial result.
func (r *Requester) Request(ctx context.Context, rec patentdoc.Record) (Record, error) {
	prompt := BuildPrompt(rec)
	raw, err := r.caller.GenerateJSON(ctx, prompt)
	if err != nil {
		log.Printf("patent-analysis call failed id=%s err=%v", rec.PatentID, err)
		return FailedRecord(), fmt.Errorf("analysis call: %w", err)
	}
	parsed, err := ParseReply(raw)
	if err != nil {
		log.Printf("patent-analysis reply unusable id=%s err=%v", rec.PatentID, err)
		return FailedRecord(), fmt.Errorf("analysis reply: %w", err)
	}
	return parsed, nil
}

// BuildPrompt assembles the instruction template around the patent context.
func BuildPrompt(rec patentdoc.Record) string {
	return analysisPromptHeader + buildContext(rec) + analysisPromptInstructions
}

// buildContext lays out the fields the model should read. Only set fields
// appear; the description is capped so a long filing cannot crowd out the
// instructions, and image-only filings substitute the abstract for it.
func buildContext(rec patentdoc.Record) string {
	var parts []string
	if rec.PatentID != "" {
		parts = append(parts, "Patent: "+rec.PatentID)
	}
	if rec.Company != nil && *rec.Company != "" {
		parts = append(parts, "Company: "+*rec.Company)
	}
	if rec.Title != "" {
		parts = append(parts, "\nTitle:\n"+rec.Title)
	}
	if rec.Abstract != "" {
		parts = append(parts, "\nAbstract:\n"+rec.Abstract)
	}
	if desc := rec.BodyText(); desc != "" {
		if utf8.RuneCountInString(desc) > descriptionContextCap {
			runes := []rune(desc)
			desc = string(runes[:descriptionContextCap]) + truncationMarker
		}
		parts = append(parts, "\nDescription:\n"+desc)
	}
	return strings.Join(parts, "\n")
}

// ParseReply pulls the JSON object out of the raw model reply, tolerating
// prose or code fences around it, and normalizes it so every field of the
// result is present.
func ParseReply(raw string) (Record, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return FailedRecord(), errors.New("no JSON object in reply")
	}
	var wire wireRecord
	if err := json.Unmarshal([]byte(raw[start:end+1]), &wire); err != nil {
		return FailedRecord(), fmt.Errorf("decode analysis JSON: %w", err)
	}
	return wire.normalized(), nil
}

// wireRecord mirrors Record with pointers so absent keys can be told apart
// from empty ones and filled with their defaults.
type wireRecord struct {
	Biology            *wireBiology `json:"biology"`
	MedicinalChemistry *wireMedChem `json:"medicinal_chemistry"`
	TherapeuticArea    *string      `json:"therapeutic_area"`
	InnovationLevel    *string      `json:"innovation_level"`
	KeyInsights        []string     `json:"key_insights"`
	Summary            *string      `json:"summary"`
}

type wireBiology struct {
	Targets     *string `json:"targets"`
	Mechanism   *string `json:"mechanism"`
	Indications *string `json:"indications"`
	Confidence  *string `json:"confidence"`
}

type wireMedChem struct {
	SeriesDescription *string `json:"series_description"`
	KeyFeatures       *string `json:"key_features"`
	Novelty           *string `json:"novelty"`
	Confidence        *string `json:"confidence"`
}

func (w wireRecord) normalized() Record {
	rec := Record{
		Biology: Biology{
			Targets:     notSpecified,
			Mechanism:   notSpecified,
			Indications: notSpecified,
			Confidence:  confidenceLow,
		},
		MedicinalChemistry: MedicinalChemistry{
			SeriesDescription: notSpecified,
			KeyFeatures:       notSpecified,
			Novelty:           notSpecified,
			Confidence:        confidenceLow,
		},
		TherapeuticArea: unknownArea,
		InnovationLevel: unknownLevel,
		KeyInsights:     []string{},
		Summary:         notSpecified,
	}
	if b := w.Biology; b != nil {
		setIfPresent(&rec.Biology.Targets, b.Targets)
		setIfPresent(&rec.Biology.Mechanism, b.Mechanism)
		setIfPresent(&rec.Biology.Indications, b.Indications)
		setIfPresent(&rec.Biology.Confidence, b.Confidence)
	}
	if m := w.MedicinalChemistry; m != nil {
		setIfPresent(&rec.MedicinalChemistry.SeriesDescription, m.SeriesDescription)
		setIfPresent(&rec.MedicinalChemistry.KeyFeatures, m.KeyFeatures)
		setIfPresent(&rec.MedicinalChemistry.Novelty, m.Novelty)
		setIfPresent(&rec.MedicinalChemistry.Confidence, m.Confidence)
	}
	setIfPresent(&rec.TherapeuticArea, w.TherapeuticArea)
	setIfPresent(&rec.InnovationLevel, w.InnovationLevel)
	setIfPresent(&rec.Summary, w.Summary)
	if w.KeyInsights != nil {
		rec.KeyInsights = w.KeyInsights
	}
	return rec
}

func setIfPresent(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
