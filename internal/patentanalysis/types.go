package patentanalysis

const (
	confidenceLow = "LOW"
	notSpecified  = "Not specified"
	failedText    = "Analysis failed"
	unknownArea   = "Unknown"
	unknownLevel  = "UNKNOWN"
	failedInsight = "Analysis could not be completed"
)

type Biology struct {
	Targets     string `json:"targets"`
	Mechanism   string `json:"mechanism"`
	Indications string `json:"indications"`
	Confidence  string `json:"confidence"`
}

type MedicinalChemistry struct {
	SeriesDescription string `json:"series_description"`
	KeyFeatures       string `json:"key_features"`
	Novelty           string `json:"novelty"`
	Confidence        string `json:"confidence"`
}

// Record is the structured analysis of one patent. Every field is always
// populated: replies with missing keys are filled in during normalization
// and outright failures produce FailedRecord. Consumers never see a partial
// or nil record.
type Record struct {
	Biology            Biology            `json:"biology"`
	MedicinalChemistry MedicinalChemistry `json:"medicinal_chemistry"`
	TherapeuticArea    string             `json:"therapeutic_area"`
	InnovationLevel    string             `json:"innovation_level"`
	KeyInsights        []string           `json:"key_insights"`
	Summary            string             `json:"summary"`
}

// Failed reports whether r is the failure sentinel, so renderers can drop
// sections that would only repeat the failure text.
func (r Record) Failed() bool {
	return r.Summary == failedText
}

// FailedRecord is returned whenever the model cannot be reached or its
// reply cannot be used. All confidences read LOW so downstream ranking
// treats the patent as unscored rather than skipping it.
func FailedRecord() Record {
	return Record{
		Biology: Biology{
			Targets:     failedText,
			Mechanism:   failedText,
			Indications: failedText,
			Confidence:  confidenceLow,
		},
		MedicinalChemistry: MedicinalChemistry{
			SeriesDescription: failedText,
			KeyFeatures:       failedText,
			Novelty:           failedText,
			Confidence:        confidenceLow,
		},
		TherapeuticArea: unknownArea,
		InnovationLevel: unknownLevel,
		KeyInsights:     []string{failedInsight},
		Summary:         failedText,
	}
}
