package domain

// Section is a titled span of document text produced by structural
// segmentation. Embedding is attached after segmentation; a cached section is
// reused verbatim only when its embedding is present.
type Section struct {
	Title          string    `json:"section_title"`
	Content        string    `json:"content"`
	PageNumber     int       `json:"page_number"`
	SectionIndex   int       `json:"section_index"`
	SourceDocument string    `json:"source_document"`
	Embedding      []float32 `json:"embedding,omitempty"`
}

func (s Section) HasEmbedding() bool {
	return len(s.Embedding) > 0
}

// QueryModel is the single query representation for one insight request.
type QueryModel struct {
	Text      string
	Embedding []float32
}

// Theme is a weighted keyphrase derived from the query text.
type Theme struct {
	Phrase    string
	Weight    float64
	Embedding []float32
}

// ScoredSection exists only during ranking.
type ScoredSection struct {
	Section
	Document      string
	OverallScore  float64
	ThematicScore float64
	FinalScore    float64
}

// RankedResult is the externally visible ranking artifact, ordered by
// ImportanceRank.
type RankedResult struct {
	SectionTitle   string  `json:"section_title"`
	Content        string  `json:"content"`
	PageNumber     int     `json:"page_number"`
	Document       string  `json:"document"`
	ImportanceRank int     `json:"importance_rank"`
	RelevanceScore float64 `json:"relevance_score"`
}

// RefinedExcerpt is the focused sub-section summary for one selected section.
type RefinedExcerpt struct {
	Document    string `json:"document"`
	PageNumber  int    `json:"page_number"`
	RefinedText string `json:"refined_text"`
}

type InsightRequest struct {
	TaskDescription string   `json:"task_description"`
	Persona         string   `json:"persona,omitempty"`
	DocumentIDs     []string `json:"document_ids"`
	TopK            int      `json:"k"`
}

type ReportMetadata struct {
	ProcessingTimestamp    string   `json:"processing_timestamp"`
	JobToBeDone            string   `json:"job_to_be_done"`
	Persona                string   `json:"persona,omitempty"`
	InputDocuments         []string `json:"input_documents"`
	ProcessingTimeSeconds  float64  `json:"processing_time_seconds"`
	TotalSectionsProcessed int      `json:"total_sections_processed"`
	TopInsightsReturned    int      `json:"top_insights_returned"`
}

type InsightReport struct {
	Sections           []RankedResult   `json:"sections"`
	SubsectionAnalysis []RefinedExcerpt `json:"subsection_analysis"`
	Metadata           ReportMetadata   `json:"metadata"`
}
