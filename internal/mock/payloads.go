package mock

import "time"

// Payload is the closed set of vendor response shapes. Each vendor/operation
// pair has exactly one concrete type, shared by the live back-ends and the
// mock generator, so a field the live path fills always exists in a mock
// result. Generic covers catalogue operations that have no dedicated shape.
type Payload interface {
	// Kind names the vendor/operation pair, e.g. "openai/analyze".
	Kind() string
}

// ── openai ───────────────────────────────────────────────────────────────────

// Analysis is the openai/analyze shape.
type Analysis struct {
	Subject               string   `json:"subject,omitempty"`
	Analysis              string   `json:"analysis"`
	Sentiment             string   `json:"sentiment"`
	KeyThemes             []string `json:"key_themes"`
	SuggestedImprovements []string `json:"suggested_improvements"`
	Confidence            float64  `json:"confidence"`
	Model                 string   `json:"model"`
	InputTokens           int64    `json:"input_tokens"`
	OutputTokens          int64    `json:"output_tokens"`
}

func (Analysis) Kind() string { return "openai/analyze" }

// ── anthropic ────────────────────────────────────────────────────────────────

// Structure is the anthropic/extract_structure shape.
type Structure struct {
	StructuredData    StructuredData `json:"structured_data"`
	NarrativeQuality  string         `json:"narrative_quality"`
	StoryCompleteness float64        `json:"story_completeness"`
	Model             string         `json:"model"`
	InputTokens       int64          `json:"input_tokens"`
	OutputTokens      int64          `json:"output_tokens"`
}

type StructuredData struct {
	BusinessCategory       string   `json:"business_category"`
	CommunityImpact        string   `json:"community_impact"`
	UniqueValueProposition string   `json:"unique_value_proposition"`
	TargetDemographic      string   `json:"target_demographic"`
	CompetitiveAdvantages  []string `json:"competitive_advantages"`
	GrowthPotential        string   `json:"growth_potential"`
}

func (Structure) Kind() string { return "anthropic/extract_structure" }

// ── weaviate ─────────────────────────────────────────────────────────────────

// Similarity is the weaviate/similarity_search shape.
// TotalResults counts the returned hits, after the limit is applied.
type Similarity struct {
	Query             string            `json:"query"`
	SimilarBusinesses []SimilarBusiness `json:"similar_businesses"`
	TotalResults      int               `json:"total_results"`
	SearchTimeMs      int64             `json:"search_time_ms"`
}

// SimilarBusiness is one hit. ID is the object UUID.
type SimilarBusiness struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Tagline         string  `json:"tagline"`
	BusinessType    string  `json:"business_type"`
	Neighborhood    string  `json:"neighborhood"`
	SimilarityScore float64 `json:"similarity_score"`
}

func (Similarity) Kind() string { return "weaviate/similarity_search" }

// ── llamaindex ───────────────────────────────────────────────────────────────

// Document is the llamaindex/process_document shape. The live upload only
// knows the parse job; the processed document is attached once it is parsed.
type Document struct {
	JobID        string             `json:"job_id"`
	Status       string             `json:"status"`
	SourceURL    string             `json:"source_url"`
	Document     *ProcessedDocument `json:"document,omitempty"`
	Capabilities map[string]bool    `json:"capabilities,omitempty"`
}

type ProcessedDocument struct {
	Metadata        DocumentMetadata `json:"metadata"`
	TextContent     string           `json:"text_content"`
	ExtractedImages []ExtractedImage `json:"extracted_images"`
}

type DocumentMetadata struct {
	DocumentID            string    `json:"document_id"`
	Filename              string    `json:"filename"`
	SourceURL             string    `json:"source_url"`
	ProcessingTimestamp   time.Time `json:"processing_timestamp"`
	TotalPages            int       `json:"total_pages"`
	TotalImages           int       `json:"total_images"`
	QualityScore          float64   `json:"quality_score"`
	ProcessingTimeSeconds float64   `json:"processing_time_seconds"`
}

type ExtractedImage struct {
	ImageID     string        `json:"image_id"`
	PageNumber  int           `json:"page_number"`
	Position    ImagePosition `json:"position"`
	ImageType   string        `json:"image_type"`
	Caption     string        `json:"caption"`
	ContextText string        `json:"context_text"`
}

type ImagePosition struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (Document) Kind() string { return "llamaindex/process_document" }

// Query is the llamaindex/query shape. Nodes are the retrieved text chunks;
// Results adds the multi-modal breakdown when it is known.
type Query struct {
	Query            string        `json:"query"`
	DocumentID       string        `json:"document_id,omitempty"`
	Nodes            []Node        `json:"nodes"`
	Results          *QueryResults `json:"results,omitempty"`
	TotalResults     int           `json:"total_results"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
}

type Node struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type QueryResults struct {
	TextMatches   []TextMatch    `json:"text_matches"`
	ImageMatches  []ImageMatch   `json:"image_matches"`
	Relationships []Relationship `json:"relationships"`
}

type TextMatch struct {
	ChunkID    string  `json:"chunk_id"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	DocumentID string  `json:"document_id"`
}

type ImageMatch struct {
	ImageID    string  `json:"image_id"`
	Caption    string  `json:"caption"`
	Score      float64 `json:"score"`
	DocumentID string  `json:"document_id"`
}

type Relationship struct {
	Type        string  `json:"type"`
	TextChunkID string  `json:"text_chunk_id"`
	ImageID     string  `json:"image_id"`
	Relevance   float64 `json:"relevance"`
}

func (Query) Kind() string { return "llamaindex/query" }

// PDFExtraction is the llamaindex/parse_pdf shape: the parse job plus, once
// extracted, the legacy business record read from an application PDF.
type PDFExtraction struct {
	JobID        string          `json:"job_id"`
	Status       string          `json:"status"`
	SourceURL    string          `json:"source_url"`
	Business     *LegacyBusiness `json:"business,omitempty"`
	QualityScore float64         `json:"quality_score,omitempty"`
}

type LegacyBusiness struct {
	BusinessName         string    `json:"business_name"`
	FoundingYear         int       `json:"founding_year"`
	CurrentAddress       string    `json:"current_address"`
	Neighborhood         string    `json:"neighborhood"`
	BusinessType         string    `json:"business_type"`
	FoundingStory        string    `json:"founding_story"`
	CulturalSignificance string    `json:"cultural_significance"`
	UniqueFeatures       []string  `json:"unique_features"`
	SignatureProducts    []string  `json:"signature_products"`
	DemoHighlights       []string  `json:"demo_highlights"`
	ApplicationID        string    `json:"application_id,omitempty"`
	ExtractionConfidence float64   `json:"extraction_confidence"`
	SourceDocuments      []string  `json:"source_documents"`
	CreatedAt            time.Time `json:"created_at"`
}

func (PDFExtraction) Kind() string { return "llamaindex/parse_pdf" }

// JobStatus is the llamaindex/job_status shape.
// Markdown and Pages are set once the job has succeeded.
type JobStatus struct {
	JobID    string `json:"job_id"`
	Status   string `json:"status"`
	Markdown string `json:"markdown,omitempty"`
	Pages    int64  `json:"pages,omitempty"`
}

func (JobStatus) Kind() string { return "llamaindex/job_status" }

// ── fallback ─────────────────────────────────────────────────────────────────

// Generic is returned for declared operations without a dedicated shape.
type Generic struct {
	Message   string `json:"message"`
	Vendor    string `json:"vendor"`
	Operation string `json:"operation"`
	Mock      bool   `json:"mock"`
}

func (g Generic) Kind() string { return g.Vendor + "/" + g.Operation }
