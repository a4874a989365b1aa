// Package mock produces realistic vendor responses when a vendor cannot or
// must not be called live.
//
// Shapes are fixed per vendor/operation; only a few fields (sentiment,
// confidence, similarity scores, timings) vary, within documented ranges.
// A Generator built with a non-zero seed is fully deterministic.
package mock

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nulpointcorp/hackstack/internal/registry"
)

// Sentiments is the vocabulary used for openai/analyze.
var Sentiments = []string{"positive", "neutral", "mixed"}

// Confidence bounds for openai/analyze.
const (
	MinConfidence = 0.70
	MaxConfidence = 0.99
)

const defaultSimilarLimit = 3

// Model names reported by mock results for the model-backed operations.
const (
	AnalysisModel  = "gpt-4o-mini"
	StructureModel = "claude-3-5-haiku-latest"
)

// sampleDocumentPages is the page count of the sample parsed document.
const sampleDocumentPages = 15

// Generator is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand

	corpus []registry.Business
	now    func() time.Time
}

// New creates a Generator. seed 0 picks a time-based seed. corpus feeds the
// similarity results; it may be empty.
func New(seed uint64, corpus []registry.Business) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{
		rnd:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		corpus: corpus,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Generate returns the mock payload for vendor/operation. data is the
// request's free-form input and may be nil.
func (g *Generator) Generate(vendor, operation string, data map[string]any) Payload {
	switch vendor + "/" + operation {
	case "openai/analyze":
		return g.analysis(data)
	case "anthropic/extract_structure":
		return structure(data)
	case "weaviate/similarity_search":
		return g.similarity(data)
	case "llamaindex/process_document":
		return g.document(data)
	case "llamaindex/query":
		return query(data)
	case "llamaindex/parse_pdf":
		return g.pdf(data)
	case "llamaindex/job_status":
		return jobStatus(data)
	default:
		return Generic{
			Message:   fmt.Sprintf("Mock response from %s for %s", vendor, operation),
			Vendor:    vendor,
			Operation: operation,
			Mock:      true,
		}
	}
}

func (g *Generator) analysis(data map[string]any) Analysis {
	g.mu.Lock()
	sentiment := Sentiments[g.rnd.IntN(len(Sentiments))]
	confidence := round2(MinConfidence + g.rnd.Float64()*(MaxConfidence-MinConfidence))
	g.mu.Unlock()

	a := Analysis{
		Subject:   str(data, "content", "business_name", "text"),
		Analysis:  "This business represents the evolution of local culture in the digital age, combining traditional craftsmanship with modern innovation.",
		Sentiment: sentiment,
		KeyThemes: []string{"innovation", "community", "tradition", "technology"},
		SuggestedImprovements: []string{
			"expand social media presence",
			"host more community events",
			"partner with local tech companies",
		},
		Confidence: confidence,
		Model:      AnalysisModel,
	}
	a.InputTokens, a.OutputTokens = estimateTokens(data), estimateTokens(a)
	return a
}

func structure(data map[string]any) Structure {
	s := Structure{
		StructuredData: StructuredData{
			BusinessCategory:       "innovative_local",
			CommunityImpact:        "high",
			UniqueValueProposition: "combines traditional craft with modern innovation",
			TargetDemographic:      "tech-savvy millennials and Gen Z",
			CompetitiveAdvantages:  []string{"unique positioning", "strong community ties", "innovative approach"},
			GrowthPotential:        "high",
		},
		NarrativeQuality:  "compelling",
		StoryCompleteness: 0.88,
		Model:             StructureModel,
	}
	s.InputTokens, s.OutputTokens = estimateTokens(data), estimateTokens(s)
	return s
}

// similarity ranks the corpus against the query. Text matches score higher
// than the rest; every score stays in [0.5, 0.95]. The query is echoed as
// given and only lowercased for matching.
func (g *Generator) similarity(data map[string]any) Similarity {
	query := str(data, "query", "text", "business_name")
	q := strings.ToLower(query)
	limit := num(data, "limit", defaultSimilarLimit)

	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.corpus) == 0 {
		return Similarity{
			Query: query,
			SimilarBusinesses: []SimilarBusiness{
				{
					ID: objectID("Code & Coffee"), Name: "Code & Coffee", Tagline: "Fuel for developers",
					BusinessType: "Cafe", Neighborhood: "SoMa", SimilarityScore: 0.89,
				},
				{
					ID: objectID("Analog Digital"), Name: "Analog Digital", Tagline: "Bridging old and new",
					BusinessType: "Retail", Neighborhood: "Mission District", SimilarityScore: 0.76,
				},
			},
			TotalResults: 2,
			SearchTimeMs: 45,
		}
	}

	out := make([]SimilarBusiness, 0, len(g.corpus))
	for _, b := range g.corpus {
		score := 0.5 + g.rnd.Float64()*0.2
		if q != "" && (strings.Contains(strings.ToLower(b.Name), q) ||
			strings.Contains(strings.ToLower(b.Tagline), q) ||
			strings.Contains(strings.ToLower(b.Story), q)) {
			score += 0.25
		}
		out = append(out, SimilarBusiness{
			ID:              objectID(fmt.Sprintf("business/%d", b.ID)),
			Name:            b.Name,
			Tagline:         b.Tagline,
			BusinessType:    b.Type,
			Neighborhood:    b.Neighborhood,
			SimilarityScore: round2(score),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SimilarityScore > out[j].SimilarityScore
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return Similarity{
		Query:             query,
		SimilarBusinesses: out,
		TotalResults:      len(out),
		SearchTimeMs:      int64(30 + g.rnd.IntN(30)),
	}
}

func (g *Generator) document(data map[string]any) Document {
	src := str(data, "document_url", "url")
	if src == "" {
		src = "https://example.com/sample.pdf"
	}
	return Document{
		JobID:     objectID(src),
		Status:    "SUCCESS",
		SourceURL: src,
		Document: &ProcessedDocument{
			Metadata: DocumentMetadata{
				DocumentID:            sampleDocumentID,
				Filename:              "sample_document.pdf",
				SourceURL:             src,
				ProcessingTimestamp:   g.now(),
				TotalPages:            sampleDocumentPages,
				TotalImages:           8,
				QualityScore:          0.92,
				ProcessingTimeSeconds: 12.5,
			},
			TextContent:     sampleText,
			ExtractedImages: sampleImages(),
		},
		Capabilities: map[string]bool{
			"text_extraction":      true,
			"image_extraction":     true,
			"relationship_mapping": true,
			"multi_modal_search":   true,
		},
	}
}

func query(data map[string]any) Query {
	ref := str(data, "document_id")
	if ref == "" {
		ref = sampleDocumentID
	}
	return Query{
		Query:      str(data, "query", "text"),
		DocumentID: ref,
		Nodes: []Node{{
			ID:       "chunk_0",
			Text:     "LlamaIndex provides powerful multi-modal capabilities for processing documents with both text and visual content.",
			Score:    0.89,
			Metadata: map[string]any{"document_id": ref},
		}},
		Results: &QueryResults{
			TextMatches: []TextMatch{{
				ChunkID:    "chunk_0",
				Text:       "LlamaIndex provides powerful multi-modal capabilities for processing documents with both text and visual content.",
				Score:      0.89,
				DocumentID: ref,
			}},
			ImageMatches: []ImageMatch{{
				ImageID:    "img_1_0",
				Caption:    "LlamaIndex Multi-Modal Architecture Diagram",
				Score:      0.76,
				DocumentID: ref,
			}},
			Relationships: []Relationship{{
				Type:        "text_image_reference",
				TextChunkID: "chunk_0",
				ImageID:     "img_1_0",
				Relevance:   0.85,
			}},
		},
		TotalResults:     2,
		ProcessingTimeMs: 450,
	}
}

func (g *Generator) pdf(data map[string]any) PDFExtraction {
	src := str(data, "pdf_url", "document_url", "url")
	b := legacyBusinessFor(src)
	b.SourceDocuments = []string{src}
	b.CreatedAt = g.now()
	return PDFExtraction{
		JobID:        objectID(src),
		Status:       "SUCCESS",
		SourceURL:    src,
		Business:     &b,
		QualityScore: b.ExtractionConfidence,
	}
}

func jobStatus(data map[string]any) JobStatus {
	id := str(data, "job_id")
	if id == "" {
		id = uuid.NewString()
	}
	return JobStatus{JobID: id, Status: "SUCCESS", Markdown: sampleText, Pages: sampleDocumentPages}
}

const sampleDocumentID = "sample-multimodal-doc"

const sampleText = `# LlamaIndex Multi-Modal Capabilities

This document demonstrates advanced multi-modal processing with LlamaIndex.
Our system can extract and index both textual content and visual elements
from complex documents.

## Image Processing Pipeline

The image extraction pipeline identifies and processes diagrams and charts,
photographs and illustrations, tables and structured data.

## Relationship Mapping

Our system maintains relationships between text sections and relevant images,
image captions and content, and the hierarchical document structure.`

func sampleImages() []ExtractedImage {
	return []ExtractedImage{
		{
			ImageID:     "img_1_0",
			PageNumber:  2,
			Position:    ImagePosition{X: 100, Y: 200, Width: 400, Height: 300},
			ImageType:   "png",
			Caption:     "LlamaIndex Multi-Modal Architecture Diagram",
			ContextText: "Figure 1 shows the overall architecture of our multi-modal system.",
		},
		{
			ImageID:     "img_3_1",
			PageNumber:  4,
			Position:    ImagePosition{X: 50, Y: 150, Width: 500, Height: 200},
			ImageType:   "jpg",
			Caption:     "Document Processing Pipeline",
			ContextText: "The processing pipeline handles multiple document types efficiently.",
		},
	}
}

// legacyBusinessFor picks a sample record by URL pattern.
func legacyBusinessFor(url string) LegacyBusiness {
	u := strings.ToLower(url)
	switch {
	case strings.Contains(u, "el_faro"), strings.Contains(u, "el-faro"), strings.Contains(u, "elfaro"):
		return LegacyBusiness{
			BusinessName:         "El Faro Restaurant",
			FoundingYear:         1961,
			CurrentAddress:       "2399 Folsom St, San Francisco, CA 94110",
			Neighborhood:         "Mission District",
			BusinessType:         "Mexican Restaurant",
			FoundingStory:        "El Faro Restaurant was established in 1961 by the Guerrero family, who immigrated from Mexico seeking to share authentic Mexican cuisine with San Francisco.",
			CulturalSignificance: "El Faro has been a cultural anchor in the Mission District for over six decades, preserving Mexican culinary traditions.",
			UniqueFeatures:       []string{"Traditional wood-fired cooking", "Hand-painted Mexican murals", "Original 1960s interior", "Family recipes"},
			SignatureProducts:    []string{"Authentic tacos", "Traditional mole", "Fresh salsas", "Mexican seafood"},
			DemoHighlights:       []string{"60+ years in Mission District", "Family-owned since 1961", "Community cultural center"},
			ApplicationID:        "LBR-2016-17-045",
			ExtractionConfidence: 0.90,
		}
	case strings.Contains(u, "original_joes"), strings.Contains(u, "original-joes"), strings.Contains(u, "joes"):
		return LegacyBusiness{
			BusinessName:         "Original Joe's",
			FoundingYear:         1937,
			CurrentAddress:       "601 Union St, San Francisco, CA 94133",
			Neighborhood:         "North Beach",
			BusinessType:         "Italian-American Restaurant",
			FoundingStory:        "Original Joe's was founded in 1937 by Tony Rodinelli in the Tenderloin. The open kitchen, where customers watch chefs at a large grill, became its hallmark.",
			CulturalSignificance: "Original Joe's represents classic American dining culture of the mid-20th century.",
			UniqueFeatures:       []string{"Open kitchen concept", "Visible cooking grill", "Red vinyl booths", "Classic counter service"},
			SignatureProducts:    []string{"Joe's Special", "Steaks", "Classic cocktails", "American comfort food"},
			DemoHighlights:       []string{"SF institution since 1937", "Famous open kitchen", "Celebrity dining history"},
			ApplicationID:        "LBR-2015-16-023",
			ExtractionConfidence: 0.88,
		}
	default:
		return LegacyBusiness{
			BusinessName:         "Sample Legacy Business",
			FoundingYear:         1950,
			CurrentAddress:       "123 Sample St, San Francisco, CA 94100",
			Neighborhood:         "Mission District",
			BusinessType:         "Retail Store",
			FoundingStory:        "This sample business was established in 1950 by a local entrepreneur who saw a need in the community.",
			CulturalSignificance: "This business represents the entrepreneurial spirit of San Francisco.",
			UniqueFeatures:       []string{"Historic building", "Community focus", "Local institution"},
			SignatureProducts:    []string{"Sample products"},
			DemoHighlights:       []string{"San Francisco Legacy Business", "Community cornerstone"},
			ExtractionConfidence: 0.75,
		}
	}
}

// str returns the first non-empty string value among keys.
func str(data map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := data[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// num reads an integer that may have been decoded from JSON as float64.
func num(data map[string]any, key string, def int) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// objectID derives a stable UUID for a mock object from its name.
func objectID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("hackstack:"+name)).String()
}

// estimateTokens approximates a token count as one token per four bytes of
// the JSON encoding of v.
func estimateTokens(v any) int64 {
	b, err := json.Marshal(v)
	if err != nil || len(b) == 0 {
		return 0
	}
	return int64((len(b) + 3) / 4)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
