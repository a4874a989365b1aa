package mock

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/google/uuid"

	"github.com/nulpointcorp/hackstack/internal/registry"
)

func corpus(t *testing.T) []registry.Business {
	t.Helper()
	r, err := registry.Load("")
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r.List(0)
}

func TestAnalysis_VocabularyAndRange(t *testing.T) {
	g := New(42, nil)
	for i := 0; i < 200; i++ {
		p, ok := g.Generate("openai", "analyze", nil).(Analysis)
		if !ok {
			t.Fatalf("expected Analysis payload")
		}
		if !slices.Contains(Sentiments, p.Sentiment) {
			t.Fatalf("sentiment %q outside vocabulary", p.Sentiment)
		}
		if p.Confidence < MinConfidence || p.Confidence > MaxConfidence {
			t.Fatalf("confidence %v outside [%v, %v]", p.Confidence, MinConfidence, MaxConfidence)
		}
		if len(p.KeyThemes) != 4 {
			t.Fatalf("expected 4 key themes, got %v", p.KeyThemes)
		}
	}
}

func TestGenerate_DeterministicWithSeed(t *testing.T) {
	a := New(7, corpus(t))
	b := New(7, corpus(t))
	for i := 0; i < 20; i++ {
		pa, _ := json.Marshal(a.Generate("weaviate", "similarity_search", map[string]any{"query": "coffee"}))
		pb, _ := json.Marshal(b.Generate("weaviate", "similarity_search", map[string]any{"query": "coffee"}))
		if string(pa) != string(pb) {
			t.Fatalf("seeded generators diverged:\n%s\n%s", pa, pb)
		}
	}
}

func TestSimilarity_DrawsFromCorpus(t *testing.T) {
	g := New(1, corpus(t))
	p := g.Generate("weaviate", "similarity_search", map[string]any{"query": "coffee", "limit": float64(2)}).(Similarity)

	if len(p.SimilarBusinesses) != 2 {
		t.Fatalf("expected 2 results, got %d", len(p.SimilarBusinesses))
	}
	if p.TotalResults != 2 {
		t.Errorf("expected total_results to count returned hits, got %d", p.TotalResults)
	}
	if p.SimilarBusinesses[0].Name != "Quantum Coffee Co." {
		t.Errorf("expected text match ranked first, got %q", p.SimilarBusinesses[0].Name)
	}
	for i, s := range p.SimilarBusinesses {
		if s.SimilarityScore < 0.5 || s.SimilarityScore > 0.95 {
			t.Errorf("result %d: score %v out of range", i, s.SimilarityScore)
		}
		if i > 0 && s.SimilarityScore > p.SimilarBusinesses[i-1].SimilarityScore {
			t.Errorf("results not sorted by score")
		}
	}
}

func TestSimilarity_EchoesQueryAsGiven(t *testing.T) {
	g := New(1, corpus(t))
	p := g.Generate("weaviate", "similarity_search", map[string]any{"query": "Quantum COFFEE", "limit": float64(1)}).(Similarity)

	if p.Query != "Quantum COFFEE" {
		t.Errorf("expected query echoed unchanged, got %q", p.Query)
	}
	if p.SimilarBusinesses[0].Name != "Quantum Coffee Co." {
		t.Errorf("matching must ignore case, got %q first", p.SimilarBusinesses[0].Name)
	}
	if _, err := uuid.Parse(p.SimilarBusinesses[0].ID); err != nil {
		t.Errorf("expected a UUID object id, got %q", p.SimilarBusinesses[0].ID)
	}
}

func TestSimilarity_EmptyCorpusFallback(t *testing.T) {
	p := New(1, nil).Generate("weaviate", "similarity_search", nil).(Similarity)
	if len(p.SimilarBusinesses) != 2 || p.SimilarBusinesses[0].Name != "Code & Coffee" {
		t.Errorf("unexpected fallback results: %+v", p.SimilarBusinesses)
	}
}

func TestGenerate_Kinds(t *testing.T) {
	g := New(3, corpus(t))
	cases := map[[2]string]string{
		{"openai", "analyze"}:              "openai/analyze",
		{"anthropic", "extract_structure"}: "anthropic/extract_structure",
		{"weaviate", "similarity_search"}:  "weaviate/similarity_search",
		{"llamaindex", "process_document"}: "llamaindex/process_document",
		{"llamaindex", "query"}:            "llamaindex/query",
		{"llamaindex", "parse_pdf"}:        "llamaindex/parse_pdf",
		{"llamaindex", "job_status"}:       "llamaindex/job_status",
		{"custom", "summarize"}:            "custom/summarize",
	}
	for in, want := range cases {
		if got := g.Generate(in[0], in[1], nil).Kind(); got != want {
			t.Errorf("%v: expected kind %q, got %q", in, want, got)
		}
	}
}

func TestGenerate_GenericFallback(t *testing.T) {
	p, ok := New(3, nil).Generate("custom", "summarize", nil).(Generic)
	if !ok {
		t.Fatal("expected Generic payload")
	}
	if !p.Mock || p.Message != "Mock response from custom for summarize" {
		t.Errorf("unexpected generic payload: %+v", p)
	}
}

func TestDocument_UsesSourceURL(t *testing.T) {
	p := New(3, nil).Generate("llamaindex", "process_document", map[string]any{"document_url": "https://x.test/a.pdf"}).(Document)
	md := p.Document.Metadata
	if md.SourceURL != "https://x.test/a.pdf" {
		t.Errorf("expected source url to be echoed, got %q", md.SourceURL)
	}
	if md.DocumentID != "sample-multimodal-doc" || md.TotalPages != 15 || md.QualityScore != 0.92 {
		t.Errorf("unexpected metadata: %+v", md)
	}
	if len(p.Document.ExtractedImages) != 2 {
		t.Errorf("expected 2 images, got %d", len(p.Document.ExtractedImages))
	}
}

func TestPDF_MatchesURLPattern(t *testing.T) {
	g := New(3, nil)
	cases := map[string]string{
		"https://sf.gov/el_faro_application.pdf": "El Faro Restaurant",
		"https://sf.gov/original_joes.pdf":       "Original Joe's",
		"https://sf.gov/unknown.pdf":             "Sample Legacy Business",
	}
	for url, want := range cases {
		p := g.Generate("llamaindex", "parse_pdf", map[string]any{"pdf_url": url}).(PDFExtraction)
		if p.Business.BusinessName != want {
			t.Errorf("%s: expected %q, got %q", url, want, p.Business.BusinessName)
		}
		if p.QualityScore != p.Business.ExtractionConfidence {
			t.Errorf("%s: quality score must mirror extraction confidence", url)
		}
		if len(p.Business.SourceDocuments) != 1 || p.Business.SourceDocuments[0] != url {
			t.Errorf("%s: expected source document recorded", url)
		}
	}
}

func TestJobStatus_EchoesID(t *testing.T) {
	p := New(3, nil).Generate("llamaindex", "job_status", map[string]any{"job_id": "job-1"}).(JobStatus)
	if p.JobID != "job-1" || p.Status != "SUCCESS" {
		t.Errorf("unexpected job status: %+v", p)
	}
}
