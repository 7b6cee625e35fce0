package papers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"paper-backend/internal/extract"
	"paper-backend/internal/llm"
)

// sequenceInvoker returns one scripted map per call and records the prompts
// each call received.
type sequenceInvoker struct {
	outputs []map[string]any
	prompts [][]llm.Message
}

func (s *sequenceInvoker) Invoke(ctx context.Context, messages []llm.Message, opts llm.CallOptions) map[string]any {
	_ = ctx
	_ = opts
	s.prompts = append(s.prompts, messages)
	if len(s.prompts) > len(s.outputs) {
		return map[string]any{}
	}
	return s.outputs[len(s.prompts)-1]
}

func writeTempUpload(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write upload: %v", err)
	}
	return path
}

func staticExtract(paper extract.Paper) func(string) (extract.Paper, error) {
	return func(string) (extract.Paper, error) {
		return paper, nil
	}
}

func TestAnalyzeRunsAllStagesInOrder(t *testing.T) {
	inv := &sequenceInvoker{outputs: []map[string]any{
		{"core_technologies": []any{"transformers", "attention", "CUDA", "pytorch"}, "field_of_study": "machine learning"},
		{"problem": "sequence transduction is slow"},
		{"title": "Attention Is All You Need", "authors": "Vaswani et al.", "methodology": strings.Repeat("m", 300), "architecture": "encoder-decoder"},
		{"pseudo_code": []any{map[string]any{"component": "scaled dot-product attention"}}},
	}}
	a := &Analyzer{
		Invoker: inv,
		Extract: staticExtract(extract.Paper{Text: "paper body"}),
	}

	result, err := a.Analyze(context.Background(), writeTempUpload(t))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(inv.prompts) != 4 {
		t.Fatalf("stage calls = %d, want 4", len(inv.prompts))
	}

	if result.KeyConcepts["field_of_study"] != "machine learning" {
		t.Fatalf("key concepts not stored: %v", result.KeyConcepts)
	}
	if result.ProblemStatement["problem"] != "sequence transduction is slow" {
		t.Fatalf("problem statement not stored: %v", result.ProblemStatement)
	}
	if result.FullExplanation["architecture"] != "encoder-decoder" {
		t.Fatalf("explanation not stored: %v", result.FullExplanation)
	}
	if _, ok := result.PseudoCode["pseudo_code"]; !ok {
		t.Fatalf("pseudo code not stored: %v", result.PseudoCode)
	}
}

func TestAnalyzeThreadsContextBetweenStages(t *testing.T) {
	inv := &sequenceInvoker{outputs: []map[string]any{
		{"core_technologies": []any{"transformers", "attention", "CUDA", "pytorch"}, "field_of_study": "machine learning"},
		{"problem": "sequence transduction is slow"},
		{"methodology": strings.Repeat("m", 300), "architecture": "encoder-decoder stack"},
		{},
	}}
	a := &Analyzer{
		Invoker: inv,
		Extract: staticExtract(extract.Paper{Text: "paper body"}),
	}

	if _, err := a.Analyze(context.Background(), writeTempUpload(t)); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	problemPrompt := promptText(inv.prompts[1])
	if !strings.Contains(problemPrompt, "transformers, attention, CUDA") {
		t.Fatalf("problem prompt missing technologies context:\n%s", problemPrompt)
	}
	if strings.Contains(problemPrompt, "pytorch") {
		t.Fatalf("problem prompt should carry only the first three technologies:\n%s", problemPrompt)
	}

	explanationPrompt := promptText(inv.prompts[2])
	if !strings.Contains(explanationPrompt, "machine learning") {
		t.Fatalf("explanation prompt missing field of study:\n%s", explanationPrompt)
	}
	if !strings.Contains(explanationPrompt, "sequence transduction is slow") {
		t.Fatalf("explanation prompt missing problem context:\n%s", explanationPrompt)
	}

	pseudoPrompt := promptText(inv.prompts[3])
	if !strings.Contains(pseudoPrompt, strings.Repeat("m", contextSnippetChars)+"...") {
		t.Fatalf("pseudo prompt missing truncated methodology:\n%s", pseudoPrompt)
	}
	if strings.Contains(pseudoPrompt, strings.Repeat("m", contextSnippetChars+1)) {
		t.Fatalf("methodology snippet not truncated:\n%s", pseudoPrompt)
	}
	if !strings.Contains(pseudoPrompt, "encoder-decoder stack") {
		t.Fatalf("pseudo prompt missing architecture context:\n%s", pseudoPrompt)
	}
}

func TestAnalyzeEmptyStageDoesNotAbortPipeline(t *testing.T) {
	inv := &sequenceInvoker{outputs: []map[string]any{
		{}, {}, {}, {},
	}}
	a := &Analyzer{
		Invoker: inv,
		Extract: staticExtract(extract.Paper{Text: "paper body"}),
	}

	result, err := a.Analyze(context.Background(), writeTempUpload(t))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(inv.prompts) != 4 {
		t.Fatalf("stage calls = %d, want 4", len(inv.prompts))
	}
	if result.KeyConcepts == nil || result.PseudoCode == nil {
		t.Fatalf("empty stage outputs should still be stored: %+v", result)
	}
}

func TestAnalyzeMetadataPrefersDocumentInfo(t *testing.T) {
	inv := &sequenceInvoker{outputs: []map[string]any{
		{}, {}, {"title": "Inferred Title", "authors": "Inferred Authors"}, {},
	}}
	a := &Analyzer{
		Invoker: inv,
		Extract: staticExtract(extract.Paper{Text: "body", Title: "Embedded Title", Authors: "Embedded Authors"}),
	}

	result, err := a.Analyze(context.Background(), writeTempUpload(t))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Metadata.Title != "Embedded Title" || result.Metadata.Authors != "Embedded Authors" {
		t.Fatalf("metadata = %+v, want embedded values", result.Metadata)
	}
}

func TestAnalyzeMetadataFallsBackToExplanation(t *testing.T) {
	inv := &sequenceInvoker{outputs: []map[string]any{
		{}, {}, {"title": "Inferred Title", "authors": "Inferred Authors"}, {},
	}}
	a := &Analyzer{
		Invoker: inv,
		Extract: staticExtract(extract.Paper{Text: "body"}),
	}

	result, err := a.Analyze(context.Background(), writeTempUpload(t))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Metadata.Title != "Inferred Title" || result.Metadata.Authors != "Inferred Authors" {
		t.Fatalf("metadata = %+v, want inferred values", result.Metadata)
	}
}

func TestAnalyzeMetadataPlaceholders(t *testing.T) {
	inv := &sequenceInvoker{outputs: []map[string]any{{}, {}, {}, {}}}
	a := &Analyzer{
		Invoker: inv,
		Extract: staticExtract(extract.Paper{Text: "body"}),
	}

	result, err := a.Analyze(context.Background(), writeTempUpload(t))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Metadata.Title != "Unknown Title" || result.Metadata.Authors != "Unknown Authors" {
		t.Fatalf("metadata = %+v, want placeholders", result.Metadata)
	}
}

func TestAnalyzeRemovesUploadAndBoundsExcerpt(t *testing.T) {
	longText := strings.Repeat("x", graphExcerptChars+100)
	inv := &sequenceInvoker{outputs: []map[string]any{{}, {}, {}, {}}}
	a := &Analyzer{
		Invoker: inv,
		Extract: staticExtract(extract.Paper{Text: longText}),
	}

	path := writeTempUpload(t)
	result, err := a.Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("upload not removed: %v", err)
	}
	if len(result.Excerpt) != graphExcerptChars {
		t.Fatalf("excerpt length = %d, want %d", len(result.Excerpt), graphExcerptChars)
	}
}

func TestAnalyzeExtractFailure(t *testing.T) {
	inv := &sequenceInvoker{}
	a := &Analyzer{
		Invoker: inv,
		Extract: func(string) (extract.Paper, error) {
			return extract.Paper{}, os.ErrNotExist
		},
	}

	if _, err := a.Analyze(context.Background(), writeTempUpload(t)); err == nil {
		t.Fatal("expected extract error")
	}
	if len(inv.prompts) != 0 {
		t.Fatalf("no stages should run after extract failure, got %d", len(inv.prompts))
	}
}

func TestSaveUploadWritesFile(t *testing.T) {
	a := &Analyzer{UploadDir: t.TempDir()}

	path, err := a.SaveUpload([]byte("%PDF-1.4 content"))
	if err != nil {
		t.Fatalf("save upload: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read upload: %v", err)
	}
	if string(data) != "%PDF-1.4 content" {
		t.Fatalf("unexpected content: %q", data)
	}
	if filepath.Ext(path) != ".pdf" {
		t.Fatalf("upload path %q should end in .pdf", path)
	}
}

func promptText(messages []llm.Message) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
