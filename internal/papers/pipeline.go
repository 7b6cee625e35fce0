package papers

import (
	"context"
	"fmt"
	"os"

	"paper-backend/internal/extract"
	"paper-backend/internal/llm"
	"paper-backend/internal/shared/telemetry"
)

// StageInvoker abstracts the normalized model call the pipeline stages
// depend on. Satisfied by llm.Invoker.
type StageInvoker interface {
	Invoke(ctx context.Context, messages []llm.Message, opts llm.CallOptions) map[string]any
}

type stageSpec struct {
	name   string
	prompt func(paperText string, shared SharedContext) []llm.Message
}

// Stages run in dependency order: each prompt may reference the output of
// the stages before it through the shared context.
var stages = []stageSpec{
	{StageKeyConcepts, keyConceptsPrompt},
	{StageProblemStatement, problemStatementPrompt},
	{StageFullExplanation, fullExplanationPrompt},
	{StagePseudoCode, pseudoCodePrompt},
}

// Analyzer runs the multi-stage analysis over an uploaded paper.
type Analyzer struct {
	Invoker   StageInvoker
	UploadDir string
	Extract   func(path string) (extract.Paper, error)
}

func NewAnalyzer(invoker StageInvoker, uploadDir string) *Analyzer {
	return &Analyzer{
		Invoker:   invoker,
		UploadDir: uploadDir,
		Extract:   extract.FromFile,
	}
}

// SaveUpload writes the uploaded bytes to a temporary PDF file and returns
// its path. The caller owns the file; Analyze removes it when done.
func (a *Analyzer) SaveUpload(content []byte) (string, error) {
	if a.UploadDir != "" {
		if err := os.MkdirAll(a.UploadDir, 0o755); err != nil {
			return "", fmt.Errorf("create upload dir: %w", err)
		}
	}
	f, err := os.CreateTemp(a.UploadDir, "paper-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(content); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return f.Name(), nil
}

// Analyze extracts the paper text and runs every stage in order, feeding
// each stage a snapshot of the results so far. The uploaded file is removed
// whether analysis succeeds or fails.
func (a *Analyzer) Analyze(ctx context.Context, path string) (Result, error) {
	defer func() {
		if err := os.Remove(path); err != nil {
			telemetry.Warn("upload cleanup failed", map[string]any{"path": path, "error": err.Error()})
		}
	}()

	paper, err := a.Extract(path)
	if err != nil {
		return Result{}, fmt.Errorf("extract paper: %w", err)
	}

	shared := SharedContext{}
	results := map[string]map[string]any{}
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		messages := stage.prompt(paper.Text, shared.snapshot())
		out := a.Invoker.Invoke(ctx, messages, llm.CallOptions{})
		results[stage.name] = out
		if stage.name != StagePseudoCode {
			shared[stage.name] = out
		}
		telemetry.Info("analysis stage finished", map[string]any{
			"stage":  stage.name,
			"fields": len(out),
		})
	}

	result := Result{
		Metadata:         buildMetadata(paper, results[StageFullExplanation]),
		KeyConcepts:      results[StageKeyConcepts],
		ProblemStatement: results[StageProblemStatement],
		FullExplanation:  results[StageFullExplanation],
		PseudoCode:       results[StagePseudoCode],
		Excerpt:          truncate(paper.Text, graphExcerptChars),
	}
	return result, nil
}

// buildMetadata prefers the document's own metadata, falls back to the
// title and authors the explanation stage inferred, and finally to
// placeholders so the response shape stays stable.
func buildMetadata(paper extract.Paper, explanation map[string]any) Metadata {
	title := paper.Title
	if title == "" {
		title = stringField(explanation, "title")
	}
	if title == "" {
		title = "Unknown Title"
	}
	authors := paper.Authors
	if authors == "" {
		authors = stringField(explanation, "authors")
	}
	if authors == "" {
		authors = "Unknown Authors"
	}
	return Metadata{Title: title, Authors: authors}
}
