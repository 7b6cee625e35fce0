package papers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"paper-backend/internal/llm"
)

const (
	maxPaperChars       = 15000
	graphExcerptChars   = 5000
	contextSnippetChars = 200
	contextListLimit    = 3
	chatHistoryWindow   = 5
)

const analystPersona = `You are an expert academic researcher specializing in analyzing research papers.`

// keyConceptsPrompt asks for the concepts, technologies and methodologies of
// the paper. As the first stage it normally runs with an empty context.
func keyConceptsPrompt(paperText string, shared SharedContext) []llm.Message {
	var context strings.Builder
	if problem, ok := shared[StageProblemStatement]; ok {
		appendContextLine(&context, "Problem being addressed", stringField(problem, "problem"))
	}

	return []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: analystPersona + `
Your task is to identify and explain the key concepts, technologies, and methodologies used in a research paper.
Provide your response in JSON format.`,
		},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf(`Analyze the following research paper and identify the key concepts, technologies, frameworks, and methodologies used.
For each concept, provide a brief explanation of what it is and how it's used in the paper.
%s
Research Paper Content:
%s

Format your response as a JSON object with the following structure:
{
  "key_concepts": [
    {
      "name": "concept name",
      "category": "algorithm/framework/methodology/technology/etc",
      "explanation": "explanation of the concept",
      "relevance": "how this concept is used in the paper"
    }
  ],
  "core_technologies": ["list of main technologies used"],
  "novelty_aspects": ["list of novel approaches introduced in the paper"],
  "field_of_study": "the primary academic field this research belongs to",
  "interdisciplinary_connections": ["fields or domains this research connects"]
}`, context.String(), truncate(paperText, maxPaperChars)),
		},
	}
}

// problemStatementPrompt asks for the problem, existing approaches and their
// limitations, referencing the key-concepts stage when available.
func problemStatementPrompt(paperText string, shared SharedContext) []llm.Message {
	var context strings.Builder
	if concepts, ok := shared[StageKeyConcepts]; ok {
		technologies := stringListField(concepts, "core_technologies")
		appendContextLine(&context, "Core technologies identified", joinFirst(technologies, contextListLimit))
	}
	if explanation, ok := shared[StageFullExplanation]; ok {
		appendContextLine(&context, "Approach summary", stringField(explanation, "approach_summary"))
	}

	return []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: analystPersona + `
Your task is to identify and clearly articulate the problem statement, challenges, and limitations of existing approaches addressed in a research paper.
Provide your response in JSON format.`,
		},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf(`Analyze the following research paper and identify:
1. The main problem statement or research question being addressed
2. What alternative approaches or methods exist for solving this problem
3. The limitations, challenges, or blockers in these existing methods
4. Why a new approach was necessary
%s
Research Paper Content:
%s

Format your response as a JSON object with the following structure:
{
  "problem": "concise statement of the core problem being addressed",
  "research_questions": ["list of specific research questions"],
  "existing_approaches": [
    {
      "name": "name or description of existing approach",
      "limitations": ["specific limitations or challenges of this approach"]
    }
  ],
  "gap_in_research": "explanation of what was missing in existing approaches",
  "importance": "why solving this problem is significant to the field"
}`, context.String(), truncate(paperText, maxPaperChars)),
		},
	}
}

// fullExplanationPrompt asks for a comprehensive explanation, referencing the
// field of study and problem identified by earlier stages.
func fullExplanationPrompt(paperText string, shared SharedContext) []llm.Message {
	var context strings.Builder
	if concepts, ok := shared[StageKeyConcepts]; ok {
		appendContextLine(&context, "Field of study", stringField(concepts, "field_of_study"))
	}
	if problem, ok := shared[StageProblemStatement]; ok {
		appendContextLine(&context, "Problem being addressed", stringField(problem, "problem"))
	}

	return []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: analystPersona + `
Your task is to provide a comprehensive explanation of a research paper, covering its approach, methodology, innovations, evaluation metrics, and results.
Provide your response in JSON format.`,
		},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf(`Analyze the following research paper and provide a comprehensive explanation covering:
1. The overall approach and methodology
2. The key innovations or novel contributions
3. The architecture or system design
4. The evaluation metrics used
5. The main results and their implications
6. The limitations acknowledged by the authors
7. Future work suggested
%s
Research Paper Content:
%s

Format your response as a JSON object with the following structure:
{
  "title": "inferred title of the paper",
  "authors": "inferred authors if mentioned",
  "approach_summary": "concise summary of the approach taken",
  "methodology": "detailed explanation of the methodology",
  "innovations": ["list of key novel contributions"],
  "architecture": "description of the system architecture or design",
  "evaluation": {
    "metrics": ["list of evaluation metrics used"],
    "datasets": ["datasets used if applicable"],
    "baselines": ["baseline methods compared against"]
  },
  "results": "summary of main results and performance",
  "limitations": ["limitations acknowledged in the paper"],
  "future_work": ["directions for future work mentioned"]
}`, context.String(), truncate(paperText, maxPaperChars)),
		},
	}
}

// pseudoCodePrompt asks for a pseudo-code rendition of the paper's core
// algorithms, referencing technologies, methodology and architecture from
// earlier stages.
func pseudoCodePrompt(paperText string, shared SharedContext) []llm.Message {
	var context strings.Builder
	if concepts, ok := shared[StageKeyConcepts]; ok {
		technologies := stringListField(concepts, "core_technologies")
		appendContextLine(&context, "Core technologies", joinFirst(technologies, contextListLimit))
	}
	if explanation, ok := shared[StageFullExplanation]; ok {
		appendContextSnippet(&context, "Methodology", stringField(explanation, "methodology"))
		appendContextSnippet(&context, "Architecture", stringField(explanation, "architecture"))
	}

	return []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: `You are an expert AI and machine learning engineer specializing in implementing research papers.
Your task is to generate clear, well-structured pseudo-code that implements the core algorithms and methods described in a research paper.
Provide your response in JSON format.`,
		},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf(`Based on the following research paper, generate well-structured pseudo-code that implements the core algorithms, methods, or architecture described in the paper.
Focus on the most important and novel aspects of the paper implementation.
Provide code that is clear, commented, and follows best practices.
%s
Research Paper Content:
%s

Format your response as a JSON object with the following structure:
{
  "implementation_overview": "brief description of what the code implements",
  "prerequisites": ["libraries, frameworks, or dependencies needed"],
  "main_components": ["list of key components in the implementation"],
  "pseudo_code": [
    {
      "component": "name of component or algorithm",
      "description": "what this component does",
      "code": "detailed pseudo-code implementation with comments"
    }
  ],
  "usage_example": "example of how to use the implemented code",
  "potential_challenges": ["implementation challenges to be aware of"]
}`, context.String(), truncate(paperText, maxPaperChars)),
		},
	}
}

// chatPrompt builds the conversation-aware prompt for follow-up questions.
// It condenses each analysis stage into a short summary and replays the most
// recent turns verbatim.
func chatPrompt(userMessage string, result Result, history []ChatTurn) []llm.Message {
	var summary strings.Builder
	fmt.Fprintf(&summary, "Paper: %s\n", result.Metadata.Title)
	fmt.Fprintf(&summary, "Authors: %s\n", result.Metadata.Authors)
	if technologies := stringListField(result.KeyConcepts, "core_technologies"); len(technologies) > 0 {
		fmt.Fprintf(&summary, "Core technologies: %s\n", strings.Join(technologies, ", "))
	}
	if field := stringField(result.KeyConcepts, "field_of_study"); field != "" {
		fmt.Fprintf(&summary, "Field of study: %s\n", field)
	}
	if problem := stringField(result.ProblemStatement, "problem"); problem != "" {
		fmt.Fprintf(&summary, "Problem statement: %s\n", problem)
	}
	if approach := stringField(result.FullExplanation, "approach_summary"); approach != "" {
		fmt.Fprintf(&summary, "Approach: %s\n", approach)
	}
	if overview := stringField(result.PseudoCode, "implementation_overview"); overview != "" {
		fmt.Fprintf(&summary, "Implementation: %s\n", overview)
	}

	var conversation strings.Builder
	recent := history
	if len(recent) > chatHistoryWindow {
		recent = recent[len(recent)-chatHistoryWindow:]
	}
	for _, turn := range recent {
		fmt.Fprintf(&conversation, "User: %s\nAssistant: %s\n", turn.Query, turn.Response)
	}

	return []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: analystPersona + `
You answer follow-up questions about a paper that has already been analyzed, using the analysis summary and conversation so far.
Provide your response in JSON format.`,
		},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf(`Here is a summary of the analyzed paper:
%s
Conversation so far:
%s
Answer the following question about the paper:
%s

Format your response as a JSON object with the following structure:
{
  "answer": "your answer to the question"
}`, summary.String(), conversation.String(), userMessage),
		},
	}
}

// graphPrompt asks for a concept graph derived from the paper excerpt and
// the completed analysis.
func graphPrompt(result Result) []llm.Message {
	concepts := conceptNames(result.KeyConcepts)
	technologies := stringListField(result.KeyConcepts, "core_technologies")
	problem := stringField(result.ProblemStatement, "problem")
	approaches := approachNames(result.ProblemStatement)

	return []llm.Message{
		{
			Role:    llm.RoleSystem,
			Content: "You are an expert at extracting conceptual relationships from research papers. Output valid JSON only.",
		},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf(`Extract a knowledge graph from this research paper.

I'll provide you with the paper text and concepts we've already identified. Create a graph with:
1. Nodes representing key concepts, methods, datasets, and results
2. Edges representing relationships between these nodes

ALREADY IDENTIFIED INFORMATION:
- Key concepts: %s
- Technologies: %s
- Problem statement: %s...
- Alternative approaches: %s

INSTRUCTIONS:
1. Create 15-25 nodes representing the most important concepts
2. Create 20-40 edges showing relationships between nodes
3. Use the following node types: "concept", "method", "dataset", "result", "entity"
4. Use the following relationship types: "uses", "improves", "contradicts", "part_of", "results_in", "depends_on", "applied_to", "evaluated_on"

OUTPUT FORMAT:
Return a JSON object with this exact structure:
{
  "nodes": [
    {"id": "unique_id", "label": "Concept Name", "type": "concept|method|dataset|result|entity", "description": "Brief description"}
  ],
  "edges": [
    {"source": "source_node_id", "target": "target_node_id", "label": "relationship type", "description": "explanation of relationship"}
  ]
}

Paper text excerpt:
%s`,
				strings.Join(concepts, ", "),
				strings.Join(technologies, ", "),
				truncate(problem, contextSnippetChars),
				joinFirst(approaches, contextListLimit),
				truncate(result.Excerpt, graphExcerptChars)),
		},
	}
}

func appendContextLine(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	if b.Len() == 0 {
		b.WriteString("\nAdditional context from earlier analysis:\n")
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}

func appendContextSnippet(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	appendContextLine(b, label, truncate(value, contextSnippetChars)+"...")
}

// truncate caps s at limit bytes without splitting a multi-byte rune; the
// cut backs up to the nearest rune boundary.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	value, _ := m[key].(string)
	return value
}

func stringListField(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}
	switch raw := m[key].(type) {
	case []string:
		return raw
	case []any:
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		return []string{raw}
	default:
		return nil
	}
}

func joinFirst(values []string, limit int) string {
	if len(values) > limit {
		values = values[:limit]
	}
	return strings.Join(values, ", ")
}

func conceptNames(keyConcepts map[string]any) []string {
	raw, _ := keyConcepts[StageKeyConcepts].([]any)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if name := stringField(entry, "name"); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func approachNames(problemStatement map[string]any) []string {
	raw, _ := problemStatement["existing_approaches"].([]any)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if name := stringField(entry, "name"); name != "" {
			out = append(out, name)
		}
	}
	return out
}
