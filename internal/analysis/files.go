// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package analysis

import (
	"context"
	"fmt"
	"sort"

	"github.com/codenoteai/codenote/internal/platform/ai"
	"github.com/codenoteai/codenote/pkg/uuidv7"
)

// # Single-File Review

// FileInput holds the data for a synchronous single-file review.
type FileInput struct {
	RepositoryID string
	FilePath     string
	Content      string
}

/*
AnalyzeFile reviews one file synchronously and persists the result.

Description: Unlike repository runs this does not touch GitHub; the caller
supplies the content directly (editor integrations paste buffers in).

Parameters:
  - context: context.Context
  - ownerID: string
  - input: FileInput

Returns:
  - *FileAnalysis: Persisted review
  - error: NotFound (foreign repository), review, or storage failures
*/
func (service *Service) AnalyzeFile(context context.Context, ownerID string, input FileInput) (*FileAnalysis, error) {
	// Ownership gate: the target repository must belong to the caller.
	if _, err := service.repositories.FindByID(context, ownerID, input.RepositoryID); err != nil {
		return nil, err
	}

	insight, err := service.review(context, input.FilePath, input.Content)
	if err != nil {
		return nil, fmt.Errorf("analysis_service_file_review_failed: %w", err)
	}

	record := &FileAnalysis{
		ID:               uuidv7.New(),
		RepositoryID:     input.RepositoryID,
		OwnerID:          ownerID,
		FilePath:         input.FilePath,
		QualityScore:     insight.QualityScore,
		SecurityScore:    insight.SecurityScore,
		PerformanceScore: insight.PerformanceScore,
		Issues:           insight.Issues,
		Suggestions:      insight.Suggestions,
		Summary:          insight.Summary,
	}

	if err := service.store.CreateFileAnalysis(context, record); err != nil {
		return nil, fmt.Errorf("analysis_service_file_store_failed: %w", err)
	}

	return record, nil
}

// GetFile returns a file analysis owned by the caller.
func (service *Service) GetFile(context context.Context, ownerID, id string) (*FileAnalysis, error) {
	return service.store.FindFileAnalysis(context, ownerID, id)
}

// review runs one file through the reviewer, or produces placeholder scores
// when no reviewer is configured.
func (service *Service) review(context context.Context, filePath, content string) (ai.Insight, error) {
	if service.reviewer == nil {
		return ai.PlaceholderInsight(filePath), nil
	}
	return service.reviewer.AnalyzeCode(context, filePath, content)
}

// # Aggregation

// fileInsight pairs a reviewed path with its insight for aggregation.
type fileInsight struct {
	path    string
	insight ai.Insight
}

// aggregate folds per-file insights into the repository-level scores.
//
// Scores are the arithmetic mean across files; issue and suggestion lists
// are de-duplicated with first-seen order preserved.
func aggregate(run *Analysis, insights []fileInsight) {
	if len(insights) == 0 {
		return
	}

	var quality, security, performance float64
	var issues, suggestions []string
	seenIssues := map[string]struct{}{}
	seenSuggestions := map[string]struct{}{}

	for _, reviewed := range insights {
		quality += reviewed.insight.QualityScore
		security += reviewed.insight.SecurityScore
		performance += reviewed.insight.PerformanceScore

		for _, issue := range reviewed.insight.Issues {
			if _, seen := seenIssues[issue]; !seen {
				seenIssues[issue] = struct{}{}
				issues = append(issues, issue)
			}
		}
		for _, suggestion := range reviewed.insight.Suggestions {
			if _, seen := seenSuggestions[suggestion]; !seen {
				seenSuggestions[suggestion] = struct{}{}
				suggestions = append(suggestions, suggestion)
			}
		}
	}

	count := float64(len(insights))
	run.QualityScore = quality / count
	run.SecurityScore = security / count
	run.PerformanceScore = performance / count
	run.Issues = issues
	run.Suggestions = suggestions
	run.Summary = summarize(insights)
}

// summarize builds a one-line roll-up naming the weakest file by quality.
func summarize(insights []fileInsight) string {
	sorted := make([]fileInsight, len(insights))
	copy(sorted, insights)
	sort.Slice(sorted, func(a, b int) bool {
		return sorted[a].insight.QualityScore < sorted[b].insight.QualityScore
	})

	weakest := sorted[0]
	return fmt.Sprintf("Analyzed %d files; lowest quality score %.0f (%s).",
		len(insights), weakest.insight.QualityScore, weakest.path)
}
