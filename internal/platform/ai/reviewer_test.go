// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInsight(t *testing.T) {
	testCases := []struct {
		name    string
		reply   string
		wantOK  bool
		quality float64
	}{
		{
			name:    "bare json object",
			reply:   `{"qualityScore": 82, "securityScore": 70, "performanceScore": 91, "issues": [], "suggestions": [], "summary": "fine"}`,
			wantOK:  true,
			quality: 82,
		},
		{
			name:    "fenced json",
			reply:   "```json\n{\"qualityScore\": 55, \"securityScore\": 60, \"performanceScore\": 65, \"summary\": \"ok\"}\n```",
			wantOK:  true,
			quality: 55,
		},
		{
			name:   "prose only",
			reply:  "I could not analyze this file.",
			wantOK: false,
		},
		{
			name:   "broken json",
			reply:  `{"qualityScore": `,
			wantOK: false,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			insight, ok := parseInsight(testCase.reply)

			require.Equal(t, testCase.wantOK, ok)
			if testCase.wantOK {
				assert.Equal(t, testCase.quality, insight.QualityScore)
			}
		})
	}
}

func TestInsightClamp(t *testing.T) {
	insight := Insight{QualityScore: -5, SecurityScore: 130, PerformanceScore: 50}
	insight.clamp()

	assert.Equal(t, float64(0), insight.QualityScore)
	assert.Equal(t, float64(100), insight.SecurityScore)
	assert.Equal(t, float64(50), insight.PerformanceScore)
}

func TestPlaceholderInsight_Deterministic(t *testing.T) {
	first := PlaceholderInsight("internal/auth/service.go")
	second := PlaceholderInsight("internal/auth/service.go")
	other := PlaceholderInsight("cmd/api/main.go")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first.QualityScore, other.QualityScore)

	assert.GreaterOrEqual(t, first.QualityScore, float64(60))
	assert.LessOrEqual(t, first.QualityScore, float64(100))
}
