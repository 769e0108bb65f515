package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResources(t *testing.T) {
	session := connectClient(t, newTestLiteServer(t))
	ctx := context.Background()

	listed, err := session.ListResources(ctx, nil)
	require.NoError(t, err)
	var uris []string
	for _, r := range listed.Resources {
		uris = append(uris, r.URI)
	}
	assert.ElementsMatch(t, []string{ResourceInteractions, ResourceSymptoms, ResourceAnalyzers}, uris)

	res, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: ResourceInteractions})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	var pairs []interactionEntry
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &pairs))
	assert.Len(t, pairs, 9)

	res, err = session.ReadResource(ctx, &mcp.ReadResourceParams{URI: ResourceSymptoms})
	require.NoError(t, err)
	var table map[string][]conditionEntry
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &table))
	assert.Len(t, table["chest pain"], 3)
}

func TestReviewAssessmentPrompt(t *testing.T) {
	session := connectClient(t, newTestLiteServer(t))
	ctx := context.Background()

	res, err := session.GetPrompt(ctx, &mcp.GetPromptParams{
		Name:      PromptReviewAssessment,
		Arguments: map[string]string{"analyzer": "interactions", "input_digest": "abc", "level": "severe"},
	})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "drug_interaction assessment with input digest abc")
	assert.Contains(t, text.Text, "mild, moderate, none, severe")
	assert.Contains(t, text.Text, ToolSubmitFeedback)

	_, err = session.GetPrompt(ctx, &mcp.GetPromptParams{
		Name:      PromptReviewAssessment,
		Arguments: map[string]string{"analyzer": "genomics", "input_digest": "abc"},
	})
	assert.Error(t, err)
}
