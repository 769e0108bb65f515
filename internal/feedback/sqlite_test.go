package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cds-scoring-engine/internal/domain"
)

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)

	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
	assert.Equal(t, dbPath, store.Path())
}

func TestSQLiteStore_Save(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	fb := interactionFeedback("digest-1", "severe", "moderate")
	fb.Notes = "Patient already on a PPI"

	err := store.Save(ctx, fb)

	require.NoError(t, err)
	assert.NotZero(t, fb.ID, "ID should be assigned")
	assert.False(t, fb.CreatedAt.IsZero(), "CreatedAt should be set")
	assert.False(t, fb.UpdatedAt.IsZero(), "UpdatedAt should be set")
}

func TestSQLiteStore_Save_Update(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	fb := interactionFeedback("digest-1", "severe", "severe")
	require.NoError(t, store.Save(ctx, fb))
	originalID := fb.ID

	fb.ClinicianLevel = "mild"
	fb.Agreed = false
	fb.Notes = "Updated after review"
	require.NoError(t, store.Save(ctx, fb))

	assert.Equal(t, originalID, fb.ID, "Should update existing record")

	retrieved, err := store.Get(ctx, domain.AnalyzerDrugInteraction, "digest-1", "")
	require.NoError(t, err)
	assert.Equal(t, "mild", retrieved.ClinicianLevel)
	assert.False(t, retrieved.Agreed)
	assert.Equal(t, "Updated after review", retrieved.Notes)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSQLiteStore_Save_DistinctPatients(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	first := interactionFeedback("digest-1", "severe", "severe")
	first.PatientRef = "patient-a"
	second := interactionFeedback("digest-1", "severe", "moderate")
	second.PatientRef = "patient-b"

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	assert.NotEqual(t, first.ID, second.ID)
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	b, err := store.Get(ctx, domain.AnalyzerDrugInteraction, "digest-1", "patient-b")
	require.NoError(t, err)
	assert.Equal(t, "moderate", b.ClinicianLevel)
}

func TestSQLiteStore_Get(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	fb := &Feedback{
		Analyzer:       domain.AnalyzerSymptom,
		InputDigest:    "digest-2",
		SuggestedLevel: "high",
		ClinicianLevel: "high",
		Agreed:         true,
	}
	require.NoError(t, store.Save(ctx, fb))

	retrieved, err := store.Get(ctx, domain.AnalyzerSymptom, "digest-2", "")

	require.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, fb.ID, retrieved.ID)
	assert.Equal(t, domain.AnalyzerSymptom, retrieved.Analyzer)
	assert.Equal(t, "high", retrieved.ClinicianLevel)
	assert.True(t, retrieved.Agreed)

	byID, err := store.GetByID(ctx, fb.ID)
	require.NoError(t, err)
	assert.Equal(t, "digest-2", byID.InputDigest)
}

func TestSQLiteStore_Get_NotFound(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, domain.AnalyzerSymptom, "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetByID(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	// The same digest under another analyzer is a different entry.
	require.NoError(t, store.Save(ctx, interactionFeedback("shared", "none", "none")))
	_, err = store.Get(ctx, domain.AnalyzerSymptom, "shared", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_List_Pagination(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	digests := []string{"d1", "d2", "d3", "d4", "d5"}
	for _, d := range digests {
		require.NoError(t, store.Save(ctx, interactionFeedback(d, "mild", "mild")))
	}

	all, err := store.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	var got []string
	for _, fb := range all {
		got = append(got, fb.InputDigest)
	}
	assert.ElementsMatch(t, digests, got)

	page1, err := store.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page3, err := store.List(ctx, 2, 4)
	require.NoError(t, err)
	assert.Len(t, page3, 1)

	beyond, err := store.List(ctx, 2, 10)
	require.NoError(t, err)
	assert.NotNil(t, beyond)
	assert.Empty(t, beyond)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	fb := interactionFeedback("digest-1", "moderate", "moderate")
	require.NoError(t, store.Save(ctx, fb))

	require.NoError(t, store.Delete(ctx, fb.ID))

	_, err := store.GetByID(ctx, fb.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, fb.ID), ErrNotFound)
}

func TestSQLiteStore_ExportJSON(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	fb := interactionFeedback("digest-1", "severe", "severe")
	fb.Notes = "Bleeding risk confirmed"
	require.NoError(t, store.Save(ctx, fb))

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &buf))

	var export FeedbackExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))
	assert.Equal(t, "1.0", export.Version)
	assert.Equal(t, 1, export.Count)
	require.Len(t, export.Feedback, 1)
	assert.Equal(t, "Bleeding risk confirmed", export.Feedback[0].Notes)
	assert.False(t, export.ExportedAt.IsZero())
}

func TestSQLiteStore_ExportJSON_Empty(t *testing.T) {
	store := createTestStore(t)

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(context.Background(), &buf))

	assert.Contains(t, buf.String(), `"feedback": []`)
	assert.Contains(t, buf.String(), `"count": 0`)
}

func TestSQLiteStore_ImportJSON(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	jsonData := `{
		"version": "1.0",
		"exported_at": "2026-01-17T10:00:00Z",
		"count": 4,
		"feedback": [
			{
				"analyzer": "drug_interaction",
				"input_digest": "abc",
				"suggested_level": "severe",
				"clinician_level": "severe",
				"agreed": true
			},
			{
				"analyzer": "health_risk",
				"input_digest": "def",
				"patient_ref": "p-7",
				"suggested_level": "medium",
				"clinician_level": "high",
				"agreed": false,
				"notes": "Strong family history"
			},
			{
				"analyzer": "symptom",
				"input_digest": "ghi",
				"suggested_level": "severe",
				"clinician_level": "low"
			},
			{
				"analyzer": "unknown",
				"input_digest": "jkl",
				"suggested_level": "low",
				"clinician_level": "low"
			}
		]
	}`

	imported, skipped, err := store.ImportJSON(ctx, bytes.NewReader([]byte(jsonData)))

	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Equal(t, 2, skipped, "invalid levels and unknown analyzers are skipped")

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	risk, err := store.Get(ctx, domain.AnalyzerHealthRisk, "def", "p-7")
	require.NoError(t, err)
	assert.Equal(t, "high", risk.ClinicianLevel)
	assert.Equal(t, "Strong family history", risk.Notes)
}

func TestSQLiteStore_ImportJSON_SkipDuplicates(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, interactionFeedback("abc", "severe", "severe")))

	jsonData := `{
		"version": "1.0",
		"count": 2,
		"feedback": [
			{"analyzer": "drug_interaction", "input_digest": "abc", "suggested_level": "severe", "clinician_level": "mild"},
			{"analyzer": "drug_interaction", "input_digest": "xyz", "suggested_level": "none", "clinician_level": "none", "agreed": true}
		]
	}`

	imported, skipped, err := store.ImportJSON(ctx, bytes.NewReader([]byte(jsonData)))

	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 1, skipped)

	existing, err := store.Get(ctx, domain.AnalyzerDrugInteraction, "abc", "")
	require.NoError(t, err)
	assert.Equal(t, "severe", existing.ClinicianLevel, "Existing should not be overwritten")
}

func TestSQLiteStore_ImportJSON_Malformed(t *testing.T) {
	store := createTestStore(t)

	_, _, err := store.ImportJSON(context.Background(), bytes.NewReader([]byte("{not json")))
	assert.Error(t, err)
}

func TestSQLiteStore_RoundTripBetweenStores(t *testing.T) {
	source := createTestStore(t)
	target := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, source.Save(ctx, interactionFeedback("a", "mild", "moderate")))
	require.NoError(t, source.Save(ctx, interactionFeedback("b", "none", "none")))

	var buf bytes.Buffer
	require.NoError(t, source.ExportJSON(ctx, &buf))

	imported, skipped, err := target.ImportJSON(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Equal(t, 0, skipped)

	fb, err := target.Get(ctx, domain.AnalyzerDrugInteraction, "a", "")
	require.NoError(t, err)
	assert.Equal(t, "moderate", fb.ClinicianLevel)
}

func interactionFeedback(digest, suggested, clinician string) *Feedback {
	return &Feedback{
		Analyzer:       domain.AnalyzerDrugInteraction,
		InputDigest:    digest,
		SuggestedLevel: suggested,
		ClinicianLevel: clinician,
		Agreed:         suggested == clinician,
	}
}

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}
