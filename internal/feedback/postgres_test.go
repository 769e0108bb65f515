package feedback

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cds-scoring-engine/internal/domain"
)

var feedbackRowColumns = []string{
	"id", "analyzer", "input_digest", "patient_ref",
	"suggested_level", "clinician_level", "agreed", "notes", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()

	store, err := NewPostgresStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		mock.ExpectClose()
		assert.NoError(t, store.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return store, mock
}

func TestNewPostgresStore_RequiresDB(t *testing.T) {
	_, err := NewPostgresStore(nil)
	assert.Error(t, err)
}

func TestNewPostgresStore_PingFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	_, err = NewPostgresStore(db)

	assert.ErrorContains(t, err, "failed to ping database")
}

func TestPostgresStore_Save(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO feedback .* ON CONFLICT \(analyzer, input_digest, patient_ref\) DO UPDATE`).
		WithArgs("drug_interaction", "digest-1", "p-1", "severe", "mild", false, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), created))

	fb := interactionFeedback("digest-1", "severe", "mild")
	fb.PatientRef = "p-1"

	err := store.Save(context.Background(), fb)

	require.NoError(t, err)
	assert.Equal(t, int64(7), fb.ID)
	assert.Equal(t, created, fb.CreatedAt)
	assert.False(t, fb.UpdatedAt.IsZero())
}

func TestPostgresStore_SaveError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO feedback`).WillReturnError(sql.ErrConnDone)

	err := store.Save(context.Background(), interactionFeedback("digest-1", "severe", "severe"))

	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM feedback WHERE analyzer = \$1 AND input_digest = \$2 AND patient_ref = \$3`).
		WithArgs("health_risk", "digest-2", "").
		WillReturnRows(sqlmock.NewRows(feedbackRowColumns).
			AddRow(int64(3), "health_risk", "digest-2", "", "medium", "high", false, "family history", now, now))

	fb, err := store.Get(context.Background(), domain.AnalyzerHealthRisk, "digest-2", "")

	require.NoError(t, err)
	assert.Equal(t, int64(3), fb.ID)
	assert.Equal(t, domain.AnalyzerHealthRisk, fb.Analyzer)
	assert.Equal(t, "high", fb.ClinicianLevel)
	assert.Equal(t, "family history", fb.Notes)
}

func TestPostgresStore_GetByID_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM feedback WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(feedbackRowColumns))

	_, err := store.GetByID(context.Background(), 9)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_List(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM feedback ORDER BY created_at DESC, id DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(int64(DefaultListLimit), int64(0)).
		WillReturnRows(sqlmock.NewRows(feedbackRowColumns).
			AddRow(int64(2), "symptom", "b", "", "high", "high", true, "", now, now).
			AddRow(int64(1), "symptom", "a", "", "low", "medium", false, "", now, now))

	list, err := store.List(context.Background(), 0, 0)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].InputDigest)
	assert.True(t, list[0].Agreed)
	assert.Equal(t, "a", list[1].InputDigest)
}

func TestPostgresStore_Count(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM feedback`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))

	count, err := store.Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
}

func TestPostgresStore_Delete(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM feedback WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM feedback WHERE id = \$1`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.Delete(context.Background(), 3))
	assert.ErrorIs(t, store.Delete(context.Background(), 4), ErrNotFound)
}

func TestPostgresStore_ImportJSON(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM feedback WHERE analyzer`).
		WithArgs("symptom", "new", "").
		WillReturnRows(sqlmock.NewRows(feedbackRowColumns))
	mock.ExpectQuery(`INSERT INTO feedback`).
		WithArgs("symptom", "new", "", "high", "high", true, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))
	mock.ExpectQuery(`SELECT .* FROM feedback WHERE analyzer`).
		WithArgs("symptom", "old", "").
		WillReturnRows(sqlmock.NewRows(feedbackRowColumns).
			AddRow(int64(2), "symptom", "old", "", "low", "low", true, "", now, now))

	data := `{"version":"1.0","count":3,"feedback":[
		{"analyzer":"symptom","input_digest":"new","suggested_level":"high","clinician_level":"high","agreed":true},
		{"analyzer":"symptom","input_digest":"old","suggested_level":"low","clinician_level":"low","agreed":true},
		{"analyzer":"symptom","input_digest":"","suggested_level":"low","clinician_level":"low"}
	]}`

	imported, skipped, err := store.ImportJSON(context.Background(), bytes.NewBufferString(data))

	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 2, skipped)
}
