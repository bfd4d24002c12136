package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/data-jobs-etl/internal/tables"
	"github.com/jonathan/data-jobs-etl/internal/types"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.EnsureSchema(ctx))
	return s
}

func dimensionRows() []*types.Table {
	var out []*types.Table
	for _, spec := range tables.Dimensions() {
		out = append(out, &types.Table{
			Name:    spec.Name,
			Columns: spec.ColumnNames(),
			Rows:    [][]any{{1, "NULL"}},
		})
	}
	return out
}

func factRow(skillID int) types.FactRow {
	return types.FactRow{
		JobTitleID: 1, JobTitleFull: "Data Analyst", JobLocationID: 1, PortalID: 1,
		ScheduleID: 1, SearchLocationID: 1, JobCountryID: 1, CompanyID: 1, SkillID: skillID,
		PostedDate: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestSQLite_WriteTable(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	for _, tbl := range dimensionRows() {
		n, err := s.WriteTable(ctx, tbl)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}
	n, err := s.WriteTable(ctx, tables.FactTable([]types.FactRow{factRow(1), factRow(1)}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := s.Count(ctx, tables.JobPostings)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSQLite_RejectsMissingForeignKey(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	for _, tbl := range dimensionRows() {
		_, err := s.WriteTable(ctx, tbl)
		require.NoError(t, err)
	}

	_, err := s.WriteTable(ctx, tables.FactTable([]types.FactRow{factRow(1), factRow(2)}))
	var swe *SinkWriteError
	require.ErrorAs(t, err, &swe)
	assert.Equal(t, tables.JobPostings, swe.Table)
	assert.Equal(t, 2, swe.Rows)
	assert.Contains(t, err.Error(), "FOREIGN KEY")

	count, err := s.Count(ctx, tables.JobPostings)
	require.NoError(t, err)
	assert.Zero(t, count, "a rejected table is rolled back as a whole")
}

func TestSQLite_RejectsDuplicateDimensionID(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	tbl := &types.Table{Name: tables.Skills, Columns: []string{"skill_id", "skill_name"}, Rows: [][]any{{1, "go"}, {1, "sql"}}}
	_, err := s.WriteTable(ctx, tbl)
	var swe *SinkWriteError
	assert.ErrorAs(t, err, &swe)
}

func TestSQLite_InTxRollsBack(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.InTx(ctx, func(w types.TableWriter) error {
		for _, tbl := range dimensionRows() {
			if _, err := w.WriteTable(ctx, tbl); err != nil {
				return err
			}
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := s.Count(ctx, tables.Companies)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSQLite_InTxCommits(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(w types.TableWriter) error {
		for _, tbl := range dimensionRows() {
			if _, err := w.WriteTable(ctx, tbl); err != nil {
				return err
			}
		}
		_, err := w.WriteTable(ctx, tables.FactTable([]types.FactRow{factRow(1)}))
		return err
	})
	require.NoError(t, err)

	count, err := s.Count(ctx, tables.JobPostings)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSQLite_DropSchema(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.DropSchema(ctx))
	_, err := s.Count(ctx, tables.Companies)
	assert.Error(t, err)

	require.NoError(t, s.EnsureSchema(ctx))
	count, err := s.Count(ctx, tables.Companies)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, store)
	require.NoError(t, store.Close())

	_, err = Open(ctx, "mysql", "")
	assert.ErrorContains(t, err, `unsupported driver "mysql"`)
}

func TestInsertStatement(t *testing.T) {
	got := insertStatement(&types.Table{Name: "skills", Columns: []string{"skill_id", "skill_name"}})
	assert.Equal(t, `INSERT INTO "skills" ("skill_id", "skill_name") VALUES (?, ?)`, got)
}

func TestDropStatements_FactFirst(t *testing.T) {
	stmts := dropStatements()
	require.Len(t, stmts, 8)
	assert.Equal(t, `DROP TABLE IF EXISTS "job_postings"`, stmts[0])
	assert.Equal(t, `DROP TABLE IF EXISTS "companies"`, stmts[7])
}

func TestSinkWriteError(t *testing.T) {
	cause := errors.New("constraint failed")
	err := &SinkWriteError{Table: "skills", Rows: 3, Cause: cause}
	assert.Equal(t, "failed to write 3 rows to skills: constraint failed", err.Error())
	assert.ErrorIs(t, err, cause)
}
