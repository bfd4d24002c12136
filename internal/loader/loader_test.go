package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/data-jobs-etl/internal/db"
	"github.com/jonathan/data-jobs-etl/internal/export"
	"github.com/jonathan/data-jobs-etl/internal/source"
	"github.com/jonathan/data-jobs-etl/internal/tables"
	"github.com/jonathan/data-jobs-etl/internal/types"
)

// memSink records writes and fails the tables listed in fail.
type memSink struct {
	written []string
	fail    map[string]error
}

func (m *memSink) WriteTable(_ context.Context, t *types.Table) (int64, error) {
	if err := m.fail[t.Name]; err != nil {
		return 0, err
	}
	m.written = append(m.written, t.Name)
	return int64(t.Len()), nil
}

// memTxSink stages writes and only publishes them on success.
type memTxSink struct {
	memSink
	committed []string
}

func (m *memTxSink) InTx(ctx context.Context, fn func(w types.TableWriter) error) error {
	staged := &memSink{fail: m.fail}
	if err := fn(staged); err != nil {
		return err
	}
	m.committed = append(m.committed, staged.written...)
	return nil
}

func starTables() []*types.Table {
	var out []*types.Table
	for _, spec := range tables.Dimensions() {
		out = append(out, &types.Table{Name: spec.Name, Columns: spec.ColumnNames(), Rows: [][]any{{1, "NULL"}, {2, "x"}}})
	}
	fact := tables.FactTable([]types.FactRow{{
		JobTitleID: 2, JobTitleFull: "Data Analyst", JobLocationID: 2, PortalID: 2, ScheduleID: 2,
		SearchLocationID: 2, JobCountryID: 2, CompanyID: 2, SkillID: 2,
		PostedDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}})
	// Fact first to prove Load reorders.
	return append([]*types.Table{fact}, out...)
}

func TestLoad_DependencyOrder(t *testing.T) {
	sink := &memSink{}
	report, err := Load(context.Background(), sink, starTables(), Options{})
	require.NoError(t, err)
	require.NoError(t, report.Err())

	assert.Equal(t, []string{
		tables.Companies, tables.Countries, tables.Locations, tables.Portals,
		tables.Schedules, tables.Skills, tables.JobTitles, tables.JobPostings,
	}, sink.written)
	assert.Equal(t, int64(15), report.Rows())
}

func TestLoad_BestEffortContinues(t *testing.T) {
	boom := errors.New("boom")
	sink := &memSink{fail: map[string]error{tables.Locations: boom}}

	core, logs := observer.New(zap.InfoLevel)
	report, err := Load(context.Background(), sink, starTables(), Options{Logger: zap.New(core)})
	require.NoError(t, err)

	assert.Len(t, sink.written, 7, "remaining tables are still attempted")
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, tables.Locations, failed[0].Table)
	assert.ErrorIs(t, report.Err(), boom)
	assert.False(t, report.RolledBack)

	assert.Equal(t, 1, logs.FilterMessage("table load failed").Len())
	assert.Equal(t, 7, logs.FilterMessage("table loaded").Len())
}

func TestLoad_TransactionalRollsBack(t *testing.T) {
	boom := errors.New("fk violation")
	sink := &memTxSink{memSink: memSink{fail: map[string]error{tables.JobPostings: boom}}}

	report, err := Load(context.Background(), sink, starTables(), Options{Transactional: true})
	require.NoError(t, err)

	assert.True(t, report.RolledBack)
	assert.Empty(t, sink.committed)
	assert.Zero(t, report.Rows())
	assert.ErrorIs(t, report.Err(), boom)
}

func TestLoad_TransactionalCommits(t *testing.T) {
	sink := &memTxSink{}
	report, err := Load(context.Background(), sink, starTables(), Options{Transactional: true})
	require.NoError(t, err)
	require.NoError(t, report.Err())

	assert.Len(t, sink.committed, 8)
	assert.Empty(t, sink.written, "nothing bypasses the transaction")
}

func TestLoad_TransactionalRequiresTxSink(t *testing.T) {
	_, err := Load(context.Background(), &memSink{}, starTables(), Options{Transactional: true})
	assert.ErrorIs(t, err, ErrNotTransactional)
}

func TestLoad_UnknownTable(t *testing.T) {
	_, err := Load(context.Background(), &memSink{}, []*types.Table{{Name: "invoices"}}, Options{})
	assert.ErrorContains(t, err, `unknown table "invoices"`)
}

func TestReport_ErrCombines(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")
	r := &Report{Tables: []TableResult{{Table: "x", Err: a}, {Table: "y", Rows: 3}, {Table: "z", Err: b}}}
	assert.ErrorIs(t, r.Err(), a)
	assert.ErrorIs(t, r.Err(), b)
	assert.Equal(t, int64(3), r.Rows())

	assert.NoError(t, (&Report{}).Err())
}

func exportStar(t *testing.T, skip ...string) string {
	t.Helper()
	dir, err := export.NewDir(t.TempDir())
	require.NoError(t, err)

	var ts []*types.Table
	for _, tbl := range starTables() {
		keep := true
		for _, s := range skip {
			if tbl.Name == s {
				keep = false
			}
		}
		if keep {
			ts = append(ts, tbl)
		}
	}
	require.NoError(t, dir.WriteAll(context.Background(), ts))
	return dir.Path()
}

func TestLoadDir_SQLite(t *testing.T) {
	ctx := context.Background()
	dir := exportStar(t)

	store, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.EnsureSchema(ctx))

	report, err := LoadDir(ctx, store, dir, Options{})
	require.NoError(t, err)
	require.NoError(t, report.Err())

	n, err := store.Count(ctx, tables.JobPostings)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLoadDir_MissingFileBestEffort(t *testing.T) {
	ctx := context.Background()
	dir := exportStar(t, tables.Skills)

	store, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.EnsureSchema(ctx))

	report, err := LoadDir(ctx, store, dir, Options{})
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 2, "missing skills file and the fact rows that reference skills")

	var missing *source.MissingSourceFileError
	require.ErrorAs(t, failed[0].Err, &missing)
	assert.Equal(t, tables.Skills, missing.Table)

	var swe *db.SinkWriteError
	require.ErrorAs(t, failed[1].Err, &swe)
	assert.Equal(t, tables.JobPostings, swe.Table)

	n, err := store.Count(ctx, tables.Companies)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "earlier tables stay loaded")
}

func TestLoadDir_DuplicateDimensionValueTransactional(t *testing.T) {
	ctx := context.Background()
	dir := exportStar(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "companies.csv"), []byte("company_name\nNULL\nAcme\nAcme\n"), 0o644))

	store, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.EnsureSchema(ctx))

	report, err := LoadDir(ctx, store, dir, Options{Transactional: true})
	require.NoError(t, err)
	assert.True(t, report.RolledBack)

	var sfe *source.SourceFormatError
	require.ErrorAs(t, report.Err(), &sfe)
	assert.Equal(t, "duplicate value", sfe.Message)

	n, err := store.Count(ctx, tables.Skills)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoadDir_MissingFileTransactional(t *testing.T) {
	ctx := context.Background()
	dir := exportStar(t, tables.Skills)

	store, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.EnsureSchema(ctx))

	report, err := LoadDir(ctx, store, dir, Options{Transactional: true})
	require.NoError(t, err)
	assert.True(t, report.RolledBack)

	var missing *source.MissingSourceFileError
	assert.ErrorAs(t, report.Err(), &missing)

	n, err := store.Count(ctx, tables.Companies)
	require.NoError(t, err)
	assert.Zero(t, n)
}
