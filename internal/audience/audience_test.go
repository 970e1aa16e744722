package audience_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-labs/crmsync/internal/audience"
	"github.com/vitrine-labs/crmsync/internal/model"
	"github.com/vitrine-labs/crmsync/internal/segment"
	"github.com/vitrine-labs/crmsync/internal/store"
	"github.com/vitrine-labs/crmsync/internal/testutil"
)

var aesthetic = []string{"A1", "A2"}

func newRefresher(t *testing.T, st *store.Store) *audience.Refresher {
	t.Helper()
	return audience.NewRefresher(st, segment.NewClassifier(aesthetic),
		audience.WithNow(testutil.FixedNow(testutil.Day(15))))
}

func seedMaster(t *testing.T, st *store.Store, hotmartID, email, name, phone string) {
	t.Helper()
	_, err := st.InsertMaster(context.Background(), model.MasterCustomer{
		Email:     email,
		Phone:     phone,
		Name:      name,
		HotmartID: hotmartID,
		Source:    model.SourceHotmart,
		UpdatedAt: testutil.Day(1),
	})
	require.NoError(t, err)
}

func TestRefresh_SplitsLifetimeValueBySegment(t *testing.T) {
	st := testutil.OpenStore(t)
	ctx := context.Background()

	seedMaster(t, st, "H1", "ana@x.com", "Ana", "+5511999")
	testutil.SeedSale(t, st, testutil.Sale("T1", "APPROVED", "H1", "A1", 100, testutil.Day(2)))
	testutil.SeedSale(t, st, testutil.Sale("T2", "COMPLETE", "H1", "A2", 50.5, testutil.Day(3)))
	testutil.SeedSale(t, st, testutil.Sale("T3", "APPROVED", "H1", "X9", 30, testutil.Day(4)))
	testutil.SeedSale(t, st, testutil.Sale("T4", "REFUNDED", "H1", "X9", 999, testutil.Day(5)))

	n, err := newRefresher(t, st).Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	estetica, err := st.AudienceMembers(ctx, model.SegmentEstetica)
	require.NoError(t, err)
	require.Len(t, estetica, 1)
	assert.Equal(t, "ana@x.com", estetica[0].Email)
	assert.Equal(t, 150.5, estetica[0].Value, "aesthetic products only")

	ilpi, err := st.AudienceMembers(ctx, model.SegmentILPI)
	require.NoError(t, err)
	require.Len(t, ilpi, 1)
	assert.Equal(t, 30.0, ilpi[0].Value, "refunded sale contributes nothing")
}

func TestRefresh_DuplicateSaleRowsCountedOnce(t *testing.T) {
	st := testutil.OpenStore(t)
	ctx := context.Background()

	seedMaster(t, st, "H1", "ana@x.com", "Ana", "")

	// The same transaction lands twice, from two overlapping sync runs.
	s := testutil.Sale("T1", "APPROVED", "H1", "A1", 100, testutil.Day(2))
	s.ImportedAt = testutil.Day(2)
	testutil.SeedSale(t, st, s)
	s.ImportedAt = testutil.Day(3)
	testutil.SeedSale(t, st, s)

	_, err := newRefresher(t, st).Refresh(ctx)
	require.NoError(t, err)

	estetica, err := st.AudienceMembers(ctx, model.SegmentEstetica)
	require.NoError(t, err)
	require.Len(t, estetica, 1)
	assert.Equal(t, 100.0, estetica[0].Value)
}

func TestRefresh_SkipsSalesWithoutMasterEmail(t *testing.T) {
	st := testutil.OpenStore(t)
	ctx := context.Background()

	seedMaster(t, st, "H1", "", "No Email", "+5511999")
	testutil.SeedSale(t, st, testutil.Sale("T1", "APPROVED", "H1", "A1", 100, testutil.Day(2)))

	n, err := newRefresher(t, st).Refresh(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := st.AudienceCount(ctx, model.SegmentEstetica)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRefresh_Rerunnable(t *testing.T) {
	st := testutil.OpenStore(t)
	ctx := context.Background()

	seedMaster(t, st, "H1", "ana@x.com", "Ana", "")
	testutil.SeedSale(t, st, testutil.Sale("T1", "APPROVED", "H1", "A1", 100, testutil.Day(2)))

	r := newRefresher(t, st)
	_, err := r.Refresh(ctx)
	require.NoError(t, err)
	_, err = r.Refresh(ctx)
	require.NoError(t, err)

	count, err := st.AudienceCount(ctx, model.SegmentEstetica)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "upsert by email, never a second row")
}

func TestWriteReport(t *testing.T) {
	st := testutil.OpenStore(t)
	ctx := context.Background()

	seedMaster(t, st, "H1", "ana@x.com", "Ana", "")
	seedMaster(t, st, "H2", "bia@x.com", "Bia", "")
	testutil.SeedSale(t, st, testutil.Sale("T1", "APPROVED", "H1", "A1", 100, testutil.Day(2)))
	testutil.SeedSale(t, st, testutil.Sale("T2", "APPROVED", "H1", "X9", 30, testutil.Day(3)))
	testutil.SeedSale(t, st, testutil.Sale("T3", "APPROVED", "H2", "A1", 70, testutil.Day(4)))

	r := newRefresher(t, st)
	_, err := r.Refresh(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.WriteReport(ctx, &buf))

	g := goldie.New(t)
	g.Assert(t, "audience_report", buf.Bytes())
}

func TestExportCSV(t *testing.T) {
	st := testutil.OpenStore(t)
	ctx := context.Background()

	seedMaster(t, st, "H1", "ana@x.com", "Ana", "+5511999")
	seedMaster(t, st, "H2", "bia@x.com", "Bia", "")
	testutil.SeedSale(t, st, testutil.Sale("T1", "APPROVED", "H1", "A1", 100, testutil.Day(2)))
	testutil.SeedSale(t, st, testutil.Sale("T2", "APPROVED", "H2", "A1", 250, testutil.Day(3)))

	r := newRefresher(t, st)
	_, err := r.Refresh(ctx)
	require.NoError(t, err)

	outDir := t.TempDir()
	require.NoError(t, r.ExportCSV(ctx, outDir))

	f, err := os.Open(filepath.Join(outDir, "publico_estetica_2024-01-15.csv"))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"name", "email", "phone", "country", "state", "value"}, records[0])
	assert.Equal(t, "bia@x.com", records[1][1], "ordered by value descending")
	assert.Equal(t, "250.00", records[1][5])
	assert.Equal(t, "ana@x.com", records[2][1])

	_, err = os.Stat(filepath.Join(outDir, "publico_ilpi_2024-01-15.csv"))
	assert.NoError(t, err, "empty audiences still export a header-only file")
}
