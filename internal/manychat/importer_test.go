package manychat_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-labs/crmsync/internal/manychat"
	"github.com/vitrine-labs/crmsync/internal/testutil"
)

const sampleExport = "nome\temail\tinstagram\twhatsapp\tdata_registro\n" +
	"Ana\tana@x.com\t@ana\t+5511999\t45292,5\n" +
	"Bia\tbia@x.com\t@bia\t\t\n"

func writeExport(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportFile(t *testing.T) {
	st := testutil.OpenStore(t)
	dir := t.TempDir()
	path := writeExport(t, dir, "contacts.csv", sampleExport)

	imp := manychat.NewImporter(st, manychat.WithNow(testutil.FixedNow(testutil.Day(3))))
	stats, err := imp.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Imported)
	assert.Equal(t, 0, stats.Skipped)

	withPhone, err := st.ContactsWithWhatsapp(context.Background())
	require.NoError(t, err)
	require.Len(t, withPhone, 1, "only Ana carries a whatsapp value")
	assert.Equal(t, "Ana", withPhone[0].Name)
	assert.Equal(t, "+5511999", withPhone[0].Whatsapp)

	var registro string
	err = st.DB().QueryRow(
		`SELECT data_registro FROM manychat_contacts WHERE nome = 'Ana'`).Scan(&registro)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T12:00:00Z", registro,
		"excel serial dates are normalized to ISO 8601")
}

func TestImportFile_HeaderCaseInsensitive(t *testing.T) {
	st := testutil.OpenStore(t)
	dir := t.TempDir()
	path := writeExport(t, dir, "contacts.csv",
		"Nome\tEmail\tWhatsapp\nCarla\tcarla@x.com\t+5533777\n")

	imp := manychat.NewImporter(st)
	stats, err := imp.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Imported)
}

func TestImportFile_ShortRowsTolerated(t *testing.T) {
	st := testutil.OpenStore(t)
	dir := t.TempDir()
	path := writeExport(t, dir, "contacts.csv",
		"nome\temail\twhatsapp\nDani\n")

	imp := manychat.NewImporter(st)
	stats, err := imp.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Imported, "missing trailing columns read as empty")
}

func TestImportFile_EmptyFile(t *testing.T) {
	st := testutil.OpenStore(t)
	dir := t.TempDir()
	path := writeExport(t, dir, "contacts.csv", "")

	imp := manychat.NewImporter(st)
	stats, err := imp.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Zero(t, stats.Imported)
}

func TestImportDir(t *testing.T) {
	st := testutil.OpenStore(t)
	dir := t.TempDir()
	writeExport(t, dir, "b.csv", "nome\twhatsapp\nBia\t+552\n")
	writeExport(t, dir, "a.csv", "nome\twhatsapp\nAna\t+551\n")
	writeExport(t, dir, "notes.txt", "ignored")

	imp := manychat.NewImporter(st)
	stats, err := imp.ImportDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Imported)

	contacts, err := st.ContactsWithWhatsapp(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 2)
}

func TestImportDir_MissingDirIsNotAnError(t *testing.T) {
	st := testutil.OpenStore(t)

	imp := manychat.NewImporter(st)
	stats, err := imp.ImportDir(context.Background(), filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Zero(t, stats.Imported)
}
