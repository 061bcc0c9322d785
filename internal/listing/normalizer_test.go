package listing_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/filedeck/internal/listing"
	"github.com/TheMichaelB/filedeck/internal/models"
)

func decode(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func folderNames(folders []models.Folder) []string {
	names := make([]string, 0, len(folders))
	for _, f := range folders {
		names = append(names, f.Name)
	}
	return names
}

func fileNames(files []models.FileMetadata) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}

func TestNormalizeWrappedFoldersNullFiles(t *testing.T) {
	payload := decode(t, `{
		"subFolders": {"$values": [{"id": 2, "name": "a"}, {"id": 3, "name": "b"}]},
		"files": null
	}`)

	got := listing.Normalize(payload)

	assert.Equal(t, []string{"a", "b"}, folderNames(got.Folders))
	assert.Equal(t, int64(2), got.Folders[0].ID)
	assert.NotNil(t, got.Files)
	assert.Empty(t, got.Files)
}

func TestNormalizeNotAList(t *testing.T) {
	got := listing.Normalize(decode(t, `{"folders": "not-a-list"}`))

	assert.NotNil(t, got.Folders)
	assert.Empty(t, got.Folders)
	assert.Empty(t, got.Files)
}

func TestNormalizeFolderKeyPrecedence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"subFolders", `{"subFolders": [{"id": 2, "name": "sub"}]}`, []string{"sub"}},
		{"folders", `{"folders": [{"id": 2, "name": "fol"}]}`, []string{"fol"}},
		{"children", `{"children": [{"id": 2, "name": "kid"}]}`, []string{"kid"}},
		{"subFolders wins", `{"subFolders": [{"id": 2, "name": "sub"}], "folders": [{"id": 3, "name": "fol"}]}`, []string{"sub"}},
		{"null subFolders falls through", `{"subFolders": null, "children": [{"id": 2, "name": "kid"}]}`, []string{"kid"}},
		{"empty subFolders wins", `{"subFolders": [], "folders": [{"id": 3, "name": "fol"}]}`, []string{}},
		{"pascal case", `{"SubFolders": [{"Id": 2, "Name": "pascal"}]}`, []string{"pascal"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := listing.Normalize(decode(t, tt.raw))
			assert.Equal(t, tt.want, folderNames(got.Folders))
		})
	}
}

func TestNormalizeNeverPanics(t *testing.T) {
	inputs := []interface{}{
		nil,
		"string payload",
		42.0,
		true,
		[]interface{}{nil, 1.0, "x"},
		map[string]interface{}{},
		map[string]interface{}{"files": map[string]interface{}{"$values": "nope"}},
		map[string]interface{}{"files": []interface{}{"x", 3.0, nil}},
		map[string]interface{}{"subFolders": map[string]interface{}{"$ref": "99"}},
		map[string]interface{}{"id": "abc", "name": 12.0},
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			got := listing.Normalize(in)
			assert.NotNil(t, got.Folders)
			assert.NotNil(t, got.Files)
		})
	}
}

func TestNormalizeFolderMetadata(t *testing.T) {
	got := listing.Normalize(decode(t, `{
		"id": 4,
		"name": "Docs",
		"subFolders": [{"id": 9, "name": "2024", "parentFolderId": 4}],
		"files": [{"id": 11, "name": "report.pdf", "size": 2048, "extension": ".pdf"}]
	}`))

	assert.True(t, got.HasID)
	assert.Equal(t, int64(4), got.ID)
	assert.True(t, got.HasName)
	assert.Equal(t, "Docs", got.Name)

	require.Len(t, got.Folders, 1)
	require.NotNil(t, got.Folders[0].ParentFolderID)
	assert.Equal(t, int64(4), *got.Folders[0].ParentFolderID)

	require.Len(t, got.Files, 1)
	assert.Equal(t, models.FileMetadata{ID: 11, Name: "report.pdf", Size: 2048, Extension: ".pdf"}, got.Files[0])
}

func TestNormalizeMissingNameAndID(t *testing.T) {
	got := listing.Normalize(decode(t, `{"files": []}`))
	assert.False(t, got.HasID)
	assert.False(t, got.HasName)
}

func TestNormalizeReferencePreservation(t *testing.T) {
	// The second file element points back at the first through $ref.
	got := listing.Normalize(decode(t, `{
		"$id": "1",
		"id": 1,
		"name": "Root",
		"subFolders": {"$id": "2", "$values": [
			{"$id": "3", "id": 4, "name": "Docs", "files": {"$id": "4", "$values": []}}
		]},
		"files": {"$id": "5", "$values": [
			{"$id": "6", "id": 11, "name": "report.pdf", "size": 10, "extension": ".pdf"},
			{"$ref": "6"},
			{"$ref": "404"}
		]}
	}`))

	assert.Equal(t, []string{"Docs"}, folderNames(got.Folders))
	assert.Equal(t, []string{"report.pdf", "report.pdf"}, fileNames(got.Files))
}

func TestNormalizeSelfReferenceTerminates(t *testing.T) {
	// A folder whose children list references the folder itself.
	payload := decode(t, `{
		"subFolders": {"$values": [
			{"$id": "7", "id": 2, "name": "loop", "subFolders": {"$values": [{"$ref": "7"}]}}
		]}
	}`)

	var got listing.Listing
	assert.NotPanics(t, func() { got = listing.Normalize(payload) })
	require.Len(t, got.Folders, 1)
	assert.Equal(t, "loop", got.Folders[0].Name)
}

func TestNormalizeRepeatedSelfReference(t *testing.T) {
	payload := listing.NormalizeJSON([]byte(`{"subFolders": {"$values": [
		{"$id": "7", "id": 2, "name": "loop", "subFolders": {"$values": [
			{"$ref": "7"}, {"$ref": "7"}, {"$ref": "7"}
		]}}
	]}}`))

	require.Len(t, payload.Folders, 1)
	loop := payload.Folders[0]
	assert.Equal(t, "loop", loop.Name)
	require.Len(t, loop.SubFolders, 1)
	assert.Equal(t, int64(2), loop.SubFolders[0].ID)
	assert.Empty(t, loop.SubFolders[0].SubFolders)
}

func TestNormalizeSharedReferencesAreBounded(t *testing.T) {
	// Every level lists the next one twice: 2^depth folders if fully expanded.
	var defs []string
	for i := 0; i < 30; i++ {
		defs = append(defs, fmt.Sprintf(
			`{"$id": "L%d", "id": %d, "name": "level", "subFolders": [{"$ref": "L%d"}, {"$ref": "L%d"}], "files": [{"id": %d, "name": "f"}]}`,
			i, i+100, i+1, i+1, i+1000))
	}
	raw := `{"defs": [` + strings.Join(defs, ",") + `], "subFolders": [{"$ref": "L0"}]}`

	got := listing.NormalizeJSON([]byte(raw))

	require.Len(t, got.Folders, 1)
	total := countRecords(got.Folders)
	assert.Positive(t, total)
	assert.LessOrEqual(t, total, 10000)
}

func countRecords(folders []models.Folder) int {
	n := 0
	for _, f := range folders {
		n += 1 + len(f.Files) + countRecords(f.SubFolders)
	}
	return n
}

func TestNormalizeBareArrayIsFiles(t *testing.T) {
	got := listing.Normalize(decode(t, `[{"id": 1, "name": "a.txt"}, {"id": 2, "name": "b.png"}]`))

	assert.Empty(t, got.Folders)
	assert.Equal(t, []string{"a.txt", "b.png"}, fileNames(got.Files))
}

func TestNormalizeJSON(t *testing.T) {
	got := listing.NormalizeJSON([]byte(`{"id": 9007199254740993, "files": [{"id": "12", "name": "x", "size": 3}]}`))
	assert.Equal(t, int64(9007199254740993), got.ID)
	require.Len(t, got.Files, 1)
	assert.Equal(t, int64(12), got.Files[0].ID)

	bad := listing.NormalizeJSON([]byte(`{not json`))
	assert.Empty(t, bad.Folders)
	assert.Empty(t, bad.Files)
}

func TestSingleRecords(t *testing.T) {
	folder, ok := listing.Folder(decode(t, `{"id": 14, "name": "New", "parentFolderId": 3}`))
	require.True(t, ok)
	assert.Equal(t, int64(14), folder.ID)
	require.NotNil(t, folder.ParentFolderID)
	assert.Equal(t, int64(3), *folder.ParentFolderID)

	file, ok := listing.File(decode(t, `{"Id": 5, "Name": "photo.png", "Size": 2048, "Extension": ".png"}`))
	require.True(t, ok)
	assert.Equal(t, "photo.png", file.Name)
	assert.Equal(t, int64(2048), file.Size)

	_, ok = listing.Folder(nil)
	assert.False(t, ok)
	_, ok = listing.File("created")
	assert.False(t, ok)
}
