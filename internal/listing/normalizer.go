// Package listing turns listing payloads of any shape into folder and file records.
//
// The backend may send the folder list under subFolders, folders or children, and
// either list may arrive bare or wrapped in a reference-preserving envelope
// ({"$id": "1", "$values": [...]}) whose elements can be {"$ref": "n"} pointers to
// objects seen earlier. Anything unrecognized degrades to an empty list.
package listing

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/TheMichaelB/filedeck/internal/models"
)

// maxDepth bounds recursion through nested folders.
const maxDepth = 16

// maxRecords caps the records produced from one payload. Shared $ref targets
// are expanded at each place they appear, so a small payload can describe a
// very large tree.
const maxRecords = 10000

var folderKeys = []string{"subFolders", "folders", "children"}

// Listing is the canonical result of normalizing a payload.
type Listing struct {
	ID      int64
	HasID   bool
	Name    string
	HasName bool
	Folders []models.Folder
	Files   []models.FileMetadata
}

// Normalize converts a decoded JSON payload into a Listing. It never fails.
func Normalize(payload interface{}) Listing {
	n := newNormalizer()
	n.index(payload, 0)

	out := Listing{
		Folders: []models.Folder{},
		Files:   []models.FileMetadata{},
	}

	switch p := n.resolve(payload).(type) {
	case map[string]interface{}:
		if id, ok := getInt(p, "id"); ok {
			out.ID, out.HasID = id, true
		}
		if name := getString(p, "name"); name != "" {
			out.Name, out.HasName = name, true
		}
		out.Folders = n.folders(firstPresent(p, folderKeys...), 0)
		out.Files = n.files(lookup(p, "files"), 0)
	case []interface{}:
		// Bare arrays come from the recent-files endpoint.
		out.Files = n.files(p, 0)
	}

	return out
}

// NormalizeJSON decodes raw bytes and normalizes them. Invalid JSON yields an
// empty listing.
func NormalizeJSON(data []byte) Listing {
	var payload interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		payload = nil
	}
	return Normalize(payload)
}

// Folder reads a single folder record, such as the response to a create.
func Folder(payload interface{}) (models.Folder, bool) {
	n := newNormalizer()
	n.index(payload, 0)
	folders := n.folders([]interface{}{payload}, 0)
	if len(folders) == 0 {
		return models.Folder{}, false
	}
	return folders[0], true
}

// File reads a single file record, such as the response to an upload.
func File(payload interface{}) (models.FileMetadata, bool) {
	n := newNormalizer()
	n.index(payload, 0)
	files := n.files([]interface{}{payload}, 0)
	if len(files) == 0 {
		return models.FileMetadata{}, false
	}
	return files[0], true
}

type normalizer struct {
	refs map[string]map[string]interface{}
	// $ids of the folders being expanded, outermost first.
	path    map[string]bool
	records int
}

func newNormalizer() *normalizer {
	return &normalizer{
		refs: make(map[string]map[string]interface{}),
		path: make(map[string]bool),
	}
}

func (n *normalizer) full() bool {
	return n.records >= maxRecords
}

// index records every object carrying a $id so $ref elements can be resolved.
func (n *normalizer) index(v interface{}, depth int) {
	if depth > maxDepth*2 {
		return
	}
	switch t := v.(type) {
	case map[string]interface{}:
		if id, ok := t["$id"]; ok {
			if key := refKey(id); key != "" {
				n.refs[key] = t
			}
		}
		for _, child := range t {
			n.index(child, depth+1)
		}
	case []interface{}:
		for _, child := range t {
			n.index(child, depth+1)
		}
	}
}

// resolve follows a {"$ref": "n"} pointer. Unknown refs resolve to nil.
func (n *normalizer) resolve(v interface{}) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return v
	}
	ref, ok := m["$ref"]
	if !ok {
		return v
	}
	if target, ok := n.refs[refKey(ref)]; ok {
		return target
	}
	return nil
}

// elements unwraps a collection: a bare array or an object holding $values.
func (n *normalizer) elements(v interface{}) []interface{} {
	switch t := n.resolve(v).(type) {
	case []interface{}:
		return t
	case map[string]interface{}:
		if values, ok := t["$values"].([]interface{}); ok {
			return values
		}
	}
	return nil
}

func (n *normalizer) folders(v interface{}, depth int) []models.Folder {
	out := []models.Folder{}
	if depth > maxDepth {
		return out
	}

	cycles := make(map[string]bool)
	for _, el := range n.elements(v) {
		if n.full() {
			break
		}
		m, ok := n.resolve(el).(map[string]interface{})
		if !ok {
			continue
		}

		id, _ := getInt(m, "id")
		folder := models.Folder{
			ID:   id,
			Name: getString(m, "name"),
		}
		if parent, ok := getInt(m, "parentFolderId"); ok {
			folder.ParentFolderID = &parent
		}

		key := refKey(m["$id"])
		if key != "" && n.path[key] {
			// A folder inside itself is listed once, without children.
			if cycles[key] {
				continue
			}
			cycles[key] = true
			n.records++
			out = append(out, folder)
			continue
		}
		n.records++

		if key != "" {
			n.path[key] = true
		}
		if sub := n.folders(firstPresent(m, folderKeys...), depth+1); len(sub) > 0 {
			folder.SubFolders = sub
		}
		if files := n.files(lookup(m, "files"), depth+1); len(files) > 0 {
			folder.Files = files
		}
		if key != "" {
			delete(n.path, key)
		}

		out = append(out, folder)
	}

	return out
}

func (n *normalizer) files(v interface{}, depth int) []models.FileMetadata {
	out := []models.FileMetadata{}
	if depth > maxDepth {
		return out
	}

	for _, el := range n.elements(v) {
		if n.full() {
			break
		}
		m, ok := n.resolve(el).(map[string]interface{})
		if !ok {
			continue
		}
		n.records++

		id, _ := getInt(m, "id")
		size, _ := getInt(m, "size")
		out = append(out, models.FileMetadata{
			ID:        id,
			Name:      getString(m, "name"),
			Size:      size,
			Extension: getString(m, "extension"),
		})
	}

	return out
}

// Helper functions for reading loosely typed objects

// lookup finds key exactly, then case-insensitively (PascalCase serializers).
func lookup(m map[string]interface{}, key string) interface{} {
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

// firstPresent returns the first non-null value among keys.
func firstPresent(m map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v := lookup(m, key); v != nil {
			return v
		}
	}
	return nil
}

func getString(m map[string]interface{}, key string) string {
	switch v := lookup(m, key).(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

func getInt(m map[string]interface{}, key string) (int64, bool) {
	switch v := lookup(m, key).(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		if f, err := v.Float64(); err == nil {
			return int64(f), true
		}
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func refKey(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatInt(int64(t), 10)
	case json.Number:
		return t.String()
	}
	return ""
}
