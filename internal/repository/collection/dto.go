package collection

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
	"github.com/kailas-cloud/suggestd/internal/domain/vector"
)

const (
	keyPrefix = "suggestd:doc:"
	docIndex  = "suggestd:docs"
)

func docKey(collectionName, id string) string {
	return keyPrefix + collectionName + ":" + id
}

// docToHash converts a document to a map for HSET. The vector is stored as raw float32 bytes.
func docToHash(collectionName string, d *domdoc.Document) (map[string]string, error) {
	m := map[string]string{
		"id":         d.ID(),
		"collection": collectionName,
		"text":       d.Text(),
		"vector":     rueidis.BinaryString(vector.Encode(d.Vector())),
		"created_at": strconv.FormatInt(d.CreatedAt(), 10),
	}
	if len(d.Fields()) > 0 {
		fieldsJSON, err := json.Marshal(d.Fields())
		if err != nil {
			return nil, fmt.Errorf("marshal fields: %w", err)
		}
		m["fields_json"] = string(fieldsJSON)
	}
	return m, nil
}

// docFromHash hydrates a document and its collection name from an HGETALL result map.
func docFromHash(m map[string]string) (string, domdoc.Document, error) {
	collectionName := m["collection"]
	if collectionName == "" || m["id"] == "" {
		return "", domdoc.Document{}, fmt.Errorf("missing id or collection")
	}

	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return "", domdoc.Document{}, fmt.Errorf("invalid created_at: %w", err)
	}

	vec, err := vector.Decode([]byte(m["vector"]))
	if err != nil {
		return "", domdoc.Document{}, fmt.Errorf("decode vector: %w", err)
	}

	var fields map[string]string
	if raw := m["fields_json"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return "", domdoc.Document{}, fmt.Errorf("unmarshal fields: %w", err)
		}
	}

	return collectionName, domdoc.Reconstruct(m["id"], m["text"], fields, vec, createdAt), nil
}
