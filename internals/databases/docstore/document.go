package docstore

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// =========================================================
// MODEL documents (dipakai GormStore & MemoryStore)
// =========================================================

type Document struct {
	DocumentCollection string         `gorm:"column:document_collection;type:varchar(80);primaryKey" json:"document_collection"`
	DocumentID         string         `gorm:"column:document_id;type:varchar(120);primaryKey" json:"document_id"`
	DocumentData       datatypes.JSON `gorm:"column:document_data;type:jsonb;not null" json:"document_data"`
	DocumentCreatedAt  time.Time      `gorm:"column:document_created_at;type:timestamptz;not null;autoCreateTime" json:"document_created_at"`
	DocumentUpdatedAt  time.Time      `gorm:"column:document_updated_at;type:timestamptz;not null;autoUpdateTime" json:"document_updated_at"`
}

func (Document) TableName() string { return "documents" }

// DataTo men-decode isi dokumen ke v (pointer ke struct/map).
func (d Document) DataTo(v any) error {
	if err := sonic.Unmarshal(d.DocumentData, v); err != nil {
		return fmt.Errorf("docstore: decode %s/%s: %w", d.DocumentCollection, d.DocumentID, err)
	}
	return nil
}

// Fields men-decode isi dokumen sebagai map (dipakai filter & order di memory).
func (d Document) Fields() map[string]any {
	m := map[string]any{}
	_ = sonic.Unmarshal(d.DocumentData, &m)
	return m
}

func encode(data any) ([]byte, error) {
	switch v := data.(type) {
	case nil:
		return []byte("{}"), nil
	case datatypes.JSON:
		return bytes.Clone(v), nil
	case []byte:
		return bytes.Clone(v), nil
	}
	b, err := sonic.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	return b, nil
}

func newID() string { return uuid.NewString() }

func validKey(collection, id string) error {
	if collection == "" {
		return fmt.Errorf("docstore: collection is required")
	}
	if id == "" {
		return fmt.Errorf("docstore: document id is required (%s)", collection)
	}
	return nil
}
