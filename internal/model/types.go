package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

const (
	MetadataKeyThumbnails = "thumbnails"
	MetadataKeyUpload     = "upload"
)

// Metadata is the open JSON document stored alongside a media.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal Metadata: %w", err)
	}
	return b, nil
}

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("Metadata.Scan: expected []byte, got %T", src)
	}
	out := Metadata{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal Metadata: %w", err)
	}
	*m = out
	return nil
}

// Thumbnails returns the suffix→path map stored under "thumbnails".
func (m Metadata) Thumbnails() map[string]string {
	out := map[string]string{}
	switch raw := m[MetadataKeyThumbnails].(type) {
	case map[string]string:
		for k, v := range raw {
			out[k] = v
		}
	case map[string]any:
		for k, v := range raw {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}

// MergeThumbnails returns a copy of m where the given renditions overwrite
// existing keys of the same suffix. Other keys are kept.
func (m Metadata) MergeThumbnails(renditions map[string]string) Metadata {
	out := m.Clone()
	thumbs := m.Thumbnails()
	for k, v := range renditions {
		thumbs[k] = v
	}
	out[MetadataKeyThumbnails] = thumbs
	return out
}

// Merge returns a copy of m with the top-level keys of other applied on top.
func (m Metadata) Merge(other Metadata) Metadata {
	out := m.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
