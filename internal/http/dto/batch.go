package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"linkregistry/internal/domain/models"
)

// BatchInput принимает либо JSON-массив строк, либо одну строку с разделителями.
type BatchInput struct {
	List   []string
	Text   string
	IsText bool
	set    bool
}

func (b *BatchInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = BatchInput{}
		return nil
	}

	switch data[0] {
	case '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("%w: expected list of strings", models.ErrInvalidData)
		}
		*b = BatchInput{List: list, set: true}
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*b = BatchInput{Text: text, IsText: true, set: true}
	default:
		return fmt.Errorf("%w: expected list or string", models.ErrInvalidData)
	}
	return nil
}

func (b BatchInput) Present() bool {
	return b.set
}

// Links: фигурные скобки и переводы строк убираются, элементы разделены запятыми.
func (b BatchInput) Links() []string {
	if !b.IsText {
		return b.List
	}
	cleaned := strings.NewReplacer("{", "", "}", "", "\n", "", "\r", "").Replace(b.Text)
	return splitNonEmpty(cleaned, ",")
}

// IDs: идентификаторы через запятую или по одному на строку.
func (b BatchInput) IDs() []string {
	if !b.IsText {
		return b.List
	}
	cleaned := strings.NewReplacer("{", "", "}", "", "\r", "", "\n", ",").Replace(b.Text)
	return splitNonEmpty(cleaned, ",")
}

// Lines: по одному элементу на строку.
func (b BatchInput) Lines() []string {
	if !b.IsText {
		return b.List
	}
	return splitNonEmpty(strings.ReplaceAll(b.Text, "\r", ""), "\n")
}

func splitNonEmpty(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
