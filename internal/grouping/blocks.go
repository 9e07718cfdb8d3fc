package grouping

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DefaultLabel collects text seen before the first question number.
const DefaultLabel = "General"

// MergePolicy decides what happens when two block maps share a label.
type MergePolicy string

const (
	// MergeReplace keeps the later text, as when consolidating page results.
	MergeReplace MergePolicy = "replace"
	// MergeAppend concatenates texts so answers spanning pages stay whole.
	MergeAppend MergePolicy = "append"
)

// QuestionBlocks maps question labels to accumulated answer text and keeps
// labels in first-seen order. It is not safe for concurrent use.
type QuestionBlocks struct {
	order []string
	text  map[string]string
}

// NewQuestionBlocks returns an empty map.
func NewQuestionBlocks() *QuestionBlocks {
	return &QuestionBlocks{text: make(map[string]string)}
}

// GetOrCreate returns the text stored under label, creating an empty bucket
// on first use. Repeated calls do not change order or content.
func (q *QuestionBlocks) GetOrCreate(label string) string {
	text, ok := q.text[label]
	if !ok {
		q.order = append(q.order, label)
		q.text[label] = ""
	}
	return text
}

// Append adds text to label's bucket.
func (q *QuestionBlocks) Append(label, text string) {
	q.text[label] = q.GetOrCreate(label) + text
}

// Set replaces label's text.
func (q *QuestionBlocks) Set(label, text string) {
	q.GetOrCreate(label)
	q.text[label] = text
}

// Get returns label's text.
func (q *QuestionBlocks) Get(label string) (string, bool) {
	text, ok := q.text[label]
	return text, ok
}

// Labels returns labels in first-seen order.
func (q *QuestionBlocks) Labels() []string {
	return append([]string(nil), q.order...)
}

// Len returns the number of labels.
func (q *QuestionBlocks) Len() int {
	return len(q.order)
}

// Merge folds other into q following policy. New labels are appended in
// other's order.
func (q *QuestionBlocks) Merge(other *QuestionBlocks, policy MergePolicy) {
	if other == nil {
		return
	}
	for _, label := range other.order {
		text := other.text[label]
		if policy == MergeAppend {
			q.Append(label, text)
			continue
		}
		q.Set(label, text)
	}
}

// Trimmed returns a copy whose texts have surrounding whitespace removed.
func (q *QuestionBlocks) Trimmed() *QuestionBlocks {
	out := NewQuestionBlocks()
	for _, label := range q.order {
		out.Set(label, strings.TrimSpace(q.text[label]))
	}
	return out
}

// MarshalJSON encodes the blocks as an object with keys in label order.
func (q *QuestionBlocks) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, label := range q.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(label)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(q.text[label])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
