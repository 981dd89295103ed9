package event

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Answers maps a dynamic field id to the answer an enrollment recorded for it.
type Answers map[int64]string

// Catalog is the set of dynamic fields that belong to one event.
type Catalog struct {
	order  []int64
	labels map[int64]string
}

// NewCatalog indexes defs, keeping their order. Duplicate ids keep the first label.
func NewCatalog(defs []FieldDefinition) Catalog {
	c := Catalog{labels: make(map[int64]string, len(defs))}
	for _, d := range defs {
		if _, dup := c.labels[d.ID]; dup {
			continue
		}
		c.order = append(c.order, d.ID)
		c.labels[d.ID] = d.Label
	}
	return c
}

// Has reports whether id is a field of the event.
func (c Catalog) Has(id int64) bool {
	_, ok := c.labels[id]
	return ok
}

// Label returns the display label of id.
func (c Catalog) Label(id int64) string { return c.labels[id] }

// IDs returns field ids in definition order.
func (c Catalog) IDs() []int64 { return c.order }

// Len returns the number of fields.
func (c Catalog) Len() int { return len(c.order) }

// Restrict returns the answers whose field belongs to c, and how many were dropped.
func (a Answers) Restrict(c Catalog) (Answers, int) {
	if len(a) == 0 {
		return nil, 0
	}
	out := make(Answers, len(a))
	dropped := 0
	for id, v := range a {
		if !c.Has(id) {
			dropped++
			continue
		}
		out[id] = v
	}
	return out, dropped
}

// "12: Large" pairs, one per line.
var answerLine = regexp.MustCompile(`(\d+):[ \t]*([^\n]*)`)

// ParseAnswers decodes the serialized answer column. Both the legacy
// "id: value" line format and a JSON object keyed by field id are accepted.
// Blank values are skipped; a repeated id keeps its first value.
func ParseAnswers(raw string) (Answers, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "{") {
		return parseJSONAnswers(raw)
	}

	out := make(Answers)
	for _, m := range answerLine.FindAllStringSubmatch(raw, -1) {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("answers: field id %q: %w", m[1], err)
		}
		put(out, id, m[2])
	}
	return out, nil
}

func parseJSONAnswers(raw string) (Answers, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("answers: %w", err)
	}
	out := make(Answers, len(obj))
	for k, v := range obj {
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("answers: field id %q: %w", k, err)
		}
		switch val := v.(type) {
		case nil:
		case string:
			put(out, id, val)
		default:
			put(out, id, fmt.Sprint(val))
		}
	}
	return out, nil
}

func put(a Answers, id int64, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if _, seen := a[id]; seen {
		return
	}
	a[id] = v
}

// DecodeAnswers parses raw and keeps only fields present in the catalog.
// The second return value is the number of answers dropped for unknown fields.
func DecodeAnswers(raw string, c Catalog) (Answers, int, error) {
	a, err := ParseAnswers(raw)
	if err != nil {
		return nil, 0, err
	}
	kept, dropped := a.Restrict(c)
	return kept, dropped, nil
}
