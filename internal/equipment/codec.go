package equipment

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"

	errors "github.com/frahmantamala/power-data-portal/internal"
)

// metaFields are owned by the server and never taken from client input.
var metaFields = map[string]bool{
	"id":        true,
	"createdBy": true,
	"createdAt": true,
	"updatedAt": true,
}

// Change is one attribute difference between two versions of a record.
type Change struct {
	Field string
	Old   string
	New   string
}

func (c Change) String() string {
	return fmt.Sprintf("%s: %q -> %q", c.Field, c.Old, c.New)
}

// Decode parses raw JSON into a fresh record of the descriptor's kind and
// validates it. Unknown attributes and wrong value types are rejected.
func (d Descriptor) Decode(raw []byte) (Record, error) {
	rec := d.New()
	if err := strictUnmarshal(raw, rec); err != nil {
		return nil, err
	}
	*rec.Meta() = Base{}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Merge applies a partial attribute set over current and returns the
// validated result together with the attribute changes. Meta fields in
// patch are ignored.
func (d Descriptor) Merge(current Record, patch map[string]json.RawMessage) (Record, []Change, error) {
	before, err := attributes(current)
	if err != nil {
		return nil, nil, errors.NewInternalError("Failed to encode record", err)
	}

	merged := make(map[string]json.RawMessage, len(before))
	for k, v := range before {
		merged[k] = v
	}
	for k, v := range patch {
		if metaFields[k] {
			continue
		}
		merged[k] = v
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, nil, errors.ErrInvalidDataFormat.WithCause(err)
	}

	next := d.New()
	if err := strictUnmarshal(raw, next); err != nil {
		return nil, nil, err
	}
	*next.Meta() = *current.Meta()
	if err := next.Validate(); err != nil {
		return nil, nil, err
	}

	after, err := attributes(next)
	if err != nil {
		return nil, nil, errors.NewInternalError("Failed to encode record", err)
	}
	return next, diff(before, after), nil
}

// Fields lists the attribute names of the kind, meta fields excluded.
func (d Descriptor) Fields() []string {
	attrs, _ := attributes(d.New())
	names := make([]string, 0, len(attrs))
	for k := range attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Matches reports whether every filter value is a case-insensitive
// substring of the record's attribute of the same name.
func Matches(rec Record, filter map[string]string) bool {
	if len(filter) == 0 {
		return true
	}
	attrs, err := attributes(rec)
	if err != nil {
		return false
	}
	for k, want := range filter {
		raw, ok := attrs[k]
		if !ok {
			return false
		}
		if !strings.Contains(strings.ToLower(display(raw)), strings.ToLower(want)) {
			return false
		}
	}
	return true
}

// Summary renders a record as "field: value" pairs for create and delete
// history entries.
func Summary(rec Record) string {
	attrs, err := attributes(rec)
	if err != nil {
		return rec.Title()
	}
	keys := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if display(v) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %q", k, display(attrs[k]))
	}
	return strings.Join(parts, ", ")
}

// FormatChanges joins changes into a history detail string.
func FormatChanges(changes []Change) string {
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = c.String()
	}
	return strings.Join(parts, "; ")
}

func strictUnmarshal(raw []byte, dst interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.ErrInvalidDataFormat.WithMessage("Invalid data format: trailing data after JSON object")
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		msg := fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type.String())
		return errors.ErrInvalidDataFormat.WithDetails(errors.ValidationErrors{Errors: []errors.ValidationError{
			{Field: typeErr.Field, Message: msg, Code: string(errors.ErrCodeInvalidDataFormat)},
		}}).WithCause(err)
	}
	if strings.HasPrefix(err.Error(), "json: unknown field ") {
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return errors.ErrInvalidDataFormat.WithDetails(errors.ValidationErrors{Errors: []errors.ValidationError{
			{Field: field, Message: "unknown attribute " + field, Code: string(errors.ErrCodeInvalidDataFormat)},
		}}).WithCause(err)
	}
	return errors.ErrInvalidDataFormat.WithCause(err)
}

// attributes returns the record's JSON attributes without meta fields.
func attributes(rec Record) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	for k := range metaFields {
		delete(m, k)
	}
	return m, nil
}

func diff(before, after map[string]json.RawMessage) []Change {
	keys := make([]string, 0, len(after))
	for k := range after {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var changes []Change
	for _, k := range keys {
		if bytes.Equal(before[k], after[k]) {
			continue
		}
		changes = append(changes, Change{Field: k, Old: display(before[k]), New: display(after[k])})
	}
	return changes
}

// display renders a raw JSON value the way a person would type it.
func display(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
