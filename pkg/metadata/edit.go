package metadata

import (
	"fmt"
	"slices"

	"github.com/charlieegan3/metadata-console/pkg/container"
	"github.com/charlieegan3/metadata-console/pkg/tags"
	"github.com/charlieegan3/metadata-console/pkg/values"
)

// Edit applies removals and then updates to the tag table of prev and
// writes it back into data. The returned result is extracted from the new
// bytes. Either every change is applied or an error is returned.
//
// Removing a name that is not in the catalogue does nothing. Updating one
// is an error since its section and type are unknown.
func Edit(
	data []byte,
	prev *Result,
	updates map[string]values.Input,
	removals []string,
) ([]byte, *Result, error) {
	if prev == nil {
		return nil, nil, &Error{Message: msgMissingResult}
	}

	if !container.SupportsEditing(prev.MIME) {
		return nil, nil, &Error{Message: msgNotEditable}
	}

	table := tags.NewTable()
	if prev.ExifBytes != nil {
		var err error
		table, err = tags.Decode(prev.ExifBytes)
		if err != nil {
			return nil, nil, &Error{Message: msgLoadExif, Err: err}
		}
	}

	schema := tags.Standard()

	for _, name := range removals {
		e, ok := schema.Lookup(name)
		if !ok {
			continue
		}

		table.Delete(e.Section, e.ID)
	}

	names := make([]string, 0, len(updates))
	for name := range updates {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		e, ok := schema.Lookup(name)
		if !ok {
			return nil, nil, &Error{Message: fmt.Sprintf(msgUnsupportedTag, name)}
		}

		v, err := values.Denormalize(updates[name], e.Type)
		if err != nil {
			return nil, nil, &Error{Message: fmt.Sprintf(msgInvalidValue, name, err), Err: err}
		}

		table.Set(e.Section, e.ID, v)
	}

	tagBytes, err := tags.Encode(table)
	if err != nil {
		return nil, nil, &Error{Message: msgEncodeExif, Err: err}
	}

	out, err := container.Reembed(tagBytes, data)
	if err != nil {
		return nil, nil, &Error{Message: msgApplyExif, Err: err}
	}

	r, err := Extract(out, "", prev.MIME)
	if err != nil {
		return nil, nil, &Error{Message: msgApplyExif, Err: err}
	}

	return out, r, nil
}
