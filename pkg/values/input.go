package values

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind selects which field of an Input is populated.
type Kind int

const (
	KindString Kind = iota + 1
	KindNumber
	KindBytes
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Input is an externally supplied tag value before it has been checked
// against a tag type. Numbers keep their text so that decimals are not
// rounded through float64 before rational approximation.
type Input struct {
	Kind Kind

	Text  string
	Bytes []byte
	Items []Input
}

func String(s string) Input {
	return Input{Kind: KindString, Text: s}
}

func Int(n int64) Input {
	return Input{Kind: KindNumber, Text: strconv.FormatInt(n, 10)}
}

func Float(f float64) Input {
	return Input{Kind: KindNumber, Text: strconv.FormatFloat(f, 'g', -1, 64)}
}

func Bytes(b []byte) Input {
	return Input{Kind: KindBytes, Bytes: b}
}

func List(items ...Input) Input {
	return Input{Kind: KindList, Items: items}
}

// ParseInput converts a decoded JSON value into an Input. Numbers may be
// json.Number or any Go numeric type. Booleans, nulls and objects are
// rejected.
func ParseInput(v any) (Input, error) {
	switch t := v.(type) {
	case string:
		return String(t), nil
	case json.Number:
		return Input{Kind: KindNumber, Text: t.String()}, nil
	case float64:
		return Float(t), nil
	case float32:
		return Float(float64(t)), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case int32:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case []byte:
		return Bytes(t), nil
	case []any:
		items := make([]Input, len(t))
		for i, item := range t {
			in, err := ParseInput(item)
			if err != nil {
				return Input{}, fmt.Errorf("item %d: %w", i, err)
			}
			items[i] = in
		}

		return List(items...), nil
	case nil:
		return Input{}, fmt.Errorf("null is not a valid tag value")
	}

	return Input{}, fmt.Errorf("unsupported tag value of type %T", v)
}

func (in *Input) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}

	parsed, err := ParseInput(v)
	if err != nil {
		return err
	}

	*in = parsed

	return nil
}

func (in Input) MarshalJSON() ([]byte, error) {
	switch in.Kind {
	case KindString:
		return json.Marshal(in.Text)
	case KindNumber:
		return []byte(in.Text), nil
	case KindBytes:
		return json.Marshal(in.Bytes)
	case KindList:
		if in.Items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(in.Items)
	}

	return nil, fmt.Errorf("cannot marshal input of kind %s", in.Kind)
}

func (in Input) String() string {
	switch in.Kind {
	case KindString:
		return strconv.Quote(in.Text)
	case KindNumber:
		return in.Text
	case KindBytes:
		return fmt.Sprintf("%d bytes", len(in.Bytes))
	case KindList:
		parts := make([]string, len(in.Items))
		for i, item := range in.Items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}

	return "<invalid>"
}
