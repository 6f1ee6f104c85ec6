package facts

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// #region kind
// Kind tags which variant a Value holds.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindEnum
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	case KindNumber:
		return "number"
	}
	return "invalid"
}

// #endregion kind

// #region value
// Value is a fact value: exactly one of a boolean, an enum label or a number.
// The zero Value is invalid and never equal to a constructed one.
type Value struct {
	kind Kind
	b    bool
	s    string
	n    float64
}

func Bool(b bool) Value       { return Value{kind: KindBool, b: b} }
func Enum(s string) Value     { return Value{kind: KindEnum, s: s} }
func Number(n float64) Value  { return Value{kind: KindNumber, n: n} }
func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// AsBool returns the boolean and whether v is a Bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsEnum returns the label and whether v is an Enum.
func (v Value) AsEnum() (string, bool) { return v.s, v.kind == KindEnum }

// AsNumber returns the number and whether v is a Number.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// Equal reports exact equality: same kind and same payload. Bool(true) never
// equals Enum("true").
func (v Value) Equal(o Value) bool {
	return v == o
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindEnum:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	}
	return "<invalid>"
}

// #endregion value

// #region encoding
// MarshalJSON writes the natural JSON scalar: bool, string or number.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindEnum:
		return json.Marshal(v.s)
	case KindNumber:
		return json.Marshal(v.n)
	}
	return nil, fmt.Errorf("marshal fact value: invalid value")
}

// UnmarshalJSON maps JSON bool, string and number onto the three variants.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal fact value: %w", err)
	}
	switch x := raw.(type) {
	case bool:
		*v = Bool(x)
	case string:
		*v = Enum(x)
	case float64:
		*v = Number(x)
	default:
		return fmt.Errorf("unmarshal fact value: unsupported JSON %s", string(data))
	}
	return nil
}

// UnmarshalYAML decodes by resolved tag so that `true` is a Bool and
// `"true"` is an Enum.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: fact value must be a scalar", node.Line)
	}
	switch node.ShortTag() {
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*v = Bool(b)
	case "!!int", "!!float":
		var n float64
		if err := node.Decode(&n); err != nil {
			return err
		}
		*v = Number(n)
	case "!!str":
		*v = Enum(node.Value)
	default:
		return fmt.Errorf("line %d: unsupported fact value tag %s", node.Line, node.ShortTag())
	}
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindEnum:
		return v.s, nil
	case KindNumber:
		return v.n, nil
	}
	return nil, fmt.Errorf("marshal fact value: invalid value")
}

// #endregion encoding
