package model

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Warning is one warning emitted while recording a run.
//
// On the wire a warning is either a plain message string or a structured
// {code, message} object; both forms normalize to a Warning here, with an
// empty Code marking the plain variant.
type Warning struct {
	Code    string `yaml:"code,omitempty"`
	Message string `yaml:"message,omitempty"`
	_       struct{}
}

// PlainWarning builds the plain string variant.
func PlainWarning(message string) Warning {
	return Warning{Message: message}
}

// CodedWarning builds the structured {code, message} variant.
func CodedWarning(code, message string) Warning {
	return Warning{Code: code, Message: message}
}

// Normalize reduces a warning to its display message: the message when
// present, else the code, else a generic placeholder.
func (w Warning) Normalize() string {
	if w.Message != "" {
		return w.Message
	}
	if w.Code != "" {
		return w.Code
	}
	return "(unspecified warning)"
}

// MarshalJSON keeps the wire form of the variant: plain warnings serialize
// back to a bare string, coded ones to a {code, message} object.
func (w Warning) MarshalJSON() ([]byte, error) {
	if w.Code == "" {
		return jsoniter.Marshal(w.Message)
	}
	return jsoniter.Marshal(struct {
		Code    string `json:"code"`
		Message string `json:"message,omitempty"`
	}{Code: w.Code, Message: w.Message})
}

// UnmarshalJSON accepts either wire form. Any other JSON value is folded
// into a plain warning carrying its textual rendering, so a single odd
// element never poisons a whole run record.
func (w *Warning) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := jsoniter.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = Warning{Message: s}
		return nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var obj struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := jsoniter.Unmarshal(data, &obj); err != nil {
			return err
		}
		*w = Warning{Code: obj.Code, Message: obj.Message}
		return nil
	}
	*w = Warning{Message: trimmed}
	return nil
}

// Warnings is the ordered warning list of a run.
type Warnings []Warning

// Messages normalizes the list to its ordered display messages.
func (ws Warnings) Messages() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Normalize())
	}
	return out
}
