package languages

import (
	"bytes"
	"encoding/json"
)

// Code is a short language code such as "hi" or "kok".
type Code = string

type Language struct {
	Code Code
	Name string
}

// supported is ordered; Codes and the JSON encoding follow this order.
var supported = []Language{
	{"hi", "Hindi"},
	{"ta", "Tamil"},
	{"te", "Telugu"},
	{"kn", "Kannada"},
	{"ml", "Malayalam"},
	{"mr", "Marathi"},
	{"gu", "Gujarati"},
	{"bn", "Bengali"},
	{"pa", "Punjabi"},
	{"or", "Odia"},
	{"as", "Assamese"},
	{"ur", "Urdu"},
	{"sa", "Sanskrit"},
	{"kok", "Konkani"},
	{"mni", "Manipuri"},
	{"mai", "Maithili"},
	{"sd", "Sindhi"},
	{"ks", "Kashmiri"},
	{"dg", "Dogri"},
	{"bodo", "Bodo"},
	{"sat", "Santali"},
	{"en", "English"},
}

var byCode = func() map[Code]string {
	m := make(map[Code]string, len(supported))
	for _, l := range supported {
		m[l.Code] = l.Name
	}
	return m
}()

func IsSupported(code Code) bool {
	_, ok := byCode[code]
	return ok
}

// DisplayName returns the human readable name of code.
func DisplayName(code Code) (string, bool) {
	name, ok := byCode[code]
	return name, ok
}

// Codes returns every supported code in definition order.
func Codes() []Code {
	codes := make([]Code, len(supported))
	for i, l := range supported {
		codes[i] = l.Code
	}
	return codes
}

func Len() int {
	return len(supported)
}

// Registry is an ordered code -> name mapping.
type Registry []Language

// All returns a copy of the registry.
func All() Registry {
	out := make(Registry, len(supported))
	copy(out, supported)
	return out
}

// MarshalJSON encodes the registry as a JSON object keeping definition order.
func (r Registry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(l.Code)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(l.Name)
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
