package consultation

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FilePaths is the list of stored attachment paths of a lab result. The
// backend keeps it in a single text column, so it travels as a string that
// holds a JSON array. Older rows hold one bare path instead.
type FilePaths []string

// DecodeFilePaths is the one decoder for a stored file path field. Empty and
// "null" mean no files, a JSON array yields its non-empty entries, and any
// other value is taken as a single bare path.
func DecodeFilePaths(raw string) FilePaths {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			return compact(list)
		}
	}
	return FilePaths{raw}
}

// EncodeFilePaths renders paths as a JSON array string. No paths encode as "[]".
func EncodeFilePaths(paths []string) string {
	list := []string(compact(paths))
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func compact(list []string) FilePaths {
	out := make(FilePaths, 0, len(list))
	for _, p := range list {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (f FilePaths) MarshalJSON() ([]byte, error) {
	return json.Marshal(EncodeFilePaths(f))
}

// UnmarshalJSON accepts the encoded string form as well as a raw JSON array.
func (f *FilePaths) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = nil
	case data[0] == '[':
		*f = DecodeFilePaths(string(data))
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = DecodeFilePaths(s)
	default:
		*f = nil
	}
	return nil
}
