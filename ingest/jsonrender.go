package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CanonicalJSON re-serializes a JSON fragment with no insignificant
// whitespace, \uXXXX escapes for ASCII control bytes and for '"' and
// '\\', and all other Unicode passed through as UTF-8. Object key
// order is preserved in source order (spec §4.4.2).
func CanonicalJSON(fragment []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(fragment))
	dec.UseNumber()
	var buf bytes.Buffer
	if err := copyJSONValue(dec, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func copyJSONValue(dec *json.Decoder, buf *bytes.Buffer) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	return writeJSONToken(dec, buf, tok)
}

func writeJSONToken(dec *json.Decoder, buf *bytes.Buffer, tok json.Token) error {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return copyJSONObject(dec, buf)
		case '[':
			return copyJSONArray(dec, buf)
		}
		return fmt.Errorf("ingest: unexpected JSON delimiter %q", t)
	case string:
		writeJSONString(buf, t)
	case json.Number:
		buf.WriteString(string(t))
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case nil:
		buf.WriteString("null")
	}
	return nil
}

func copyJSONObject(dec *json.Decoder, buf *bytes.Buffer) error {
	buf.WriteByte('{')
	first := true
	for dec.More() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		writeJSONString(buf, key)
		buf.WriteByte(':')
		if err := copyJSONValue(dec, buf); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil { // consume closing '}'
		return err
	}
	buf.WriteByte('}')
	return nil
}

func copyJSONArray(dec *json.Decoder, buf *bytes.Buffer) error {
	buf.WriteByte('[')
	first := true
	for dec.More() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := copyJSONValue(dec, buf); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil { // consume closing ']'
		return err
	}
	buf.WriteByte(']')
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		if r < 0x20 || r == '"' || r == '\\' {
			fmt.Fprintf(buf, `\u%04x`, r)
			continue
		}
		buf.WriteRune(r)
	}
	buf.WriteByte('"')
}
