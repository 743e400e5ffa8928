// Package jsonsrc adapts a stream of JSON text into ingest.Table
// events. It accepts either a top-level Array of Objects, or a
// top-level Object whose members are searched, in source order, for
// the first one holding a non-empty Array whose first element is an
// Object; any other root shape is reported and nothing is ingested.
package jsonsrc

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"arrowtools/ingest"
)

// Options configures content limits independent of the engine's own
// stored-value limits (ingest.Limits).
type Options struct {
	// MaxBytesPerErrorValue bounds how many bytes of a value's literal
	// JSON text are quoted back in an event message (the JSONRootInvalid
	// excerpt, and each non-Object record's example). Zero means
	// DefaultMaxBytesPerErrorValue.
	MaxBytesPerErrorValue int64
}

// DefaultMaxBytesPerErrorValue is used when Options.MaxBytesPerErrorValue
// is zero or negative.
const DefaultMaxBytesPerErrorValue = 200

// errNumberOverflow signals a JSON number literal too large to be
// represented in a float64; its text is used verbatim as the
// JSONParseError message (spec §9).
var errNumberOverflow = errors.New("Number too big to be stored in double.")

// Parse reads JSON from r and feeds it into tbl. It always returns nil:
// malformed JSON, an unrepresentable Number, an unexpected root shape,
// and a read error from r are all reported through tbl.Events()
// instead, per the engine's never-abort-on-content contract.
func Parse(r io.Reader, tbl *ingest.Table, opts Options) error {
	maxExcerpt := opts.MaxBytesPerErrorValue
	if maxExcerpt <= 0 {
		maxExcerpt = DefaultMaxBytesPerErrorValue
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	p := &parser{dec: dec, tbl: tbl, maxExcerpt: maxExcerpt}

	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		tbl.Events().JSONParseError(dec.InputOffset(), err.Error())
		return nil
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		tbl.Events().JSONRootInvalid(p.errorExcerpt(scalarText(tok)))
		return nil
	}

	switch delim {
	case '[':
		return p.parseRecordArray(nil, false)
	case '{':
		return p.parseRootObject()
	default:
		tbl.Events().JSONRootInvalid(string(delim))
		return nil
	}
}

// parser carries the decoder and table across the mutually recursive
// root/array/object walkers, plus the error-excerpt byte limit.
type parser struct {
	dec        *json.Decoder
	tbl        *ingest.Table
	maxExcerpt int64
}

// parseRootObject scans a top-level object's members, in source order,
// for the first one whose value is a non-empty Array of Objects (spec
// §4.5); every other member is skipped without interpretation.
func (p *parser) parseRootObject() error {
	for p.dec.More() {
		if _, err := p.dec.Token(); err != nil { // key
			p.tbl.Events().JSONParseError(p.dec.InputOffset(), err.Error())
			return nil
		}
		tok, err := p.dec.Token()
		if err != nil {
			p.tbl.Events().JSONParseError(p.dec.InputOffset(), err.Error())
			return nil
		}
		delim, isArray := tok.(json.Delim)
		if !isArray || delim != '[' {
			if err := skipValue(p.dec, tok); err != nil {
				p.tbl.Events().JSONParseError(p.dec.InputOffset(), err.Error())
				return nil
			}
			continue
		}

		first, qualifies, err := p.peekArrayQualifies()
		if err != nil {
			p.tbl.Events().JSONParseError(p.dec.InputOffset(), err.Error())
			return nil
		}
		if !qualifies {
			// peekArrayQualifies already drained this array in full;
			// keep scanning the object's remaining members.
			continue
		}
		if err := p.parseRecordArray(first, true); err != nil {
			return err
		}
		return drainRemainder(p.dec)
	}
	p.tbl.Events().JSONRootInvalid("{}")
	return nil
}

// peekArrayQualifies inspects the array whose opening '[' has already
// been consumed. A non-empty array whose first element is an Object
// qualifies as the record list: its already-read first element token
// is returned so the caller can resume from it without re-reading it.
// A non-qualifying array (empty, or first element not an Object) is
// drained here in full, including its closing ']'.
func (p *parser) peekArrayQualifies() (json.Token, bool, error) {
	if !p.dec.More() {
		if _, err := p.dec.Token(); err != nil { // closing ']'
			return nil, false, err
		}
		return nil, false, nil
	}
	first, err := p.dec.Token()
	if err != nil {
		return nil, false, err
	}
	if delim, ok := first.(json.Delim); ok && delim == '{' {
		return first, true, nil
	}
	if err := skipValue(p.dec, first); err != nil {
		return nil, false, err
	}
	for p.dec.More() {
		next, err := p.dec.Token()
		if err != nil {
			return nil, false, err
		}
		if err := skipValue(p.dec, next); err != nil {
			return nil, false, err
		}
	}
	if _, err := p.dec.Token(); err != nil { // closing ']'
		return nil, false, err
	}
	return nil, false, nil
}

// drainRemainder consumes the rest of the decoder's current input
// without interpreting it; only the first qualifying array-valued
// property of a root object is used as the record list.
func drainRemainder(dec *json.Decoder) error {
	for {
		if _, err := dec.Token(); err != nil {
			return nil
		}
	}
}

// parseRecordArray walks a JSON array of records, feeding each Object
// element into tbl as one row; non-Object elements are counted and
// skipped without consuming a row. If haveFirst is true, first is the
// array's already-consumed first element token (from peekArrayQualifies);
// otherwise the first element is read fresh.
func (p *parser) parseRecordArray(first json.Token, haveFirst bool) error {
	index := 0
	tok := first
	for haveFirst || p.dec.More() {
		var err error
		if !haveFirst {
			tok, err = p.dec.Token()
			if err != nil {
				p.tbl.Events().JSONParseError(p.dec.InputOffset(), err.Error())
				return nil
			}
		}
		haveFirst = false

		delim, isObject := tok.(json.Delim)
		if !isObject || delim != '{' {
			text, err := p.elementText(tok)
			if err != nil {
				p.tbl.Events().JSONParseError(p.dec.InputOffset(), err.Error())
				return nil
			}
			p.tbl.Events().SkippedNonObjectRecord(index, text)
			index++
			continue
		}

		cells, err := p.decodeObject()
		if err != nil {
			p.tbl.Events().JSONParseError(p.dec.InputOffset(), err.Error())
			return nil
		}

		action := p.tbl.BeginRow()
		if action == ingest.Stop {
			return drainRemainder(p.dec)
		}
		if action == ingest.Continue {
			for _, c := range cells {
				p.tbl.Cell(ingest.ByName(c.key), c.value)
			}
			p.tbl.EndRow()
		}
		index++
	}
	if _, err := p.dec.Token(); err != nil { // consume closing ']'
		p.tbl.Events().JSONParseError(p.dec.InputOffset(), err.Error())
	}
	return nil
}

// objectCell is one decoded key/value pair of a record, held in memory
// until the whole record is known to be free of unrepresentable values
// (spec §9) and the row can be committed to tbl in one piece.
type objectCell struct {
	key   string
	value ingest.Value
}

// decodeObject fully decodes one JSON object (whose opening '{' has
// already been consumed) into an in-memory slice of cells, without
// touching tbl. Buffering the whole record before any tbl.Cell call
// keeps a record that turns out to hold an unrepresentable Number from
// ever partially landing in the table (spec §9: "the row dropped").
func (p *parser) decodeObject() ([]objectCell, error) {
	var cells []objectCell
	for p.dec.More() {
		keyTok, err := p.dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		v, err := p.readValue()
		if err != nil {
			return nil, err
		}
		cells = append(cells, objectCell{key: key, value: v})
	}
	if _, err := p.dec.Token(); err != nil { // consume closing '}'
		return nil, err
	}
	return cells, nil
}

// readValue decodes one JSON value positioned at the decoder's current
// token into an ingest.Value, re-encoding nested arrays/objects as a
// canonical JSON fragment rather than descending into them.
func (p *parser) readValue() (ingest.Value, error) {
	tok, err := p.dec.Token()
	if err != nil {
		return ingest.Value{}, err
	}
	return p.tokenToValue(tok)
}

func (p *parser) tokenToValue(tok json.Token) (ingest.Value, error) {
	switch t := tok.(type) {
	case nil:
		return ingest.NullValue(), nil
	case bool:
		return ingest.BoolValue(t), nil
	case string:
		return ingest.StringValue([]byte(t)), nil
	case json.Number:
		return numberToValue(t)
	case json.Delim:
		frag, err := captureFragment(p.dec, t)
		if err != nil {
			return ingest.Value{}, err
		}
		return ingest.JSONFragmentValue(frag), nil
	}
	return ingest.NullValue(), nil
}

// numberToValue discriminates exact int64 literals from values that
// need float64 (a literal decimal point or exponent, or an integer
// literal too large for int64) per spec §3's numeric kind rule. A
// literal too large to be represented in a float64 at all (overflow to
// +/-Inf) is reported as errNumberOverflow rather than silently stored,
// per spec §9.
func numberToValue(n json.Number) (ingest.Value, error) {
	s := string(n)
	if !hasFractionOrExponent(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return ingest.Int64Value(i), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return ingest.Value{}, errNumberOverflow
	}
	return ingest.Float64Value(f), nil
}

func hasFractionOrExponent(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', 'e', 'E':
			return true
		}
	}
	return false
}

// elementText renders the full canonical JSON text of a non-Object
// array element (whose first token has already been consumed as tok),
// clipped to the configured error-excerpt byte limit, for the
// SkippedNonObjectRecord event (spec §4.6).
func (p *parser) elementText(tok json.Token) (string, error) {
	if delim, ok := tok.(json.Delim); ok {
		frag, err := captureFragment(p.dec, delim)
		if err != nil {
			return "", err
		}
		return p.errorExcerpt(string(frag)), nil
	}
	return p.errorExcerpt(scalarText(tok)), nil
}

// errorExcerpt clips s to the parser's configured byte limit without
// splitting a multi-byte rune (spec §4.2).
func (p *parser) errorExcerpt(s string) string {
	b, _ := ingest.TruncateUTF8([]byte(s), int(p.maxExcerpt))
	return string(b)
}

// scalarText renders a scalar JSON token (string/number/bool/null) as
// its canonical JSON literal text.
func scalarText(tok json.Token) string {
	switch t := tok.(type) {
	case string:
		b, _ := json.Marshal(t)
		return string(b)
	case json.Number:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return "null"
	case json.Delim:
		return string(t)
	}
	return ""
}

// captureFragment re-reads a nested array/object as raw bytes (via the
// canonical re-encoder) starting from its opening delimiter, which has
// already been consumed from dec.
func captureFragment(dec *json.Decoder, open json.Delim) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeFragmentBody(dec, &buf, open); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFragmentBody(dec *json.Decoder, buf *bytes.Buffer, open json.Delim) error {
	switch open {
	case '[':
		buf.WriteByte('[')
		first := true
		for dec.More() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err := writeFragmentValue(dec, buf); err != nil {
				return err
			}
		}
		if _, err := dec.Token(); err != nil {
			return err
		}
		buf.WriteByte(']')
	case '{':
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
			writeJSONKey(buf, key)
			buf.WriteByte(':')
			if err := writeFragmentValue(dec, buf); err != nil {
				return err
			}
		}
		if _, err := dec.Token(); err != nil {
			return err
		}
		buf.WriteByte('}')
	}
	return nil
}

func writeFragmentValue(dec *json.Decoder, buf *bytes.Buffer) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case json.Delim:
		return writeFragmentBody(dec, buf, t)
	case string:
		writeJSONKey(buf, t)
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

func writeJSONKey(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}

// skipValue discards a value whose opening token has already been
// read (used for top-level object properties that aren't the chosen
// record array).
func skipValue(dec *json.Decoder, tok json.Token) error {
	if _, ok := tok.(json.Delim); !ok {
		return nil
	}
	depth := 1
	for depth > 0 {
		next, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := next.(json.Delim); ok {
			switch d {
			case '[', '{':
				depth++
			case ']', '}':
				depth--
			}
		}
	}
	return nil
}
