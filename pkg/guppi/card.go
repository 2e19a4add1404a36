package guppi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// CardSize is the fixed width of one header card.
	CardSize = 80

	keyWidth   = 8
	valueCol   = keyWidth + 2
	numberCols = 20
)

var endCard = []byte("END" + strings.Repeat(" ", CardSize-3))

// ParseCard decodes one 80-byte card. end is true for the END sentinel.
// The key occupies columns 1-8 and must be followed by "= ".
func ParseCard(card []byte) (key string, v Value, end bool, err error) {
	if len(card) != CardSize {
		return "", Value{}, false, &HeaderValueError{Raw: string(card)}
	}
	if bytes.Equal(card, endCard) {
		return "", Value{}, true, nil
	}
	key = strings.TrimRight(string(card[:keyWidth]), " ")
	if key == "" || strings.ContainsRune(key, ' ') || string(card[keyWidth:valueCol]) != "= " {
		return "", Value{}, false, &HeaderValueError{Key: key, Raw: string(card)}
	}
	v, err = parseValue(key, strings.TrimSpace(string(card[valueCol:])))
	if err != nil {
		return "", Value{}, false, err
	}
	return key, v, false, nil
}

func parseValue(key, raw string) (Value, error) {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Int(i), nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Float(f), nil
	}
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		s := strings.ReplaceAll(raw[1:len(raw)-1], "''", "'")
		return Str(strings.TrimSpace(s)), nil
	}
	return Value{}, &HeaderValueError{Key: key, Raw: raw}
}

// DecodeRecord reads cards from r until the END card.
// It returns io.EOF if r is exhausted before the first byte of the header.
func DecodeRecord(r io.Reader) (*Record, error) {
	rec, _, err := decodeRecord(r, 0)
	return rec, err
}

// decodeRecord also reports how many bytes were consumed. base is the
// absolute offset of the first card, used for error positions.
func decodeRecord(r io.Reader, base int64) (*Record, int64, error) {
	rec := NewRecord()
	card := make([]byte, CardSize)
	var n int64
	for {
		got, err := io.ReadFull(r, card)
		switch {
		case errors.Is(err, io.EOF):
			if n == 0 {
				return nil, 0, io.EOF
			}
			return nil, n, &TruncatedError{Offset: base + n, Err: ErrTruncatedHeader}
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, n + int64(got), &HeaderValueError{Raw: string(card[:got])}
		case err != nil:
			return nil, n, err
		}
		if i := nonASCII(card); i >= 0 {
			return nil, n, &DecodeFaultError{Offset: base + n + int64(i)}
		}
		n += CardSize

		key, v, end, err := ParseCard(card)
		if err != nil {
			return nil, n, err
		}
		if end {
			return rec, n, nil
		}
		rec.Set(key, v)
	}
}

func nonASCII(b []byte) int {
	for i, c := range b {
		if c >= 0x80 {
			return i
		}
	}
	return -1
}

// EncodeRecord renders rec as cards followed by END. The result length is a
// multiple of CardSize.
func EncodeRecord(rec *Record) ([]byte, error) {
	out := make([]byte, 0, (rec.Len()+1)*CardSize)
	for _, key := range rec.keys {
		card, err := encodeCard(key, rec.kv[key])
		if err != nil {
			return nil, err
		}
		out = append(out, card...)
	}
	return append(out, endCard...), nil
}

func encodeCard(key string, v Value) ([]byte, error) {
	if key == "" || len(key) > keyWidth || strings.ContainsRune(key, ' ') {
		return nil, &HeaderValueError{Key: key, Raw: "invalid key"}
	}
	text, err := cardText(v)
	if err != nil {
		return nil, &HeaderValueError{Key: key, Raw: err.Error()}
	}
	line := fmt.Sprintf("%-*s= %s", keyWidth, key, text)
	if len(line) > CardSize {
		return nil, &HeaderValueError{Key: key, Raw: line}
	}
	if i := nonASCII([]byte(line)); i >= 0 {
		return nil, &HeaderValueError{Key: key, Raw: line}
	}
	card := bytes.Repeat([]byte{' '}, CardSize)
	copy(card, line)
	return card, nil
}

// cardText renders v the way it sits in columns 11-80: numbers
// right-justified to column 30, strings quoted with at least 8 characters.
func cardText(v Value) (string, error) {
	switch t := v.Value.(type) {
	case int64:
		return fmt.Sprintf("%*d", numberCols, t), nil
	case float64:
		return fmt.Sprintf("%*s", numberCols, formatFloat(t)), nil
	case string:
		s := strings.ReplaceAll(t, "'", "''")
		return fmt.Sprintf("'%-8s'", s), nil
	default:
		return "", fmt.Errorf("unsupported value %T", v.Value)
	}
}

func formatValue(v Value) string {
	switch t := v.Value.(type) {
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return formatFloat(t)
	case string:
		return t
	default:
		return fmt.Sprint(v.Value)
	}
}

// formatFloat keeps a decimal point or exponent so the value parses back
// as a float rather than an integer.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'G', -1, 64)
	if strings.ContainsAny(s, ".EIN") {
		return s
	}
	return s + ".0"
}
