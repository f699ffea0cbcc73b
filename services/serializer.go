package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"ebay-normalizer/models"
	"ebay-normalizer/utils"
)

// Delimiter separates columns in every .dat file.
const Delimiter = "|"

var (
	// ErrMalformedTimestamp is returned for timestamps not shaped like
	// "Mon-DD-YY HH:MM:SS".
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	// ErrMalformedLine is returned by SplitLine for text that Escape could
	// not have produced.
	ErrMalformedLine = errors.New("malformed delimited line")

	// notMoneyRegexp matches everything that is not part of a dollar amount.
	notMoneyRegexp = regexp.MustCompile(`[^\d.]`)

	escaper = strings.NewReplacer(`"`, `""`, `\`, `\\`)
	months  = map[string]string{
		"Jan": "01", "Feb": "02", "Mar": "03", "Apr": "04", "May": "05", "Jun": "06",
		"Jul": "07", "Aug": "08", "Sep": "09", "Oct": "10", "Nov": "11", "Dec": "12",
	}
)

// Serializer turns raw listing fields into their column text.
type Serializer struct {
	logger *utils.Logger
}

// NewSerializer creates a Serializer with the given logger.
func NewSerializer(logger *utils.Logger) *Serializer {
	return &Serializer{logger: logger}
}

// Dollar normalizes a currency field. Absent values become "".
func (s *Serializer) Dollar(t models.Text) string {
	return FormatDollar(t.String())
}

// Timestamp reformats and escapes a timestamp field. Absent values become "".
// An unrecognized month is copied through, so the result may still carry
// the delimiter.
func (s *Serializer) Timestamp(t models.Text) (string, error) {
	if !t.Valid {
		return "", nil
	}
	out, known, err := formatTimestamp(t.Value)
	if err != nil {
		return "", err
	}
	if !known {
		s.logger.Debug("[serializer] Unrecognized month in %q, passed through", t.Value)
	}
	return Escape(out), nil
}

// Text escapes a free-text field. Absent values become "".
func (s *Serializer) Text(t models.Text) string {
	return Escape(t.String())
}

// FormatDollar strips every character that is not a digit or a dot, so
// "$3,453.23" becomes "3453.23". An empty input stays empty.
func FormatDollar(raw string) string {
	if raw == "" {
		return ""
	}
	return notMoneyRegexp.ReplaceAllString(raw, "")
}

// FormatTimestamp converts "Mon-DD-YY HH:MM:SS" to "20YY-MM-DD HH:MM:SS".
// An unrecognized month abbreviation is copied through unchanged.
func FormatTimestamp(raw string) (string, error) {
	out, _, err := formatTimestamp(raw)
	return out, err
}

func formatTimestamp(raw string) (string, bool, error) {
	parts := strings.Fields(raw)
	if len(parts) != 2 {
		return "", false, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}

	date := strings.Split(parts[0], "-")
	if len(date) != 3 {
		return "", false, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}

	month, known := transformMonth(date[0])
	return "20" + date[2] + "-" + month + "-" + date[1] + " " + parts[1], known, nil
}

// transformMonth maps "Dec" to "12". Unknown abbreviations are returned as
// given with ok set to false.
func transformMonth(mon string) (string, bool) {
	if m, ok := months[mon]; ok {
		return m, true
	}
	return mon, false
}

// Escape prepares a value for a delimited line. Values holding the
// delimiter or a double quote have every quote and backslash doubled and
// are wrapped in double quotes; all other values are written verbatim.
func Escape(s string) string {
	if !strings.ContainsAny(s, Delimiter+`"`) {
		return s
	}
	return `"` + escaper.Replace(s) + `"`
}

// JoinFields assembles already-escaped fields into one line.
func JoinFields(fields ...string) string {
	return strings.Join(fields, Delimiter)
}

// SplitLine splits a line produced by JoinFields and reverses Escape on
// every field.
func SplitLine(line string) ([]string, error) {
	var (
		fields []string
		cur    strings.Builder
	)

	i := 0
	for {
		cur.Reset()
		if i < len(line) && line[i] == '"' {
			i++
			closed := false
			for i < len(line) {
				c := line[i]
				switch {
				case c == '"' && i+1 < len(line) && line[i+1] == '"':
					cur.WriteByte('"')
					i += 2
				case c == '"':
					closed = true
					i++
				case c == '\\' && i+1 < len(line) && line[i+1] == '\\':
					cur.WriteByte('\\')
					i += 2
				case c == '\\':
					return nil, fmt.Errorf("%w: lone backslash at %d", ErrMalformedLine, i)
				default:
					cur.WriteByte(c)
					i++
				}
				if closed {
					break
				}
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated quote", ErrMalformedLine)
			}
			if i < len(line) && line[i] != Delimiter[0] {
				return nil, fmt.Errorf("%w: text after closing quote at %d", ErrMalformedLine, i)
			}
		} else {
			for i < len(line) && line[i] != Delimiter[0] {
				if line[i] == '"' {
					return nil, fmt.Errorf("%w: bare quote at %d", ErrMalformedLine, i)
				}
				cur.WriteByte(line[i])
				i++
			}
		}

		fields = append(fields, cur.String())
		if i >= len(line) {
			return fields, nil
		}
		i++ // delimiter
	}
}
