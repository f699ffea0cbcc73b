package services

import (
	"errors"
	"testing"

	"ebay-normalizer/models"
	"ebay-normalizer/utils"
)

func newTestLogger() *utils.Logger { return utils.Discard() }

func TestFormatDollar(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"$3,453.23", "3453.23"},
		{"$1.00", "1.00"},
		{"", ""},
		{"USD 99", "99"},
		{"$1,000,000", "1000000"},
	}

	for _, tt := range tests {
		if got := FormatDollar(tt.raw); got != tt.want {
			t.Errorf("FormatDollar(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFormatDollarIdempotent(t *testing.T) {
	for _, v := range []string{"3453.23", "0", "12", "0.5", ".75", ""} {
		if got := FormatDollar(v); got != v {
			t.Errorf("FormatDollar(%q) = %q; want it unchanged", v, got)
		}
		if got := FormatDollar(FormatDollar("$" + v)); got != v {
			t.Errorf("FormatDollar twice on %q = %q", "$"+v, got)
		}
	}
}

func TestSerializerDollarAbsent(t *testing.T) {
	s := NewSerializer(newTestLogger())
	if got := s.Dollar(models.Text{}); got != "" {
		t.Errorf("Dollar(absent) = %q; want empty", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Dec-11-01 08:00:00", "2001-12-11 08:00:00"},
		{"Jan-01-99 23:59:59", "2099-01-01 23:59:59"},
		{"Sep-30-05 00:00:01", "2005-09-30 00:00:01"},
		{" May-07-01 12:30:00 ", "2001-05-07 12:30:00"},
		// Unknown month abbreviations pass through untouched.
		{"Foo-11-01 08:00:00", "2001-Foo-11 08:00:00"},
		{"dec-11-01 08:00:00", "2001-dec-11 08:00:00"},
	}

	for _, tt := range tests {
		got, err := FormatTimestamp(tt.raw)
		if err != nil {
			t.Errorf("FormatTimestamp(%q) unexpected error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("FormatTimestamp(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFormatTimestampMalformed(t *testing.T) {
	for _, raw := range []string{"", "Dec-11-01", "Dec-11 08:00:00", "2001-12-11T08:00:00"} {
		if _, err := FormatTimestamp(raw); !errors.Is(err, ErrMalformedTimestamp) {
			t.Errorf("FormatTimestamp(%q) error = %v; want ErrMalformedTimestamp", raw, err)
		}
	}
}

func TestSerializerTimestampAbsent(t *testing.T) {
	s := NewSerializer(newTestLogger())
	got, err := s.Timestamp(models.Text{})
	if err != nil || got != "" {
		t.Errorf("Timestamp(absent) = %q, %v; want empty, nil", got, err)
	}
}

func TestSerializerTimestampEscapesPassThrough(t *testing.T) {
	s := NewSerializer(newTestLogger())
	tests := []struct {
		raw  string
		want string
	}{
		{"Dec-11-01 08:00:00", "2001-12-11 08:00:00"},
		{"D|c-11-01 08:00:00", `"2001-D|c-11 08:00:00"`},
		{`Q"x-11-01 08:00:00`, `"2001-Q""x-11 08:00:00"`},
	}
	for _, tt := range tests {
		got, err := s.Timestamp(models.NewText(tt.raw))
		if err != nil || got != tt.want {
			t.Errorf("Timestamp(%q) = %q, %v; want %q, nil", tt.raw, got, err, tt.want)
		}
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"plain text", "plain text"},
		{"", ""},
		{`back\slash only`, `back\slash only`},
		{"a|b", `"a|b"`},
		{`say "hi"`, `"say ""hi"""`},
		{`C:\dir|x`, `"C:\\dir|x"`},
		{`"`, `""""`},
	}

	for _, tt := range tests {
		if got := Escape(tt.raw); got != tt.want {
			t.Errorf("Escape(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSerializerTextNull(t *testing.T) {
	s := NewSerializer(newTestLogger())
	if got := s.Text(models.Text{}); got != "" {
		t.Errorf("Text(null) = %q; want empty", got)
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	values := []string{
		"a|b",
		`quote " inside`,
		`back\slash`,
		`mix \" | \\ ""`,
		"|",
		`"|"`,
		`trailing\`,
		"",
		"no specials",
	}

	for _, v := range values {
		line := JoinFields("lead", Escape(v), "tail")
		fields, err := SplitLine(line)
		if err != nil {
			t.Errorf("SplitLine(%q): %v", line, err)
			continue
		}
		if len(fields) != 3 {
			t.Errorf("SplitLine(%q): got %d fields, want 3", line, len(fields))
			continue
		}
		if fields[1] != v {
			t.Errorf("round trip of %q produced %q", v, fields[1])
		}
	}
}

func TestSplitLineMalformed(t *testing.T) {
	for _, line := range []string{`"open`, `"x"y|z`, `a"b`, `"a\b"`} {
		if _, err := SplitLine(line); !errors.Is(err, ErrMalformedLine) {
			t.Errorf("SplitLine(%q) error = %v; want ErrMalformedLine", line, err)
		}
	}
}

func TestJoinFieldsKeepsEmptyColumns(t *testing.T) {
	got := JoinFields("1", "", "3")
	if got != "1||3" {
		t.Errorf("JoinFields = %q; want %q", got, "1||3")
	}
	fields, err := SplitLine(got)
	if err != nil || len(fields) != 3 || fields[1] != "" {
		t.Errorf("SplitLine(%q) = %q, %v", got, fields, err)
	}
}
