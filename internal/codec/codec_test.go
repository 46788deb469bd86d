package codec

import (
	"testing"
	"time"

	"github.com/bobolobo/perfmonitor/internal/models"
	"github.com/bobolobo/perfmonitor/internal/profile"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`\Process(bgServer)\Private Bytes`, `(bgServer)\PrivateBytes`},
		{`\Process(node#1)\Working Set - Private`, `(node#1)\WorkingSet-Private`},
		{`\process(audiodg)\Virtual Bytes`, `(audiodg)\VirtualBytes`},
		{"\\Process(ECAT)\\Virtual Bytes\r\n", `(ECAT)\VirtualBytes`},
		{`(bgServer)\PrivateBytes`, `(bgServer)\PrivateBytes`},
		{`\Pro\Processcess(x)\Y`, `(x)\Y`},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := NormalizeHeader(tt.raw)
			if got != tt.want {
				t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if again := NormalizeHeader(got); again != got {
				t.Errorf("NormalizeHeader not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestSanitizeField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"[123.5]", "123.5"},
		{"(4096.0,)", "4096.0"},
		{"'1,,2,'", "1,2"},
		{`["1", "2"],`, "1, 2"},
		{"  77  ", "77"},
		{"", ""},
		{",,,", ""},
		{"12", "12"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SanitizeField(tt.in)
			if got != tt.want {
				t.Errorf("SanitizeField(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := SanitizeField(got); again != got {
				t.Errorf("SanitizeField not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		v    models.Value
		want string
	}{
		{models.PresentValue(1048576), "1048576"},
		{models.PresentValue(12.25), "12.25"},
		{models.PresentValue(0), "0"},
		{models.Absent(), Absent},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.v); got != tt.want {
			t.Errorf("FormatValue(%+v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("[2048.0]")
	if err != nil || !v.Present || v.V != 2048 {
		t.Errorf("ParseValue([2048.0]) = %+v, %v", v, err)
	}

	v, err = ParseValue("")
	if err != nil || v.Present {
		t.Errorf("ParseValue(\"\") = %+v, %v; want absent", v, err)
	}

	if _, err := ParseValue("abc"); err == nil {
		t.Error("ParseValue(abc) succeeded, want error")
	}
}

func TestEncodeRowKeepsAbsentColumns(t *testing.T) {
	row := models.SampleRow{
		Timestamp: "10/15/26 13:45",
		Values:    []models.Value{models.PresentValue(10), models.Absent(), models.PresentValue(30)},
	}
	fields := EncodeRow(row)
	want := []string{"10/15/26 13:45", "10", "", "30"}
	if len(fields) != len(want) {
		t.Fatalf("EncodeRow = %q, want %q", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("field %d = %q, want %q", i, fields[i], want[i])
		}
	}
}

func TestHeaderFor(t *testing.T) {
	cols := []profile.CounterRef{
		profile.MustParseRef(`\Process(bgServer)\Private Bytes`),
		profile.MustParseRef(`\Process(bgServer)\Virtual Bytes`),
	}
	got := HeaderFor(cols)
	if len(got) != 2 || got[0] != `(bgServer)\PrivateBytes` || got[1] != `(bgServer)\VirtualBytes` {
		t.Errorf("HeaderFor = %q", got)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2026, 10, 15, 9, 7, 42, 0, time.Local)
	s := FormatTimestamp(ts)
	if s != "10/15/26 09:07" {
		t.Fatalf("FormatTimestamp = %q, want 10/15/26 09:07", s)
	}
	back, err := ParseTimestamp(s)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(ts.Truncate(time.Minute)) {
		t.Errorf("ParseTimestamp(%q) = %v, want %v", s, back, ts.Truncate(time.Minute))
	}
}
