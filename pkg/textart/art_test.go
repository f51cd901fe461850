package textart

import (
	"encoding/json"
	"testing"
)

func TestFromRows(t *testing.T) {
	tests := []struct {
		name      string
		rows      []string
		wantWidth int
		wantErr   bool
	}{
		{"ascii", []string{"@@", "  "}, 2, false},
		{"multibyte", []string{"█▓", "░ "}, 2, false},
		{"single cell", []string{"#"}, 1, false},

		{"no rows", nil, 0, true},
		{"empty row", []string{""}, 0, true},
		{"ragged", []string{"abc", "ab"}, 0, true},
		{"bytes vs runes", []string{"ab", "█"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art, err := FromRows(tt.rows)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromRows() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && art.Width() != tt.wantWidth {
				t.Errorf("Width() = %d, want %d", art.Width(), tt.wantWidth)
			}
		})
	}
}

func TestTextArt_Accessors(t *testing.T) {
	src := []string{"█▓░", "@# "}
	art, err := FromRows(src)
	if err != nil {
		t.Fatal(err)
	}
	src[0] = "xxx"

	if art.Height() != 2 || art.Width() != 3 {
		t.Fatalf("size = %dx%d, want 3x2", art.Width(), art.Height())
	}
	if art.Row(0) != "█▓░" {
		t.Error("FromRows aliases caller slice")
	}
	if art.At(1, 0) != '▓' || art.At(2, 1) != ' ' {
		t.Errorf("At returned %q, %q", art.At(1, 0), art.At(2, 1))
	}
	if art.String() != "█▓░\n@# " {
		t.Errorf("String() = %q", art.String())
	}

	rows := art.Rows()
	rows[1] = "zzz"
	if art.Row(1) != "@# " {
		t.Error("Rows returned an alias")
	}
}

func TestTextArt_Equal(t *testing.T) {
	a, _ := FromRows([]string{"ab", "cd"})
	b, _ := FromRows([]string{"ab", "cd"})
	c, _ := FromRows([]string{"ab", "ce"})

	if !a.Equal(b) {
		t.Error("identical art not equal")
	}
	if a.Equal(c) {
		t.Error("different art equal")
	}
	if a.Equal(nil) {
		t.Error("art equal to nil")
	}
}

func TestTextArt_JSON(t *testing.T) {
	art, _ := FromRows([]string{"@%", ". "})
	data, err := json.Marshal(art)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"width":2,"height":2,"rows":["@%",". "]}` {
		t.Errorf("json = %s", data)
	}

	var back TextArt
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !art.Equal(&back) {
		t.Error("round trip changed the art")
	}

	bad := []string{
		`{"rows":["ab","c"]}`,
		`{"width":3,"rows":["ab","cd"]}`,
		`{"height":1,"rows":["ab","cd"]}`,
		`{"rows":[]}`,
	}
	for _, in := range bad {
		var v TextArt
		if err := json.Unmarshal([]byte(in), &v); err == nil {
			t.Errorf("Unmarshal(%s) should fail", in)
		}
	}
}

func TestProcessingOptions(t *testing.T) {
	opts := ProcessingOptions{}.WithDefaults()
	if opts.TargetWidth != DefaultTargetWidth || opts.AspectCorrection != DefaultAspectCorrection {
		t.Errorf("WithDefaults() = %+v", opts)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if err := DefaultOptions().Validate(); err != nil {
		t.Errorf("DefaultOptions should validate: %v", err)
	}

	// Width above MaxDimension is left for the sampler to report.
	big := ProcessingOptions{TargetWidth: 500, AspectCorrection: 0.5, MaxDimension: 100}
	if err := big.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
