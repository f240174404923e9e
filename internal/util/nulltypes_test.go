package util

import "testing"

func TestParseNullInt64(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		wantVal   int64
	}{
		{"", false, 0},
		{"0", false, 0},
		{"42", true, 42},
		{"-7", true, -7},
		{"abc", false, 0},
	}
	for _, tt := range tests {
		got := ParseNullInt64(tt.input)
		if got.Valid != tt.wantValid {
			t.Errorf("ParseNullInt64(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
		}
		if got.Valid && got.Int64 != tt.wantVal {
			t.Errorf("ParseNullInt64(%q) = %d, want %d", tt.input, got.Int64, tt.wantVal)
		}
	}
}

func TestNullStringFromValue(t *testing.T) {
	if got := NullStringFromValue(""); got.Valid {
		t.Error("empty string should be invalid")
	}
	if got := NullStringFromValue("x"); !got.Valid || got.String != "x" {
		t.Errorf("NullStringFromValue(x) = %+v", got)
	}
}

func TestNullInt64FromPtr(t *testing.T) {
	if got := NullInt64FromPtr(nil); got.Valid {
		t.Error("nil pointer should be invalid")
	}
	v := int64(5)
	if got := NullInt64FromPtr(&v); !got.Valid || got.Int64 != 5 {
		t.Errorf("NullInt64FromPtr(&5) = %+v", got)
	}
}
