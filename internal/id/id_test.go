package id

import (
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		fn   func(int64) string
		seq  int64
		want string
	}{
		{"person seq 1", FormatPerson, 1, "MP-00001"},
		{"person seq 12345", FormatPerson, 12345, "MP-12345"},
		{"review seq 7", FormatReview, 7, "RQ-00007"},
		{"review seq 99999", FormatReview, 99999, "RQ-99999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.seq); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		wantType Type
		wantSeq  int64
		wantErr  bool
	}{
		{"MP-00042", TypePerson, 42, false},
		{"RQ-00007", TypeReview, 7, false},
		{"  MP-00001  ", TypePerson, 1, false},
		{"MP-1", "", 0, true},
		{"T-00001", "", 0, true},
		{"mp-00042", "", 0, true},
		{"", "", 0, true},
	}
	for _, tt := range tests {
		typ, seq, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if typ != tt.wantType || seq != tt.wantSeq {
			t.Errorf("Parse(%q) = (%s, %d), want (%s, %d)", tt.in, typ, seq, tt.wantType, tt.wantSeq)
		}
	}
}

func TestIsUUID(t *testing.T) {
	if !IsUUID("550e8400-e29b-41d4-a716-446655440000") {
		t.Error("expected valid uuid")
	}
	if IsUUID("MP-00042") {
		t.Error("friendly ID is not a uuid")
	}
}

func TestIsFriendlyID(t *testing.T) {
	if !IsFriendlyID("MP-00042") || !IsFriendlyID("RQ-00001") {
		t.Error("expected friendly IDs to validate")
	}
	if IsFriendlyID("550e8400-e29b-41d4-a716-446655440000") {
		t.Error("uuid is not a friendly ID")
	}
}
