package domain

import (
	"errors"
	"testing"
)

func TestValidateSourceSystem(t *testing.T) {
	for _, valid := range []SourceSystem{SourceCamara, SourceSenado, SourceBCN, SourceFreeText} {
		if err := ValidateSourceSystem(valid); err != nil {
			t.Errorf("ValidateSourceSystem(%s) = %v, want nil", valid, err)
		}
	}
	if err := ValidateSourceSystem("congreso"); err == nil {
		t.Error("expected error for unknown source system")
	}
}

func TestValidateIdentifierSource(t *testing.T) {
	if err := ValidateIdentifierSource(SourceCamara); err != nil {
		t.Errorf("camara should own identifiers: %v", err)
	}
	if err := ValidateIdentifierSource(SourceFreeText); err == nil {
		t.Error("freetext must never own identifiers")
	}
}

func TestValidateVoto(t *testing.T) {
	for _, valid := range []string{"Afirmativo", "En Contra", "Abstención", "Pareo", "Dispensado"} {
		if err := ValidateVoto(valid); err != nil {
			t.Errorf("ValidateVoto(%s) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "afirmativo", "Si", "N/A"} {
		if err := ValidateVoto(invalid); err == nil {
			t.Errorf("expected error for voto %q", invalid)
		}
	}
}

func TestValidateCandidate(t *testing.T) {
	tests := []struct {
		name          string
		c             CandidateIdentity
		wantMalformed bool
		wantErr       bool
	}{
		{
			name: "id and name",
			c:    CandidateIdentity{Source: SourceCamara, SourceID: "101", RawName: "Juan Pérez"},
		},
		{
			name: "name only free text",
			c:    CandidateIdentity{Source: SourceFreeText, RawName: "Juan Pérez"},
		},
		{
			name:          "no id and no name",
			c:             CandidateIdentity{Source: SourceCamara},
			wantMalformed: true,
			wantErr:       true,
		},
		{
			name:    "freetext with identifier",
			c:       CandidateIdentity{Source: SourceFreeText, SourceID: "101", RawName: "X"},
			wantErr: true,
		},
		{
			name:    "unknown source",
			c:       CandidateIdentity{Source: "congreso", RawName: "X"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCandidate(&tt.c)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateCandidate() error = %v, wantErr %v", err, tt.wantErr)
			}
			var malformed *MalformedCandidateError
			if got := errors.As(err, &malformed); got != tt.wantMalformed {
				t.Errorf("malformed = %v, want %v", got, tt.wantMalformed)
			}
		})
	}
}

func TestValidateTimestamp(t *testing.T) {
	if _, err := ValidateTimestamp("2023-03-11T14:30:00Z"); err != nil {
		t.Errorf("expected valid timestamp, got %v", err)
	}
	if _, err := ValidateTimestamp("11-03-2023"); err == nil {
		t.Error("expected error for non-ISO timestamp")
	}
}
