package domain

import (
	"reflect"
	"testing"
)

func TestSourceSystem_Authority(t *testing.T) {
	tests := []struct {
		source SourceSystem
		want   int
	}{
		{SourceBCN, 3},
		{SourceCamara, 2},
		{SourceSenado, 2},
		{SourceFreeText, 1},
		{SourceSystem("unknown"), 1},
	}
	for _, tt := range tests {
		if got := tt.source.Authority(); got != tt.want {
			t.Errorf("%s.Authority() = %d, want %d", tt.source, got, tt.want)
		}
	}
}

func TestPerson_FieldSources(t *testing.T) {
	tests := []struct {
		name    string
		raw     *string
		want    map[string]SourceSystem
		wantErr bool
	}{
		{
			name: "nil column",
			raw:  nil,
			want: map[string]SourceSystem{},
		},
		{
			name: "empty string",
			raw:  stringPtr(""),
			want: map[string]SourceSystem{},
		},
		{
			name: "single attribute",
			raw:  stringPtr(`{"profesion":"bcn"}`),
			want: map[string]SourceSystem{"profesion": SourceBCN},
		},
		{
			name: "multiple attributes",
			raw:  stringPtr(`{"genero":"camara","url_foto":"bcn"}`),
			want: map[string]SourceSystem{"genero": SourceCamara, "url_foto": SourceBCN},
		},
		{
			name:    "invalid json",
			raw:     stringPtr(`{`),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Person{FieldSources: tt.raw}
			got, err := p.GetFieldSources()
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetFieldSources() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GetFieldSources() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPerson_SetFieldSourcesRoundTrip(t *testing.T) {
	p := &Person{}
	in := map[string]SourceSystem{"profesion": SourceBCN, "genero": SourceCamara}
	if err := p.SetFieldSources(in); err != nil {
		t.Fatalf("SetFieldSources failed: %v", err)
	}
	out, err := p.GetFieldSources()
	if err != nil {
		t.Fatalf("GetFieldSources failed: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch: %v != %v", in, out)
	}
}

func TestCandidateIdentity_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		c    CandidateIdentity
		want string
	}{
		{
			name: "raw name wins",
			c:    CandidateIdentity{RawName: "Juan Pérez", NombrePropio: "Juan"},
			want: "Juan Pérez",
		},
		{
			name: "assembled from components",
			c:    CandidateIdentity{NombrePropio: "Juan", ApellidoPaterno: "Pérez", ApellidoMaterno: "Soto"},
			want: "Juan Pérez Soto",
		},
		{
			name: "surname only",
			c:    CandidateIdentity{ApellidoPaterno: "Pérez"},
			want: "Pérez",
		},
		{
			name: "empty",
			c:    CandidateIdentity{},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func stringPtr(s string) *string {
	return &s
}
