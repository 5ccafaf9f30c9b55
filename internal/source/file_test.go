package source

import (
	"strings"
	"testing"

	"github.com/mhenriquez/parlid/internal/domain"
)

func TestReadCandidates(t *testing.T) {
	input := `{"source_system":"camara","source_id":"101","raw_name":"Juan Pérez Soto"}

{"source_system":"freetext","raw_name":"diputado Pérez"}
`
	candidates, err := ReadCandidates(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCandidates failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates (blank line skipped), got %d", len(candidates))
	}
	if candidates[0].SourceID != "101" || candidates[0].Source != domain.SourceCamara {
		t.Errorf("unexpected candidate: %+v", candidates[0])
	}
	if candidates[1].Source != domain.SourceFreeText || candidates[1].SourceID != "" {
		t.Errorf("unexpected candidate: %+v", candidates[1])
	}
}

func TestReadCandidatesReportsLineNumber(t *testing.T) {
	input := `{"source_system":"camara","source_id":"101","raw_name":"Juan"}
{broken`
	_, err := ReadCandidates(strings.NewReader(input))
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the line, got %v", err)
	}
}

func TestReadMentions(t *testing.T) {
	input := `{"kind":"vote","source_system":"camara","source_id":"101","bill_id":"15665-07","voto":"Afirmativo"}
{"kind":"speech","source_system":"freetext","text":"Juan Pérez","session_id":"S-12","orden":3}
`
	mentions, err := ReadMentions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadMentions failed: %v", err)
	}
	if len(mentions) != 2 {
		t.Fatalf("expected 2 mentions, got %d", len(mentions))
	}
	if mentions[0].Kind != domain.MentionVote || mentions[0].BillID != "15665-07" {
		t.Errorf("unexpected mention: %+v", mentions[0])
	}
	if mentions[1].Kind != domain.MentionSpeech || mentions[1].Orden != 3 {
		t.Errorf("unexpected mention: %+v", mentions[1])
	}
}
