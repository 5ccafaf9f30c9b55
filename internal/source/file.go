package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mhenriquez/parlid/internal/domain"
)

// scanBufSize bounds a single NDJSON line; speech payloads can run long.
const scanBufSize = 1 << 20

// ReadCandidates reads newline-delimited candidate JSON. Blank lines are
// skipped; a malformed line is an error naming its line number.
func ReadCandidates(r io.Reader) ([]domain.CandidateIdentity, error) {
	var candidates []domain.CandidateIdentity
	err := scanLines(r, func(line int, data []byte) error {
		var c domain.CandidateIdentity
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("line %d: invalid candidate JSON: %w", line, err)
		}
		candidates = append(candidates, c)
		return nil
	})
	return candidates, err
}

// ReadMentions reads newline-delimited mention JSON.
func ReadMentions(r io.Reader) ([]domain.RawMention, error) {
	var mentions []domain.RawMention
	err := scanLines(r, func(line int, data []byte) error {
		var m domain.RawMention
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("line %d: invalid mention JSON: %w", line, err)
		}
		mentions = append(mentions, m)
		return nil
	})
	return mentions, err
}

func scanLines(r io.Reader, fn func(line int, data []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufSize)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := fn(line, []byte(text)); err != nil {
			return err
		}
	}
	return scanner.Err()
}
