package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
	"github.com/yungbote/techlearn-backend/internal/platform/openai"
)

const (
	SampleChars = 10000

	objectivesMaxTokens   = 300
	objectivesTemperature = 0.7
	questionsMaxTokens    = 1500
	questionsTemperature  = 0.8
)

// FallbackObjectives replace an unparseable objectives reply.
var FallbackObjectives = []string{
	"Understand key concepts",
	"Apply learned techniques",
	"Demonstrate proficiency",
}

// OracleParseError means the oracle answered but not in the requested shape.
type OracleParseError struct {
	Kind string
	Err  error
}

func (e *OracleParseError) Error() string {
	return fmt.Sprintf("oracle %s reply not parseable: %v", e.Kind, e.Err)
}

func (e *OracleParseError) Unwrap() error { return e.Err }

// Result is what enrichment adds to extracted text. Applied is false when the
// oracle could not be reached, in which case both lists are empty.
type Result struct {
	Objectives []string
	Questions  []types.GeneratedQuestion
	Applied    bool
}

type Enricher struct {
	log     *logger.Logger
	oracle  openai.Oracle
	timeout time.Duration
}

// New returns nil when the oracle is not configured.
func New(log *logger.Logger, oracle openai.Oracle, timeout time.Duration) *Enricher {
	if oracle == nil {
		return nil
	}
	return &Enricher{log: log.With("component", "Enricher"), oracle: oracle, timeout: timeout}
}

// Enrich asks for objectives then questions. It never fails; a transport error
// leaves the result unapplied and parse errors fall back per request.
func (e *Enricher) Enrich(ctx context.Context, text string) Result {
	if e == nil || strings.TrimSpace(text) == "" {
		return Result{}
	}
	sample := Sample(text)

	objectives, err := e.Objectives(ctx, sample)
	if err != nil {
		e.log.Warn("objective generation failed; skipping enrichment", "error", err)
		return Result{}
	}
	questions, err := e.Questions(ctx, sample)
	if err != nil {
		e.log.Warn("question generation failed; skipping enrichment", "error", err)
		return Result{}
	}
	return Result{Objectives: objectives, Questions: questions, Applied: true}
}

// Objectives returns 3-5 objectives, or FallbackObjectives when the reply is malformed.
// Only oracle transport errors are returned.
func (e *Enricher) Objectives(ctx context.Context, sample string) ([]string, error) {
	reply, err := e.complete(ctx, objectivesPrompt(sample), objectivesMaxTokens, objectivesTemperature)
	if err != nil {
		return nil, err
	}
	objectives, perr := ParseObjectives(reply)
	if perr != nil {
		e.log.Warn("using fallback objectives", "error", perr)
		return append([]string(nil), FallbackObjectives...), nil
	}
	return objectives, nil
}

// Questions returns the well-formed questions of the reply, or none when it is malformed.
func (e *Enricher) Questions(ctx context.Context, sample string) ([]types.GeneratedQuestion, error) {
	reply, err := e.complete(ctx, questionsPrompt(sample), questionsMaxTokens, questionsTemperature)
	if err != nil {
		return nil, err
	}
	questions, perr := ParseQuestions(reply)
	if perr != nil {
		e.log.Warn("discarding generated questions", "error", perr)
		return []types.GeneratedQuestion{}, nil
	}
	return questions, nil
}

func (e *Enricher) complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return e.oracle.Complete(ctx, prompt, maxTokens, temperature)
}

// Sample returns at most the first SampleChars characters of text.
func Sample(text string) string {
	r := []rune(text)
	if len(r) <= SampleChars {
		return text
	}
	return string(r[:SampleChars])
}

func ParseObjectives(reply string) ([]string, error) {
	var raw []string
	if err := json.Unmarshal([]byte(stripFences(reply)), &raw); err != nil {
		return nil, &OracleParseError{Kind: "objectives", Err: err}
	}
	out := make([]string, 0, len(raw))
	for _, o := range raw {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil, &OracleParseError{Kind: "objectives", Err: fmt.Errorf("empty list")}
	}
	return out, nil
}

// ParseQuestions decodes a JSON array of questions and drops malformed entries.
func ParseQuestions(reply string) ([]types.GeneratedQuestion, error) {
	var raw []types.GeneratedQuestion
	if err := json.Unmarshal([]byte(stripFences(reply)), &raw); err != nil {
		return nil, &OracleParseError{Kind: "questions", Err: err}
	}
	out := make([]types.GeneratedQuestion, 0, len(raw))
	for _, q := range raw {
		q.Question = strings.TrimSpace(q.Question)
		q.Correct = strings.ToUpper(strings.TrimSpace(q.Correct))
		q.Explanation = strings.TrimSpace(q.Explanation)
		if q.Question == "" || len(q.Options) != 4 {
			continue
		}
		if len(q.Correct) != 1 || q.Correct[0] < 'A' || q.Correct[0] > 'D' {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// stripFences removes a surrounding markdown code fence such as ```json ... ```.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
