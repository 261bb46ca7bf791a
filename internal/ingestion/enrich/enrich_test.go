package enrich

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

type scriptedOracle struct {
	replies []string
	err     error
	prompts []string
	tokens  []int
}

func (o *scriptedOracle) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	o.prompts = append(o.prompts, prompt)
	o.tokens = append(o.tokens, maxTokens)
	if o.err != nil {
		return "", o.err
	}
	if len(o.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	r := o.replies[0]
	o.replies = o.replies[1:]
	return r, nil
}

const goodQuestions = `[
 {"question":"What is a pod?","options":["A) a","B) b","C) c","D) d"],"correct":"b","explanation":"Because."},
 {"question":"Three options","options":["A) a","B) b","C) c"],"correct":"A","explanation":""},
 {"question":"Bad label","options":["A) a","B) b","C) c","D) d"],"correct":"E","explanation":""}
]`

func TestNewWithoutOracle(t *testing.T) {
	if e := New(logger.Nop(), nil, time.Second); e != nil {
		t.Fatalf("expected nil enricher without oracle")
	}
	var e *Enricher
	if res := e.Enrich(context.Background(), "text"); res.Applied {
		t.Fatalf("nil enricher must not apply")
	}
}

func TestEnrichHappyPath(t *testing.T) {
	oracle := &scriptedOracle{replies: []string{
		"```json\n[\"Install kubectl\", \"  \", \"Deploy a pod\"]\n```",
		goodQuestions,
	}}
	e := New(logger.Nop(), oracle, time.Second)

	res := e.Enrich(context.Background(), "CLUSTERS\nsome text")
	if !res.Applied {
		t.Fatalf("expected enrichment to apply")
	}
	if !reflect.DeepEqual(res.Objectives, []string{"Install kubectl", "Deploy a pod"}) {
		t.Fatalf("unexpected objectives: %#v", res.Objectives)
	}
	if len(res.Questions) != 1 || res.Questions[0].Correct != "B" {
		t.Fatalf("expected one valid normalized question, got %#v", res.Questions)
	}
	if oracle.tokens[0] != 300 || oracle.tokens[1] != 1500 {
		t.Fatalf("unexpected token budgets: %v", oracle.tokens)
	}
	if !strings.Contains(oracle.prompts[0], "CLUSTERS") {
		t.Fatalf("prompt missing content sample")
	}
}

func TestEnrichFallsBackOnUnparseableReplies(t *testing.T) {
	oracle := &scriptedOracle{replies: []string{"Sure! Here are objectives: ...", "not json"}}
	e := New(logger.Nop(), oracle, time.Second)

	res := e.Enrich(context.Background(), "text")
	if !res.Applied {
		t.Fatalf("parse failures still count as applied")
	}
	if !reflect.DeepEqual(res.Objectives, FallbackObjectives) {
		t.Fatalf("expected fallback objectives, got %#v", res.Objectives)
	}
	if res.Questions == nil || len(res.Questions) != 0 {
		t.Fatalf("expected empty question list, got %#v", res.Questions)
	}
}

func TestEnrichSkipsOnOracleError(t *testing.T) {
	e := New(logger.Nop(), &scriptedOracle{err: errors.New("503")}, time.Second)
	res := e.Enrich(context.Background(), "text")
	if res.Applied || res.Objectives != nil || res.Questions != nil {
		t.Fatalf("expected unapplied empty result, got %#v", res)
	}
}

func TestSampleTruncatesByCharacter(t *testing.T) {
	long := strings.Repeat("é", SampleChars+5)
	if got := []rune(Sample(long)); len(got) != SampleChars {
		t.Fatalf("expected %d characters, got %d", SampleChars, len(got))
	}
	if Sample("short") != "short" {
		t.Fatalf("short text must pass through")
	}
}

func TestParseErrorsAreTyped(t *testing.T) {
	_, err := ParseObjectives("{}")
	var perr *OracleParseError
	if !errors.As(err, &perr) || perr.Kind != "objectives" {
		t.Fatalf("expected OracleParseError, got %v", err)
	}
	_, err = ParseQuestions("[")
	if !errors.As(err, &perr) || perr.Kind != "questions" {
		t.Fatalf("expected OracleParseError, got %v", err)
	}
}
