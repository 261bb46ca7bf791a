package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{
		"password", "hunter2",
		"access_token", "abc",
		"module_id", "m-1",
	})
	if got[1] != "[REDACTED]" {
		t.Fatalf("password not redacted: %v", got[1])
	}
	if got[3] != "[REDACTED]" {
		t.Fatalf("token not redacted: %v", got[3])
	}
	if got[5] != "m-1" {
		t.Fatalf("module_id changed: %v", got[5])
	}
}

func TestSanitizeKVsHashesUserIDs(t *testing.T) {
	got := sanitizeKVs([]interface{}{"user_id", "5b0c"})
	s, ok := got[1].(string)
	if !ok || !strings.HasPrefix(s, "hash:") {
		t.Fatalf("user_id not hashed: %v", got[1])
	}
	again := sanitizeKVs([]interface{}{"user_id", "5b0c"})
	if again[1] != got[1] {
		t.Fatalf("hash not stable: %v vs %v", again[1], got[1])
	}
}

func TestSanitizeKVsKeepsDanglingKey(t *testing.T) {
	got := sanitizeKVs([]interface{}{"status", 200, "orphan"})
	if len(got) != 3 || got[2] != "orphan" {
		t.Fatalf("unexpected output: %v", got)
	}
}

func TestLooksLikeJWT(t *testing.T) {
	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.signature"
	if !looksLikeJWT(jwt) {
		t.Fatalf("expected jwt to be detected")
	}
	if looksLikeJWT("a.b.c") {
		t.Fatalf("short dotted string should not look like jwt")
	}
}
