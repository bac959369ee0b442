package parser

import (
	"os"
	"strconv"
	"strings"
	"testing"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func mustSeq(t *testing.T, id string) int {
	t.Helper()
	n, err := strconv.Atoi(strings.TrimPrefix(id, "REQ-"))
	if err != nil {
		t.Fatalf("bad id %q: %v", id, err)
	}
	return n
}
