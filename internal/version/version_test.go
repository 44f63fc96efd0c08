package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()
	if !strings.HasPrefix(info, "opencode-usage ") {
		t.Errorf("Expected version prefix, got %q", info)
	}
	if !strings.Contains(info, "commit:") {
		t.Errorf("Expected commit in version info, got %q", info)
	}
}
