package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "plots"), 0755))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"existing subdir", filepath.Join(dir, "plots"), false},
		{"new file", filepath.Join(dir, "plots", "s1.png"), false},
		{"new nested file", filepath.Join(dir, "a", "b", "c.png"), false},
		{"dot dot", filepath.Join(dir, "..", "escape.png"), true},
		{"absolute elsewhere", "/etc/passwd", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, dir)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePathRejectsSymlinkEscape(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(dir, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	assert.Error(t, ValidatePathWithinDirectory(filepath.Join(link, "x.png"), dir))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"subject1_chest_accel", "subject1_chest_accel"},
		{"../../etc/passwd", "etc_passwd"},
		{"a b  c", "a_b_c"},
		{"__x__", "x"},
		{"", "unknown"},
		{"///", "unknown"},
		{"s1.png", "s1.png"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
	assert.Len(t, SanitizeFilename(strings.Repeat("a", 300)), maxFilenameLen)
}
