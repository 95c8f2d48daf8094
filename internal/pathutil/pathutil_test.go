package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"empty", "", "."},
		{"dot", ".", "."},
		{"simple", "a.txt", "a.txt"},
		{"nested", "dir/a.txt", "dir/a.txt"},
		{"leading slash", "/dir/a.txt", "dir/a.txt"},
		{"trailing slash", "dir/", "dir"},
		{"backslashes", "dir\\sub\\a.txt", "dir/sub/a.txt"},
		{"dot segments", "dir/../other/./a.txt", "other/a.txt"},
		{"only slashes", "///", "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.key))
		})
	}
}

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{"empty", "", ""},
		{"dot", ".", ""},
		{"slash", "/", ""},
		{"simple", "myapp", "myapp"},
		{"both slashes", "/myapp/data/", "myapp/data"},
		{"backslashes", "myapp\\data", "myapp/data"},
		{"dot segments", "myapp/../data/./files", "data/files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePrefix(tt.prefix))
		})
	}
}

func TestJoinPath(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		key    string
		sep    string
		want   string
	}{
		{"no prefix", "", "a.txt", "/", "a.txt"},
		{"prefix", "tenant", "a.txt", "/", "tenant/a.txt"},
		{"redis separator", "tenant", "dir/a.txt", ":", "tenant:dir/a.txt"},
		{"root key", "tenant", ".", "/", "tenant"},
		{"root key no prefix", "", "", "/", ""},
		{"unclean key", "tenant", "/dir//a.txt", "/", "tenant/dir/a.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinPath(tt.prefix, tt.key, tt.sep))
		})
	}
}
