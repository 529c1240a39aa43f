package main

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestWatchIgnores(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{
			name:  "database in a subdirectory",
			paths: []string{filepath.Join(root, "data", "history.db")},
			want:  []string{"data/**"},
		},
		{
			name:  "database at the tree root",
			paths: []string{filepath.Join(root, "history.db")},
			want:  []string{"history.db*"},
		},
		{
			name:  "database outside the tree",
			paths: []string{filepath.Join(filepath.Dir(root), "elsewhere.db")},
			want:  nil,
		},
		{
			name:  "empty path",
			paths: []string{""},
			want:  nil,
		},
		{
			name: "both stores under one directory",
			paths: []string{
				filepath.Join(root, "data", "history.db"),
				filepath.Join(root, "data", "snapshot.db"),
			},
			want: []string{"data/**", "data/**"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := watchIgnores(root, tt.paths...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("watchIgnores(%v) = %v, want %v", tt.paths, got, tt.want)
			}
		})
	}
}
