package filesystem

import (
	"io/fs"
	"strings"
)

// CopyFromFS writes every regular file found under srcRoot in src to dst,
// overwriting existing objects. Keys are the slash-separated paths relative
// to srcRoot. Use "." to copy the whole source.
//
// Example:
//
//	//go:embed fixtures/*
//	var fixtures embed.FS
//
//	fsys := filesystem.New(billy.NewMemory())
//	err := filesystem.CopyFromFS(fixtures, fsys, "fixtures")
func CopyFromFS(src fs.FS, dst *Filesystem, srcRoot string) error {
	return fs.WalkDir(src, srcRoot, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		data, err := fs.ReadFile(src, filePath)
		if err != nil {
			return err
		}

		key := filePath
		if srcRoot != "." && srcRoot != "" {
			key = strings.TrimPrefix(strings.TrimPrefix(filePath, srcRoot), "/")
		}

		_, err = dst.Write(key, data, true)
		return err
	})
}
