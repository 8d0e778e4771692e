package api

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var embedded embed.FS

// staticFS is rooted at static/ so pages are addressed by bare name.
var staticFS = mustSub(embedded, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
