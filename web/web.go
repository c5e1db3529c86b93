// Package web holds the landing page and its assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html static/*
var content embed.FS

func Templates() fs.FS {
	sub, err := fs.Sub(content, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

func Static() fs.FS {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
