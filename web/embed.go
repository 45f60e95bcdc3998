// Package web embeds the page templates and static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

// StaticFS returns the static assets, rooted at the static directory.
func StaticFS() fs.FS {
	return sub("static")
}

// TemplatesFS returns the page templates.
func TemplatesFS() fs.FS {
	return sub("templates")
}

// RootFS returns the whole embedded tree, with static/ and templates/ at the top.
func RootFS() fs.FS {
	return content
}

func sub(dir string) fs.FS {
	f, err := fs.Sub(content, dir)
	if err != nil {
		// Only reachable with an invalid directory name.
		panic(err)
	}
	return f
}
