// Package web embeds the HTML templates and static assets of the storefront.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed templates static
var files embed.FS

// Templates is the template tree rooted at templates/.
func Templates() http.FileSystem {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Static is the asset tree rooted at static/.
func Static() http.FileSystem {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
