package main

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

//go:embed templates/*.html static/*
var embedded embed.FS

type asset struct {
	contentType string
	body        []byte
}

// assetSet is the parsed page template plus every static file, optionally
// minified once at startup.
type assetSet struct {
	page  *template.Template
	files map[string]asset
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
		TemplateDelims:   html.GoTemplateDelims,
	})
	return m
}

func loadAssets(minified bool) (*assetSet, error) {
	m := newMinifier()

	pageSrc, err := embedded.ReadFile("templates/index.html")
	if err != nil {
		return nil, err
	}
	if minified {
		if pageSrc, err = m.Bytes("text/html", pageSrc); err != nil {
			return nil, err
		}
	}
	page, err := template.New("index.html").Parse(string(pageSrc))
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(embedded, "static")
	if err != nil {
		return nil, err
	}
	files := make(map[string]asset, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		body, err := embedded.ReadFile(path.Join("static", entry.Name()))
		if err != nil {
			return nil, err
		}
		mediaType := mediaTypeFor(entry.Name())
		if minified && mediaType != "" {
			original := len(body)
			if body, err = m.Bytes(mediaType, body); err != nil {
				return nil, err
			}
			logDebug("Minified %s: %d bytes -> %d bytes", entry.Name(), original, len(body))
		}
		files[entry.Name()] = asset{contentType: contentTypeFor(entry.Name()), body: body}
	}
	return &assetSet{page: page, files: files}, nil
}

// mediaTypeFor returns the minifier media type for name, or "" if the file
// is served as-is.
func mediaTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".css":
		return "text/css"
	case ".js":
		return "application/javascript"
	}
	return ""
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "text/javascript; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	case ".ico":
		return "image/x-icon"
	}
	return "application/octet-stream"
}

func (app *App) staticHandler(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("filepath"), "/")
	a, ok := app.Assets.files[name]
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, a.contentType, a.body)
}
