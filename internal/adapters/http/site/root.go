// Package site serves the embedded calculator web UI.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded web UI at / to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	files := http.FileServer(FS())
	mux.Handle("/", files)
}
