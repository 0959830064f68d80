package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentURI_Filename(t *testing.T) {
	assert.Equal(t, "/home/user/app.rb", DocumentURI("file:///home/user/app.rb").Filename())
	assert.Equal(t, "/already/a/path.rb", DocumentURI("/already/a/path.rb").Filename())
}

func TestURIFromPath_AbsoluteUnix(t *testing.T) {
	assert.Equal(t, DocumentURI("file:///home/user/app.rb"), URIFromPath("/home/user/app.rb"))
}

func TestURIFromPath_RoundTrip(t *testing.T) {
	path := "/a/b/c.rb"
	uri := URIFromPath(path)
	assert.Equal(t, path, uri.Filename())
}
