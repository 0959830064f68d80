package document

import (
	"sync"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// Document is (uri, text, version, scope_tree, local_variable_entries) from
// §3. The scope tree and local-variable entries are populated by the
// indexer after parsing; Cache only owns the text and version until then.
type Document struct {
	URI     string
	Handle  types.FileHandle
	Version int32
	Text    []byte
	Lines   *LineIndex

	// ScopeRoot and Locals are filled in by the index visitor (C4) each time
	// the document is (re)indexed; they are owned by this Document and die
	// with it, per §3 Lifecycles.
	ScopeRoot interface{} // *scope.Node, typed as interface{} to avoid an
	// import cycle between document and scope (scope does not need to know
	// about Document; query projection wires the two together).
	Locals []types.Entry
}

// Cache is C8: it holds every currently-open document, keyed by URI, and
// guarantees a reader observes a single consistent version (§5 Ordering
// guarantees: "a document version v+1's phase-A completion happens-before
// any query observing v+1" — Cache enforces the single-consistent-version
// half of that contract; the coordinator enforces the happens-before half).
type Cache struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

func NewCache() *Cache {
	return &Cache{docs: make(map[string]*Document)}
}

// Open installs or replaces a document at version. Replacing an existing
// document is the didChange path; the coordinator is responsible for
// invalidating stale entries afterward.
func (c *Cache) Open(uri string, handle types.FileHandle, version int32, text []byte) *Document {
	doc := &Document{
		URI:     uri,
		Handle:  handle,
		Version: version,
		Text:    text,
		Lines:   NewLineIndex(text),
	}
	c.mu.Lock()
	c.docs[uri] = doc
	c.mu.Unlock()
	return doc
}

// Update replaces a document's full text and bumps its version — the LSP
// handler syncs textDocument/didChange as whole documents and calls Update
// with the full text of the last content change, keeping Cache's contract
// simple: it never computes a diff.
func (c *Cache) Update(uri string, version int32, text []byte) *Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[uri]
	if !ok {
		return nil
	}
	doc.Version = version
	doc.Text = text
	doc.Lines = NewLineIndex(text)
	doc.ScopeRoot = nil
	doc.Locals = nil
	return doc
}

// Close removes a document from the cache. The file's entries/references in
// the entry store are untouched by Close — only an explicit remove_file (on
// workspace file deletion) removes them; a closed-but-still-on-disk file
// keeps its symbols navigable.
func (c *Cache) Close(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.docs, uri)
}

// Get returns the current snapshot for uri. The returned *Document must be
// treated as immutable by the caller: mutate only through Update/Open so
// concurrent readers never observe a torn document (§5 Shared resource
// policy).
func (c *Cache) Get(uri string) (*Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[uri]
	return doc, ok
}

// Len returns the number of currently open documents.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}
