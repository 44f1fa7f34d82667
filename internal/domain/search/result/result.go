package result

import domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"

// Source records which path produced a result set.
type Source string

const (
	// SourceLocal is the in-process linear scan.
	SourceLocal Source = "local"
	// SourceRemote is the remote vector search collaborator.
	SourceRemote Source = "remote"
)

// Result is a document paired with its similarity to the query. It lives for one search call.
type Result struct {
	doc   domdoc.Document
	score float64
}

// New creates a search result.
func New(doc domdoc.Document, score float64) Result {
	return Result{doc: doc, score: score}
}

// Document returns the matched document.
func (r *Result) Document() domdoc.Document { return r.doc }

// ID returns the matched document identifier.
func (r *Result) ID() string { return r.doc.ID() }

// Score returns the cosine similarity in [-1, 1].
func (r *Result) Score() float64 { return r.score }
