// Package docstore maintains the durable per-session summary index.
//
// Each session has a single JSON document. Stages write partial documents
// and the store merges them field by field, so the index accumulates the
// outline, article, asset summary, and report references as the pipeline
// progresses. The backing store is a small SQLite database kept next to
// the session workspace.
package docstore
