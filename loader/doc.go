// Package loader reads external content into documents.
//
// Plain-text files, directories, HTML (local or fetched over HTTP) and
// Markdown are supported directly; anything langchaingo's documentloaders
// can read is available through LangChainLoader. Loaded documents are
// typically split into nodes with package splitter before indexing.
package loader
