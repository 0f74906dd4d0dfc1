// ragkit - Tree-Index Retrieval-Augmented Generation for Go
//
// ragkit is a framework for building retrieval-augmented generation (RAG)
// applications. It ingests documents, builds a hierarchical summarization
// index over them, and answers natural-language queries by retrieving
// relevant fragments and synthesizing an answer through a language model.
//
// # Core Packages
//
//   - schema: nodes, documents and query bundles shared by every component
//   - index / index/tree: the hierarchical summary index and its inserter
//   - response: create-and-refine / compact response synthesis
//   - budget: token-budget planning for prompt construction
//   - query: recursive query running, keyword filters, sub-question fan-out
//
// # Supporting Packages
//
//   - llm: language model bindings (langchaingo, OpenAI) and token accounting
//   - prompt: placeholder-validated prompt templates
//   - tokenizer: tiktoken-backed token counting
//   - splitter: token-bounded text splitting
//   - docstore: document stores (memory, SQLite, Redis, Postgres)
//   - loader: text, HTML and Markdown document loaders
//
// # Quick Start
//
//	tk, _ := tokenizer.NewTiktoken("gpt-3.5-turbo")
//	planner, _ := budget.NewPlanner(4096, 256, tk)
//	pred := llm.NewPredictor(model)
//
//	graph := index.NewGraph()
//	ds := docstore.NewInMemoryStore()
//	ins, _ := tree.NewInserter(graph, ds, pred, planner, tree.WithNumChildren(10))
//	_ = ins.Insert(ctx, nodes)
//
//	builder, _ := response.NewBuilder(planner, pred, prompt.DefaultTextQA, prompt.DefaultRefine)
//	answer, _ := builder.GetResponse(ctx, "What does the report conclude?", response.ModeCompact)
package ragkit // import "github.com/smallnest/ragkit"
