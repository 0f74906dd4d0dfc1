package prompt

// Default templates. The wording is deliberately plain; callers are expected
// to substitute their own templates for production prompting.

// DefaultSummary condenses a set of child texts into a single summary.
var DefaultSummary = MustNew(
	"Write a summary of the following. Try to use only the "+
		"information provided. "+
		"Try to include as many key details as possible.\n"+
		"\n"+
		"\n"+
		"{context_str}\n"+
		"\n"+
		"\n"+
		"SUMMARY:\"\"\"\n",
	"context_str",
)

// DefaultInsert asks the model to choose, by number, which existing summary
// best accommodates a new piece of text.
var DefaultInsert = MustNew(
	"Context information is below. It is provided in a numbered list "+
		"(1 to {num_chunks}), "+
		"where each item in the list corresponds to a summary.\n"+
		"---------------------\n"+
		"{context_list}"+
		"---------------------\n"+
		"Given the context information, here is a new piece of "+
		"information: {new_chunk_text}\n"+
		"Answer with the number corresponding to the summary that should be updated. "+
		"The answer should be the number corresponding to the "+
		"summary that is most relevant to the question.\n",
	"num_chunks", "context_list", "new_chunk_text",
)

// DefaultTextQA answers a question from context alone.
var DefaultTextQA = MustNew(
	"Context information is below.\n"+
		"---------------------\n"+
		"{context_str}\n"+
		"---------------------\n"+
		"Given the context information and not prior knowledge, "+
		"answer the question: {query_str}\n",
	"context_str", "query_str",
)

// DefaultRefine updates an existing answer with additional context.
var DefaultRefine = MustNew(
	"The original question is as follows: {query_str}\n"+
		"We have provided an existing answer: {existing_answer}\n"+
		"We have the opportunity to refine the existing answer "+
		"(only if needed) with some more context below.\n"+
		"------------\n"+
		"{context_msg}\n"+
		"------------\n"+
		"Given the new context, refine the original answer to better "+
		"answer the question. "+
		"If the context isn't useful, return the original answer.\n",
	"query_str", "existing_answer", "context_msg",
)

// DefaultTreeSelect asks the model to choose, by number, which child summary
// is most relevant to a question while descending the tree.
var DefaultTreeSelect = MustNew(
	"Some choices are given below. It is provided in a numbered list "+
		"(1 to {num_chunks}), "+
		"where each item in the list corresponds to a summary.\n"+
		"---------------------\n"+
		"{context_list}"+
		"---------------------\n"+
		"Using only the choices above and not prior knowledge, return "+
		"the choice that is most relevant to the question: {query_str}\n",
	"num_chunks", "context_list", "query_str",
)

// DefaultSubQuestion decomposes a query into per-tool sub-questions, one per
// line in the form "tool_name: sub question".
var DefaultSubQuestion = MustNew(
	"You are given a list of tools, each covering a different body of "+
		"knowledge:\n"+
		"{tools_str}\n"+
		"Break the following question into one sub-question per relevant "+
		"tool, one per line, in the exact form \"tool_name: sub question\".\n"+
		"Question: {query_str}\n",
	"tools_str", "query_str",
)
