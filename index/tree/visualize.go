package tree

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/smallnest/ragkit/index"
	"github.com/smallnest/ragkit/schema"
)

// Exporter renders an index tree in different formats.
type Exporter struct {
	graph *index.Graph

	summaryStyle lipgloss.Style
	leafStyle    lipgloss.Style
}

// NewExporter creates an exporter for the given graph.
func NewExporter(graph *index.Graph) *Exporter {
	return &Exporter{
		graph:        graph,
		summaryStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		leafStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// DrawText renders the tree as an indented text listing, one node per line.
// Summary nodes are bolded, leaves dimmed.
func (e *Exporter) DrawText() string {
	var sb strings.Builder
	for _, id := range e.graph.Roots() {
		e.drawNode(&sb, id, 0)
	}
	return sb.String()
}

func (e *Exporter) drawNode(sb *strings.Builder, id string, depth int) {
	node, ok := e.graph.Node(id)
	if !ok {
		return
	}
	label := schema.TruncateText(node.Text, 60)
	childIDs := e.graph.Children(id)

	style := e.leafStyle
	if len(childIDs) > 0 {
		style = e.summaryStyle
	}
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(style.Render(fmt.Sprintf("[%d] %s", node.Index, label)))
	sb.WriteString("\n")

	for _, childID := range childIDs {
		e.drawNode(sb, childID, depth+1)
	}
}

// DrawMermaid generates a Mermaid flowchart of the tree structure.
func (e *Exporter) DrawMermaid() string {
	var sb strings.Builder
	sb.WriteString("flowchart TD\n")
	for _, id := range e.graph.Roots() {
		e.drawMermaidNode(&sb, id)
	}
	return sb.String()
}

func (e *Exporter) drawMermaidNode(sb *strings.Builder, id string) {
	node, ok := e.graph.Node(id)
	if !ok {
		return
	}
	label := strings.ReplaceAll(schema.TruncateText(node.Text, 30), "\"", "'")
	fmt.Fprintf(sb, "    n%d[\"%s\"]\n", node.Index, label)
	for _, childID := range e.graph.Children(id) {
		child, ok := e.graph.Node(childID)
		if !ok {
			continue
		}
		fmt.Fprintf(sb, "    n%d --> n%d\n", node.Index, child.Index)
		e.drawMermaidNode(sb, childID)
	}
}
