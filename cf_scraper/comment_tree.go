package cf_scraper

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/lmeunier/confarc/model"
)

// BuildCommentForest turns the flat comment list into reply trees. A
// comment becomes a root when it has no parent, names an unknown or
// self-referential parent, or sits on a parent cycle; the server is
// trusted not to produce cycles, but a walk that exceeds the comment count
// without reaching a root promotes the comment instead of recursing
// forever. Siblings are ordered by publication time.
func BuildCommentForest(comments []model.Comment) []*model.CommentNode {
	byID := make(map[string]*model.CommentNode, len(comments))
	nodes := make([]*model.CommentNode, len(comments))
	for i, c := range comments {
		nodes[i] = &model.CommentNode{Comment: c}
		byID[c.ID] = nodes[i]
	}

	isRoot := func(c model.Comment) bool {
		steps := 0
		cur := c.ParentID
		for cur != "" {
			if cur == c.ID {
				return true
			}
			parent, ok := byID[cur]
			if !ok {
				return true
			}
			steps++
			if steps > len(comments) {
				return true
			}
			cur = parent.ParentID
		}
		return c.ParentID == ""
	}

	var forest []*model.CommentNode
	for i, node := range nodes {
		if isRoot(comments[i]) {
			forest = append(forest, node)
		} else {
			parent := byID[node.ParentID]
			parent.Children = append(parent.Children, node)
		}
	}

	sortSiblings(forest)
	return forest
}

func sortSiblings(siblings []*model.CommentNode) {
	sort.SliceStable(siblings, func(i, j int) bool {
		return siblings[i].Published.Before(siblings[j].Published)
	})
	for _, node := range siblings {
		sortSiblings(node.Children)
	}
}

// RenderCommentForest produces the nested comment markup spliced into the
// rewritten document. Each nesting level is annotated with a reply class
// so layout only has to indent; comment bodies are emitted verbatim.
func RenderCommentForest(forest []*model.CommentNode) string {
	if len(forest) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<section class=\"comments\">\n<h2>Comments</h2>\n")
	for _, node := range forest {
		renderComment(&b, node, 0)
	}
	b.WriteString("</section>")
	return b.String()
}

func renderComment(b *strings.Builder, node *model.CommentNode, depth int) {
	class := "comment"
	if depth > 0 {
		class = "comment reply"
	}
	fmt.Fprintf(b, "<article class=%q id=\"comment-%s\">\n", class, node.ID)
	fmt.Fprintf(b, "<header><address>By %s on %s</address></header>\n",
		html.EscapeString(node.Author), node.Published.Format("Mon Jan 2 15:04:05 2006"))
	b.WriteString(node.BodyHTML)
	if len(node.Children) > 0 {
		b.WriteString("\n<div class=\"replies\">\n")
		for _, child := range node.Children {
			renderComment(b, child, depth+1)
		}
		b.WriteString("</div>")
	}
	b.WriteString("\n</article>\n")
}
