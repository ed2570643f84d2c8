package demo

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))

// RenderTelegramHTML converts markdown into the HTML subset accepted by the
// Bot API with parse_mode=HTML. Unsupported constructs degrade to plain text.
func RenderTelegramHTML(src string) string {
	source := []byte(src)
	doc := markdown.Parser().Parse(text.NewReader(source))

	var out bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		return renderNode(&out, source, n, entering), nil
	})
	return strings.TrimSpace(out.String())
}

func renderNode(out *bytes.Buffer, source []byte, n ast.Node, entering bool) ast.WalkStatus {
	switch node := n.(type) {
	case *ast.Text:
		if entering {
			out.Write(util.EscapeHTML(node.Segment.Value(source)))
			if node.SoftLineBreak() || node.HardLineBreak() {
				out.WriteByte('\n')
			}
		}
	case *ast.String:
		if entering {
			out.Write(util.EscapeHTML(node.Value))
		}
	case *ast.Emphasis:
		tag := "i"
		if node.Level >= 2 {
			tag = "b"
		}
		writeTag(out, tag, entering)
	case *east.Strikethrough:
		writeTag(out, "s", entering)
	case *ast.CodeSpan:
		writeTag(out, "code", entering)
	case *ast.Heading:
		writeTag(out, "b", entering)
		if !entering {
			out.WriteString("\n\n")
		}
	case *ast.Paragraph:
		if !entering {
			if _, inItem := node.Parent().(*ast.ListItem); inItem {
				out.WriteByte('\n')
			} else {
				out.WriteString("\n\n")
			}
		}
	case *ast.TextBlock:
		if !entering {
			out.WriteByte('\n')
		}
	case *ast.Blockquote:
		if entering {
			out.WriteString("<blockquote>")
		} else {
			trimTrailingNewlines(out)
			out.WriteString("</blockquote>\n\n")
		}
	case *ast.FencedCodeBlock:
		if entering {
			lang := string(node.Language(source))
			if lang != "" {
				out.WriteString(`<pre><code class="language-` + string(util.EscapeHTML([]byte(lang))) + `">`)
			} else {
				out.WriteString("<pre><code>")
			}
			writeLines(out, source, node.Lines())
			out.WriteString("</code></pre>\n\n")
		}
		return ast.WalkSkipChildren
	case *ast.CodeBlock:
		if entering {
			out.WriteString("<pre><code>")
			writeLines(out, source, node.Lines())
			out.WriteString("</code></pre>\n\n")
		}
		return ast.WalkSkipChildren
	case *ast.HTMLBlock:
		if entering {
			writeLines(out, source, node.Lines())
			out.WriteString("\n")
		}
		return ast.WalkSkipChildren
	case *ast.RawHTML:
		if entering {
			for i := 0; i < node.Segments.Len(); i++ {
				segment := node.Segments.At(i)
				out.Write(util.EscapeHTML(segment.Value(source)))
			}
		}
		return ast.WalkSkipChildren
	case *ast.Link:
		if entering {
			out.WriteString(`<a href="` + string(util.EscapeHTML(node.Destination)) + `">`)
		} else {
			out.WriteString("</a>")
		}
	case *ast.AutoLink:
		if entering {
			url := util.EscapeHTML(node.URL(source))
			out.WriteString(`<a href="` + string(url) + `">`)
			out.Write(util.EscapeHTML(node.Label(source)))
			out.WriteString("</a>")
		}
		return ast.WalkSkipChildren
	case *ast.Image:
		// Telegram HTML has no images; keep the alt text.
	case *ast.List:
		if !entering {
			out.WriteByte('\n')
		}
	case *ast.ListItem:
		if entering {
			out.WriteString(listMarker(node))
		}
	case *ast.ThematicBreak:
		if entering {
			out.WriteString("----------\n\n")
		}
	}
	return ast.WalkContinue
}

func writeTag(out *bytes.Buffer, tag string, entering bool) {
	if entering {
		out.WriteString("<" + tag + ">")
		return
	}
	out.WriteString("</" + tag + ">")
}

func writeLines(out *bytes.Buffer, source []byte, lines *text.Segments) {
	var block bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		block.Write(segment.Value(source))
	}
	out.Write(util.EscapeHTML(bytes.TrimRight(block.Bytes(), "\n")))
}

func trimTrailingNewlines(out *bytes.Buffer) {
	trimmed := bytes.TrimRight(out.Bytes(), "\n")
	out.Truncate(len(trimmed))
}

func listMarker(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return "• "
	}
	index := list.Start
	for sibling := item.PreviousSibling(); sibling != nil; sibling = sibling.PreviousSibling() {
		index++
	}
	return strconv.Itoa(index) + ". "
}
