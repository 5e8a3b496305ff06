package shell

import (
	"fmt"
	"strings"
)

// Format renders a statement back to shell source. The output is
// normalized (single spaces, semicolon separators) but parses back to
// an equivalent tree, which is what `declare -f` style introspection
// and the function printer rely on.
func Format(n Node) string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func formatList(nodes []Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, Format(n))
	}
	return strings.Join(parts, "; ")
}

func writeNode(b *strings.Builder, n Node) {
	switch t := n.(type) {
	case *Simple:
		writeSimple(b, t)
	case *Pipeline:
		if t.Negate {
			b.WriteString("! ")
		}
		for i, stage := range t.Stages {
			if i > 0 {
				b.WriteString(" | ")
			}
			writeNode(b, stage)
		}
	case *And:
		writeNode(b, t.Left)
		b.WriteString(" && ")
		writeNode(b, t.Right)
	case *Or:
		writeNode(b, t.Left)
		b.WriteString(" || ")
		writeNode(b, t.Right)
	case *If:
		for i, arm := range t.Arms {
			if i == 0 {
				b.WriteString("if ")
			} else {
				b.WriteString("; elif ")
			}
			b.WriteString(formatList(arm.Cond))
			b.WriteString("; then ")
			b.WriteString(formatList(arm.Body))
		}
		if len(t.Else) > 0 {
			b.WriteString("; else ")
			b.WriteString(formatList(t.Else))
		}
		b.WriteString("; fi")
	case *While:
		if t.Until {
			b.WriteString("until ")
		} else {
			b.WriteString("while ")
		}
		b.WriteString(formatList(t.Cond))
		b.WriteString("; do ")
		b.WriteString(formatList(t.Body))
		b.WriteString("; done")
	case *For:
		b.WriteString("for ")
		b.WriteString(t.Var)
		b.WriteString(" in")
		for _, w := range t.Words {
			b.WriteByte(' ')
			b.WriteString(formatWord(w))
		}
		b.WriteString("; do ")
		b.WriteString(formatList(t.Body))
		b.WriteString("; done")
	case *Case:
		b.WriteString("case ")
		b.WriteString(formatWord(t.Subject))
		b.WriteString(" in ")
		for _, arm := range t.Arms {
			pats := make([]string, 0, len(arm.Patterns))
			for _, p := range arm.Patterns {
				pats = append(pats, formatWord(p))
			}
			b.WriteString(strings.Join(pats, "|"))
			b.WriteString(") ")
			b.WriteString(formatList(arm.Body))
			b.WriteString(";; ")
		}
		b.WriteString("esac")
	case *Subshell:
		b.WriteString("(")
		b.WriteString(formatList(t.Body))
		b.WriteString(")")
	case *BraceGroup:
		b.WriteString("{ ")
		b.WriteString(formatList(t.Body))
		b.WriteString("; }")
	case *FunctionDef:
		b.WriteString(t.Name)
		b.WriteString("() ")
		writeNode(b, t.Body)
	case *Background:
		writeNode(b, t.Body)
		b.WriteString(" &")
	}
}

func writeSimple(b *strings.Builder, t *Simple) {
	sep := ""
	for _, as := range t.Assigns {
		b.WriteString(sep)
		b.WriteString(as.Name)
		b.WriteByte('=')
		b.WriteString(formatWord(as.Value))
		sep = " "
	}
	if !t.Name.empty() {
		b.WriteString(sep)
		b.WriteString(formatWord(t.Name))
		sep = " "
	}
	for _, arg := range t.Args {
		b.WriteString(sep)
		b.WriteString(formatWord(arg))
		sep = " "
	}
	for _, r := range t.Redirects {
		b.WriteString(sep)
		b.WriteString(formatRedirect(r))
		sep = " "
	}
}

func formatWord(w Word) string {
	var b strings.Builder
	for _, part := range w.Parts {
		switch part.Quote {
		case SingleQuoted:
			b.WriteByte('\'')
			b.WriteString(strings.ReplaceAll(part.Text, "'", `'\''`))
			b.WriteByte('\'')
		case DoubleQuoted:
			b.WriteByte('"')
			b.WriteString(part.Text)
			b.WriteByte('"')
		default:
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func formatRedirect(r Redirect) string {
	switch r.Kind {
	case RedirRead:
		return prefixFD(r.FD, 0) + "<" + formatWord(r.Target)
	case RedirWrite:
		op := ">"
		if r.Append {
			op = ">>"
		}
		return prefixFD(r.FD, 1) + op + formatWord(r.Target)
	case RedirHeredoc:
		return prefixFD(r.FD, 0) + "<<EOF\n" + rawText(r.Target) + "EOF"
	case RedirHereString:
		return prefixFD(r.FD, 0) + "<<<" + formatWord(r.Target)
	case RedirDupOut:
		return prefixFD(r.FD, 1) + ">&" + formatWord(r.Target)
	case RedirDupIn:
		return prefixFD(r.FD, 0) + "<&" + formatWord(r.Target)
	}
	return ""
}

func prefixFD(fd, def int) string {
	if fd == def {
		return ""
	}
	return fmt.Sprintf("%d", fd)
}

// rawText joins a word's parts without requoting, used for heredoc
// bodies where quote characters are ordinary text.
func rawText(w Word) string {
	var b strings.Builder
	for _, part := range w.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}
