package shell

import (
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Parse turns a line (or several, separated by newlines or semicolons)
// into a list of statements. Tokenizing is delegated to mvdan.cc/sh;
// the resulting tree is immediately converted into this package's own
// node types so the rest of the interpreter never sees the external
// grammar.
func Parse(src string) ([]Node, error) {
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(src), "")
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	conv := &converter{src: src}
	return conv.stmts(file.Stmts)
}

// converter keeps the original source around so word fragments that
// expand later ($var, $(cmd), $((expr))) can be carried as raw text.
type converter struct {
	src string
}

// slice recovers the raw source text of a node.
func (c *converter) slice(n syntax.Node) string {
	return c.src[n.Pos().Offset():n.End().Offset()]
}

func (c *converter) stmts(in []*syntax.Stmt) ([]Node, error) {
	out := make([]Node, 0, len(in))
	for _, stmt := range in {
		node, err := c.stmt(stmt)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

func (c *converter) stmt(stmt *syntax.Stmt) (Node, error) {
	node, err := c.command(stmt)
	if err != nil {
		return nil, err
	}
	if stmt.Negated {
		if pipe, ok := node.(*Pipeline); ok {
			pipe.Negate = !pipe.Negate
		} else {
			node = &Pipeline{Stages: []Node{node}, Negate: true}
		}
	}
	if stmt.Background {
		node = &Background{Body: node}
	}
	return node, nil
}

func (c *converter) command(stmt *syntax.Stmt) (Node, error) {
	switch cmd := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		return c.callExpr(cmd, stmt.Redirs)
	case *syntax.DeclClause:
		return c.declClause(cmd)
	case *syntax.BinaryCmd:
		return c.binaryCmd(cmd)
	case *syntax.Block:
		body, err := c.stmts(cmd.Stmts)
		if err != nil {
			return nil, err
		}
		return &BraceGroup{Body: body}, nil
	case *syntax.Subshell:
		body, err := c.stmts(cmd.Stmts)
		if err != nil {
			return nil, err
		}
		return &Subshell{Body: body}, nil
	case *syntax.IfClause:
		return c.ifClause(cmd)
	case *syntax.WhileClause:
		cond, err := c.stmts(cmd.Cond)
		if err != nil {
			return nil, err
		}
		body, err := c.stmts(cmd.Do)
		if err != nil {
			return nil, err
		}
		return &While{Until: cmd.Until, Cond: cond, Body: body}, nil
	case *syntax.ForClause:
		return c.forClause(cmd)
	case *syntax.CaseClause:
		return c.caseClause(cmd)
	case *syntax.FuncDecl:
		body, err := c.stmt(cmd.Body)
		if err != nil {
			return nil, err
		}
		return &FunctionDef{Name: cmd.Name.Value, Body: body}, nil
	default:
		return nil, &ParseError{Msg: "unsupported construct: " + c.slice(stmt)}
	}
}

func (c *converter) callExpr(cmd *syntax.CallExpr, redirs []*syntax.Redirect) (Node, error) {
	simple := &Simple{}
	for _, as := range cmd.Assigns {
		value := Word{}
		if as.Value != nil {
			w, err := c.word(as.Value)
			if err != nil {
				return nil, err
			}
			value = w
		}
		simple.Assigns = append(simple.Assigns, Assign{Name: as.Name.Value, Value: value})
	}
	for i, arg := range cmd.Args {
		w, err := c.word(arg)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			simple.Name = w
		} else {
			simple.Args = append(simple.Args, w)
		}
	}
	for _, redir := range redirs {
		r, err := c.redirect(redir)
		if err != nil {
			return nil, err
		}
		simple.Redirects = append(simple.Redirects, r)
	}
	return simple, nil
}

// declClause maps export/local/readonly back to plain simple commands
// so the builtin table handles them uniformly.
func (c *converter) declClause(cmd *syntax.DeclClause) (Node, error) {
	simple := &Simple{Name: litWord(cmd.Variant.Value)}
	for _, as := range cmd.Args {
		if as.Value == nil {
			simple.Args = append(simple.Args, litWord(as.Name.Value))
			continue
		}
		w, err := c.word(as.Value)
		if err != nil {
			return nil, err
		}
		arg := Word{Parts: []WordPart{{Text: as.Name.Value + "="}}}
		arg.Parts = append(arg.Parts, w.Parts...)
		simple.Args = append(simple.Args, arg)
	}
	return simple, nil
}

func (c *converter) binaryCmd(cmd *syntax.BinaryCmd) (Node, error) {
	switch cmd.Op {
	case syntax.AndStmt:
		left, err := c.stmt(cmd.X)
		if err != nil {
			return nil, err
		}
		right, err := c.stmt(cmd.Y)
		if err != nil {
			return nil, err
		}
		return &And{Left: left, Right: right}, nil
	case syntax.OrStmt:
		left, err := c.stmt(cmd.X)
		if err != nil {
			return nil, err
		}
		right, err := c.stmt(cmd.Y)
		if err != nil {
			return nil, err
		}
		return &Or{Left: left, Right: right}, nil
	case syntax.Pipe, syntax.PipeAll:
		pipe := &Pipeline{}
		if err := c.pipelineStages(cmd, pipe); err != nil {
			return nil, err
		}
		return pipe, nil
	default:
		return nil, &ParseError{Msg: "unsupported operator: " + cmd.Op.String()}
	}
}

// pipelineStages flattens the left-leaning pipe tree the grammar
// produces into one stage list.
func (c *converter) pipelineStages(cmd *syntax.BinaryCmd, pipe *Pipeline) error {
	if left, ok := cmd.X.Cmd.(*syntax.BinaryCmd); ok &&
		(left.Op == syntax.Pipe || left.Op == syntax.PipeAll) &&
		!cmd.X.Negated && !cmd.X.Background && len(cmd.X.Redirs) == 0 {
		if err := c.pipelineStages(left, pipe); err != nil {
			return err
		}
	} else {
		stage, err := c.stmt(cmd.X)
		if err != nil {
			return err
		}
		pipe.Stages = append(pipe.Stages, stage)
	}
	stage, err := c.stmt(cmd.Y)
	if err != nil {
		return err
	}
	pipe.Stages = append(pipe.Stages, stage)
	return nil
}

func (c *converter) ifClause(cmd *syntax.IfClause) (Node, error) {
	out := &If{}
	for clause := cmd; clause != nil; clause = clause.Else {
		if len(clause.Cond) == 0 {
			body, err := c.stmts(clause.Then)
			if err != nil {
				return nil, err
			}
			out.Else = body
			break
		}
		cond, err := c.stmts(clause.Cond)
		if err != nil {
			return nil, err
		}
		body, err := c.stmts(clause.Then)
		if err != nil {
			return nil, err
		}
		out.Arms = append(out.Arms, IfArm{Cond: cond, Body: body})
	}
	return out, nil
}

func (c *converter) forClause(cmd *syntax.ForClause) (Node, error) {
	iter, ok := cmd.Loop.(*syntax.WordIter)
	if !ok {
		return nil, &ParseError{Msg: "unsupported construct: arithmetic for loop"}
	}
	out := &For{Var: iter.Name.Value}
	for _, item := range iter.Items {
		w, err := c.word(item)
		if err != nil {
			return nil, err
		}
		out.Words = append(out.Words, w)
	}
	body, err := c.stmts(cmd.Do)
	if err != nil {
		return nil, err
	}
	out.Body = body
	return out, nil
}

func (c *converter) caseClause(cmd *syntax.CaseClause) (Node, error) {
	subject, err := c.word(cmd.Word)
	if err != nil {
		return nil, err
	}
	out := &Case{Subject: subject}
	for _, item := range cmd.Items {
		arm := CaseArm{}
		for _, pat := range item.Patterns {
			w, err := c.word(pat)
			if err != nil {
				return nil, err
			}
			arm.Patterns = append(arm.Patterns, w)
		}
		body, err := c.stmts(item.Stmts)
		if err != nil {
			return nil, err
		}
		arm.Body = body
		out.Arms = append(out.Arms, arm)
	}
	return out, nil
}

func (c *converter) word(w *syntax.Word) (Word, error) {
	out := Word{}
	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			out.Parts = append(out.Parts, WordPart{Text: p.Value})
		case *syntax.SglQuoted:
			out.Parts = append(out.Parts, WordPart{Text: p.Value, Quote: SingleQuoted})
		case *syntax.DblQuoted:
			// Raw inner text, quotes stripped. Expansion happens
			// later with double-quote semantics.
			raw := c.slice(p)
			raw = strings.TrimPrefix(raw, "$")
			raw = strings.TrimPrefix(raw, `"`)
			raw = strings.TrimSuffix(raw, `"`)
			out.Parts = append(out.Parts, WordPart{Text: raw, Quote: DoubleQuoted})
		default:
			// $var, ${...}, $(...), $((...)), backquotes, extended
			// globs: keep the raw source for the expansion engine.
			out.Parts = append(out.Parts, WordPart{Text: c.slice(part)})
		}
	}
	return out, nil
}

func (c *converter) redirect(r *syntax.Redirect) (Redirect, error) {
	fd := -1
	if r.N != nil {
		n, err := strconv.Atoi(r.N.Value)
		if err != nil {
			return Redirect{}, &ParseError{Msg: "bad file descriptor: " + r.N.Value}
		}
		fd = n
	}
	target := Word{}
	if r.Word != nil {
		w, err := c.word(r.Word)
		if err != nil {
			return Redirect{}, err
		}
		target = w
	}
	switch r.Op {
	case syntax.RdrIn:
		if fd < 0 {
			fd = 0
		}
		return Redirect{Kind: RedirRead, FD: fd, Target: target}, nil
	case syntax.RdrOut, syntax.ClbOut:
		if fd < 0 {
			fd = 1
		}
		return Redirect{Kind: RedirWrite, FD: fd, Target: target}, nil
	case syntax.AppOut:
		if fd < 0 {
			fd = 1
		}
		return Redirect{Kind: RedirWrite, FD: fd, Target: target, Append: true}, nil
	case syntax.Hdoc, syntax.DashHdoc:
		if fd < 0 {
			fd = 0
		}
		body := Word{}
		if r.Hdoc != nil {
			w, err := c.word(r.Hdoc)
			if err != nil {
				return Redirect{}, err
			}
			body = w
		}
		return Redirect{Kind: RedirHeredoc, FD: fd, Target: body}, nil
	case syntax.WordHdoc:
		if fd < 0 {
			fd = 0
		}
		return Redirect{Kind: RedirHereString, FD: fd, Target: target}, nil
	case syntax.DplOut:
		if fd < 0 {
			fd = 1
		}
		return Redirect{Kind: RedirDupOut, FD: fd, Target: target}, nil
	case syntax.DplIn:
		if fd < 0 {
			fd = 0
		}
		return Redirect{Kind: RedirDupIn, FD: fd, Target: target}, nil
	default:
		return Redirect{}, &ParseError{Msg: "unsupported redirection: " + r.Op.String()}
	}
}
