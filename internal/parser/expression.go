package parser

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/lexer"
	"github.com/roach88/dotrain/internal/meta"
	"github.com/roach88/dotrain/internal/namespace"
)

type parser struct {
	toks     []lexer.Token
	pos      int
	lastEnd  int
	scope    Scope
	problems []ir.Problem
	deps     map[string]bool
	// aliases visible to the current line
	aliases map[string]bool
}

func newParser(toks []lexer.Token, scope Scope) *parser {
	return &parser{toks: toks, scope: scope, deps: map[string]bool{}, lastEnd: toks[0].Position.Start()}
}

func (p *parser) peek() lexer.Token { return p.toks[p.pos] }

func (p *parser) next() lexer.Token {
	tok := p.toks[p.pos]
	if tok.Kind != lexer.EOF {
		p.pos++
		p.lastEnd = tok.Position.End()
	}
	return tok
}

func (p *parser) errorf(code ir.ErrorCode, pos ir.Offsets, format string, args ...any) {
	p.problems = append(p.problems, ir.NewProblem(code, fmt.Sprintf(format, args...), pos))
}

func (p *parser) dependencies() []string {
	return slices.Sorted(maps.Keys(p.deps))
}

// atLineEnd reports whether the next token ends the current line.
func (p *parser) atLineEnd() bool {
	switch p.peek().Kind {
	case lexer.Comma, lexer.Semicolon, lexer.EOF:
		return true
	}
	return false
}

func (p *parser) parseExpression() *Expression {
	expr := &Expression{Position: ir.Offsets{p.peek().Position.Start(), 0}}
	for p.peek().Kind != lexer.EOF {
		expr.Sources = append(expr.Sources, p.parseSource())
		if p.peek().Kind == lexer.Semicolon {
			p.next()
		}
	}
	expr.Position[1] = p.lastEnd
	return expr
}

func (p *parser) parseSource() *Source {
	src := &Source{Position: ir.Offsets{p.peek().Position.Start(), 0}}
	p.aliases = map[string]bool{}
	inputs := true
	for {
		src.Lines = append(src.Lines, p.parseLine(&inputs))
		if p.peek().Kind != lexer.Comma {
			break
		}
		p.next()
		if k := p.peek().Kind; k == lexer.Semicolon || k == lexer.EOF {
			break
		}
	}
	src.Position[1] = p.lastEnd
	return src
}

// parseLine parses one line. inputs is true while every earlier line of
// the source had an empty right-hand side; such lines declare inputs.
func (p *parser) parseLine(inputs *bool) *Line {
	line := &Line{Position: ir.Offsets{p.peek().Position.Start(), 0}}
	defer func() { line.Position[1] = max(p.lastEnd, line.Position[0]) }()

	seen := map[string]bool{}
lhs:
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.Word:
			p.next()
			alias := &Alias{Name: tok.Text, Position: tok.Position}
			line.LHS = append(line.LHS, alias)
			if tok.Text == "_" {
				continue
			}
			if !meta.NamePattern.MatchString(tok.Text) {
				p.errorf(ir.InvalidWordPattern, tok.Position, "invalid alias %q", tok.Text)
				continue
			}
			if seen[tok.Text] || p.aliases[tok.Text] {
				p.errorf(ir.DuplicateAlias, tok.Position, "duplicate alias %q", tok.Text)
			}
			seen[tok.Text] = true
		case lexer.Literal:
			p.next()
			p.errorf(ir.UnexpectedLiteral, tok.Position, "unexpected literal %q", tok.Text)
		default:
			break lhs
		}
	}

	if p.peek().Kind != lexer.Colon {
		tok := p.peek()
		pos := tok.Position
		if tok.Kind == lexer.EOF || tok.Kind == lexer.Comma || tok.Kind == lexer.Semicolon {
			pos = ir.Offsets{line.Position[0], max(p.lastEnd, line.Position[0])}
		}
		p.errorf(ir.ExpectedColon, pos, "expected ':'")
		p.skipLine()
		return line
	}
	p.next()

	for !p.atLineEnd() {
		if item := p.parseItem(); item != nil {
			line.RHS = append(line.RHS, item)
		}
	}

	outputs := len(line.RHS)
	pos := ir.Offsets{line.Position[0], p.lastEnd}
	switch {
	case outputs == 0 && len(line.LHS) > 0 && *inputs:
	case len(line.LHS) < outputs:
		*inputs = false
		p.errorf(ir.MismatchLHS, pos, "line has %d outputs but %d aliases", outputs, len(line.LHS))
	case len(line.LHS) > outputs:
		*inputs = false
		p.errorf(ir.MismatchRHS, pos, "line has %d aliases but %d outputs", len(line.LHS), outputs)
	default:
		if outputs > 0 {
			*inputs = false
		}
	}

	for name := range seen {
		p.aliases[name] = true
	}
	return line
}

func (p *parser) skipLine() {
	for !p.atLineEnd() {
		p.next()
	}
}

func (p *parser) parseItem() Node {
	tok := p.next()
	switch tok.Kind {
	case lexer.Literal:
		return p.literal(tok)
	case lexer.Word:
		if k := p.peek().Kind; k == lexer.LAngle || k == lexer.LParen {
			return p.parseOpcode(tok)
		}
		return p.identifier(tok)
	case lexer.RParen:
		p.errorf(ir.UnexpectedClosingParen, tok.Position, "unexpected ')'")
	case lexer.LParen:
		p.errorf(ir.ExpectedOpcode, tok.Position, "expected opcode before '('")
		p.parseArgs(tok)
	default:
		p.errorf(ir.UnexpectedToken, tok.Position, "unexpected token %q", tok.Text)
	}
	return nil
}

func (p *parser) literal(tok lexer.Token) *Literal {
	lit := &Literal{Text: tok.Text, Position: tok.Position}
	v, err := ParseLiteral(tok.Text)
	if err != nil {
		p.problems = append(p.problems, literalProblem(err, tok.Text, tok.Position))
		return lit
	}
	lit.Value = v
	return lit
}

func (p *parser) identifier(tok lexer.Token) *Identifier {
	id := &Identifier{Name: tok.Text, Position: tok.Position, Target: namespace.None}
	if p.aliases[tok.Text] {
		id.Alias = true
		return id
	}
	path, err := namespace.SplitPath(tok.Text)
	if err != nil || len(path) == 0 {
		p.errorf(ir.InvalidWordPattern, tok.Position, "invalid identifier %q", tok.Text)
		return id
	}
	target, res := p.scope.resolveIdentifier(path)
	if res != nil {
		p.errorf(res.code, tok.Position, "%s", res.msg)
		return id
	}
	id.Target = target
	id.Dependency = namespace.JoinPath(path)
	p.deps[id.Dependency] = true
	return id
}

func (p *parser) parseOpcode(name lexer.Token) *Opcode {
	op := &Opcode{Name: name.Text, NamePosition: name.Position}
	defer func() { op.Position = ir.Offsets{name.Position.Start(), p.lastEnd} }()

	if path, err := namespace.SplitPath(name.Text); err != nil || len(path) == 0 {
		p.errorf(ir.InvalidWordPattern, name.Position, "invalid word %q", name.Text)
	} else if w, res := p.scope.resolveWord(path); res != nil {
		p.errorf(res.code, name.Position, "%s", res.msg)
	} else {
		op.Word = w
	}

	var operandPos ir.Offsets
	if p.peek().Kind == lexer.LAngle {
		open := p.next()
		operandPos = ir.Offsets{open.Position.Start(), 0}
	operands:
		for {
			tok := p.peek()
			switch tok.Kind {
			case lexer.Literal:
				op.Operands = append(op.Operands, p.literal(p.next()))
			case lexer.RAngle:
				p.next()
				break operands
			case lexer.Word, lexer.Unknown, lexer.Colon, lexer.LAngle:
				p.next()
				p.errorf(ir.UnexpectedToken, tok.Position, "unexpected token %q in operand", tok.Text)
			default:
				p.errorf(ir.ExpectedClosingAngleBracket, ir.Offsets{open.Position.Start(), p.lastEnd}, "expected '>'")
				break operands
			}
		}
		operandPos[1] = p.lastEnd
	}

	if p.peek().Kind != lexer.LParen {
		p.errorf(ir.ExpectedOpeningParen, name.Position, "expected '(' after %q", name.Text)
		return op
	}
	op.Inputs = p.parseArgs(p.next())

	if op.Word == nil {
		return op
	}
	if w := op.Word; w.Inputs != nil && len(op.Inputs) > *w.Inputs {
		p.errorf(ir.OutOfRangeInputs, ir.Offsets{name.Position.Start(), p.lastEnd},
			"%q takes at most %d inputs, got %d", op.Name, *w.Inputs, len(op.Inputs))
	}
	if w := op.Word; w.OperandArgs != nil && len(op.Operands) > *w.OperandArgs {
		p.errorf(ir.OutOfRangeOperandArgs, operandPos,
			"%q takes at most %d operand args, got %d", op.Name, *w.OperandArgs, len(op.Operands))
	}
	return op
}

// parseArgs parses items up to the ')' matching open.
func (p *parser) parseArgs(open lexer.Token) []Node {
	var items []Node
	for {
		switch p.peek().Kind {
		case lexer.RParen:
			p.next()
			return items
		case lexer.Comma, lexer.Semicolon, lexer.EOF:
			p.errorf(ir.ExpectedClosingParen, ir.Offsets{open.Position.Start(), p.lastEnd}, "expected ')'")
			return items
		}
		if item := p.parseItem(); item != nil {
			items = append(items, item)
		}
	}
}
