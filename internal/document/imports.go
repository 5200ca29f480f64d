package document

import (
	"errors"
	"strings"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/lexer"
	"github.com/roach88/dotrain/internal/meta"
	"github.com/roach88/dotrain/internal/namespace"
	"github.com/roach88/dotrain/internal/parser"
)

// ImportConfig is one rename, elision or rebinding of an import.
type ImportConfig struct {
	namespace.Config
	Position ir.Offsets
}

// Import is a parsed import statement.
type Import struct {
	Path         []string
	PathPosition ir.Offsets
	Hash         ir.Hash
	HashPosition ir.Offsets
	Configs      []ImportConfig
	Position     ir.Offsets

	// Kind is the kind of the imported payload once it was decoded.
	Kind meta.Kind
	// Resolved is set when the import was spliced into the namespace.
	Resolved bool
	// Document is the parsed imported document for dotrain imports.
	Document *Snapshot
}

// Name returns the import's target path in dotted form, "." for the root.
func (imp *Import) Name() string {
	return "." + namespace.JoinPath(imp.Path)
}

// parseImport parses "@[path] 0x<hash> ('old new | 'old ! | 'old <literal>)*".
// The import is usable only when no problems are returned.
func parseImport(stmt lexer.Statement) (*Import, []ir.Problem) {
	imp := &Import{Position: stmt.Position}
	fields := lexer.Fields(stmt.Text, stmt.Position.Start())
	var problems []ir.Problem
	problem := func(code ir.ErrorCode, msg string, pos ir.Offsets) {
		problems = append(problems, ir.NewProblem(code, msg, pos))
	}

	head := fields[0]
	rest := fields[1:]
	target := lexer.Field{
		Text:     head.Text[1:],
		Position: ir.Offsets{head.Position.Start() + 1, head.Position.End()},
	}
	imp.PathPosition = target.Position

	hashField := target
	switch {
	case strings.HasPrefix(target.Text, "0x"):
		imp.PathPosition = ir.Offsets{target.Position.Start(), target.Position.Start()}
	case len(rest) == 0:
		problem(ir.ExpectedHash, "expected import hash", stmt.Position)
		return imp, problems
	default:
		path, err := namespace.SplitPath(target.Text)
		if err != nil {
			problem(ir.InvalidWordPattern, "invalid import path "+quote(target.Text), target.Position)
		}
		imp.Path = path
		hashField, rest = rest[0], rest[1:]
	}

	imp.HashPosition = hashField.Position
	h, err := ir.ParseHash(hashField.Text)
	if err != nil {
		code := ir.InvalidHash
		if !strings.HasPrefix(hashField.Text, "0x") {
			code = ir.ExpectedHash
		}
		problem(code, "invalid import hash "+quote(hashField.Text), hashField.Position)
	}
	imp.Hash = h

	for len(rest) > 0 {
		f := rest[0]
		rest = rest[1:]
		old, ok := strings.CutPrefix(f.Text, "'")
		if !ok {
			problem(ir.UnexpectedToken, "unexpected token "+quote(f.Text)+" in import", f.Position)
			continue
		}
		if old == "" {
			problem(ir.ExpectedName, "expected name after \"'\"", f.Position)
			continue
		}
		if !meta.NamePattern.MatchString(old) {
			problem(ir.InvalidWordPattern, "invalid name pattern "+quote(old), f.Position)
		}
		if len(rest) == 0 || strings.HasPrefix(rest[0].Text, "'") {
			problem(ir.ExpectedElisionOrRebinding, "expected a rename, elision or rebinding for "+quote(old), f.Position)
			continue
		}

		v := rest[0]
		rest = rest[1:]
		cfg := ImportConfig{Config: namespace.Config{Old: old}, Position: ir.Offsets{f.Position.Start(), v.Position.End()}}
		switch c := v.Text[0]; {
		case v.Text == "!":
			cfg.Kind = namespace.Elide
		case c >= '0' && c <= '9':
			cfg.Kind = namespace.Rebind
			cfg.Value = v.Text
			if _, err := parser.ParseLiteral(v.Text); err != nil {
				code := ir.UnexpectedToken
				if errors.Is(err, parser.ErrOutOfRange) {
					code = ir.OutOfRangeValue
				}
				problem(code, "invalid rebinding value "+quote(v.Text), v.Position)
			}
		case c >= 'a' && c <= 'z':
			cfg.Kind = namespace.Rename
			cfg.New = v.Text
			if !meta.NamePattern.MatchString(v.Text) {
				problem(ir.InvalidWordPattern, "invalid name pattern "+quote(v.Text), v.Position)
			}
		default:
			problem(ir.ExpectedRename, "expected a new name for "+quote(old), v.Position)
		}
		imp.Configs = append(imp.Configs, cfg)
	}
	return imp, problems
}

func quote(s string) string {
	return `"` + s + `"`
}
