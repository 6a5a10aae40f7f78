package rules

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// SyntaxError is a located parse failure within a rules file: a
// configuration error, fatal to the whole pass.
type SyntaxError struct {
	Filename string
	Line     int
	Text     string
	Msg      string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("%s:%d: unexpected end of rules file", e.Filename, e.Line)
	}

	return fmt.Sprintf("%s:%d: %s: %q", e.Filename, e.Line, e.Msg, e.Text)
}

// parser holds the state of a single pass over a rules file: the current
// line number and its whitespace-separated, comment-stripped tokens. A
// small cursor type with a located-error constructor, for a line-oriented
// grammar rather than an s-expression one.
type parser struct {
	filename string
	scanner  *bufio.Scanner
	line     int
	tokens   []string
	text     string
	doc      *Document
}

// ParseFile opens and parses a rules file from disk. The file handle is
// opened at the start of parsing and always closed before returning,
// regardless of outcome.
func ParseFile(filename string) (*Document, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("rules: cannot open rules file %q: %w", filename, err)
	}
	defer f.Close()

	return Parse(filename, f)
}

// Parse reads a rules document from r, attributing any syntax errors to
// filename.
func Parse(filename string, r io.Reader) (*Document, error) {
	p := &parser{
		filename: filename,
		scanner:  bufio.NewScanner(r),
		doc:      NewDocument(),
	}

	for p.nextLine() {
		switch p.tokens[0] {
		case "bram":
			if err := p.parseBram(); err != nil {
				return nil, err
			}
		case "match":
			if err := p.parseMatch(); err != nil {
				return nil, err
			}
		default:
			return nil, p.syntaxError()
		}
	}

	return p.doc, nil
}

// nextLine advances to the next non-blank, non-comment-only line, splitting
// it on whitespace and stripping any `#`-to-end-of-line comment. It returns
// false at end of file.
func (p *parser) nextLine() bool {
	p.line++
	p.tokens = nil
	p.text = ""

	for p.scanner.Scan() {
		line := p.scanner.Text()
		p.text = line

		fields := strings.Fields(line)
		tokens := make([]string, 0, len(fields))

		for _, tok := range fields {
			if strings.HasPrefix(tok, "#") {
				break
			}

			tokens = append(tokens, tok)
		}

		if len(tokens) > 0 {
			p.tokens = tokens
			return true
		}

		p.line++
		p.text = ""
	}

	return false
}

func (p *parser) syntaxError() *SyntaxError {
	return &SyntaxError{Filename: p.filename, Line: p.line, Text: p.text, Msg: "syntax error in rules file"}
}

// parseSingleInt matches `stmt INT` and, if it matches, stores the parsed
// value into *value and returns true.
func (p *parser) parseSingleInt(stmt string, value *int) (bool, error) {
	if len(p.tokens) == 2 && p.tokens[0] == stmt {
		v, err := strconv.Atoi(p.tokens[1])
		if err != nil {
			return true, p.syntaxError()
		}

		*value = v

		return true, nil
	}

	return false, nil
}

// parseIntVect matches `stmt INT+` and, if it matches, stores the parsed
// values into *value and returns true.
func (p *parser) parseIntVect(stmt string, value *[]int) (bool, error) {
	if len(p.tokens) >= 2 && p.tokens[0] == stmt {
		vec := make([]int, len(p.tokens)-1)

		for i := 1; i < len(p.tokens); i++ {
			v, err := strconv.Atoi(p.tokens[i])
			if err != nil {
				return true, p.syntaxError()
			}

			vec[i-1] = v
		}

		*value = vec

		return true, nil
	}

	return false, nil
}

func (p *parser) parseBram() error {
	if len(p.tokens) != 2 {
		return p.syntaxError()
	}

	data := &BramType{Name: p.tokens[1]}

	for p.nextLine() {
		if len(p.tokens) == 1 && p.tokens[0] == "endbram" {
			p.doc.Brams[data.Name] = data
			return nil
		}

		matched, err := p.matchBramStmt(data)
		if err != nil {
			return err
		}

		if !matched {
			return p.syntaxError()
		}
	}

	return p.syntaxError()
}

// matchBramStmt tries every recognized `bram` block statement in turn.
func (p *parser) matchBramStmt(data *BramType) (bool, error) {
	type intField struct {
		name string
		dst  *int
	}

	for _, f := range []intField{
		{"groups", &data.Groups},
		{"abits", &data.ABits},
		{"dbits", &data.DBits},
		{"init", &data.Init},
	} {
		if ok, err := p.parseSingleInt(f.name, f.dst); ok || err != nil {
			return ok, err
		}
	}

	type vectField struct {
		name string
		dst  *[]int
	}

	for _, f := range []vectField{
		{"ports", &data.Ports},
		{"wrmode", &data.WrMode},
		{"enable", &data.Enable},
		{"transp", &data.Transp},
		{"clocks", &data.Clocks},
		{"clkpol", &data.ClkPol},
	} {
		if ok, err := p.parseIntVect(f.name, f.dst); ok || err != nil {
			return ok, err
		}
	}

	return false, nil
}

func (p *parser) parseMatch() error {
	if len(p.tokens) != 2 {
		return p.syntaxError()
	}

	data := MatchRule{
		Name:      p.tokens[1],
		MinLimits: make(map[string]int),
		MaxLimits: make(map[string]int),
	}

	for p.nextLine() {
		if len(p.tokens) == 1 && p.tokens[0] == "endmatch" {
			p.doc.Matches = append(p.doc.Matches, data)
			return nil
		}

		if len(p.tokens) == 3 && (p.tokens[0] == "min" || p.tokens[0] == "max") {
			v, err := strconv.Atoi(p.tokens[2])
			if err != nil {
				return p.syntaxError()
			}

			if p.tokens[0] == "min" {
				data.MinLimits[p.tokens[1]] = v
			} else {
				data.MaxLimits[p.tokens[1]] = v
			}

			continue
		}

		return p.syntaxError()
	}

	return p.syntaxError()
}
