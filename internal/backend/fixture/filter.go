package fixture

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/teemow/outlookctl/internal/outlook"
)

// The filter language accepted by Restrict:
//
//	expr   = term { "OR" term }
//	term   = factor { "AND" factor }
//	factor = "NOT" factor | "(" expr ")" | prop op value
//	prop   = "[" name "]" | `"` dasl-name `"`
//	op     = "=" | "<>" | "<" | "<=" | ">" | ">=" | "LIKE"
//	value  = "'" text "'" | "True" | "False"
//
// A leading "@SQL=" is accepted. Text literals escape a quote by
// doubling it. LIKE patterns use % as the only wildcard. String
// comparisons ignore case.

type predicate func(entry) bool

type propKind int

const (
	propString propKind = iota
	propBool
	propTime
)

type property struct {
	kind propKind
	str  func(entry) string
	bln  func(entry) bool
	tm   func(entry) time.Time
}

func stringProp(f func(entry) string) property { return property{kind: propString, str: f} }
func boolProp(f func(entry) bool) property { return property{kind: propBool, bln: f} }
func timeProp(f func(entry) time.Time) property { return property{kind: propTime, tm: f} }

var (
	subjectProp  = stringProp(func(e entry) string { return e.d.Subject })
	bodyProp     = stringProp(func(e entry) string { return e.d.Body })
	fromProp     = stringProp(func(e entry) string { return e.d.From })
	fromNameProp = stringProp(func(e entry) string { return e.d.FromName })
	topicProp    = stringProp(func(e entry) string { return e.d.topic() })
	receivedProp = timeProp(func(e entry) time.Time { return e.d.Received })
)

// properties maps lower-cased property references to accessors.
var properties = map[string]property{
	"subject":            subjectProp,
	"body":               bodyProp,
	"senderemailaddress": fromProp,
	"sendername":         fromNameProp,
	"conversationtopic":  topicProp,
	"receivedtime":       receivedProp,
	"categories":         stringProp(func(e entry) string { return e.d.Categories }),
	"location":           stringProp(func(e entry) string { return e.d.Location }),
	"organizer":          stringProp(func(e entry) string { return e.d.Organizer }),
	"unread":             boolProp(func(e entry) bool { return e.d.Unread }),
	"alldayevent":        boolProp(func(e entry) bool { return e.d.AllDay }),
	"isrecurring":        boolProp(func(e entry) bool { return e.d.RRule != "" }),
	"start":              timeProp(func(e entry) time.Time { return e.start }),
	"end":                timeProp(func(e entry) time.Time { return e.end }),

	"urn:schemas:httpmail:subject":         subjectProp,
	"urn:schemas:httpmail:textdescription": bodyProp,
	"urn:schemas:httpmail:fromemail":       fromProp,
	"urn:schemas:httpmail:fromname":        fromNameProp,
	"urn:schemas:httpmail:thread-topic":    topicProp,
	"urn:schemas:httpmail:datereceived":    receivedProp,
}

// filterTimeLayouts are tried in order when a literal is compared with a
// time property.
var filterTimeLayouts = []string{
	outlook.FilterTimeLayout,
	"01/02/2006 15:04",
	"01/02/2006",
	time.RFC3339,
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokProp
	tokString
	tokOp
	tokWord
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated property at offset %d", i)
			}
			toks = append(toks, token{tokProp, s[i+1 : i+end]})
			i += end + 1
		case c == '"':
			end := strings.IndexByte(s[i+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("unterminated property at offset %d", i)
			}
			toks = append(toks, token{tokProp, s[i+1 : i+1+end]})
			i += end + 2
		case c == '\'':
			var b strings.Builder
			j := i + 1
			for {
				if j >= len(s) {
					return nil, fmt.Errorf("unterminated literal at offset %d", i)
				}
				if s[j] == '\'' {
					if j+1 < len(s) && s[j+1] == '\'' {
						b.WriteByte('\'')
						j += 2
						continue
					}
					break
				}
				b.WriteByte(s[j])
				j++
			}
			toks = append(toks, token{tokString, b.String()})
			i = j + 1
		case c == '=' || c == '<' || c == '>':
			op := string(c)
			if i+1 < len(s) && (s[i+1] == '=' || (c == '<' && s[i+1] == '>')) {
				op += string(s[i+1])
			}
			toks = append(toks, token{tokOp, op})
			i += len(op)
		case isWordByte(c):
			j := i
			for j < len(s) && isWordByte(s[j]) {
				j++
			}
			toks = append(toks, token{tokWord, s[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected %q at offset %d", c, i)
		}
	}
	return append(toks, token{kind: tokEOF}), nil
}

func isWordByte(c byte) bool {
	return c < unicode.MaxASCII && (unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)) || c == '_' || c == '.')
}

type parser struct {
	toks []token
	pos  int
	loc  *time.Location
}

// compileFilter compiles a Restrict filter into a predicate.
func compileFilter(filter string, loc *time.Location) (predicate, error) {
	src := strings.TrimSpace(filter)
	if len(src) >= 5 && strings.EqualFold(src[:5], "@SQL=") {
		src = src[5:]
	}
	toks, err := tokenize(src)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
	}
	p := &parser{toks: toks, loc: loc}
	pred, err := p.expr()
	if err == nil && p.peek().kind != tokEOF {
		err = fmt.Errorf("unexpected %q", p.peek().text)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
	}
	return pred, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) keyword(word string) bool {
	t := p.peek()
	if t.kind == tokWord && strings.EqualFold(t.text, word) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expr() (predicate, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		l := left
		left = func(e entry) bool { return l(e) || right(e) }
	}
	return left, nil
}

func (p *parser) term() (predicate, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") {
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		l := left
		left = func(e entry) bool { return l(e) && right(e) }
	}
	return left, nil
}

func (p *parser) factor() (predicate, error) {
	if p.keyword("NOT") {
		inner, err := p.factor()
		if err != nil {
			return nil, err
		}
		return func(e entry) bool { return !inner(e) }, nil
	}
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return inner, nil
	}
	return p.condition()
}

func (p *parser) condition() (predicate, error) {
	pt := p.next()
	if pt.kind != tokProp {
		return nil, fmt.Errorf("expected property, got %q", pt.text)
	}
	prop, ok := properties[strings.ToLower(pt.text)]
	if !ok {
		return nil, fmt.Errorf("unknown property %q", pt.text)
	}

	var op string
	switch t := p.next(); {
	case t.kind == tokOp:
		op = t.text
	case t.kind == tokWord && strings.EqualFold(t.text, "LIKE"):
		op = "LIKE"
	default:
		return nil, fmt.Errorf("expected operator after %q", pt.text)
	}
	val := p.next()

	switch prop.kind {
	case propString:
		if val.kind != tokString {
			return nil, fmt.Errorf("%q needs a quoted value", pt.text)
		}
		return stringCondition(prop.str, op, val.text)
	case propBool:
		want, err := parseBoolLiteral(val)
		if err != nil {
			return nil, err
		}
		switch op {
		case "=":
			return func(e entry) bool { return prop.bln(e) == want }, nil
		case "<>":
			return func(e entry) bool { return prop.bln(e) != want }, nil
		}
		return nil, fmt.Errorf("operator %s not supported for %q", op, pt.text)
	default:
		if val.kind != tokString {
			return nil, fmt.Errorf("%q needs a quoted date", pt.text)
		}
		at, err := p.parseTime(val.text)
		if err != nil {
			return nil, err
		}
		return timeCondition(prop.tm, op, at)
	}
}

func parseBoolLiteral(t token) (bool, error) {
	if t.kind == tokWord || t.kind == tokString {
		switch strings.ToLower(t.text) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	}
	return false, fmt.Errorf("expected True or False, got %q", t.text)
}

func (p *parser) parseTime(s string) (time.Time, error) {
	for _, layout := range filterTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func stringCondition(get func(entry) string, op, lit string) (predicate, error) {
	want := strings.ToLower(lit)
	switch op {
	case "=":
		return func(e entry) bool { return strings.ToLower(get(e)) == want }, nil
	case "<>":
		return func(e entry) bool { return strings.ToLower(get(e)) != want }, nil
	case "LIKE":
		return func(e entry) bool { return likeMatch(strings.ToLower(get(e)), want) }, nil
	default:
		return nil, fmt.Errorf("operator %s not supported for text", op)
	}
}

func timeCondition(get func(entry) time.Time, op string, at time.Time) (predicate, error) {
	switch op {
	case "=":
		return func(e entry) bool { return get(e).Equal(at) }, nil
	case "<>":
		return func(e entry) bool { return !get(e).Equal(at) }, nil
	case "<":
		return func(e entry) bool { return get(e).Before(at) }, nil
	case "<=":
		return func(e entry) bool { return !get(e).After(at) }, nil
	case ">":
		return func(e entry) bool { return get(e).After(at) }, nil
	case ">=":
		return func(e entry) bool { return !get(e).Before(at) }, nil
	default:
		return nil, fmt.Errorf("operator %s not supported for dates", op)
	}
}

// likeMatch matches s against a pattern where % matches any run of
// characters.
func likeMatch(s, pattern string) bool {
	parts := strings.Split(pattern, "%")
	if len(parts) == 1 {
		return s == pattern
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	last := parts[len(parts)-1]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(s, part)
		if idx < 0 {
			return false
		}
		s = s[idx+len(part):]
	}
	return strings.HasSuffix(s, last)
}
