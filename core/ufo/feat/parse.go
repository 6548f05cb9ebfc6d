package feat

import (
	"fmt"
	"strconv"
)

// Parse reads feature-file syntax into a Table. The supported subset is
// described in the package documentation; statements outside of it yield
// a MalformedRuleError. Named glyph classes are resolved during parsing
// and do not appear in the result.
func Parse(src []byte) (*Table, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{
		toks:       toks,
		classes:    make(map[string]GlyphSet),
		pool:       make(map[string]*Lookup),
		referenced: make(map[string]bool),
	}
	table, err := p.parseFile()
	if err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// lexing

type tokenType byte

const (
	tEOF tokenType = iota
	tIdent
	tNumber
	tString // "..." inside name records, discarded with them
	tClass  // @NAME
	tQuote  // ' marking a glyph
	tLBrack // [
	tRBrack // ]
	tLBrace // {
	tRBrace // }
	tLAngle // <
	tRAngle // >
	tEquals
	tSemicolon
)

type token struct {
	typ  tokenType
	text string
	line int
}

func (t token) String() string {
	switch t.typ {
	case tEOF:
		return "end of input"
	case tQuote:
		return "'"
	}
	return fmt.Sprintf("%q", t.text)
}

func isNameChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.' || c == '_' || c == '-' || c == '+' || c == '*' || c == ':' || c == '^' || c == '|' || c == '~':
		return true
	}
	return false
}

func lex(src []byte) ([]token, error) {
	var toks []token
	line := 1
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '[':
			toks = append(toks, token{tLBrack, "[", line})
			i++
		case c == ']':
			toks = append(toks, token{tRBrack, "]", line})
			i++
		case c == '{':
			toks = append(toks, token{tLBrace, "{", line})
			i++
		case c == '}':
			toks = append(toks, token{tRBrace, "}", line})
			i++
		case c == '<':
			toks = append(toks, token{tLAngle, "<", line})
			i++
		case c == '>':
			toks = append(toks, token{tRAngle, ">", line})
			i++
		case c == '=':
			toks = append(toks, token{tEquals, "=", line})
			i++
		case c == ';':
			toks = append(toks, token{tSemicolon, ";", line})
			i++
		case c == '\'':
			toks = append(toks, token{tQuote, "'", line})
			i++
		case c == '"':
			start := i
			i++
			for i < len(src) && src[i] != '"' {
				if src[i] == '\n' {
					line++
				}
				i++
			}
			if i == len(src) {
				return nil, malformed("line %d: unterminated string", line)
			}
			i++
			toks = append(toks, token{tString, string(src[start:i]), line})
		case c == '@':
			start := i
			i++
			for i < len(src) && isNameChar(src[i]) {
				i++
			}
			if i == start+1 {
				return nil, malformed("line %d: empty class name", line)
			}
			toks = append(toks, token{tClass, string(src[start:i]), line})
		case c == '-' && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9':
			start := i
			i++
			for i < len(src) && src[i] >= '0' && src[i] <= '9' {
				i++
			}
			toks = append(toks, token{tNumber, string(src[start:i]), line})
		case c >= '0' && c <= '9':
			start := i
			for i < len(src) && src[i] >= '0' && src[i] <= '9' {
				i++
			}
			// a digit run continuing with name characters is a glyph name
			if i < len(src) && isNameChar(src[i]) {
				for i < len(src) && isNameChar(src[i]) {
					i++
				}
				toks = append(toks, token{tIdent, string(src[start:i]), line})
			} else {
				toks = append(toks, token{tNumber, string(src[start:i]), line})
			}
		case isNameChar(c):
			start := i
			for i < len(src) && isNameChar(src[i]) {
				i++
			}
			toks = append(toks, token{tIdent, string(src[start:i]), line})
		default:
			return nil, malformed("line %d: unexpected character %q", line, string(c))
		}
	}
	toks = append(toks, token{tEOF, "", line})
	return toks, nil
}

// parsing

type parser struct {
	toks []token
	pos  int

	classes    map[string]GlyphSet
	pool       map[string]*Lookup // top-level lookups awaiting a reference
	poolOrder  []string
	referenced map[string]bool // lookups referenced directly by a feature
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.typ != tEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(typ tokenType, what string) (token, error) {
	t := p.next()
	if t.typ != typ {
		return t, malformed("line %d: expected %s, found %s", t.line, what, t)
	}
	return t, nil
}

func (p *parser) expectKeyword(kw string) error {
	t := p.next()
	if t.typ != tIdent || t.text != kw {
		return malformed("line %d: expected %q, found %s", t.line, kw, t)
	}
	return nil
}

func (p *parser) parseFile() (*Table, error) {
	table := &Table{}
	for {
		t := p.peek()
		switch {
		case t.typ == tEOF:
			return table, p.finish(table)
		case t.typ == tClass:
			if err := p.parseClassDef(); err != nil {
				return nil, err
			}
		case t.typ == tIdent && t.text == "languagesystem":
			p.next()
			script, err := p.expect(tIdent, "script tag")
			if err != nil {
				return nil, err
			}
			lang, err := p.expect(tIdent, "language tag")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tSemicolon, "';'"); err != nil {
				return nil, err
			}
			table.Languages = append(table.Languages, LangSys{Script: script.text, Lang: lang.text})
		case t.typ == tIdent && t.text == "lookup":
			lookup, err := p.parseLookupBlock()
			if err != nil {
				return nil, err
			}
			if _, dup := p.pool[lookup.Name]; dup {
				return nil, malformed("line %d: lookup %q defined twice", t.line, lookup.Name)
			}
			p.pool[lookup.Name] = lookup
			p.poolOrder = append(p.poolOrder, lookup.Name)
		case t.typ == tIdent && t.text == "feature":
			feature, err := p.parseFeatureBlock()
			if err != nil {
				return nil, err
			}
			table.Features = append(table.Features, feature)
		case t.typ == tIdent && t.text == "table":
			return nil, malformed("line %d: table blocks are not supported", t.line)
		case t.typ == tIdent && t.text == "markClass":
			return nil, malformed("line %d: mark classes are not supported", t.line)
		default:
			return nil, malformed("line %d: unexpected %s at top level", t.line, t)
		}
	}
}

// finish distributes top-level lookups: the ones referenced by surviving
// chained rules become standalone lookups of the table, unreferenced ones
// are dropped.
func (p *parser) finish(table *Table) error {
	nested := make(map[string]bool)
	table.EachRule(func(_ *Lookup, rule Rule) {
		if chain, ok := rule.(*ChainedRule); ok {
			for _, ref := range chain.Nested {
				nested[ref.Name] = true
			}
		}
	})
	for _, name := range p.poolOrder {
		lookup := p.pool[name]
		if lookup == nil {
			continue // moved into a feature, covered by EachRule above
		}
		for _, rule := range lookup.Rules {
			if chain, ok := rule.(*ChainedRule); ok {
				for _, ref := range chain.Nested {
					nested[ref.Name] = true
				}
			}
		}
	}
	for _, name := range p.poolOrder {
		lookup := p.pool[name]
		if lookup == nil {
			continue // moved into a feature
		}
		if nested[name] {
			table.Lookups = append(table.Lookups, lookup)
		} else {
			tracer().Infof("dropping lookup %q, never referenced", name)
		}
	}
	return nil
}

func (p *parser) parseClassDef() error {
	name := p.next() // tClass
	if _, err := p.expect(tEquals, "'='"); err != nil {
		return err
	}
	set, err := p.parseGlyphSet()
	if err != nil {
		return err
	}
	if _, err := p.expect(tSemicolon, "';'"); err != nil {
		return err
	}
	if _, dup := p.classes[name.text]; dup {
		return malformed("line %d: class %s defined twice", name.line, name.text)
	}
	p.classes[name.text] = set
	return nil
}

// parseGlyphSet parses a single glyph, a class reference or a bracketed
// class, resolving class references on the spot.
func (p *parser) parseGlyphSet() (GlyphSet, error) {
	t := p.next()
	switch t.typ {
	case tIdent:
		return GlyphSet{t.text}, nil
	case tClass:
		set, ok := p.classes[t.text]
		if !ok {
			return nil, malformed("line %d: undefined class %s", t.line, t.text)
		}
		return append(GlyphSet{}, set...), nil
	case tLBrack:
		var set GlyphSet
		for {
			inner := p.peek()
			switch inner.typ {
			case tRBrack:
				p.next()
				if len(set) == 0 {
					return nil, malformed("line %d: empty glyph class", inner.line)
				}
				return set, nil
			case tIdent:
				p.next()
				set = append(set, inner.text)
			case tClass:
				p.next()
				resolved, ok := p.classes[inner.text]
				if !ok {
					return nil, malformed("line %d: undefined class %s", inner.line, inner.text)
				}
				set = append(set, resolved...)
			default:
				return nil, malformed("line %d: unexpected %s in glyph class", inner.line, inner)
			}
		}
	}
	return nil, malformed("line %d: expected glyph or class, found %s", t.line, t)
}

func (p *parser) parseLookupBlock() (*Lookup, error) {
	p.next() // "lookup"
	name, err := p.expect(tIdent, "lookup name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tLBrace, "'{'"); err != nil {
		return nil, err
	}
	lookup := &Lookup{Name: name.text}
	for {
		t := p.peek()
		switch {
		case t.typ == tRBrace:
			p.next()
			if err := p.expectKeyword(name.text); err != nil {
				return nil, err
			}
			if _, err := p.expect(tSemicolon, "';'"); err != nil {
				return nil, err
			}
			return lookup, nil
		case t.typ == tEOF:
			return nil, malformed("line %d: unterminated lookup %q", name.line, name.text)
		case t.typ == tIdent && (t.text == "sub" || t.text == "substitute"):
			rule, err := p.parseSubstitution()
			if err != nil {
				return nil, err
			}
			lookup.Rules = append(lookup.Rules, rule)
		case t.typ == tIdent && (t.text == "pos" || t.text == "position"):
			rule, err := p.parsePositioning()
			if err != nil {
				return nil, err
			}
			lookup.Rules = append(lookup.Rules, rule)
		case t.typ == tIdent && t.text == "lookupflag":
			p.discardStatement()
		default:
			return nil, malformed("line %d: unexpected %s in lookup %q", t.line, t, name.text)
		}
	}
}

func (p *parser) parseFeatureBlock() (*Feature, error) {
	p.next() // "feature"
	tag, err := p.expect(tIdent, "feature tag")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tLBrace, "'{'"); err != nil {
		return nil, err
	}
	feature := &Feature{Tag: tag.text}
	var anon *Lookup
	flush := func() {
		if anon != nil && len(anon.Rules) > 0 {
			feature.Lookups = append(feature.Lookups, anon)
		}
		anon = nil
	}
	addRule := func(rule Rule) {
		if anon == nil {
			anon = &Lookup{}
		}
		anon.Rules = append(anon.Rules, rule)
	}
	for {
		t := p.peek()
		switch {
		case t.typ == tRBrace:
			p.next()
			flush()
			if err := p.expectKeyword(tag.text); err != nil {
				return nil, err
			}
			if _, err := p.expect(tSemicolon, "';'"); err != nil {
				return nil, err
			}
			return feature, nil
		case t.typ == tEOF:
			return nil, malformed("line %d: unterminated feature %q", tag.line, tag.text)
		case t.typ == tClass:
			if err := p.parseClassDef(); err != nil {
				return nil, err
			}
		case t.typ == tIdent && (t.text == "sub" || t.text == "substitute"):
			rule, err := p.parseSubstitution()
			if err != nil {
				return nil, err
			}
			addRule(rule)
		case t.typ == tIdent && (t.text == "pos" || t.text == "position"):
			rule, err := p.parsePositioning()
			if err != nil {
				return nil, err
			}
			addRule(rule)
		case t.typ == tIdent && t.text == "lookup":
			if p.toks[p.pos+1].typ == tIdent && p.toks[p.pos+2].typ == tSemicolon {
				// reference to a lookup defined elsewhere
				p.next()
				name := p.next()
				p.next()
				lookup := p.pool[name.text]
				if lookup == nil {
					if p.referenced[name.text] {
						return nil, malformed("line %d: lookup %q referenced from more than one feature", name.line, name.text)
					}
					return nil, malformed("line %d: reference to undefined lookup %q", name.line, name.text)
				}
				flush()
				feature.Lookups = append(feature.Lookups, lookup)
				p.pool[name.text] = nil
				p.referenced[name.text] = true
			} else {
				lookup, err := p.parseLookupBlock()
				if err != nil {
					return nil, err
				}
				flush()
				feature.Lookups = append(feature.Lookups, lookup)
			}
		case t.typ == tIdent && (t.text == "script" || t.text == "language" || t.text == "lookupflag"):
			tracer().Debugf("line %d: discarding %s statement in feature %q", t.line, t.text, tag.text)
			p.discardStatement()
		case t.typ == tIdent && t.text == "featureNames":
			if err := p.discardBlock(); err != nil {
				return nil, err
			}
		case t.typ == tIdent && t.text == "ignore":
			return nil, malformed("line %d: ignore rules are not supported", t.line)
		default:
			return nil, malformed("line %d: unexpected %s in feature %q", t.line, t, tag.text)
		}
	}
}

// discardStatement consumes tokens up to and including the next ';'.
func (p *parser) discardStatement() {
	for {
		t := p.next()
		if t.typ == tSemicolon || t.typ == tEOF {
			return
		}
	}
}

// discardBlock consumes a braced block plus its closing ';'.
func (p *parser) discardBlock() error {
	start := p.next() // block keyword
	if _, err := p.expect(tLBrace, "'{'"); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		t := p.next()
		switch t.typ {
		case tLBrace:
			depth++
		case tRBrace:
			depth--
		case tEOF:
			return malformed("line %d: unterminated %s block", start.line, start.text)
		}
	}
	if p.peek().typ == tSemicolon {
		p.next()
	}
	return nil
}

// element is one parsed item of a rule: a glyph set, possibly marked,
// possibly trailed by nested lookup references or a value record.
type element struct {
	set    GlyphSet
	marked bool
	refs   []string // nested lookup names attached to this element
	value  *ValueRecord
	line   int
}

// parseElements reads rule elements up to 'by', 'from' or ';'.
func (p *parser) parseElements(positioning bool) (elems []element, terminator string, err error) {
	for {
		t := p.peek()
		switch {
		case t.typ == tSemicolon:
			p.next()
			return elems, ";", nil
		case t.typ == tEOF:
			return nil, "", malformed("line %d: unterminated rule", t.line)
		case t.typ == tIdent && t.text == "by":
			p.next()
			return elems, "by", nil
		case t.typ == tIdent && t.text == "from":
			p.next()
			return elems, "from", nil
		case t.typ == tIdent && t.text == "lookup":
			if len(elems) == 0 || !elems[len(elems)-1].marked {
				return nil, "", malformed("line %d: lookup reference without a marked glyph", t.line)
			}
			p.next()
			name, err := p.expect(tIdent, "lookup name")
			if err != nil {
				return nil, "", err
			}
			last := &elems[len(elems)-1]
			last.refs = append(last.refs, name.text)
		case t.typ == tNumber && positioning:
			p.next()
			n, _ := strconv.Atoi(t.text)
			if len(elems) == 0 {
				return nil, "", malformed("line %d: value without a glyph", t.line)
			}
			last := &elems[len(elems)-1]
			if last.value != nil {
				return nil, "", malformed("line %d: more than one value for a glyph", t.line)
			}
			last.value = &ValueRecord{XAdvance: n}
		case t.typ == tLAngle && positioning:
			vr, err := p.parseValueRecord()
			if err != nil {
				return nil, "", err
			}
			if len(elems) == 0 {
				return nil, "", malformed("line %d: value without a glyph", t.line)
			}
			last := &elems[len(elems)-1]
			if last.value != nil {
				return nil, "", malformed("line %d: more than one value for a glyph", t.line)
			}
			last.value = vr
		default:
			set, err := p.parseGlyphSet()
			if err != nil {
				return nil, "", err
			}
			e := element{set: set, line: t.line}
			if p.peek().typ == tQuote {
				p.next()
				e.marked = true
			}
			elems = append(elems, e)
		}
	}
}

func (p *parser) parseValueRecord() (*ValueRecord, error) {
	p.next() // '<'
	var nums [4]int
	for i := 0; i < 4; i++ {
		t, err := p.expect(tNumber, "number in value record")
		if err != nil {
			return nil, err
		}
		nums[i], _ = strconv.Atoi(t.text)
	}
	if _, err := p.expect(tRAngle, "'>'"); err != nil {
		return nil, err
	}
	return &ValueRecord{
		XPlacement: nums[0],
		YPlacement: nums[1],
		XAdvance:   nums[2],
		YAdvance:   nums[3],
	}, nil
}

// splitContext partitions elements into backtrack, marked run, lookahead.
// Marks must be contiguous.
func splitContext(elems []element) (backtrack, marked, lookahead []element, err error) {
	first, last := -1, -1
	for i, e := range elems {
		if e.marked {
			if first < 0 {
				first = i
			} else if i != last+1 {
				return nil, nil, nil, malformed("line %d: marked glyphs must be contiguous", e.line)
			}
			last = i
		}
	}
	if first < 0 {
		return nil, elems, nil, nil // unmarked rule, everything is input
	}
	return elems[:first], elems[first : last+1], elems[last+1:], nil
}

func sets(elems []element) []GlyphSet {
	if len(elems) == 0 {
		return nil
	}
	out := make([]GlyphSet, len(elems))
	for i, e := range elems {
		out[i] = e.set
	}
	return out
}

func anyMarked(elems []element) bool {
	for _, e := range elems {
		if e.marked {
			return true
		}
	}
	return false
}

func nestedRefs(marked []element) []LookupRef {
	var refs []LookupRef
	for slot, e := range marked {
		for _, name := range e.refs {
			refs = append(refs, LookupRef{Slot: slot, Name: name})
		}
	}
	return refs
}

func (p *parser) parseSubstitution() (Rule, error) {
	kw := p.next() // "sub" or "substitute"
	elems, terminator, err := p.parseElements(false)
	if err != nil {
		return nil, err
	}
	if terminator == "from" {
		return nil, malformed("line %d: alternate substitution is not supported", kw.line)
	}
	backtrack, marked, lookahead, err := splitContext(elems)
	if err != nil {
		return nil, err
	}
	if len(marked) == 0 {
		return nil, malformed("line %d: substitution without input glyphs", kw.line)
	}

	if terminator == ";" {
		// no replacement: only valid as a chained rule with nested lookups
		refs := nestedRefs(marked)
		if !anyMarked(elems) || len(refs) == 0 {
			return nil, malformed("line %d: substitution without a replacement", kw.line)
		}
		return &ChainedRule{
			Backtrack: sets(backtrack),
			Input:     sets(marked),
			Lookahead: sets(lookahead),
			Nested:    refs,
		}, nil
	}

	// terminator "by"
	if len(nestedRefs(marked)) > 0 {
		return nil, malformed("line %d: nested lookups cannot be combined with a replacement", kw.line)
	}
	replacement, rterm, err := p.parseElements(false)
	if err != nil {
		return nil, err
	}
	if rterm != ";" || anyMarked(replacement) {
		return nil, malformed("line %d: malformed replacement", kw.line)
	}
	if len(replacement) == 0 {
		return nil, malformed("line %d: empty replacement", kw.line)
	}

	if len(marked) == 1 {
		if len(replacement) != 1 {
			return nil, malformed("line %d: multiple substitution is not supported", kw.line)
		}
		in, out := marked[0].set, replacement[0].set
		if len(out) != len(in) && len(out) != 1 {
			return nil, malformed("line %d: substitution of %d glyphs by %d", kw.line, len(in), len(out))
		}
		return &SimpleSub{
			Backtrack: sets(backtrack),
			In:        in,
			Out:       out,
			Lookahead: sets(lookahead),
		}, nil
	}

	// several input slots: a ligature substitution
	if len(replacement) != 1 || len(replacement[0].set) != 1 {
		return nil, malformed("line %d: ligature substitution needs a single target glyph", kw.line)
	}
	return &LigatureSub{
		Backtrack:  sets(backtrack),
		Components: sets(marked),
		Ligature:   replacement[0].set[0],
		Lookahead:  sets(lookahead),
	}, nil
}

func (p *parser) parsePositioning() (Rule, error) {
	kw := p.next() // "pos" or "position"
	elems, terminator, err := p.parseElements(true)
	if err != nil {
		return nil, err
	}
	if terminator != ";" {
		return nil, malformed("line %d: unexpected %q in positioning rule", kw.line, terminator)
	}
	backtrack, marked, lookahead, err := splitContext(elems)
	if err != nil {
		return nil, err
	}
	if len(marked) == 0 {
		return nil, malformed("line %d: positioning without input glyphs", kw.line)
	}

	if refs := nestedRefs(marked); len(refs) > 0 {
		for _, e := range marked {
			if e.value != nil {
				return nil, malformed("line %d: nested lookups cannot be combined with values", e.line)
			}
		}
		return &ChainedRule{
			Backtrack: sets(backtrack),
			Input:     sets(marked),
			Lookahead: sets(lookahead),
			Nested:    refs,
			Pos:       true,
		}, nil
	}

	var values []ValueRecord
	perSlot := true
	for _, e := range marked {
		if e.value == nil {
			perSlot = false
			break
		}
	}
	if perSlot {
		for _, e := range marked {
			values = append(values, *e.value)
		}
	} else {
		// a single value after the last slot applies to the rule
		var single *ValueRecord
		for i, e := range marked {
			if e.value == nil {
				continue
			}
			if i != len(marked)-1 || single != nil {
				return nil, malformed("line %d: positioning values must follow every slot or only the last", e.line)
			}
			single = e.value
		}
		if single == nil {
			return nil, malformed("line %d: positioning without a value", kw.line)
		}
		values = []ValueRecord{*single}
	}
	return &Positioning{
		Backtrack: sets(backtrack),
		Slots:     sets(marked),
		Values:    values,
		Lookahead: sets(lookahead),
	}, nil
}
