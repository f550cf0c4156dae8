package expr

// scanner tracks quote and bracket state while walking an expression byte by
// byte. Inside quotes every byte is literal until the matching quote char.
type scanner struct {
	inQuotes  bool
	quoteChar byte
	depth     int
}

// step consumes c and reports whether it was seen outside a quoted literal.
// Opening and closing quote bytes themselves report false.
func (s *scanner) step(c byte) bool {
	if s.inQuotes {
		if c == s.quoteChar {
			s.inQuotes = false
			s.quoteChar = 0
		}
		return false
	}
	switch c {
	case '"', '\'':
		s.inQuotes = true
		s.quoteChar = c
		return false
	case '(', '[', '{':
		s.depth++
	case ')', ']', '}':
		s.depth--
	}
	return true
}

func isCloser(c byte) bool {
	return c == ')' || c == ']' || c == '}'
}
