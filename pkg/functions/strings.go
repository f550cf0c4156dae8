package functions

import (
	"html"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func stringFunctions() []Definition {
	return []Definition{
		fn("UPPER", CategoryString, 1, 1, "UPPER(field)", "Convert text to uppercase",
			unary(func(a *Args) any { return strings.ToUpper(a.String(0)) })),
		fn("LOWER", CategoryString, 1, 1, "LOWER(field)", "Convert text to lowercase",
			unary(func(a *Args) any { return strings.ToLower(a.String(0)) })),
		fn("TRIM", CategoryString, 1, 1, "TRIM(field)", "Remove leading and trailing whitespace",
			unary(func(a *Args) any { return strings.TrimSpace(a.String(0)) })),
		fn("LTRIM", CategoryString, 1, 1, "LTRIM(field)", "Remove leading whitespace",
			unary(func(a *Args) any { return strings.TrimLeftFunc(a.String(0), unicode.IsSpace) })),
		fn("RTRIM", CategoryString, 1, 1, "RTRIM(field)", "Remove trailing whitespace",
			unary(func(a *Args) any { return strings.TrimRightFunc(a.String(0), unicode.IsSpace) })),
		fn("CONCAT", CategoryString, 0, Variadic, "CONCAT(a, b, ...)", "Join values into one text",
			unary(func(a *Args) any {
				var b strings.Builder
				for _, v := range a.Values() {
					b.WriteString(ToString(v))
				}
				return b.String()
			})),
		fn("CONCAT_WS", CategoryString, 1, Variadic, "CONCAT_WS(separator, a, b, ...)", "Join non-empty values with a separator",
			unary(func(a *Args) any {
				sep := a.String(0)
				parts := make([]string, 0, a.Len()-1)
				for i := 1; i < a.Len(); i++ {
					if s := a.String(i); s != "" {
						parts = append(parts, s)
					}
				}
				return strings.Join(parts, sep)
			})),
		fn("LENGTH", CategoryString, 1, 1, "LENGTH(field)", "Number of characters", lengthOf),
		fn("LEN", CategoryString, 1, 1, "LEN(field)", "Alias of LENGTH", lengthOf),
		fn("LEFT", CategoryString, 2, 2, "LEFT(field, n)", "First n characters",
			unary(func(a *Args) any {
				r := []rune(a.String(0))
				return string(r[:clampIndex(a.Int(1), len(r))])
			})),
		fn("RIGHT", CategoryString, 2, 2, "RIGHT(field, n)", "Last n characters",
			unary(func(a *Args) any {
				r := []rune(a.String(0))
				return string(r[len(r)-clampIndex(a.Int(1), len(r)):])
			})),
		fn("SUBSTRING", CategoryString, 2, 3, "SUBSTRING(field, start, length)", "Extract characters from a 1-based position",
			unary(func(a *Args) any {
				r := []rune(a.String(0))
				start := clampIndex(a.Int(1)-1, len(r))
				end := len(r)
				if a.Has(2) {
					end = start + clampIndex(a.Int(2), len(r)-start)
				}
				return string(r[start:end])
			})),
		fn("REPLACE", CategoryString, 3, 3, "REPLACE(field, old, new)", "Replace the first occurrence",
			unary(func(a *Args) any { return strings.Replace(a.String(0), a.String(1), a.String(2), 1) })),
		fn("REPLACE_ALL", CategoryString, 3, 3, "REPLACE_ALL(field, old, new)", "Replace every occurrence",
			unary(func(a *Args) any {
				if a.String(1) == "" {
					return a.String(0)
				}
				return strings.ReplaceAll(a.String(0), a.String(1), a.String(2))
			})),
		fn("CONTAINS", CategoryString, 2, 2, "CONTAINS(field, text)", "Whether text occurs in the value",
			unary(func(a *Args) any { return strings.Contains(a.String(0), a.String(1)) })),
		fn("STARTS_WITH", CategoryString, 2, 2, "STARTS_WITH(field, text)", "Whether the value starts with text",
			unary(func(a *Args) any { return strings.HasPrefix(a.String(0), a.String(1)) })),
		fn("ENDS_WITH", CategoryString, 2, 2, "ENDS_WITH(field, text)", "Whether the value ends with text",
			unary(func(a *Args) any { return strings.HasSuffix(a.String(0), a.String(1)) })),
		fn("REVERSE", CategoryString, 1, 1, "REVERSE(field)", "Reverse the characters",
			unary(func(a *Args) any {
				r := []rune(a.String(0))
				for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
					r[i], r[j] = r[j], r[i]
				}
				return string(r)
			})),
		fn("REPEAT", CategoryString, 2, 2, "REPEAT(field, n)", "Repeat text n times",
			unary(func(a *Args) any {
				text := a.String(0)
				n := a.Int(1)
				if n <= 0 || text == "" {
					return ""
				}
				if limit := max(1, maxBuiltLength/utf8.RuneCountInString(text)); n > limit {
					n = limit
				}
				return strings.Repeat(text, n)
			})),
		fn("PAD_LEFT", CategoryString, 2, 3, "PAD_LEFT(field, length, char)", "Pad on the left to a length",
			unary(func(a *Args) any { return pad(a.String(0), a.Int(1), a.StringOr(2, " "), true) })),
		fn("PAD_RIGHT", CategoryString, 2, 3, "PAD_RIGHT(field, length, char)", "Pad on the right to a length",
			unary(func(a *Args) any { return pad(a.String(0), a.Int(1), a.StringOr(2, " "), false) })),
		fn("CAPITALIZE", CategoryString, 1, 1, "CAPITALIZE(field)", "Uppercase the first letter, lowercase the rest",
			unary(func(a *Args) any { return capitalize(a.String(0)) })),
		fn("TITLE_CASE", CategoryString, 1, 1, "TITLE_CASE(field)", "Capitalise every word",
			unary(func(a *Args) any { return cases.Title(language.English).String(strings.ToLower(a.String(0))) })),
		fn("SENTENCE_CASE", CategoryString, 1, 1, "SENTENCE_CASE(field)", "Capitalise the first word only",
			unary(func(a *Args) any { return capitalize(strings.TrimSpace(a.String(0))) })),
		fn("CAMEL_CASE", CategoryString, 1, 1, "CAMEL_CASE(field)", "Convert to camelCase",
			unary(func(a *Args) any {
				words := splitWords(a.String(0))
				for i, w := range words {
					if i == 0 {
						words[i] = strings.ToLower(w)
						continue
					}
					words[i] = capitalize(w)
				}
				return strings.Join(words, "")
			})),
		fn("SNAKE_CASE", CategoryString, 1, 1, "SNAKE_CASE(field)", "Convert to snake_case",
			unary(func(a *Args) any { return strings.ToLower(strings.Join(splitWords(a.String(0)), "_")) })),
		fn("KEBAB_CASE", CategoryString, 1, 1, "KEBAB_CASE(field)", "Convert to kebab-case",
			unary(func(a *Args) any { return strings.ToLower(strings.Join(splitWords(a.String(0)), "-")) })),
		fn("SLUGIFY", CategoryString, 1, 1, "SLUGIFY(field)", "URL-safe slug",
			unary(func(a *Args) any { return slug.Make(a.String(0)) })),
		fn("INITIALS", CategoryString, 1, 1, "INITIALS(field)", "First letter of every word, uppercased",
			unary(func(a *Args) any {
				var b strings.Builder
				for _, w := range strings.Fields(a.String(0)) {
					r, _ := utf8.DecodeRuneInString(w)
					b.WriteRune(unicode.ToUpper(r))
				}
				return b.String()
			})),
		fn("SPLIT", CategoryString, 1, 2, "SPLIT(field, separator)", "Split text into a list",
			unary(func(a *Args) any {
				s := a.String(0)
				if s == "" {
					return []any{}
				}
				parts := strings.Split(s, a.StringOr(1, ","))
				out := make([]any, len(parts))
				for i, p := range parts {
					out[i] = strings.TrimSpace(p)
				}
				return out
			})),
		fn("JOIN", CategoryString, 1, 2, "JOIN(array, separator)", "Join list items into text", joinList),
		fn("INDEX_OF", CategoryString, 2, 2, "INDEX_OF(field, text)", "0-based position of text, -1 when absent",
			unary(func(a *Args) any { return float64(runeIndex(a.String(0), a.String(1), false)) })),
		fn("LAST_INDEX_OF", CategoryString, 2, 2, "LAST_INDEX_OF(field, text)", "0-based position of the last occurrence",
			unary(func(a *Args) any { return float64(runeIndex(a.String(0), a.String(1), true)) })),
		fn("CHAR_AT", CategoryString, 2, 2, "CHAR_AT(field, index)", "Character at a 0-based index",
			unary(func(a *Args) any {
				r := []rune(a.String(0))
				i := a.Int(1)
				if i < 0 || i >= len(r) {
					return ""
				}
				return string(r[i])
			})),
		fn("WORD_COUNT", CategoryString, 1, 1, "WORD_COUNT(field)", "Number of whitespace separated words",
			unary(func(a *Args) any { return float64(len(strings.Fields(a.String(0)))) })),
		fn("NORMALIZE_SPACE", CategoryString, 1, 1, "NORMALIZE_SPACE(field)", "Collapse runs of whitespace",
			unary(func(a *Args) any { return strings.Join(strings.Fields(a.String(0)), " ") })),
		fn("TRUNCATE", CategoryString, 2, 3, "TRUNCATE(field, length, suffix)", "Shorten text and append a suffix",
			unary(func(a *Args) any {
				r := []rune(a.String(0))
				n := a.Int(1)
				if n < 0 || len(r) <= n {
					return string(r)
				}
				return string(r[:n]) + a.StringOr(2, "...")
			})),
		fn("MASK", CategoryString, 1, 3, "MASK(field, visible, char)", "Mask all but the last characters",
			unary(func(a *Args) any {
				r := []rune(a.String(0))
				visible := clampIndex(a.IntOr(1, 4), len(r))
				maskChar := a.StringOr(2, "*")
				return strings.Repeat(maskChar, len(r)-visible) + string(r[len(r)-visible:])
			})),
		fn("REGEX_MATCH", CategoryString, 2, 2, "REGEX_MATCH(field, pattern)", "Whether the value matches a regular expression",
			unary(func(a *Args) any {
				re, err := compilePattern(a.String(1))
				if err != nil {
					return false
				}
				return re.MatchString(a.String(0))
			})),
		fn("REGEX_REPLACE", CategoryString, 3, 3, "REGEX_REPLACE(field, pattern, replacement)", "Replace every regex match",
			unary(func(a *Args) any {
				re, err := compilePattern(a.String(1))
				if err != nil {
					return a.String(0)
				}
				return re.ReplaceAllString(a.String(0), a.String(2))
			})),
		fn("REGEX_EXTRACT", CategoryString, 2, 3, "REGEX_EXTRACT(field, pattern, group)", "First match or capture group",
			unary(func(a *Args) any {
				re, err := compilePattern(a.String(1))
				if err != nil {
					return ""
				}
				m := re.FindStringSubmatch(a.String(0))
				group := a.IntOr(2, 0)
				if group < 0 || group >= len(m) {
					return ""
				}
				return m[group]
			})),
		fn("STRIP_HTML", CategoryString, 1, 1, "STRIP_HTML(field)", "Remove every HTML tag",
			unary(func(a *Args) any { return stripHTML(a.String(0)) })),
		fn("SANITIZE_HTML", CategoryString, 1, 1, "SANITIZE_HTML(field)", "Keep only safe formatting markup",
			unary(func(a *Args) any { return sanitizeHTML(a.String(0)) })),
		fn("ENCODE_HTML", CategoryString, 1, 1, "ENCODE_HTML(field)", "Escape HTML special characters",
			unary(func(a *Args) any { return html.EscapeString(a.String(0)) })),
		fn("DECODE_HTML", CategoryString, 1, 1, "DECODE_HTML(field)", "Unescape HTML entities",
			unary(func(a *Args) any { return html.UnescapeString(a.String(0)) })),
	}
}

func lengthOf(a *Args) (any, error) {
	switch v := a.Value(0).(type) {
	case []any:
		return float64(len(v)), nil
	default:
		return float64(utf8.RuneCountInString(ToString(v))), nil
	}
}

func joinList(a *Args) (any, error) {
	items := a.List(0)
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = ToString(item)
	}
	return strings.Join(parts, a.StringOr(1, ",")), nil
}

func clampIndex(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

// maxBuiltLength caps, in runes, the text REPEAT and PAD_* build.
const maxBuiltLength = 1 << 16

func pad(s string, length int, fill string, left bool) string {
	if fill == "" {
		fill = " "
	}
	if length > maxBuiltLength {
		length = maxBuiltLength
	}
	missing := length - utf8.RuneCountInString(s)
	if missing <= 0 {
		return s
	}
	fr := []rune(fill)
	padding := make([]rune, missing)
	for i := range padding {
		padding[i] = fr[i%len(fr)]
	}
	if left {
		return string(padding) + s
	}
	return s + string(padding)
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

var wordBoundary = regexp.MustCompile(`[^\pL\pN]+`)

// splitWords splits on punctuation, whitespace and camelCase boundaries.
func splitWords(s string) []string {
	var words []string
	for _, chunk := range wordBoundary.Split(s, -1) {
		if chunk == "" {
			continue
		}
		r := []rune(chunk)
		start := 0
		for i := 1; i < len(r); i++ {
			if unicode.IsLower(r[i-1]) && unicode.IsUpper(r[i]) {
				words = append(words, string(r[start:i]))
				start = i
			}
		}
		words = append(words, string(r[start:]))
	}
	return words
}

func runeIndex(s, sub string, last bool) int {
	var idx int
	if last {
		idx = strings.LastIndex(s, sub)
	} else {
		idx = strings.Index(s, sub)
	}
	if idx < 0 {
		return -1
	}
	return utf8.RuneCountInString(s[:idx])
}

var patternCache sync.Map

// compilePattern compiles and caches a regular expression. A `/re/flags`
// literal is accepted; the `i` flag maps to (?i).
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	source := pattern
	if len(source) >= 2 && source[0] == '/' {
		if end := strings.LastIndexByte(source, '/'); end > 0 {
			flags := source[end+1:]
			source = source[1:end]
			if strings.Contains(flags, "i") {
				source = "(?i)" + source
			}
		}
	}
	re, err := regexp.Compile(source)
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, re)
	return re, nil
}

// CompilePattern exposes the cached regex compiler to the validators.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	return compilePattern(pattern)
}
