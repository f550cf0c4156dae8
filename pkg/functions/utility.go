package functions

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

type currencyStyle struct {
	symbol   string
	decimals int
	lang     language.Tag
}

var currencies = map[string]currencyStyle{
	"USD": {"$", 2, language.English},
	"EUR": {"€", 2, language.German},
	"GBP": {"£", 2, language.English},
	"JPY": {"¥", 0, language.English},
	"CNY": {"¥", 2, language.English},
	"INR": {"₹", 2, language.English},
	"NGN": {"₦", 2, language.English},
	"KES": {"KSh", 2, language.English},
	"GHS": {"GH₵", 2, language.English},
	"ZAR": {"R", 2, language.English},
	"CAD": {"CA$", 2, language.English},
	"AUD": {"A$", 2, language.English},
	"CHF": {"CHF ", 2, language.English},
}

// FormatCurrency renders amount with the currency's symbol and grouping.
// Unknown codes are used as a prefix with English grouping.
func FormatCurrency(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "USD"
	}
	style, ok := currencies[code]
	if !ok {
		style = currencyStyle{symbol: code + " ", decimals: 2, lang: language.English}
	}
	rounded := Round(amount, style.decimals)
	sign := ""
	if rounded < 0 {
		sign = "-"
	}
	printer := message.NewPrinter(style.lang)
	return sign + style.symbol + printer.Sprint(number.Decimal(math.Abs(rounded), number.Scale(style.decimals)))
}

// FormatGrouped renders x with English thousands grouping and a fixed number
// of decimals.
func FormatGrouped(x float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	printer := message.NewPrinter(language.English)
	return printer.Sprint(number.Decimal(Round(x, decimals), number.Scale(decimals)))
}

var placeholderPattern = regexp.MustCompile(`\{\{?\s*([\w.\-]+)\s*\}?\}`)

const randomAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func userAccessor(name, desc string, get func(User) string) Definition {
	return fn(name, CategoryUtility, 0, 0, name+"()", desc,
		unary(func(a *Args) any { return get(a.Env.user()) }))
}

func utilityFunctions() []Definition {
	return []Definition{
		fn("COALESCE", CategoryUtility, 1, Variadic, "COALESCE(a, b, ...)", "First non-empty value",
			unary(func(a *Args) any {
				for i := 0; i < a.Len(); i++ {
					if v := a.Value(i); !isEmptyStrict(v) {
						return v
					}
				}
				return nil
			})),
		fn("DEFAULT", CategoryUtility, 2, 2, "DEFAULT(field, value)", "The value, or a fallback when empty",
			unary(func(a *Args) any {
				if v := a.Value(0); !isEmptyStrict(v) {
					return v
				}
				return a.Value(1)
			})),
		fn("TRY", CategoryUtility, 2, 2, "TRY(expression, fallback)", "Fallback when the expression fails",
			unary(func(a *Args) any {
				if v, err := a.Try(0); err == nil {
					return v
				}
				return a.Value(1)
			})),
		fn("FORMAT_CURRENCY", CategoryUtility, 1, 2, "FORMAT_CURRENCY(field, currency)", "Format an amount as money",
			unary(func(a *Args) any { return FormatCurrency(a.Number(0), a.StringOr(1, "USD")) })),
		fn("FORMAT_NUMBER", CategoryUtility, 1, 2, "FORMAT_NUMBER(field, decimals)", "Group thousands with fixed decimals",
			unary(func(a *Args) any { return FormatGrouped(a.Number(0), a.IntOr(1, 2)) })),
		fn("FORMAT_PERCENT", CategoryUtility, 1, 2, "FORMAT_PERCENT(field)", "Format a ratio as a percentage",
			unary(func(a *Args) any { return FormatNumber(Round(a.Number(0)*100, a.IntOr(1, 2))) + "%" })),
		userAccessor("CURRENT_USER", "Current user's display name", func(u User) string { return u.Name }),
		userAccessor("CURRENT_USER_NAME", "Current user's display name", func(u User) string { return u.Name }),
		userAccessor("CURRENT_USER_EMAIL", "Current user's e-mail", func(u User) string { return u.Email }),
		userAccessor("CURRENT_USER_ID", "Current user's id", func(u User) string { return u.ID }),
		userAccessor("CURRENT_USER_DEPT", "Current user's department", func(u User) string { return u.Department }),
		userAccessor("CURRENT_USER_ROLE", "Current user's role", func(u User) string { return u.Role }),
		userAccessor("CURRENT_USER_SBU", "Current user's strategic business unit", func(u User) string { return u.SBU }),
		userAccessor("CURRENT_USER_BRANCH", "Current user's branch", func(u User) string { return u.Branch }),
		userAccessor("CURRENT_USER_CORP", "Current user's corporate unit", func(u User) string { return u.Corporate }),
		fn("UUID", CategoryUtility, 0, 0, "UUID()", "Random UUID",
			unary(func(a *Args) any { return a.Env.newID() })),
		fn("SEQUENCE", CategoryUtility, 0, 1, "SEQUENCE(prefix)", "Next number for a prefix, zero padded",
			unary(func(a *Args) any { return a.Env.sequence(a.StringOr(0, "")) })),
		fn("TO_NUMBER", CategoryUtility, 1, 1, "TO_NUMBER(field)", "Convert to a number",
			unary(func(a *Args) any { return a.Number(0) })),
		fn("TO_INTEGER", CategoryUtility, 1, 1, "TO_INTEGER(field)", "Convert to a whole number",
			unary(func(a *Args) any { return math.Trunc(a.Number(0)) })),
		fn("TO_TEXT", CategoryUtility, 1, 1, "TO_TEXT(field)", "Convert to text",
			unary(func(a *Args) any { return a.String(0) })),
		fn("TO_BOOLEAN", CategoryUtility, 1, 1, "TO_BOOLEAN(field)", "Convert to true or false",
			unary(func(a *Args) any { return a.Bool(0) })),
		fn("FIELD_VALUE", CategoryUtility, 1, 1, "FIELD_VALUE(fieldName)", "Value of a field by name",
			unary(func(a *Args) any {
				v, _ := a.Env.value(a.String(0))
				return v
			})),
		fn("LOOKUP", CategoryUtility, 2, 2, "LOOKUP(field, source)", "Find a record in reference data",
			unary(func(a *Args) any {
				if a.Env.Lookup == nil {
					return nil
				}
				v, _ := a.Env.Lookup.Lookup(a.String(1), a.String(0))
				return v
			})),
		fn("TYPE_OF", CategoryUtility, 1, 1, "TYPE_OF(field)", "Kind of value",
			unary(func(a *Args) any { return TypeOf(a.Value(0)) })),
		fn("HASH", CategoryUtility, 1, 1, "HASH(field)", "SHA-256 digest as hex",
			unary(func(a *Args) any {
				sum := sha256.Sum256([]byte(a.String(0)))
				return hex.EncodeToString(sum[:])
			})),
		fn("SHA256", CategoryUtility, 1, 1, "SHA256(field)", "SHA-256 digest as hex",
			unary(func(a *Args) any {
				sum := sha256.Sum256([]byte(a.String(0)))
				return hex.EncodeToString(sum[:])
			})),
		fn("MD5", CategoryUtility, 1, 1, "MD5(field)", "MD5 digest as hex",
			unary(func(a *Args) any {
				sum := md5.Sum([]byte(a.String(0)))
				return hex.EncodeToString(sum[:])
			})),
		fn("ENCODE_BASE64", CategoryUtility, 1, 1, "ENCODE_BASE64(field)", "Base64 encode text",
			unary(func(a *Args) any { return base64.StdEncoding.EncodeToString([]byte(a.String(0))) })),
		fn("DECODE_BASE64", CategoryUtility, 1, 1, "DECODE_BASE64(field)", "Base64 decode text, empty when invalid",
			unary(func(a *Args) any {
				raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(a.String(0)))
				if err != nil {
					return ""
				}
				return string(raw)
			})),
		fn("ENCODE_URL", CategoryUtility, 1, 1, "ENCODE_URL(field)", "Percent-encode a URL component",
			unary(func(a *Args) any { return strings.ReplaceAll(url.QueryEscape(a.String(0)), "+", "%20") })),
		fn("DECODE_URL", CategoryUtility, 1, 1, "DECODE_URL(field)", "Decode a percent-encoded component",
			unary(func(a *Args) any {
				s, err := url.PathUnescape(a.String(0))
				if err != nil {
					return a.String(0)
				}
				return s
			})),
		fn("RANDOM", CategoryUtility, 0, 0, "RANDOM()", "Random number in [0, 1)",
			unary(func(a *Args) any { return a.Env.float64() })),
		fn("RANDOM_INT", CategoryUtility, 2, 2, "RANDOM_INT(min, max)", "Random integer, bounds inclusive",
			unary(func(a *Args) any {
				lo, hi := a.Int(0), a.Int(1)
				if hi < lo {
					lo, hi = hi, lo
				}
				return float64(lo + a.Env.intn(hi-lo+1))
			})),
		fn("RANDOM_STRING", CategoryUtility, 0, 1, "RANDOM_STRING(length)", "Random alphanumeric text",
			unary(func(a *Args) any {
				n := a.IntOr(0, 8)
				var b strings.Builder
				for i := 0; i < n; i++ {
					b.WriteByte(randomAlphabet[a.Env.intn(len(randomAlphabet))])
				}
				return b.String()
			})),
		fn("TEMPLATE", CategoryUtility, 1, 2, "TEMPLATE(str, vars)", "Replace {name} placeholders",
			unary(func(a *Args) any {
				vars := ToMap(a.Value(1))
				return placeholderPattern.ReplaceAllStringFunc(a.String(0), func(m string) string {
					key := placeholderPattern.FindStringSubmatch(m)[1]
					if v, ok := lookupPath(vars, key); ok {
						return ToString(v)
					}
					if v, ok := a.Env.value(key); ok {
						return ToString(v)
					}
					return m
				})
			})),
		fn("JSON_PARSE", CategoryUtility, 1, 1, "JSON_PARSE(text)", "Decode JSON text",
			func(a *Args) (any, error) {
				v := a.Value(0)
				s, ok := v.(string)
				if !ok {
					return v, nil
				}
				var decoded any
				if err := json.Unmarshal([]byte(s), &decoded); err != nil {
					return nil, nil
				}
				return normalizeJSON(decoded), nil
			}),
		fn("JSON_STRINGIFY", CategoryUtility, 1, 1, "JSON_STRINGIFY(value)", "Encode a value as JSON",
			unary(func(a *Args) any {
				payload, err := json.Marshal(jsonSafe(a.Value(0)))
				if err != nil {
					return ""
				}
				return string(payload)
			})),
		fn("JSON_GET", CategoryUtility, 2, 2, "JSON_GET(field, path)", "Read a nested value by dotted path",
			unary(func(a *Args) any {
				v, _ := lookupPath(jsonRoot(a.Value(0)), a.String(1))
				return v
			})),
		fn("JSON_HAS", CategoryUtility, 2, 2, "JSON_HAS(field, path)", "Whether a nested path exists",
			unary(func(a *Args) any {
				_, ok := lookupPath(jsonRoot(a.Value(0)), a.String(1))
				return ok
			})),
		fn("JSON_SET", CategoryUtility, 3, 3, "JSON_SET(field, path, value)", "Copy with a nested value set",
			unary(func(a *Args) any {
				root, _ := deepCopy(jsonRoot(a.Value(0))).(map[string]any)
				if root == nil {
					root = map[string]any{}
				}
				setPath(root, a.String(1), a.Value(2))
				return root
			})),
		fn("JSON_KEYS", CategoryUtility, 1, 1, "JSON_KEYS(field)", "Sorted object keys",
			unary(func(a *Args) any {
				obj := ToMap(a.Value(0))
				keys := make([]string, 0, len(obj))
				for k := range obj {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				out := make([]any, len(keys))
				for i, k := range keys {
					out[i] = k
				}
				return out
			})),
	}
}

func jsonRoot(v any) any {
	if m := ToMap(v); m != nil {
		return m
	}
	if s, ok := v.(string); ok && strings.HasPrefix(strings.TrimSpace(s), "[") {
		return ToList(s)
	}
	return v
}

func splitPath(path string) []string {
	path = strings.NewReplacer("[", ".", "]", "").Replace(strings.TrimSpace(path))
	var parts []string
	for _, p := range strings.Split(path, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func lookupPath(root any, path string) (any, bool) {
	current := root
	for _, part := range splitPath(path) {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			if !IsNumeric(part) {
				return nil, false
			}
			i := ToInt(part)
			if i < 0 || i >= len(node) {
				return nil, false
			}
			current = node[i]
		default:
			return nil, false
		}
	}
	return current, true
}

func setPath(root map[string]any, path string, value any) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return
	}
	node := root
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[part] = next
		}
		node = next
	}
	node[parts[len(parts)-1]] = value
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}
