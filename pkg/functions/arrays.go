package functions

func listArg(f func(items []any, a *Args) any) Handler {
	return func(a *Args) (any, error) { return f(a.List(0), a), nil }
}

func arrayFunctions() []Definition {
	return []Definition{
		fn("ARRAY", CategoryArray, 0, Variadic, "ARRAY(a, b, ...)", "Build a list",
			unary(func(a *Args) any { return a.Values() })),
		fn("ARRAY_LENGTH", CategoryArray, 1, 1, "ARRAY_LENGTH(field)", "Number of items",
			listArg(func(items []any, _ *Args) any { return float64(len(items)) })),
		fn("ARRAY_FIRST", CategoryArray, 1, 1, "ARRAY_FIRST(field)", "First item",
			listArg(func(items []any, _ *Args) any {
				if len(items) == 0 {
					return nil
				}
				return items[0]
			})),
		fn("ARRAY_LAST", CategoryArray, 1, 1, "ARRAY_LAST(field)", "Last item",
			listArg(func(items []any, _ *Args) any {
				if len(items) == 0 {
					return nil
				}
				return items[len(items)-1]
			})),
		fn("ARRAY_GET", CategoryArray, 2, 2, "ARRAY_GET(field, index)", "Item at a 0-based index",
			listArg(func(items []any, a *Args) any {
				i := a.Int(1)
				if i < 0 {
					i += len(items)
				}
				if i < 0 || i >= len(items) {
					return nil
				}
				return items[i]
			})),
		fn("ARRAY_CONTAINS", CategoryArray, 2, 2, "ARRAY_CONTAINS(field, value)", "Whether an item equals the value",
			listArg(func(items []any, a *Args) any { return indexOf(items, a.Value(1)) >= 0 })),
		fn("ARRAY_INDEX_OF", CategoryArray, 2, 2, "ARRAY_INDEX_OF(field, value)", "0-based index of the value, -1 when absent",
			listArg(func(items []any, a *Args) any { return float64(indexOf(items, a.Value(1))) })),
		fn("ARRAY_UNIQUE", CategoryArray, 1, 1, "ARRAY_UNIQUE(field)", "Drop repeated items, keeping first occurrences",
			listArg(func(items []any, _ *Args) any {
				out := make([]any, 0, len(items))
				for _, item := range items {
					if indexOf(out, item) < 0 {
						out = append(out, item)
					}
				}
				return out
			})),
		fn("ARRAY_SORT", CategoryArray, 1, 2, "ARRAY_SORT(field)", "Sort ascending, or descending with \"desc\"",
			listArg(func(items []any, a *Args) any {
				out := sortValues(items)
				if a.StringOr(1, "asc") == "desc" {
					reverse(out)
				}
				return out
			})),
		fn("ARRAY_REVERSE", CategoryArray, 1, 1, "ARRAY_REVERSE(field)", "Reverse the items",
			listArg(func(items []any, _ *Args) any {
				out := append([]any(nil), items...)
				reverse(out)
				return out
			})),
		fn("ARRAY_SLICE", CategoryArray, 2, 3, "ARRAY_SLICE(field, start, end)", "Items from start up to end",
			listArg(func(items []any, a *Args) any {
				start := clampIndex(a.Int(1), len(items))
				end := len(items)
				if a.Has(2) {
					end = clampIndex(a.Int(2), len(items))
				}
				if end < start {
					return []any{}
				}
				return append([]any(nil), items[start:end]...)
			})),
		fn("ARRAY_JOIN", CategoryArray, 1, 2, "ARRAY_JOIN(field, separator)", "Join items into text", joinList),
		fn("ARRAY_PUSH", CategoryArray, 2, Variadic, "ARRAY_PUSH(field, value, ...)", "Copy with values appended",
			listArg(func(items []any, a *Args) any {
				out := append([]any(nil), items...)
				for i := 1; i < a.Len(); i++ {
					out = append(out, a.Value(i))
				}
				return out
			})),
		fn("ARRAY_REMOVE", CategoryArray, 2, 2, "ARRAY_REMOVE(field, value)", "Copy without items equal to the value",
			listArg(func(items []any, a *Args) any {
				target := a.Value(1)
				out := make([]any, 0, len(items))
				for _, item := range items {
					if !Equal(item, target) {
						out = append(out, item)
					}
				}
				return out
			})),
		fn("ARRAY_COMPACT", CategoryArray, 1, 1, "ARRAY_COMPACT(field)", "Drop empty items",
			listArg(func(items []any, _ *Args) any {
				out := make([]any, 0, len(items))
				for _, item := range items {
					if !IsEmpty(item) {
						out = append(out, item)
					}
				}
				return out
			})),
		fn("ARRAY_FLATTEN", CategoryArray, 1, 1, "ARRAY_FLATTEN(field)", "Flatten nested lists one level",
			listArg(func(items []any, _ *Args) any {
				out := make([]any, 0, len(items))
				for _, item := range items {
					if nested, ok := item.([]any); ok {
						out = append(out, nested...)
						continue
					}
					out = append(out, item)
				}
				return out
			})),
		fn("ARRAY_SUM", CategoryArray, 1, 1, "ARRAY_SUM(field)", "Sum of the items",
			listArg(func(items []any, _ *Args) any { return sum(numbers(items)) })),
		fn("ARRAY_MIN", CategoryArray, 1, 1, "ARRAY_MIN(field)", "Smallest item",
			listArg(func(items []any, _ *Args) any { return extreme(numbers(items), -1) })),
		fn("ARRAY_MAX", CategoryArray, 1, 1, "ARRAY_MAX(field)", "Largest item",
			listArg(func(items []any, _ *Args) any { return extreme(numbers(items), 1) })),
		fn("ARRAY_AVERAGE", CategoryArray, 1, 1, "ARRAY_AVERAGE(field)", "Mean of the items",
			listArg(func(items []any, _ *Args) any { return mean(numbers(items)) })),
	}
}

func numbers(items []any) []float64 {
	out := make([]float64, len(items))
	for i, item := range items {
		out[i] = ToNumber(item)
	}
	return out
}

func indexOf(items []any, target any) int {
	for i, item := range items {
		if Equal(item, target) {
			return i
		}
	}
	return -1
}

func reverse(items []any) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
