package functions

func validationFunctions() []Definition {
	return []Definition{
		fn("ValidWhen", CategoryValidation, 1, 2, "ValidWhen(condition, errorMessage)", "Valid while the condition holds",
			unary(func(a *Args) any { return a.Bool(0) })),
		fn("InvalidWhen", CategoryValidation, 1, 2, "InvalidWhen(condition, errorMessage)", "Invalid while the condition holds",
			unary(func(a *Args) any { return !a.Bool(0) })),
		fn("CheckValid", CategoryValidation, 1, 1, "CheckValid(fieldRef)", "Whether another field currently passes validation",
			unary(func(a *Args) any {
				if a.Env.FieldValid == nil {
					return true
				}
				return a.Env.FieldValid(a.FieldName(0))
			})),
		fn("VisibleWhen", CategoryValidation, 1, 2, "VisibleWhen(condition)", "Visible while the condition holds",
			unary(func(a *Args) any { return a.Bool(0) })),
		fn("HiddenWhen", CategoryValidation, 1, 2, "HiddenWhen(condition)", "Hidden while the condition holds",
			unary(func(a *Args) any { return !a.Bool(0) })),
		fn("MandatoryWhen", CategoryValidation, 1, 2, "MandatoryWhen(condition)", "Required while the condition holds",
			unary(func(a *Args) any { return a.Bool(0) })),
		fn("ReadOnlyWhen", CategoryValidation, 1, 1, "ReadOnlyWhen(condition)", "Read-only while the condition holds",
			unary(func(a *Args) any { return a.Bool(0) })),
		fn("RegexWhen", CategoryValidation, 1, 2, "RegexWhen(pattern, errorMessage)", "Current value matches the pattern",
			unary(func(a *Args) any {
				value, _ := a.Env.value(a.Env.Field)
				text := ToString(value)
				if text == "" {
					return true
				}
				re, err := compilePattern(a.String(0))
				if err != nil {
					return true
				}
				return re.MatchString(text)
			})),
	}
}
