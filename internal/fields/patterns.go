package fields

import (
	"regexp"

	"github.com/joseph-ayodele/tax-parser/constants"
)

// Pattern is one matching rule. Source is the rule as written; the compiled form
// runs in multi-line mode so ^ and $ also match at embedded line breaks.
type Pattern struct {
	Source string
	re     *regexp.Regexp
}

// MustPattern compiles src or panics. Pattern tables are package constants.
func MustPattern(src string) Pattern {
	return Pattern{Source: src, re: regexp.MustCompile("(?m)" + src)}
}

// CompilePattern is the error-returning variant for patterns supplied at runtime.
func CompilePattern(src string) (Pattern, error) {
	re, err := regexp.Compile("(?m)" + src)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{Source: src, re: re}, nil
}

// Regexp exposes the compiled expression.
func (p Pattern) Regexp() *regexp.Regexp { return p.re }

func mustPatterns(srcs ...string) []Pattern {
	out := make([]Pattern, len(srcs))
	for i, s := range srcs {
		out[i] = MustPattern(s)
	}
	return out
}

// PatternSet is the ordered rule list for one field kind, most specific first.
type PatternSet struct {
	Kind       constants.FieldKind
	Statements []Pattern
	Values     []Pattern
}

// Value pattern families shared by several lines of the form.
var (
	// lines whose amounts are always followed by the form's trailing dot
	amountWithTerminator = []string{
		`^(?P<value>\d+([\,]\d*)*\.)$`,
		`^(?P<value>\d{2,}([\,]\d*)+\.?)$`,
		`^(?P<value>\d{3})`,
		`^(?P<value>[4-9][0-9])`,
		`^(?P<value>\d{2}\.?)`,
		`(?P<value>\d+)`,
	}
	// same, tolerating a space the recognizer inserts after the thousands separator
	amountWithSplitGroups = []string{
		`^(?P<value>\d+([\,]\d*)*\.)$`,
		`^(?P<value>\d{2,}([\,]\d*)+\.?)$`,
		`^(?P<value>\d+([\,] *\d*)+\.?)$`,
		`^(?P<value>\d{3})`,
		`^(?P<value>[4-9][0-9])`,
		`^(?P<value>\d{2}\.?)`,
		`(?P<value>\d+)`,
	}
	// refund and balance-due boxes; a dot may be misread as the separator
	balanceAmount = []string{
		`^(?P<value>\d+([\,]\d*)*\.)$`,
		`^(?P<value>\d{2,}([\,]\d*)+\.?)$`,
		`^(?P<value>\d+([\,] *\d*)+\.?)$`,
		`^(?P<value>\d+([\,\.] *\d*)+\.?)$`,
		`^(?P<value>\d{3})`,
		`^(?P<value>[4-9][0-9])`,
	}
)

var patternSets = map[constants.FieldKind]PatternSet{
	// Line 9: Add lines 1z, 2b, 3b, 4b, 5b, 6b, 7, and 8. This is your total income
	constants.TotalIncome: {
		Kind: constants.TotalIncome,
		Statements: mustPatterns(
			`^(?P<statement>(Add)[ ]*(lines)[ ]*(1z)[ \,\.]*(2b)[ \,\.]*(3b)[ \,\.]*(4b)[ \,\.]*(5b)[ \,\.]*(6b)[ \,\.]*(7)[ \,\.]*(and)[ \,\.]*(8)[ \,\.]*(This)[ ]*(is)[ ]*(your)[ ]*(total)[ ]*(income)[ ]*\.?)$`,
			`^(?P<statement>(Add)[ ]*(lines)[ ]*(\w{2}[ \,\.]*\w{2}[ \,\.]*\w{2}[ \,\.]*\w{2}[ \,\.]*\w{2}[ \,\.]*\w{2}[ \,\.]*(7)[ \,\.]*(and)[ \,\.]*(8))[ \,\.]*(This)[ ]*(is)[ ]*(your)[ ]*(total)[ ]*(income)[ ]*\.?)$`,
			`(?P<statement>(Add)[ ]*(lines)[ ]*(\w{2}[ \,\.]*\w{2}[ \,\.]*\w{2}[ \,\.]*\w{2}[ \,\.]*\w{2}[ \,\.]*\w{2}[ \,\.]*(7)[ \,\.]*(and)[ \,\.]*(8))[ \,\.]*(This)[ ]*(is)[ ]*(your)[ ]*(total)[ ]*(income)[ ]*\.?)$`,
			`(?P<statement>(Add)[ ]*(lines)[ ]*(\w{2}[ \,\.]*\w{2}[ \,\.]*\w{2}[ \,\.]*\w{2}[ \,\.]*\w{2}[ \,\.]*\w{2}[ \,\.]*(7)[ \,\.]*(and)[ \,\.]*(8))[ \,\.]*(This)[ ]*(is)[ ]*(your)[ ]*(total)[ ]*(income)[ ]*\.?)`,
		),
		Values: mustPatterns(
			`^(?P<value>\d+([\,]\d*)*\.)$`,
			`^(?P<value>\d{2,}([\,]\d*)*\.?)$`,
			`^(?P<value>\d+([\,]\d*)*\.?)$`,
		),
	},
	// Line 11
	constants.AdjustedGrossIncome: {
		Kind: constants.AdjustedGrossIncome,
		Statements: mustPatterns(
			`^(?P<statement>Subtract line 10 from line 9\. This is your adjusted gross income)$`,
			`(?P<statement>Subtract line 10 from line 9\. This is your adjusted gross income)`,
		),
		Values: mustPatterns(amountWithTerminator...),
	},
	// Line 12
	constants.Deductions: {
		Kind: constants.Deductions,
		Statements: mustPatterns(
			`^(?P<statement>Standard deduction or itemized deductions \(from Schedule A\))$`,
			`(?P<statement>Standard deduction or itemized deductions \(from Schedule A\))`,
		),
		Values: mustPatterns(amountWithTerminator...),
	},
	// Line 15
	constants.TaxableIncome: {
		Kind: constants.TaxableIncome,
		Statements: mustPatterns(
			`^(?P<statement>Subtract line 14 from line 11. If zero or less, enter -0-. This is your taxable income)$`,
			`^(?P<statement>Subtract line 14 from line 11\.[ ]*(If zero or less, enter[ ]*-0-\.)?[ ]*(This is your taxable income\.?)?)`,
		),
		Values: mustPatterns(amountWithSplitGroups...),
	},
	// Line 24
	constants.TotalTax: {
		Kind: constants.TotalTax,
		Statements: mustPatterns(
			`^(?P<statement>Add lines 22 and 23. This is your total tax)$`,
			`(?P<statement>Add lines \w{2} and \w{2}. This is your total tax)`,
		),
		Values: mustPatterns(amountWithSplitGroups...),
	},
	// Line 33
	constants.TotalPayments: {
		Kind: constants.TotalPayments,
		Statements: mustPatterns(
			`^(?P<statement>Add lines 25d, 26, and 32\. These are your total payments)$`,
			`(?P<statement>Add lines \w{2}d, \w{2}, and \w{2}\. These are your total payments)`,
		),
		Values: mustPatterns(amountWithSplitGroups...),
	},
	// Line 34
	constants.Overpaid: {
		Kind: constants.Overpaid,
		Statements: mustPatterns(
			`(?P<statement>If line 33 is more than line 24, subtract line 24 from line 33\. This is the amount you overpaid)`,
			`(?P<statement>If line 33 is more than line 24, subtract line 24 from line 33\.[ ]*(This is the amount you overpaid)?)`,
		),
		Values: mustPatterns(balanceAmount...),
	},
	// Line 37
	constants.AmountOwed: {
		Kind: constants.AmountOwed,
		Statements: mustPatterns(
			`(?P<statement>Subtract line 33 from line 24\. This is the amount you owe\.)`,
		),
		Values: mustPatterns(balanceAmount...),
	},
}

// PatternsFor returns the rule set for kind.
func PatternsFor(kind constants.FieldKind) (PatternSet, bool) {
	ps, ok := patternSets[kind]
	return ps, ok
}
