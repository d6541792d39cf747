package types

import (
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// TitlePattern is a glob matched against release titles.
// '*' matches any run of characters (including '/'), '?' matches exactly one
// character and everything else is literal. Matching is case-insensitive and
// covers the whole title.
type TitlePattern string

// Match reports whether title matches the glob
func (p TitlePattern) Match(title string) bool {
	return p.compile().MatchString(title)
}

func (p TitlePattern) String() string { return string(p) }

func (p TitlePattern) compile() *regexp.Regexp {
	var sb strings.Builder
	sb.WriteString(`(?is)^`)
	for _, r := range string(p) {
		switch r {
		case '*':
			sb.WriteString(`.*`)
		case '?':
			sb.WriteString(`.`)
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString(`$`)

	// Every non-wildcard rune is quoted, so the expression always compiles.
	return regexp.MustCompile(sb.String())
}

// AssetPattern is a regular expression matched against asset file names.
// It is deliberately a different type from TitlePattern: upstream asset
// names are selected by regex, release titles by glob.
type AssetPattern struct {
	raw string
	re  *regexp.Regexp
}

// ParseAssetPattern compiles expr as a regular expression. Special
// characters keep their regex meaning; nothing is escaped.
func ParseAssetPattern(expr string) (AssetPattern, error) {
	if expr == "" {
		return AssetPattern{}, goerr.Wrap(ErrInvalidArgument, "asset pattern is empty")
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return AssetPattern{}, goerr.Wrap(ErrInvalidArgument, "invalid asset pattern",
			goerr.V("pattern", expr),
			goerr.V("reason", err.Error()),
		)
	}

	return AssetPattern{raw: expr, re: re}, nil
}

// MustAssetPattern is like ParseAssetPattern but panics on error. For constants and tests.
func MustAssetPattern(expr string) AssetPattern {
	p, err := ParseAssetPattern(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether name matches. A zero AssetPattern matches nothing.
func (p AssetPattern) Match(name string) bool {
	if p.re == nil {
		return false
	}
	return p.re.MatchString(name)
}

// IsZero reports whether the pattern was never compiled
func (p AssetPattern) IsZero() bool { return p.re == nil }

func (p AssetPattern) String() string { return p.raw }
