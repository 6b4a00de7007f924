package stringer

import (
  "html"
  "regexp"
  "strings"

  "github.com/microcosm-cc/bluemonday"
  "golang.org/x/text/cases"
  "golang.org/x/text/language"
)

var (
  policy         = bluemonday.StrictPolicy()
  RegexRepeatSep = regexp.MustCompile(`\s{2,}`)
)

func Strip(s string) string {
  return strings.TrimSpace(s)
}

func IsEmptyStr(s string) bool {
  return Strip(s) == ""
}

func StripTags(s string) string {
  return strings.TrimSpace(policy.Sanitize(s))
}

// SanitizeString normalizes free text received from a chat user:
// collapses repeated whitespace, unescapes HTML entities, trims.
func SanitizeString(s string) string {
  s = RegexRepeatSep.ReplaceAllLiteralString(s, " ")
  s = html.UnescapeString(s)
  s = strings.TrimSpace(s)
  return s
}

func ToTitle(s string, lang ...language.Tag) string {
  lTag := language.Und
  for _, l := range lang {
    lTag = l
    break
  }
  return cases.Title(lTag, cases.NoLower).String(s)
}
