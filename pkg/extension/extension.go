package extension

import (
  "strings"

  set "github.com/deckarep/golang-set/v2"
)

var extScreenshot = set.NewSet("jpg", "jpeg", "png")

func Ext(filename string) string {
  parts := strings.Split(filename, ".")

  if len(parts) < 2 {
    return ""
  }
  return strings.ToLower(parts[len(parts)-1])
}

func IsScreenshot(filename string) bool {
  ext := Ext(filename)
  if ext == "" {
    return false
  }
  return extScreenshot.ContainsOne(ext)
}
