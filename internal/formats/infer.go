package formats

import (
	"errors"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

// InferFormatFromExtension maps a file extension to its format; ok is false when unknown.
func InferFormatFromExtension(path string) (FormatType, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "strings":
		return StringsOf(""), true
	case "xml":
		return AndroidStringsOf(""), true
	case "xcstrings":
		return XcstringsFormat(), true
	case "csv":
		return CSVFormat(), true
	case "tsv":
		return TSVFormat(), true
	}
	return FormatType{}, false
}

// InferFormatFromPath combines extension detection with path-based language inference.
func InferFormatFromPath(path string) (FormatType, bool) {
	ft, ok := InferFormatFromExtension(path)
	if !ok {
		return FormatType{}, false
	}
	if ft.IsMultiLanguage() {
		return ft, true
	}
	lang, err := InferLanguageFromPath(path, ft)
	if err != nil {
		return ft, true
	}
	return ft.WithLanguage(lang), true
}

// InferLanguageFromPath walks path components from the file name upward and returns the
// first valid language implied by Apple or Android directory conventions, or "".
func InferLanguageFromPath(path string, ft FormatType) (string, error) {
	if ft.IsMultiLanguage() {
		return "", nil
	}
	comps := splitComponents(path)
	for i := len(comps) - 1; i >= 0; i-- {
		comp := comps[i]
		switch ft.Kind {
		case Strings:
			if dir, ok := strings.CutSuffix(comp, ".lproj"); ok {
				if lang, ok := NormalizeLanguage(dir); ok {
					return lang, nil
				}
			}
			if stem, ok := strings.CutSuffix(comp, ".strings"); ok && looksLikeLanguage(stem) {
				if lang, ok := NormalizeLanguage(stem); ok {
					return lang, nil
				}
			}
		case AndroidStrings:
			if comp == "values" {
				return "en", nil
			}
			if lang, ok := androidValuesLanguage(comp); ok {
				return lang, nil
			}
		}
	}
	return "", nil
}

// NormalizeLanguage replaces '_' with '-' and accepts the candidate only if it is a
// well-formed BCP-47 tag.
func NormalizeLanguage(candidate string) (string, bool) {
	canonical := strings.ReplaceAll(strings.TrimSpace(candidate), "_", "-")
	primary, _, _ := strings.Cut(canonical, "-")
	if primary == "" || strings.IndexFunc(primary, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < 'A' || r > 'Z')
	}) >= 0 {
		return "", false
	}
	if _, err := language.Parse(canonical); err != nil {
		var ve language.ValueError
		if !errors.As(err, &ve) {
			return "", false
		}
	}
	return canonical, true
}

func looksLikeLanguage(stem string) bool {
	if strings.Contains(stem, "-") {
		return true
	}
	if len(stem) != 2 {
		return false
	}
	for _, r := range stem {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// androidValuesLanguage decodes values-es, values-zh-rCN and values-b+zh+Hans+CN qualifiers.
func androidValuesLanguage(comp string) (string, bool) {
	rest, ok := strings.CutPrefix(comp, "values-")
	if !ok || rest == "" {
		return "", false
	}
	if bcp, ok := strings.CutPrefix(rest, "b+"); ok {
		parts := strings.Split(bcp, "+")
		return NormalizeLanguage(strings.Join(parts, "-"))
	}
	var lang, region string
	for _, tok := range strings.Split(rest, "-") {
		if tok == "" {
			continue
		}
		if lang == "" {
			lang = tok
			continue
		}
		if r, ok := strings.CutPrefix(tok, "r"); ok && isRegion(r) && region == "" {
			region = r
		}
	}
	if lang == "" {
		return "", false
	}
	if region != "" {
		lang += "-" + region
	}
	return NormalizeLanguage(lang)
}

func isRegion(s string) bool {
	switch len(s) {
	case 2:
		for _, r := range s {
			if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
				return false
			}
		}
		return true
	case 3:
		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	}
	return false
}

func splitComponents(path string) []string {
	clean := filepath.ToSlash(filepath.Clean(path))
	var out []string
	for _, c := range strings.Split(clean, "/") {
		if c != "" && c != "." {
			out = append(out, c)
		}
	}
	return out
}
