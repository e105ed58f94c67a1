package host

import "regexp"

// transformESM rewrites a restricted but common subset of ES module
// syntax into a CommonJS-shaped body that can run as a plain script:
// rogchap.com/v8go, like every binding exercised in the retrieval pack,
// compiles and runs scripts and unbound scripts (CompileUnboundScript /
// RunScript) but has no native ES module graph support, so there is no
// CompileModule/ResolveModuleCallback to delegate to. The transform is
// a regex pass in the same spirit as the bootstrap's regex URL parser:
// an accepted imprecision for SSR bundles, not a general-purpose
// parser. Every import, static or dynamic, still becomes a call to the
// injected __require, which is the only path through the Resolver and
// Loader — the containment and negative-caching guarantees hold
// regardless of how the syntax is rewritten.
var (
	reImportDefault  = regexp.MustCompile(`import\s+([A-Za-z_$][\w$]*)\s+from\s+(['"][^'"]+['"])\s*;?`)
	reImportNamed    = regexp.MustCompile(`import\s*\{([^}]*)\}\s*from\s+(['"][^'"]+['"])\s*;?`)
	reImportStar     = regexp.MustCompile(`import\s*\*\s*as\s+([A-Za-z_$][\w$]*)\s+from\s+(['"][^'"]+['"])\s*;?`)
	reImportBareSide = regexp.MustCompile(`import\s+(['"][^'"]+['"])\s*;?`)
	reDynamicImport  = regexp.MustCompile(`\bimport\s*\(`)
	reExportDefault  = regexp.MustCompile(`export\s+default\s+`)
	reExportDecl     = regexp.MustCompile(`export\s+(function|class)\s+([A-Za-z_$][\w$]*)`)
	reExportBinding  = regexp.MustCompile(`export\s+(const|let|var)\s+([A-Za-z_$][\w$]*)`)
	reExportList     = regexp.MustCompile(`export\s*\{([^}]*)\}\s*;?`)
)

// transformESM returns a CommonJS body. exportNames collects every
// identifier the source exports by declaration, so the caller can
// append `module.exports.<name> = <name>;` statements after the body.
func transformESM(src string) (body string, exportNames []string) {
	body = src

	body = reImportDefault.ReplaceAllString(body, "const $1 = __require($2).default;")
	body = reImportStar.ReplaceAllString(body, "const $1 = __require($2);")
	body = reImportNamed.ReplaceAllStringFunc(body, func(m string) string {
		sub := reImportNamed.FindStringSubmatch(m)
		return "const {" + sub[1] + "} = __require(" + sub[2] + ");"
	})
	body = reImportBareSide.ReplaceAllString(body, "__require($1);")
	body = reDynamicImport.ReplaceAllString(body, "__dynImport(")

	body = reExportDefault.ReplaceAllString(body, "module.exports.default = ")

	for _, m := range reExportDecl.FindAllStringSubmatch(body, -1) {
		exportNames = append(exportNames, m[2])
	}
	body = reExportDecl.ReplaceAllString(body, "$1 $2")

	for _, m := range reExportBinding.FindAllStringSubmatch(body, -1) {
		exportNames = append(exportNames, m[2])
	}
	body = reExportBinding.ReplaceAllString(body, "$1 $2")

	for _, m := range reExportList.FindAllStringSubmatch(body, -1) {
		for _, name := range splitCommaList(m[1]) {
			exportNames = append(exportNames, name)
		}
	}
	body = reExportList.ReplaceAllString(body, "")

	return body, exportNames
}

func splitCommaList(list string) []string {
	var names []string
	cur := ""
	for _, r := range list {
		switch r {
		case ',':
			if n := trimIdent(cur); n != "" {
				names = append(names, n)
			}
			cur = ""
		default:
			cur += string(r)
		}
	}
	if n := trimIdent(cur); n != "" {
		names = append(names, n)
	}
	return names
}

// trimIdent strips whitespace and an "as alias" suffix, keeping the
// local binding name.
func trimIdent(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	s = s[start:end]
	if idx := indexOf(s, " as "); idx >= 0 {
		s = s[:idx]
	}
	return s
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
