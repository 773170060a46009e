package normalize

import (
	"sort"
	"strings"

	"github.com/skillscope-dev/skillscope/evidence"
)

// techVocabulary is the fixed set of technology terms matched against
// free-text title/description fields.
var techVocabulary = []string{
	"react", "vue", "angular", "javascript", "typescript",
	"node", "express", "nest", "python", "django", "flask",
	"go", "rust", "java", "kotlin", "swift", "flutter",
	"docker", "kubernetes", "aws", "azure", "gcp",
	"mongodb", "postgresql", "mysql", "redis", "sql",
	"graphql", "rest api", "microservices",
	"machine learning", "blockchain",
	"html", "css", "sass", "tailwind",
}

// techAliases maps shorthand tags to canonical names.
var techAliases = map[string]string{
	"node":     "node.js",
	"nodejs":   "node.js",
	"js":       "javascript",
	"ts":       "typescript",
	"py":       "python",
	"golang":   "go",
	"css3":     "css",
	"html5":    "html",
	"reactjs":  "react",
	"vuejs":    "vue",
	"k8s":      "kubernetes",
	"postgres": "postgresql",
}

// Canonical lower-cases a technology tag and resolves known aliases.
func Canonical(tech string) string {
	t := strings.ToLower(strings.TrimSpace(tech))
	if canon, ok := techAliases[t]; ok {
		return canon
	}
	return t
}

// ExtractTech builds a technology tag set for a record: the union of
// explicit tag-like metadata fields and vocabulary matches against
// free-text fields, canonicalized and deduplicated.
func ExtractTech(meta map[string]any) []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(tech string) {
		c := Canonical(tech)
		if c == "" || seen[c] {
			return
		}
		seen[c] = true
		tags = append(tags, c)
	}

	for _, key := range []string{"language", "programming_language"} {
		if s := evidence.MetaString(meta, key); s != "" {
			add(s)
		}
	}
	for _, key := range []string{"topics", "tags", "technologies", "languages", "skills"} {
		for _, s := range evidence.MetaStrings(meta, key) {
			add(s)
		}
	}

	var text strings.Builder
	for _, key := range []string{"title", "description", "body"} {
		text.WriteString(strings.ToLower(evidence.MetaString(meta, key)))
		text.WriteByte(' ')
	}
	if content := text.String(); strings.TrimSpace(content) != "" {
		for _, term := range techVocabulary {
			if containsTerm(content, term) {
				add(term)
			}
		}
	}

	sort.Strings(tags)
	return tags
}

// containsTerm matches a vocabulary term on word boundaries so that
// "go" does not fire inside "django" or "mongodb".
func containsTerm(content, term string) bool {
	for start := 0; ; {
		idx := strings.Index(content[start:], term)
		if idx < 0 {
			return false
		}
		idx += start
		before := idx == 0 || isBoundary(content[idx-1])
		end := idx + len(term)
		after := end == len(content) || isBoundary(content[end])
		if before && after {
			return true
		}
		start = idx + 1
	}
}

func isBoundary(b byte) bool {
	return !(b >= 'a' && b <= 'z') && !(b >= '0' && b <= '9')
}
