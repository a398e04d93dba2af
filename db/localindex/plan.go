package localindex

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/meghashyamc/incsearch/db/indexdb"
)

var (
	selectPattern     = regexp.MustCompile(`(?is)^\s*SELECT\s+(.+?)\s+FROM\s+"?(\w+)"?`)
	scopePattern      = regexp.MustCompile(`(?i)SCOPE\s*=\s*'([^']*)'`)
	reuseWherePattern = regexp.MustCompile(`(?i)ReuseWhere\(\s*(\d+)\s*\)`)
	containsPattern   = regexp.MustCompile(`(?i)CONTAINS\(\s*([\w.]+)\s*,\s*'"([^"']*)"'\s*\)`)
	orderByPattern    = regexp.MustCompile(`(?i)ORDER\s+BY\s+([\w.]+)(?:\s+(ASC|DESC))?`)
)

// contentFields maps content properties to index fields.
var contentFields = map[string]string{
	indexdb.KeyFileName:        indexFieldName,
	indexdb.KeyItemNameDisplay: indexFieldName,
	indexdb.KeyPath:            indexFieldPath,
	indexdb.KeyItemURL:         indexFieldURL,
}

var sortFields = map[string]string{
	indexdb.KeyDateModified: indexFieldModTime,
}

type term struct {
	field  string
	text   string
	prefix bool
}

type plan struct {
	columns    []string
	catalog    string
	scope      string
	reuseWhere uint32
	terms      []term
	sortBy     []string
}

func parsePlan(text string) (*plan, error) {
	selectMatch := selectPattern.FindStringSubmatch(text)
	if selectMatch == nil {
		return nil, &indexdb.SyntaxError{Text: text, Reason: "expected SELECT <columns> FROM <catalog>"}
	}

	p := &plan{catalog: selectMatch[2]}
	for _, column := range strings.Split(selectMatch[1], ",") {
		if column = strings.TrimSpace(column); column != "" {
			p.columns = append(p.columns, column)
		}
	}

	if scopeMatch := scopePattern.FindStringSubmatch(text); scopeMatch != nil {
		p.scope = scopeMatch[1]
	}

	if reuseMatch := reuseWherePattern.FindStringSubmatch(text); reuseMatch != nil {
		id, err := strconv.ParseUint(reuseMatch[1], 10, 32)
		if err != nil {
			return nil, &indexdb.SyntaxError{Text: text, Reason: "ReuseWhere id out of range"}
		}
		p.reuseWhere = uint32(id)
	}

	for _, containsMatch := range containsPattern.FindAllStringSubmatch(text, -1) {
		field, ok := contentFields[containsMatch[1]]
		if !ok {
			return nil, &indexdb.SyntaxError{Text: text, Reason: "unsupported content property " + containsMatch[1]}
		}
		value := strings.ToLower(strings.TrimSpace(containsMatch[2]))
		prefix := strings.HasSuffix(value, "*")
		value = strings.TrimSuffix(value, "*")
		if value == "" {
			continue
		}
		p.terms = append(p.terms, term{field: field, text: value, prefix: prefix})
	}

	if orderMatch := orderByPattern.FindStringSubmatch(text); orderMatch != nil {
		if field, ok := sortFields[orderMatch[1]]; ok {
			if strings.EqualFold(orderMatch[2], "DESC") {
				field = "-" + field
			}
			p.sortBy = []string{field}
		}
	}

	return p, nil
}
