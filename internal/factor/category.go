// Package factor holds the seven factor categories, the name-to-ID resolver
// and the reference-data seed loader.
package factor

// Category describes one factor category and every name it goes by: its
// reference table, the project column holding its IDs, and the keys used in
// JSON responses, filter query parameters and create payloads.
//
// Table and Column are interpolated into SQL; they only ever come from All.
type Category struct {
	Key         string
	Table       string
	Column      string
	Field       string
	Param       string
	OptionKey   string
	CreateField string
}

// Category keys.
const (
	Issue         = "issue"
	Idea          = "idea"
	Ecology       = "ecology"
	SocioCultural = "socio_cultural"
	Economic      = "economic"
	Upgrading     = "upgrading"
	Governance    = "governance"
)

// All lists the categories in their canonical order. Filters, expansion
// columns and inserts follow this order.
var All = []Category{
	{
		Key: Issue, Table: "issues", Column: "issue_ids", Field: "issues",
		Param: "issue", OptionKey: "issues", CreateField: "issue_names",
	},
	{
		Key: Idea, Table: "ideas", Column: "idea_ids", Field: "ideas",
		Param: "idea", OptionKey: "ideas", CreateField: "idea_names",
	},
	{
		Key: Ecology, Table: "ecology_factors", Column: "ecology_factor_ids", Field: "ecology_factors",
		Param: "ecology", OptionKey: "ecology", CreateField: "ecology_names",
	},
	{
		Key: SocioCultural, Table: "socio_cultural_aspects", Column: "socio_cultural_aspect_ids", Field: "socio_cultural_aspects",
		Param: "socio_cultural", OptionKey: "socio_cultural", CreateField: "socio_cultural_names",
	},
	{
		Key: Economic, Table: "economic_factors", Column: "economic_factor_ids", Field: "economic_factors",
		Param: "economic", OptionKey: "economic", CreateField: "economic_names",
	},
	{
		Key: Upgrading, Table: "upgrading_approaches", Column: "upgrading_approach_ids", Field: "upgrading_approaches",
		Param: "upgrading", OptionKey: "upgrading", CreateField: "upgrading_names",
	},
	{
		Key: Governance, Table: "governance_types", Column: "governance_type_ids", Field: "governance_types",
		Param: "governance", OptionKey: "governance", CreateField: "governance_names",
	},
}

// ByKey returns the category with the given key.
func ByKey(key string) (Category, bool) {
	for _, c := range All {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// ByField returns the category with the given JSON field name.
func ByField(field string) (Category, bool) {
	for _, c := range All {
		if c.Field == field {
			return c, true
		}
	}
	return Category{}, false
}

// ByTable returns the category stored in the given table.
func ByTable(table string) (Category, bool) {
	for _, c := range All {
		if c.Table == table {
			return c, true
		}
	}
	return Category{}, false
}

// Factor is one reference-data item.
type Factor struct {
	ID          int    `json:"id" yaml:"-"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}
