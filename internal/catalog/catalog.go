// Package catalog holds the static machine catalog: series, their models,
// and the operator manual each model is documented in.
package catalog

// Series groups machine models sharing an operator manual family.
type Series struct {
	Name   string
	Models []Model
}

// Model is a single catalog entry.
type Model struct {
	Name   string
	Manual string
}

// series is the full catalog, ordered for stable form rendering.
var series = []Series{
	{
		Name: "Série 6000",
		Models: []Model{
			{Name: "6110J", Manual: "manualOperador_6110j_6125j_6130j.pdf"},
			{Name: "6125J", Manual: "manualOperador_6110j_6125j_6130j.pdf"},
			{Name: "6130J", Manual: "manualOperador_6110j_6125j_6130j.pdf"},
			{Name: "6135J", Manual: "manualOperador_6135j_6150j_6170j_6190j_6210j.pdf"},
			{Name: "6150J", Manual: "manualOperador_6135j_6150j_6170j_6190j_6210j.pdf"},
			{Name: "6170J", Manual: "manualOperador_6135j_6150j_6170j_6190j_6210j.pdf"},
			{Name: "6190J", Manual: "manualOperador_6135j_6150j_6170j_6190j_6210j.pdf"},
			{Name: "6210J", Manual: "manualOperador_6135j_6150j_6170j_6190j_6210j.pdf"},
		},
	},
	{
		Name: "Série 7000",
		Models: []Model{
			{Name: "7200J", Manual: "manualOperador_7200J_7215J_7230J.pdf"},
			{Name: "7215J", Manual: "manualOperador_7200J_7215J_7230J.pdf"},
			{Name: "7230J", Manual: "manualOperador_7200J_7215J_7230J.pdf"},
		},
	},
	{
		Name: "Série 8000",
		Models: []Model{
			{Name: "8260R", Manual: "manualOperador_8260r_8285r_8310r_8335r_8360r.pdf"},
			{Name: "8285R", Manual: "manualOperador_8260r_8285r_8310r_8335r_8360r.pdf"},
			{Name: "8310R", Manual: "manualOperador_8260r_8285r_8310r_8335r_8360r.pdf"},
			{Name: "8335R", Manual: "manualOperador_8260r_8285r_8310r_8335r_8360r.pdf"},
			{Name: "8360R", Manual: "manualOperador_8260r_8285r_8310r_8335r_8360r.pdf"},
		},
	},
	{
		Name: "Série M",
		Models: []Model{
			{Name: "6155M", Manual: "manualOperador_6155M_6175M_6195M.pdf"},
			{Name: "6175M", Manual: "manualOperador_6155M_6175M_6195M.pdf"},
			{Name: "6195M", Manual: "manualOperador_6155M_6175M_6195M.pdf"},
		},
	},
	{
		Name: "Pulverizadores",
		Models: []Model{
			{Name: "4730", Manual: "manualOperador_4730_4830.pdf"},
			{Name: "4830", Manual: "manualOperador_4730_4830.pdf"},
			{Name: "M4030", Manual: "manualOperador_M4040_M4030.pdf"},
			{Name: "M4040", Manual: "manualOperador_M4040_M4030.pdf"},
		},
	},
	{
		Name: "Plantadeiras",
		Models: []Model{
			{Name: "Plantadeira 1111", Manual: "manualOperadorPlantadeira_1111_1113.pdf"},
			{Name: "Plantadeira 1113", Manual: "manualOperadorPlantadeira_1111_1113.pdf"},
			{Name: "Família DB", Manual: "manualOperadorPlantadeira_familiaDB.pdf"},
		},
	},
}

// AllSeries returns the full catalog in display order.
func AllSeries() []Series {
	return series
}

// ModelNames returns every model name in the catalog.
func ModelNames() []string {
	var names []string
	for _, s := range series {
		for _, m := range s.Models {
			names = append(names, m.Name)
		}
	}
	return names
}

// ValidModel reports whether name is a catalog model.
func ValidModel(name string) bool {
	_, ok := ManualFor(name)
	return ok
}

// SeriesFor returns the series a model belongs to.
func SeriesFor(model string) (string, bool) {
	for _, s := range series {
		for _, m := range s.Models {
			if m.Name == model {
				return s.Name, true
			}
		}
	}
	return "", false
}

// ManualFor returns the operator manual filename for a model. Models without
// a manual mapping are skipped by the task generator.
func ManualFor(model string) (string, bool) {
	for _, s := range series {
		for _, m := range s.Models {
			if m.Name == model {
				return m.Manual, true
			}
		}
	}
	return "", false
}
