package journal

import (
	"sort"
	"strings"
)

// Macro is an ADS journal macro (without the leading backslash) and the
// journal name it stands for.
type Macro struct {
	Name     string
	FullName string
}

// journalMacros lists the macros emitted by the ADS export service. ADS does
// not publish a complete table; this one combines the journal-macros help page
// with the AAS style files.
// See https://ui.adsabs.harvard.edu/help/actions/journal-macros
var journalMacros = map[string]string{
	"aas":      "American Astronomical Society Meeting Abstracts",
	"aj":       "Astronomical Journal",
	"actaa":    "Acta Astronomica",
	"araa":     "Annual Review of Astronomy and Astrophysics",
	"apjl":     "Astrophysical Journal, Letters",
	"apjs":     "Astrophysical Journal, Supplement",
	"apj":      "Astrophysical Journal",
	"ao":       "Applied Optics",
	"apss":     "Astrophysics and Space Science",
	"aapr":     "Astronomy and Astrophysics Reviews",
	"aaps":     "Astronomy and Astrophysics, Supplement",
	"aap":      "Astronomy and Astrophysics",
	"aplett":   "Astrophysics Letters",
	"apspr":    "Astrophysics Space Physics Research",
	"azh":      "Astronomicheskii Zhurnal",
	"baas":     "Bulletin of the American Astronomical Society",
	"bac":      "Bulletin of the Astronomical Institutes of Czechoslovakia",
	"bain":     "Bulletin Astronomical Institute of the Netherlands",
	"caa":      "Chinese Astronomy and Astrophysics",
	"cjaa":     "Chinese Journal of Astronomy and Astrophysics",
	"dps":      "American Astronomical Society/Division for Planetary Sciences Meeting Abstracts",
	"fcp":      "Fundamental Cosmic Physics",
	"gca":      "Geochimica Cosmochimica Acta",
	"grl":      "Geophysics Research Letters",
	"iaucirc":  "International Astronomical Union Circulars",
	"icarus":   "Icarus",
	"jaavso":   "Journal of the American Association of Variable Star Observers",
	"jcap":     "Journal of Cosmology and Astroparticle Physics",
	"jcp":      "Journal of Chemical Physics",
	"jgr":      "Journal of Geophysics Research",
	"jqsrt":    "Journal of Quantitative Spectroscopy and Radiative Transfer",
	"jrasc":    "Journal of the Royal Astronomical Society of Canada",
	"maps":     "Meteoritics and Planetary Science",
	"memras":   "Memoirs of the Royal Astronomical Society",
	"memsai":   "Mem. Societa Astronomica Italiana",
	"mnras":    "Monthly Notices of the Royal Astronomical Society",
	"nat":      "Nature",
	"nar":      "New Astronomy Review",
	"na":       "New Astronomy",
	"nphysa":   "Nuclear Physics A",
	"pasa":     "Publications of the Astronomical Society of Australia",
	"pasp":     "Publications of the Astronomical Society of the Pacific",
	"pasj":     "Publications of the Astronomical Society of Japan",
	"physrep":  "Physics Reports",
	"physscr":  "Physica Scripta",
	"planss":   "Planetary Space Science",
	"pra":      "Physical Review A",
	"prb":      "Physical Review B",
	"prc":      "Physical Review C",
	"prd":      "Physical Review D",
	"pre":      "Physical Review E",
	"prl":      "Physical Review Letters",
	"procspie": "Proceedings of the Society of Photo-Optical Instrumentation Engineers",
	"psj":      "Planetary Science Journal",
	"qjras":    "Quarterly Journal of the Royal Astronomical Society",
	"rmxaa":    "Revista Mexicana de Astronomia y Astrofisica",
	"skytel":   "Sky and Telescope",
	"solphys":  "Solar Physics",
	"sovast":   "Soviet Astronomy",
	"ssr":      "Space Science Reviews",
	"zap":      "Zeitschrift fuer Astrophysik",
}

// orderedMacros is journalMacros sorted longest name first, ties broken
// alphabetically. A macro is always tried before any macro that is a prefix
// of it (apjl before apj, nar and nat before na).
var orderedMacros = sortMacros(journalMacros)

// macroReplacer substitutes every macro in a single left-to-right pass.
// strings.Replacer tries old strings in argument order at each position, so
// building it from orderedMacros makes the longest macro win.
var macroReplacer = newMacroReplacer(orderedMacros)

func sortMacros(table map[string]string) []Macro {
	macros := make([]Macro, 0, len(table))
	for name, full := range table {
		macros = append(macros, Macro{Name: name, FullName: full})
	}
	sort.Slice(macros, func(i, j int) bool {
		if len(macros[i].Name) != len(macros[j].Name) {
			return len(macros[i].Name) > len(macros[j].Name)
		}
		return macros[i].Name < macros[j].Name
	})
	return macros
}

func newMacroReplacer(macros []Macro) *strings.Replacer {
	oldnew := make([]string, 0, 2*len(macros))
	for _, m := range macros {
		oldnew = append(oldnew, `\`+m.Name, m.FullName)
	}
	return strings.NewReplacer(oldnew...)
}

// Macros returns the macro table in substitution order.
func Macros() []Macro {
	out := make([]Macro, len(orderedMacros))
	copy(out, orderedMacros)
	return out
}

// ExpandMacros replaces every backslash macro with its full journal name.
func ExpandMacros(text string) string {
	return macroReplacer.Replace(text)
}
