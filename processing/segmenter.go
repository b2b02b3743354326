package processing

import (
	"regexp"
	"sort"

	"jurix-backend/models"
)

// Unit is a segmented structural element before persistence. Parent is an
// index into the slice returned by Segment; ownership stays with the flat
// slice (arena-style), so reprocessing discards everything at once. The
// repository maps indices to row ids on insert.
type Unit struct {
	Tipo       models.TipoDispositivo
	Numero     string
	Texto      string
	Ordem      int
	Parent     *int
	Confidence float64
}

// Segmenter extracts the hierarchical structure of Brazilian legal texts
// using regex patterns, following Brazilian legislative writing conventions
// (artigos, parágrafos, incisos, alíneas, itens).
type Segmenter struct{}

// NewSegmenter creates a new segmenter
func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// markerPattern matches the START of a dispositivo, not its body text.
type markerPattern struct {
	tipo models.TipoDispositivo
	re   *regexp.Regexp
	// numero overrides the captured group when the marker carries no
	// number of its own ("Parágrafo único").
	numero string
}

var markerPatterns = []markerPattern{
	{tipo: models.TipoArtigo, re: regexp.MustCompile(`(?im)^Art\.?\s+(\d+[ºª°]?(?:-[A-Z])?)\s*[\.–-]?\s*`)},
	{tipo: models.TipoParagrafo, re: regexp.MustCompile(`(?m)^§\s*(\d+[ºª°]?(?:-[A-Z])?)\s*[\.–-]?\s*`)},
	{tipo: models.TipoParagrafo, re: regexp.MustCompile(`(?im)^Parágrafo\s+único\.?\s*[–-]?\s*`), numero: "único"},
	{tipo: models.TipoInciso, re: regexp.MustCompile(`(?m)^([IVX]+)\b\s*[\.–-]?\s*`)},
	{tipo: models.TipoAlinea, re: regexp.MustCompile(`(?m)^([a-z])\)\s+`)},
	{tipo: models.TipoItem, re: regexp.MustCompile(`(?m)^(\d+)\.\s+`)},
}

// Structural division markers (capítulo, seção, título). Found but not
// emitted as units; kept for future hierarchy levels.
var divisionPatterns = map[models.TipoDispositivo]*regexp.Regexp{
	models.TipoCapitulo: regexp.MustCompile(`(?im)^CAP[IÍ]TULO\s+([IVX]+|[0-9]+)\s*[–-]?\s*(.*)$`),
	models.TipoSecao:    regexp.MustCompile(`(?im)^SE[ÇC][ÃA]O\s+([IVX]+|[0-9]+)\s*[–-]?\s*(.*)$`),
	models.TipoTitulo:   regexp.MustCompile(`(?im)^T[IÍ]TULO\s+([IVX]+|[0-9]+)\s*[–-]?\s*(.*)$`),
}

// dateBeforeInciso guards against roman numerals that are actually part of
// a date or a fraction within the preceding ~10 characters.
var dateBeforeInciso = regexp.MustCompile(`\d{4}|\d{1,2}/\d{1,2}`)

// marker is one structural marker occurrence in the scanned text.
type marker struct {
	start  int
	end    int
	tipo   models.TipoDispositivo
	numero string
}

// Segment parses the full text of one norma and returns the ordered,
// parented list of units. Returns an empty slice when no structural markers
// are found; the caller decides whether that is an error.
func (s *Segmenter) Segment(text string) []Unit {
	markers := findMarkers(text)
	if len(markers) == 0 {
		return []Unit{}
	}

	units := make([]Unit, 0, len(markers))
	for i, m := range markers {
		// Body runs from the end of the marker token to the start of the
		// next marker in the merged order, so multi-line bodies survive
		// blank lines and soft-wrapped continuations.
		bodyEnd := len(text)
		if i+1 < len(markers) {
			bodyEnd = markers[i+1].start
		}
		body := normalizeBody(text[m.end:bodyEnd])

		units = append(units, Unit{
			Tipo:       m.tipo,
			Numero:     m.numero,
			Texto:      body,
			Ordem:      i,
			Confidence: 1.0,
		})
	}

	assignParents(units)
	return units
}

// findMarkers scans the text once per marker pattern and merges all matches
// into a single list sorted by start offset. The total order across marker
// kinds is what lets body text be attributed correctly regardless of which
// kind follows.
func findMarkers(text string) []marker {
	var markers []marker

	for _, p := range markerPatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			m := marker{start: loc[0], end: loc[1], tipo: p.tipo, numero: p.numero}
			if m.numero == "" && len(loc) >= 4 && loc[2] >= 0 {
				m.numero = text[loc[2]:loc[3]]
			}
			if p.tipo == models.TipoInciso && looksLikeDate(text, m.start) {
				continue
			}
			markers = append(markers, m)
		}
	}

	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].start < markers[j].start
	})

	return markers
}

// looksLikeDate reports whether the ~10 characters before pos contain a
// year or a day/month fraction, which would make a roman numeral at pos a
// false positive.
func looksLikeDate(text string, pos int) bool {
	from := pos - 10
	if from < 0 {
		from = 0
	}
	return dateBeforeInciso.MatchString(text[from:pos])
}

// hierarchyState carries the "most recent ancestor" slots through the
// single left-to-right assignment pass.
type hierarchyState struct {
	lastArtigo    *int
	lastParagrafo *int
	lastInciso    *int
}

// assignParents assigns each unit's parent index in one pass over the
// sorted units. Greedy most-recent-ancestor rule:
//   - artigo: root; resets parágrafo and inciso state
//   - parágrafo: child of the last artigo
//   - inciso: child of the last parágrafo, else the last artigo
//   - alínea: child of the last inciso, else parágrafo, else artigo
//
// A parágrafo or item appearing before any artigo stays a root; that can
// be legitimate (top-level numbering documents) or an OCR artifact, so it
// is left for review instead of rejected.
func assignParents(units []Unit) {
	var st hierarchyState

	for i := range units {
		idx := i
		switch units[i].Tipo {
		case models.TipoArtigo:
			st.lastArtigo = &idx
			st.lastParagrafo = nil
			st.lastInciso = nil

		case models.TipoParagrafo:
			units[i].Parent = st.lastArtigo
			st.lastParagrafo = &idx
			st.lastInciso = nil

		case models.TipoInciso:
			if st.lastParagrafo != nil {
				units[i].Parent = st.lastParagrafo
			} else {
				units[i].Parent = st.lastArtigo
			}
			st.lastInciso = &idx

		case models.TipoAlinea:
			if st.lastInciso != nil {
				units[i].Parent = st.lastInciso
			} else if st.lastParagrafo != nil {
				units[i].Parent = st.lastParagrafo
			} else {
				units[i].Parent = st.lastArtigo
			}
		}
	}
}

// Division is a structural division heading (capítulo, seção, título)
// found in the text.
type Division struct {
	Tipo   models.TipoDispositivo
	Numero string
	Titulo string
	Start  int
}

// FindDivisions returns the structural division headings of the text,
// sorted by position.
func (s *Segmenter) FindDivisions(text string) []Division {
	var divisions []Division

	for tipo, re := range divisionPatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			d := Division{Tipo: tipo, Start: loc[0]}
			if loc[2] >= 0 {
				d.Numero = text[loc[2]:loc[3]]
			}
			if len(loc) >= 6 && loc[4] >= 0 {
				d.Titulo = text[loc[4]:loc[5]]
			}
			divisions = append(divisions, d)
		}
	}

	sort.SliceStable(divisions, func(i, j int) bool {
		return divisions[i].Start < divisions[j].Start
	})

	return divisions
}
