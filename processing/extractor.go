package processing

import (
	"context"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"jurix-backend/models"

	"github.com/google/uuid"
)

// Texts shorter than this carry too little signal to extract from.
const minExtractableLength = 20

// referenceWindow bounds how far past an action verb references are
// searched, in runes; it keeps unrelated nearby sentences from producing
// false positives.
const referenceWindow = 200

// ReferenceKind discriminates the closed set of legal reference shapes.
type ReferenceKind int

const (
	// ReferenceLawCitation is a citation of a norma: tipo + numero[/ano].
	ReferenceLawCitation ReferenceKind = iota
	// ReferenceSelf is a "desta Lei" style idiom that always resolves to
	// the source unit's own norma.
	ReferenceSelf
	// ReferencePinpoint is an artigo/parágrafo/inciso/alínea reference.
	ReferencePinpoint
)

// Reference is one legal reference found in an action window.
type Reference struct {
	Kind       ReferenceKind
	Tipo       string // "lei", "decreto", "artigo", "paragrafo", ...
	Numero     string // "100/2010", "5º", "único", "I", "a"
	Ano        string // law citations only
	Text       string // raw matched text, for audit
	Confidence float64
}

// ResolveNormaFunc looks up a norma in the external registry by parsed
// citation components. A nil result with nil error means "citation parses
// but no such norma is known" — the event is still recorded unresolved.
type ResolveNormaFunc func(ctx context.Context, tipo, numero string, ano int) (*uuid.UUID, error)

// Extractor detects alteration events (revoga, altera, adiciona, ...) and
// the legal references they target in dispositivo text.
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Action verb patterns (Brazilian Portuguese legal language).
var actionPatterns = []struct {
	acao models.Acao
	re   *regexp.Regexp
}{
	{models.AcaoRevoga, regexp.MustCompile(`(?i)\b(revog[a-zçã]+|ficam?\s+revogad[oa]s?)\b`)},
	{models.AcaoAltera, regexp.MustCompile(`(?i)\b(alter[a-zçã]+|modific[a-zçã]+|ficam?\s+alterad[oa]s?)\b`)},
	{models.AcaoAdiciona, regexp.MustCompile(`(?i)\b(adicion[a-zçã]+|acrescent[a-zçã]+|inclui|ficam?\s+adicionad[oa]s?)\b`)},
	{models.AcaoSubstitui, regexp.MustCompile(`(?i)\b(substitu[íi][a-zçã]*|ficam?\s+substitu[íi]d[oa]s?)\b`)},
	{models.AcaoRegulamenta, regexp.MustCompile(`(?i)\b(regulament[a-zçã]+|disciplin[a-zçã]+)\b`)},
	{models.AcaoReferencia, regexp.MustCompile(`(?i)\b(conforme|nos\s+termos|de\s+acordo\s+com|previsto|disposto)\b`)},
}

var (
	// Lei X/YYYY, Lei Complementar X, LC X/YYYY, Decreto X, Resolução X/YYYY
	lawPattern = regexp.MustCompile(`(?i)\b(lei\s+complementar|lei\s+ordinária|lei\s+delegada|lei|lc|decreto|resolução)\s*(?:n[º°]?\s*)?([\d.,]+)\s*[/-]?\s*(\d{4})?`)

	// "desta Lei", "do Decreto" — self/anaphoric references
	selfRefPattern = regexp.MustCompile(`(?i)\b(d[aeo]st[ae]|d[aeo])\s+(lei|decreto|resolução)\b`)

	articleRefPattern   = regexp.MustCompile(`(?i)\bart(?:igo)?\.?\s*(?:n[º°]?\s*)?(\d+[º°]?)`)
	paragraphRefPattern = regexp.MustCompile(`(?i)([§¶]|\bpar[áa]grafo)\s*(?:n[º°]?\s*)?(\d+[º°]?|[úu]nico)`)
	incisoRefPattern    = regexp.MustCompile(`(?i)\binciso\s+([IVXLCDM]+|\d+)`)
	alineaRefPattern    = regexp.MustCompile(`(?i)\bal[íi]nea\s+([a-z])\)`)
)

// tipoNormaMap normalizes citation types for registry lookup.
var tipoNormaMap = map[string]string{
	"lei":              "Lei",
	"lc":               "Lei Complementar",
	"lei complementar": "Lei Complementar",
	"lei ordinária":    "Lei",
	"lei delegada":     "Lei Delegada",
	"decreto":          "Decreto",
	"resolução":        "Resolução",
}

// ExtractEvents scans one dispositivo's text and returns zero or more
// alteration event candidates. fonteID/fonteNormaID identify the source
// dispositivo and its norma; resolve is used only for law citations that
// carry both number and year (nil resolver leaves them unresolved).
//
// Absence of detected actions is a normal, common outcome. A zero fonteID
// is a pipeline wiring bug and panics.
func (e *Extractor) ExtractEvents(
	ctx context.Context,
	texto string,
	fonteID uuid.UUID,
	fonteNormaID uuid.UUID,
	resolve ResolveNormaFunc,
) []models.EventoAlteracao {
	if fonteID == uuid.Nil {
		panic("processing: dispositivo fonte id is required")
	}

	events := []models.EventoAlteracao{}

	if utf8.RuneCountInString(texto) < minExtractableLength {
		return events
	}

	for _, occurrence := range detectActions(texto) {
		// Bounded forward window from the action span, counted in runes
		// so accented text keeps its full reach.
		windowEnd := occurrence.end
		for n := 0; n < referenceWindow && windowEnd < len(texto); n++ {
			_, size := utf8.DecodeRuneInString(texto[windowEnd:])
			windowEnd += size
		}
		window := texto[occurrence.start:windowEnd]

		refs := extractReferences(window)
		if len(refs) == 0 {
			// Verb seen, target unresolved.
			events = append(events, models.EventoAlteracao{
				DispositivoFonteID:   fonteID,
				Acao:                 occurrence.acao,
				TargetText:           truncate(window, 100),
				ExtractionConfidence: 0.5,
				ExtractionMethod:     "regex",
			})
			continue
		}

		// Law citations resolve up front; pinpoints inherit the window's
		// norma context: the first resolved citation, else a self
		// reference pinning them to the source norma. A window with
		// neither leaves the pinpoint norma-less.
		lawTargets := make([]*uuid.UUID, len(refs))
		var windowNorma *uuid.UUID
		hasSelf := false
		for i, ref := range refs {
			switch ref.Kind {
			case ReferenceSelf:
				hasSelf = true
			case ReferenceLawCitation:
				if ref.Ano != "" && resolve != nil {
					lawTargets[i] = resolveCitation(ctx, resolve, ref)
					if windowNorma == nil {
						windowNorma = lawTargets[i]
					}
				}
			}
		}
		if windowNorma == nil && hasSelf {
			normaID := fonteNormaID
			windowNorma = &normaID
		}

		for i, ref := range refs {
			event := models.EventoAlteracao{
				DispositivoFonteID:   fonteID,
				Acao:                 occurrence.acao,
				TargetText:           truncate(ref.Text, models.MaxTargetTextLength),
				ReferenciaTipo:       ref.Tipo,
				ReferenciaNumero:     ref.Numero,
				ExtractionConfidence: ref.Confidence,
				ExtractionMethod:     "regex",
			}

			switch ref.Kind {
			case ReferenceSelf:
				normaID := fonteNormaID
				event.NormaAlvoID = &normaID
			case ReferenceLawCitation:
				event.NormaAlvoID = lawTargets[i]
			case ReferencePinpoint:
				event.NormaAlvoID = windowNorma
			}

			events = append(events, event)
		}
	}

	return events
}

// actionOccurrence is one action verb match with its byte span.
type actionOccurrence struct {
	acao  models.Acao
	start int
	end   int
}

func detectActions(texto string) []actionOccurrence {
	var occurrences []actionOccurrence

	for _, p := range actionPatterns {
		for _, loc := range p.re.FindAllStringIndex(texto, -1) {
			occurrences = append(occurrences, actionOccurrence{
				acao:  p.acao,
				start: loc[0],
				end:   loc[1],
			})
		}
	}

	return occurrences
}

// extractReferences matches every reference pattern independently within
// an action window.
func extractReferences(window string) []Reference {
	var refs []Reference

	for _, m := range lawPattern.FindAllStringSubmatch(window, -1) {
		tipo := strings.TrimSpace(m[1])
		numero := strings.Trim(m[2], ".,")
		ano := m[3]
		if numero == "" {
			continue
		}

		ref := Reference{
			Kind:   ReferenceLawCitation,
			Tipo:   strings.ToLower(tipo),
			Numero: numero,
			Ano:    ano,
			Text:   m[0],
		}
		if ano != "" {
			ref.Numero = numero + "/" + ano
			ref.Confidence = 0.9
		} else {
			ref.Confidence = 0.7
		}
		refs = append(refs, ref)
	}

	for _, m := range selfRefPattern.FindAllStringSubmatch(window, -1) {
		refs = append(refs, Reference{
			Kind:       ReferenceSelf,
			Tipo:       "self_reference",
			Text:       m[0],
			Confidence: 0.95,
		})
	}

	for _, m := range articleRefPattern.FindAllStringSubmatch(window, -1) {
		refs = append(refs, Reference{
			Kind:       ReferencePinpoint,
			Tipo:       "artigo",
			Numero:     strings.TrimSpace(m[1]),
			Text:       m[0],
			Confidence: 0.9,
		})
	}

	for _, m := range paragraphRefPattern.FindAllStringSubmatch(window, -1) {
		numero := strings.ToLower(strings.TrimSpace(m[2]))
		refs = append(refs, Reference{
			Kind:       ReferencePinpoint,
			Tipo:       "paragrafo",
			Numero:     numero,
			Text:       m[0],
			Confidence: 0.9,
		})
	}

	for _, m := range incisoRefPattern.FindAllStringSubmatch(window, -1) {
		refs = append(refs, Reference{
			Kind:       ReferencePinpoint,
			Tipo:       "inciso",
			Numero:     strings.TrimSpace(m[1]),
			Text:       m[0],
			Confidence: 0.9,
		})
	}

	for _, m := range alineaRefPattern.FindAllStringSubmatch(window, -1) {
		refs = append(refs, Reference{
			Kind:       ReferencePinpoint,
			Tipo:       "alinea",
			Numero:     strings.TrimSpace(m[1]),
			Text:       m[0],
			Confidence: 0.9,
		})
	}

	return refs
}

// resolveCitation attempts the exact registry lookup for a law citation
// with number and year. Lookup failures leave the target unresolved; they
// are data-quality outcomes, not errors.
func resolveCitation(ctx context.Context, resolve ResolveNormaFunc, ref Reference) *uuid.UUID {
	tipo := tipoNormaMap[ref.Tipo]
	if tipo == "" {
		tipo = ref.Tipo
	}

	// Strip thousands separators before the exact match.
	numero := strings.NewReplacer(".", "", ",", "").Replace(strings.SplitN(ref.Numero, "/", 2)[0])

	ano := 0
	for _, r := range ref.Ano {
		ano = ano*10 + int(r-'0')
	}

	normaID, err := resolve(ctx, tipo, numero, ano)
	if err != nil {
		log.Printf("Warning: norma lookup failed for %s %s/%d: %v", tipo, numero, ano, err)
		return nil
	}
	return normaID
}
