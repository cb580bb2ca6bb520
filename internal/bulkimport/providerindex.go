package bulkimport

import (
	"sort"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/Leganyst/agency-platform/internal/model"
)

// Токены квалификаций, вырезаемые из входных имён: "Doe, Jane LPC" и
// "Jane Doe" — один и тот же человек.
var credentialTokens = map[string]bool{
	"bachelors":    true,
	"intern":       true,
	"lpc":          true,
	"lpcc":         true,
	"mft":          true,
	"mftc":         true,
	"peer":         true,
	"professional": true,
	"swc":          true,
	"lcsw":         true,
	"lmft":         true,
}

// ProviderIndex — иммутабельный индекс имён провайдеров, строящийся один
// раз на задание импорта и передаваемый по конвейеру явно. Точные ключи
// ("имя фамилия" и первый+последний токены) проверяются до фаззи-поиска.
type ProviderIndex struct {
	byFull      map[string]*model.Provider
	byFirstLast map[string]*model.Provider
	keys        []string
	byKey       map[string]*model.Provider
}

// BuildProviderIndex строит индекс по активным провайдерам агентства.
// Неоднозначные ключи (два провайдера с одинаковым «первый+последний»)
// из индекса исключаются: лучше не сматчить, чем сматчить не того.
func BuildProviderIndex(providers []model.Provider) *ProviderIndex {
	idx := &ProviderIndex{
		byFull:      map[string]*model.Provider{},
		byFirstLast: map[string]*model.Provider{},
		byKey:       map[string]*model.Provider{},
	}
	ambiguous := map[string]bool{}
	for i := range providers {
		p := &providers[i]
		tokens := nameTokens(p.FirstName + " " + p.LastName)
		if len(tokens) == 0 {
			continue
		}
		full := strings.Join(tokens, " ")
		addKey(idx.byFull, ambiguous, full, p)
		idx.registerFuzzyKey(full, p)
		if len(tokens) >= 2 {
			fl := tokens[0] + " " + tokens[len(tokens)-1]
			addKey(idx.byFirstLast, ambiguous, fl, p)
		}
	}
	for key := range ambiguous {
		delete(idx.byFull, key)
		delete(idx.byFirstLast, key)
		delete(idx.byKey, key)
	}
	if len(ambiguous) > 0 {
		keys := idx.keys[:0]
		for _, key := range idx.keys {
			if !ambiguous[key] {
				keys = append(keys, key)
			}
		}
		idx.keys = keys
	}
	return idx
}

func addKey(m map[string]*model.Provider, ambiguous map[string]bool, key string, p *model.Provider) {
	if prev, ok := m[key]; ok && prev.ID != p.ID {
		ambiguous[key] = true
		return
	}
	m[key] = p
}

func (idx *ProviderIndex) registerFuzzyKey(key string, p *model.Provider) {
	if _, ok := idx.byKey[key]; ok {
		return
	}
	idx.byKey[key] = p
	idx.keys = append(idx.keys, key)
}

// Match разрешает имя в свободной форме. Порядок: точное совпадение всех
// токенов, затем первый+последний токен (средние имена игнорируются),
// затем фаззи-поиск по ключам с выбором ближайшего ранга. Nil — имя не
// распознано; вызывающий трактует это как предупреждение, не отказ.
func (idx *ProviderIndex) Match(raw string) *model.Provider {
	tokens := nameTokens(raw)
	if len(tokens) == 0 {
		return nil
	}
	full := strings.Join(tokens, " ")
	if p, ok := idx.byFull[full]; ok {
		return p
	}
	if len(tokens) >= 2 {
		fl := tokens[0] + " " + tokens[len(tokens)-1]
		if p, ok := idx.byFirstLast[fl]; ok {
			return p
		}
	}
	ranks := fuzzy.RankFindNormalizedFold(full, idx.keys)
	if len(ranks) == 0 {
		return nil
	}
	sort.Sort(ranks)
	return idx.byKey[ranks[0].Target]
}

// nameTokens нормализует имя: разворачивает форму "Last, First",
// выбрасывает пунктуацию и токены квалификаций, приводит к нижнему
// регистру.
func nameTokens(raw string) []string {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, ","); i >= 0 {
		raw = strings.TrimSpace(raw[i+1:]) + " " + strings.TrimSpace(raw[:i])
	}
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(' ')
		}
	}
	var tokens []string
	for _, t := range strings.Fields(b.String()) {
		if credentialTokens[t] {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}
