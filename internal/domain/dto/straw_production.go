package dto

import (
	"sort"
	"sync"

	"github.com/ougirez/ricech4/internal/domain"
	"github.com/shopspring/decimal"
)

// StrawProduction collects straw production readings per prefecture from
// concurrently parsed pages.
type StrawProduction struct {
	values   map[domain.Prefecture][]decimal.Decimal
	valuesMx sync.Mutex
}

func NewStrawProduction() *StrawProduction {
	return &StrawProduction{values: make(map[domain.Prefecture][]decimal.Decimal)}
}

func (s *StrawProduction) Put(pref domain.Prefecture, kg10a decimal.Decimal) {
	s.valuesMx.Lock()
	defer s.valuesMx.Unlock()

	s.values[pref] = append(s.values[pref], kg10a)
}

func (s *StrawProduction) Len() int {
	s.valuesMx.Lock()
	defer s.valuesMx.Unlock()

	return len(s.values)
}

// Averages returns the mean reading per prefecture rounded to 0.1 kg/10a.
func (s *StrawProduction) Averages() map[domain.Prefecture]float64 {
	s.valuesMx.Lock()
	defer s.valuesMx.Unlock()

	out := make(map[domain.Prefecture]float64, len(s.values))
	for pref, vals := range s.values {
		if len(vals) == 0 {
			continue
		}
		out[pref] = decimal.Avg(vals[0], vals[1:]...).Round(1).InexactFloat64()
	}
	return out
}

func (s *StrawProduction) Prefectures() []domain.Prefecture {
	s.valuesMx.Lock()
	defer s.valuesMx.Unlock()

	out := make([]domain.Prefecture, 0, len(s.values))
	for p := range s.values {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
