package methane

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ougirez/ricech4/internal/domain"
)

// TablesSpec is the raw, unvalidated form of the reference tables as read
// from a file.
type TablesSpec struct {
	DrainageClasses []domain.DrainageClassInfo
	Regions         []RegionSpec
	Prefectures     []PrefectureSpec
	// Coefficients are keyed by the composite region ++ drainage class key.
	Coefficients map[domain.CoefficientKey]domain.Coefficients
}

type RegionSpec struct {
	Code   domain.RegionCode
	Name   string
	NameEn string
}

type PrefectureSpec struct {
	Name                 domain.Prefecture
	NameEn               string
	Region               domain.RegionCode
	StrawProductionKg10a float64
}

// Tables holds the immutable reference tables. It is safe for concurrent
// reads; nothing mutates it after NewTables returns.
type Tables struct {
	classes     []domain.DrainageClassInfo
	classSet    map[domain.DrainageClass]struct{}
	regions     map[domain.RegionCode]RegionSpec
	prefOrder   []domain.Prefecture
	prefectures map[domain.Prefecture]PrefectureSpec
	coeffs      map[domain.CoefficientKey]domain.Coefficients
}

// NewTables validates spec and builds typed lookup tables. Unknown keys are
// rejected here so lookups never see them:
//   - drainage class labels and prefecture names must be non-empty and unique
//   - every prefecture needs a region and a positive straw production
//   - when regions are declared, prefectures may only reference those
//   - coefficient keys must split into a known region and drainage class
//   - coefficients must be finite and non-negative
//
// NewTables does not require every region/class pair to be present; see
// CheckComplete.
func NewTables(spec TablesSpec) (*Tables, error) {
	t := &Tables{
		classSet:    make(map[domain.DrainageClass]struct{}, len(spec.DrainageClasses)),
		regions:     make(map[domain.RegionCode]RegionSpec, len(spec.Regions)),
		prefectures: make(map[domain.Prefecture]PrefectureSpec, len(spec.Prefectures)),
		coeffs:      make(map[domain.CoefficientKey]domain.Coefficients, len(spec.Coefficients)),
	}

	var errs []error

	if len(spec.DrainageClasses) == 0 {
		errs = append(errs, errors.New("no drainage classes declared"))
	}
	for _, c := range spec.DrainageClasses {
		label := domain.DrainageClass(strings.TrimSpace(string(c.Label)))
		if label == "" {
			errs = append(errs, errors.New("empty drainage class label"))
			continue
		}
		if _, dup := t.classSet[label]; dup {
			errs = append(errs, fmt.Errorf("duplicate drainage class %q", label))
			continue
		}
		c.Label = label
		t.classSet[label] = struct{}{}
		t.classes = append(t.classes, c)
	}

	for _, r := range spec.Regions {
		if r.Code == "" {
			errs = append(errs, errors.New("empty region code"))
			continue
		}
		if _, dup := t.regions[r.Code]; dup {
			errs = append(errs, fmt.Errorf("duplicate region %q", r.Code))
			continue
		}
		t.regions[r.Code] = r
	}
	declaredRegions := len(t.regions) > 0

	for _, p := range spec.Prefectures {
		switch {
		case p.Name == "":
			errs = append(errs, errors.New("empty prefecture name"))
			continue
		case p.Region == "":
			errs = append(errs, fmt.Errorf("prefecture %s: no region", p.Name))
			continue
		case !(p.StrawProductionKg10a > 0) || math.IsInf(p.StrawProductionKg10a, 0):
			errs = append(errs, fmt.Errorf("prefecture %s: straw production must be > 0, got %v", p.Name, p.StrawProductionKg10a))
			continue
		}
		if _, dup := t.prefectures[p.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate prefecture %s", p.Name))
			continue
		}
		if _, ok := t.regions[p.Region]; !ok {
			if declaredRegions {
				errs = append(errs, fmt.Errorf("prefecture %s: unknown region %q", p.Name, p.Region))
				continue
			}
			t.regions[p.Region] = RegionSpec{Code: p.Region}
		}
		t.prefectures[p.Name] = p
		t.prefOrder = append(t.prefOrder, p.Name)
	}

	for key, c := range spec.Coefficients {
		if _, _, ok := t.splitKey(key); !ok {
			errs = append(errs, fmt.Errorf("coefficient key %q does not name a known region and drainage class", key))
			continue
		}
		if err := checkCoefficients(c); err != nil {
			errs = append(errs, fmt.Errorf("coefficient %s: %w", key, err))
			continue
		}
		t.coeffs[key] = c
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("methane: invalid reference tables: %w", errors.Join(errs...))
	}

	return t, nil
}

func checkCoefficients(c domain.Coefficients) error {
	for name, v := range map[string]float64{"straw": c.Straw, "manure": c.Manure, "no_straw": c.NoStraw} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%s must be a non-negative number, got %v", name, v)
		}
	}
	return nil
}

// splitKey splits a composite key by matching its suffix against the
// drainage class enum. The longest matching label wins.
func (t *Tables) splitKey(key domain.CoefficientKey) (domain.RegionCode, domain.DrainageClass, bool) {
	var (
		bestRegion domain.RegionCode
		bestClass  domain.DrainageClass
	)
	for class := range t.classSet {
		if !strings.HasSuffix(string(key), string(class)) || len(class) <= len(bestClass) {
			continue
		}
		region := domain.RegionCode(strings.TrimSuffix(string(key), string(class)))
		if _, ok := t.regions[region]; ok {
			bestRegion, bestClass = region, class
		}
	}
	return bestRegion, bestClass, bestClass != ""
}

// CheckComplete reports every region/drainage class pair reachable from the
// prefecture table that has no coefficients.
func (t *Tables) CheckComplete() error {
	used := make(map[domain.RegionCode]struct{})
	for _, p := range t.prefectures {
		used[p.Region] = struct{}{}
	}

	var missing []string
	for region := range used {
		for _, c := range t.classes {
			key := domain.NewCoefficientKey(region, c.Label)
			if _, ok := t.coeffs[key]; !ok {
				missing = append(missing, string(key))
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	sort.Strings(missing)
	return fmt.Errorf("methane: coefficients missing for %s", strings.Join(missing, ", "))
}

func (t *Tables) Region(p domain.Prefecture) (domain.RegionCode, bool) {
	info, ok := t.prefectures[p]
	return info.Region, ok
}

func (t *Tables) Coefficients(key domain.CoefficientKey) (domain.Coefficients, bool) {
	c, ok := t.coeffs[key]
	return c, ok
}

func (t *Tables) StrawProduction(p domain.Prefecture) (float64, bool) {
	info, ok := t.prefectures[p]
	return info.StrawProductionKg10a, ok
}

func (t *Tables) HasDrainageClass(c domain.DrainageClass) bool {
	_, ok := t.classSet[c]
	return ok
}

// DrainageClasses returns the drainage classes in declaration order.
func (t *Tables) DrainageClasses() []domain.DrainageClassInfo {
	out := make([]domain.DrainageClassInfo, len(t.classes))
	copy(out, t.classes)
	return out
}

func (t *Tables) PrefectureInfo(p domain.Prefecture) (domain.PrefectureInfo, bool) {
	spec, ok := t.prefectures[p]
	if !ok {
		return domain.PrefectureInfo{}, false
	}
	return domain.PrefectureInfo{
		Name:                 spec.Name,
		NameEn:               spec.NameEn,
		Region:               spec.Region,
		RegionName:           t.regions[spec.Region].Name,
		StrawProductionKg10a: spec.StrawProductionKg10a,
	}, true
}

// Prefectures returns every prefecture in declaration order.
func (t *Tables) Prefectures() []domain.PrefectureInfo {
	out := make([]domain.PrefectureInfo, 0, len(t.prefOrder))
	for _, name := range t.prefOrder {
		info, _ := t.PrefectureInfo(name)
		out = append(out, info)
	}
	return out
}
