package reftables

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/pkg/methane"
	"github.com/xuri/excelize/v2"
)

const (
	SheetPrefectures     = "prefectures"
	SheetCoefficients    = "coefficients"
	SheetDrainageClasses = "drainage_classes"
	SheetRegions         = "regions"
)

// normHeader lowers and strips separators so "Straw Production", "straw_production"
// and "straw-production" all match.
func normHeader(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ToLower(s)
	for _, sep := range []string{" ", "-", "_", "(", ")", "/"} {
		s = strings.ReplaceAll(s, sep, "")
	}
	return s
}

type sheet struct {
	name string
	hmap map[string]int
	rows [][]string
}

func readSheet(f *excelize.File, name string, required bool) (*sheet, error) {
	rows, err := f.GetRows(name)
	if err != nil {
		if required {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		return nil, nil
	}
	if len(rows) == 0 {
		if required {
			return nil, fmt.Errorf("sheet %q is empty", name)
		}
		return nil, nil
	}

	s := &sheet{name: name, hmap: make(map[string]int, len(rows[0])), rows: rows[1:]}
	for i, h := range rows[0] {
		s.hmap[normHeader(h)] = i
	}
	return s, nil
}

// col returns the index of the first header matching one of the aliases, or -1.
func (s *sheet) col(aliases ...string) int {
	for _, a := range aliases {
		if idx, ok := s.hmap[normHeader(a)]; ok {
			return idx
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (s *sheet) float(row []string, rowNum, idx int, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell(row, idx), ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("sheet %q row %d: %s: %w", s.name, rowNum, field, err)
	}
	return v, nil
}

func decodeXLSX(r io.Reader) (methane.TablesSpec, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return methane.TablesSpec{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	spec := methane.TablesSpec{Coefficients: make(map[domain.CoefficientKey]domain.Coefficients)}

	classes, err := readSheet(f, SheetDrainageClasses, true)
	if err != nil {
		return spec, err
	}
	cLabel := classes.col("label", "drainage_class", "class")
	if cLabel == -1 {
		return spec, fmt.Errorf("sheet %q: missing label column", SheetDrainageClasses)
	}
	cName, cNameEn := classes.col("name", "name_ja"), classes.col("name_en", "english")
	for _, row := range classes.rows {
		label := cell(row, cLabel)
		if label == "" {
			continue
		}
		spec.DrainageClasses = append(spec.DrainageClasses, domain.DrainageClassInfo{
			Label:  domain.DrainageClass(label),
			Name:   cell(row, cName),
			NameEn: cell(row, cNameEn),
		})
	}

	regions, err := readSheet(f, SheetRegions, false)
	if err != nil {
		return spec, err
	}
	if regions != nil {
		cCode := regions.col("code", "region", "region_code")
		cName, cNameEn := regions.col("name", "name_ja"), regions.col("name_en", "english")
		for _, row := range regions.rows {
			if code := cell(row, cCode); code != "" {
				spec.Regions = append(spec.Regions, methane.RegionSpec{
					Code:   domain.RegionCode(code),
					Name:   cell(row, cName),
					NameEn: cell(row, cNameEn),
				})
			}
		}
	}

	prefs, err := readSheet(f, SheetPrefectures, true)
	if err != nil {
		return spec, err
	}
	pName := prefs.col("name", "prefecture", "都道府県")
	pNameEn := prefs.col("name_en", "english")
	pRegion := prefs.col("region", "region_code", "地域")
	pStraw := prefs.col("straw_production_kg_10a", "straw_production", "straw", "稲わら生産量")
	if pName == -1 || pRegion == -1 || pStraw == -1 {
		return spec, fmt.Errorf("sheet %q: need name, region and straw_production columns", SheetPrefectures)
	}
	var errs []error
	for i, row := range prefs.rows {
		name := cell(row, pName)
		if name == "" {
			continue
		}
		straw, err := prefs.float(row, i+2, pStraw, "straw_production")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		spec.Prefectures = append(spec.Prefectures, methane.PrefectureSpec{
			Name:                 domain.Prefecture(name),
			NameEn:               cell(row, pNameEn),
			Region:               domain.RegionCode(cell(row, pRegion)),
			StrawProductionKg10a: straw,
		})
	}

	coeffs, err := readSheet(f, SheetCoefficients, true)
	if err != nil {
		return spec, err
	}
	kKey := coeffs.col("key")
	kRegion, kClass := coeffs.col("region", "region_code"), coeffs.col("drainage_class", "class")
	kStraw, kManure, kNoStraw := coeffs.col("straw"), coeffs.col("manure", "compost"), coeffs.col("no_straw", "nostraw")
	if (kKey == -1 && (kRegion == -1 || kClass == -1)) || kStraw == -1 || kManure == -1 || kNoStraw == -1 {
		return spec, fmt.Errorf("sheet %q: need key (or region and drainage_class), straw, manure and no_straw columns", SheetCoefficients)
	}
	for i, row := range coeffs.rows {
		key := domain.CoefficientKey(cell(row, kKey))
		if key == "" {
			key = domain.NewCoefficientKey(domain.RegionCode(cell(row, kRegion)), domain.DrainageClass(cell(row, kClass)))
		}
		if key == "" {
			continue
		}

		var c domain.Coefficients
		var rowErr error
		if c.Straw, rowErr = coeffs.float(row, i+2, kStraw, "straw"); rowErr != nil {
			errs = append(errs, rowErr)
			continue
		}
		if c.Manure, rowErr = coeffs.float(row, i+2, kManure, "manure"); rowErr != nil {
			errs = append(errs, rowErr)
			continue
		}
		if c.NoStraw, rowErr = coeffs.float(row, i+2, kNoStraw, "no_straw"); rowErr != nil {
			errs = append(errs, rowErr)
			continue
		}
		if _, dup := spec.Coefficients[key]; dup {
			errs = append(errs, fmt.Errorf("sheet %q row %d: duplicate key %s", SheetCoefficients, i+2, key))
			continue
		}
		spec.Coefficients[key] = c
	}

	if len(errs) > 0 {
		return spec, errors.Join(errs...)
	}
	return spec, nil
}
