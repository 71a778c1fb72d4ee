// Package reftables loads the CH4 reference tables (prefecture regions,
// emission coefficients, straw production, drainage classes) from files or
// from the embedded defaults.
package reftables

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/pkg/methane"
	"gopkg.in/yaml.v3"
)

//go:embed data/tables.yaml
var defaultTablesYAML []byte

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the decoder by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported tables file %q: want .yaml, .yml, .json or .xlsx", path)
}

type fileDrainageClass struct {
	Label  string `yaml:"label" json:"label"`
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	NameEn string `yaml:"name_en,omitempty" json:"name_en,omitempty"`
}

type fileRegion struct {
	Code   string `yaml:"code" json:"code"`
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	NameEn string `yaml:"name_en,omitempty" json:"name_en,omitempty"`
}

type filePrefecture struct {
	Name                 string  `yaml:"name" json:"name"`
	NameEn               string  `yaml:"name_en,omitempty" json:"name_en,omitempty"`
	Region               string  `yaml:"region" json:"region"`
	StrawProductionKg10a float64 `yaml:"straw_production_kg_10a" json:"straw_production_kg_10a"`
}

type fileTables struct {
	DrainageClasses []fileDrainageClass            `yaml:"drainage_classes" json:"drainage_classes"`
	Regions         []fileRegion                   `yaml:"regions,omitempty" json:"regions,omitempty"`
	Prefectures     []filePrefecture               `yaml:"prefectures" json:"prefectures"`
	Coefficients    map[string]domain.Coefficients `yaml:"coefficients" json:"coefficients"`
}

func (f *fileTables) spec() methane.TablesSpec {
	spec := methane.TablesSpec{
		Coefficients: make(map[domain.CoefficientKey]domain.Coefficients, len(f.Coefficients)),
	}
	for _, c := range f.DrainageClasses {
		spec.DrainageClasses = append(spec.DrainageClasses, domain.DrainageClassInfo{
			Label:  domain.DrainageClass(strings.TrimSpace(c.Label)),
			Name:   c.Name,
			NameEn: c.NameEn,
		})
	}
	for _, r := range f.Regions {
		spec.Regions = append(spec.Regions, methane.RegionSpec{
			Code:   domain.RegionCode(strings.TrimSpace(r.Code)),
			Name:   r.Name,
			NameEn: r.NameEn,
		})
	}
	for _, p := range f.Prefectures {
		spec.Prefectures = append(spec.Prefectures, methane.PrefectureSpec{
			Name:                 domain.Prefecture(strings.TrimSpace(p.Name)),
			NameEn:               p.NameEn,
			Region:               domain.RegionCode(strings.TrimSpace(p.Region)),
			StrawProductionKg10a: p.StrawProductionKg10a,
		})
	}
	for k, c := range f.Coefficients {
		spec.Coefficients[domain.CoefficientKey(strings.TrimSpace(k))] = c
	}
	return spec
}

func fromSpec(spec methane.TablesSpec) *fileTables {
	f := &fileTables{Coefficients: make(map[string]domain.Coefficients, len(spec.Coefficients))}
	for _, c := range spec.DrainageClasses {
		f.DrainageClasses = append(f.DrainageClasses, fileDrainageClass{Label: string(c.Label), Name: c.Name, NameEn: c.NameEn})
	}
	for _, r := range spec.Regions {
		f.Regions = append(f.Regions, fileRegion{Code: string(r.Code), Name: r.Name, NameEn: r.NameEn})
	}
	for _, p := range spec.Prefectures {
		f.Prefectures = append(f.Prefectures, filePrefecture{
			Name:                 string(p.Name),
			NameEn:               p.NameEn,
			Region:               string(p.Region),
			StrawProductionKg10a: p.StrawProductionKg10a,
		})
	}
	for k, c := range spec.Coefficients {
		f.Coefficients[string(k)] = c
	}
	return f
}

// Load reads the tables at path, or the embedded defaults when path is
// empty, and validates them completely. Incomplete tables are an error.
func Load(path string) (*methane.Tables, error) {
	spec, err := LoadSpec(path)
	if err != nil {
		return nil, err
	}
	return Build(spec)
}

// Build validates spec and checks that every reachable coefficient exists.
func Build(spec methane.TablesSpec) (*methane.Tables, error) {
	tables, err := methane.NewTables(spec)
	if err != nil {
		return nil, err
	}
	if err := tables.CheckComplete(); err != nil {
		return nil, err
	}
	return tables, nil
}

// LoadSpec reads the raw tables without validating them.
func LoadSpec(path string) (methane.TablesSpec, error) {
	if path == "" {
		return Decode(bytes.NewReader(defaultTablesYAML), FormatYAML)
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return methane.TablesSpec{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return methane.TablesSpec{}, fmt.Errorf("open tables: %w", err)
	}
	defer f.Close()

	spec, err := Decode(f, format)
	if err != nil {
		return methane.TablesSpec{}, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Default returns the embedded reference tables.
func Default() (*methane.Tables, error) {
	return Load("")
}

func Decode(r io.Reader, format Format) (methane.TablesSpec, error) {
	switch format {
	case FormatXLSX:
		return decodeXLSX(r)
	case FormatYAML, FormatJSON:
	default:
		return methane.TablesSpec{}, fmt.Errorf("unsupported format %q", format)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return methane.TablesSpec{}, fmt.Errorf("read tables: %w", err)
	}

	var ft fileTables
	if format == FormatYAML {
		err = yaml.Unmarshal(data, &ft)
	} else {
		err = sonic.Unmarshal(data, &ft)
	}
	if err != nil {
		return methane.TablesSpec{}, fmt.Errorf("decode %s tables: %w", format, err)
	}
	return ft.spec(), nil
}

// Encode writes spec as YAML or JSON. XLSX output is not supported.
func Encode(w io.Writer, spec methane.TablesSpec, format Format) error {
	ft := fromSpec(spec)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ft); err != nil {
			return fmt.Errorf("encode yaml tables: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		data, err := sonic.ConfigStd.MarshalIndent(ft, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json tables: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	}
	return fmt.Errorf("cannot encode tables as %q", format)
}
