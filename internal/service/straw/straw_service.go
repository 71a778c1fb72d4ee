package straw

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/domain/dto"
	"github.com/ougirez/ricech4/internal/pkg/logger"
	"github.com/ougirez/ricech4/internal/pkg/methane"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// headerHints mark the column holding straw production in kg/10a.
var headerHints = []string{"稲わら", "わら", "straw"}

var prefectureSuffixes = []string{"都", "道", "府", "県"}

type Service struct {
	client   *http.Client
	retries  uint64
	interval time.Duration
}

func NewStrawService(client *http.Client) *Service {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Service{client: client, retries: 5, interval: 500 * time.Millisecond}
}

// FetchStrawProduction downloads every page concurrently and averages the
// readings found for each known prefecture.
func (s *Service) FetchStrawProduction(ctx context.Context, known []domain.Prefecture, urls ...string) (*dto.StrawProduction, error) {
	out := dto.NewStrawProduction()

	eg, egCtx := errgroup.WithContext(ctx)
	for _, u := range urls {
		u := u
		eg.Go(func() error {
			doc, err := s.fetchDocument(egCtx, u)
			if err != nil {
				return fmt.Errorf("fetchDocument, url-%s: %w", u, err)
			}

			n, err := ParseStrawTables(doc, known, out)
			if err != nil {
				return fmt.Errorf("ParseStrawTables, url-%s: %w", u, err)
			}

			logger.Infof(ctx, "parsed %d straw production rows from %s", n, u)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("err in goroutine: %w", err)
	}
	return out, nil
}

func (s *Service) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	var resp *http.Response
	err := backoff.Retry(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return backoff.Permanent(err)
			}

			r, httpErr := s.client.Do(req)
			if httpErr != nil {
				return fmt.Errorf("http.Get: %w", httpErr)
			}
			if r.StatusCode != http.StatusOK {
				r.Body.Close()
				err = fmt.Errorf("status code error: %d %s", r.StatusCode, r.Status)
				if r.StatusCode >= 400 && r.StatusCode < 500 {
					return backoff.Permanent(err)
				}
				return err
			}

			resp = r
			return nil
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(s.interval), s.retries),
			ctx,
		),
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("goquery.NewDocumentFromReader: %w", err)
	}
	return doc, nil
}

// ParseStrawFile parses a saved statistics page.
func ParseStrawFile(r io.Reader, known []domain.Prefecture) (*dto.StrawProduction, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("goquery.NewDocumentFromReader: %w", err)
	}

	out := dto.NewStrawProduction()
	if _, err = ParseStrawTables(doc, known, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseStrawTables reads every table whose header has a straw column. Rows
// are matched to known prefectures by name with or without the 都道府県
// suffix; other rows (totals, regions) are skipped. It returns the number
// of rows stored.
func ParseStrawTables(doc *goquery.Document, known []domain.Prefecture, out *dto.StrawProduction) (int, error) {
	byName := make(map[string]domain.Prefecture, 2*len(known))
	for _, p := range known {
		byName[string(p)] = p
		byName[trimSuffix(string(p))] = p
	}

	var (
		stored int
		err    error
	)
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		col := -1
		table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			cells := tr.Find("th, td")

			if col < 0 {
				cells.EachWithBreak(func(i int, cell *goquery.Selection) bool {
					if hasHint(cell.Text()) {
						col = i
						return false
					}
					return true
				})
				// rows before the header carry no data
				return true
			}

			if cells.Length() <= col {
				return true
			}
			pref, ok := byName[normalize(cells.Eq(0).Text())]
			if !ok {
				return true
			}

			raw := normalize(cells.Eq(col).Text())
			if raw == "" || raw == "-" || raw == "…" || raw == "x" {
				return true
			}
			val, parseErr := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
			if parseErr != nil {
				err = fmt.Errorf("failed to parse straw production for %s: %w", pref, parseErr)
				return false
			}
			if !val.IsPositive() {
				err = fmt.Errorf("straw production for %s must be > 0, got %s", pref, val)
				return false
			}

			out.Put(pref, val)
			stored++
			return true
		})
		return err == nil
	})
	if err != nil {
		return stored, err
	}
	return stored, nil
}

// Apply copies straw production readings into spec and reports prefectures
// that got no reading.
func Apply(spec methane.TablesSpec, values map[domain.Prefecture]float64) (methane.TablesSpec, []domain.Prefecture) {
	prefs := make([]methane.PrefectureSpec, len(spec.Prefectures))
	copy(prefs, spec.Prefectures)

	var missing []domain.Prefecture
	for i := range prefs {
		if v, ok := values[prefs[i].Name]; ok {
			prefs[i].StrawProductionKg10a = v
		} else {
			missing = append(missing, prefs[i].Name)
		}
	}
	spec.Prefectures = prefs
	return spec, missing
}

func hasHint(s string) bool {
	s = strings.ToLower(s)
	for _, h := range headerHints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '　' {
			return -1
		}
		return r
	}, s)
}

func trimSuffix(name string) string {
	for _, suf := range prefectureSuffixes {
		if strings.HasSuffix(name, suf) && name != "北海道" {
			return strings.TrimSuffix(name, suf)
		}
	}
	return name
}
