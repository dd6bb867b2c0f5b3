package eastmoney

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/filterconfig"
)

// rawFund one row of fundcode_search.js: code, pinyin abbr, name, type, pinyin
type rawFund struct {
	Code string
	Name string
	Type string
}

// ListCandidateFunds fetches the full fund list and applies the candidate filter
func (c *Client) ListCandidateFunds(ctx context.Context, filter contracts.FilterConfig) ([]contracts.Fund, error) {
	body, err := c.fetch(ctx, c.fundBaseURL, "/js/fundcode_search.js", nil)
	if err != nil {
		return nil, fmt.Errorf("fund list: %w", err)
	}

	all, err := parseFundList(body)
	if err != nil {
		return nil, err
	}

	funds := filterFunds(all, filter.SkipFilter, c.rules)

	c.logger.WithFields(map[string]interface{}{
		"total":       len(all),
		"candidates":  len(funds),
		"skip_filter": filter.SkipFilter,
	}).Info("Fetched candidate funds")
	return funds, nil
}

// parseFundList decodes `var r = [["000001","HXCZHH","华夏成长混合","混合型-偏股","..."],...];`
func parseFundList(body []byte) ([]rawFund, error) {
	start := bytes.IndexByte(body, '[')
	end := bytes.LastIndexByte(body, ']')
	if start < 0 || end < start {
		return nil, fmt.Errorf("fund list: unexpected payload")
	}

	var rows [][]string
	if err := json.Unmarshal(body[start:end+1], &rows); err != nil {
		return nil, fmt.Errorf("fund list: decode: %w", err)
	}

	funds := make([]rawFund, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		code := strings.TrimSpace(row[0])
		if code == "" {
			continue
		}
		funds = append(funds, rawFund{
			Code: padCode(code),
			Name: strings.TrimSpace(row[2]),
			Type: strings.TrimSpace(row[3]),
		})
	}
	return funds, nil
}

// filterFunds keeps target fund types; without skip it also drops excluded
// keywords, non-primary share classes and feeder C/E classes.
func filterFunds(all []rawFund, skip bool, rules *filterconfig.Config) []contracts.Fund {
	out := make([]contracts.Fund, 0, len(all)/4)
	for _, f := range all {
		if !rules.IsTargetType(f.Type) {
			continue
		}
		if !skip {
			if rules.Excluded(f.Name) {
				continue
			}
			if hasShareClassSuffix(f.Name) {
				continue
			}
			if strings.Contains(f.Name, "联接C") || strings.Contains(f.Name, "联接E") {
				continue
			}
		}
		out = append(out, contracts.Fund{
			Code:   f.Code,
			Name:   f.Name,
			Type:   f.Type,
			Themes: rules.ThemesFor(f.Name),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Code < out[j].Code
	})
	return out
}

// hasShareClassSuffix reports names ending in B/C/D/E/H/R not preceded by a digit.
// A lone suffix letter counts as a share class.
func hasShareClassSuffix(name string) bool {
	runes := []rune(name)
	if len(runes) == 0 {
		return false
	}
	last := runes[len(runes)-1]
	if !strings.ContainsRune("BCDEHR", last) {
		return false
	}
	if len(runes) == 1 {
		return true
	}
	return !unicode.IsDigit(runes[len(runes)-2])
}

// padCode zero-fills numeric codes to 6 digits
func padCode(code string) string {
	if len(code) >= 6 {
		return code
	}
	return strings.Repeat("0", 6-len(code)) + code
}
