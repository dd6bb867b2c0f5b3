package filterconfig

import (
	"fmt"
	"strings"
)

// ValidationError 검증 실패 (로딩 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	if len(cfg.FundTypes) == 0 {
		return ValidationError{"fund_types", "at least one fund type required"}
	}
	if i := blankIndex(cfg.FundTypes); i >= 0 {
		return ValidationError{fmt.Sprintf("fund_types[%d]", i), "must not be blank"}
	}
	if i := blankIndex(cfg.ExcludeKeywords); i >= 0 {
		return ValidationError{fmt.Sprintf("exclude_keywords[%d]", i), "must not be blank"}
	}
	if strings.TrimSpace(cfg.DefaultTheme) == "" {
		return ValidationError{"default_theme", "required"}
	}

	seen := make(map[string]bool, len(cfg.Themes))
	for i, th := range cfg.Themes {
		field := fmt.Sprintf("themes[%d]", i)
		if strings.TrimSpace(th.Name) == "" {
			return ValidationError{field + ".name", "required"}
		}
		if seen[th.Name] {
			return ValidationError{field + ".name", fmt.Sprintf("duplicate theme %q", th.Name)}
		}
		seen[th.Name] = true

		if len(th.Keywords) == 0 {
			return ValidationError{field + ".keywords", "at least one keyword required"}
		}
		if j := blankIndex(th.Keywords); j >= 0 {
			return ValidationError{fmt.Sprintf("%s.keywords[%d]", field, j), "must not be blank"}
		}
	}

	return nil
}

func blankIndex(xs []string) int {
	for i, x := range xs {
		if strings.TrimSpace(x) == "" {
			return i
		}
	}
	return -1
}
