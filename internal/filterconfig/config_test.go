package filterconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
fund_types: ["股票型", "混合型"]
exclude_keywords: ["债券", "货币"]
themes:
  - name: 白酒
    keywords: ["白酒"]
  - name: 红利
    keywords: ["红利", "股息"]
`

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestThemesFor(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name string
		want []string
	}{
		{"易方达消费行业股票", []string{"大消费"}},
		{"招商中证白酒指数A", []string{"白酒"}},
		{"华夏成长混合", []string{DefaultTheme}},
		{"诺安成长半导体芯片", []string{"半导体芯片"}},
		{"某某医疗器械指数", []string{"医药医疗", "医疗器械"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.ThemesFor(tt.name))
		})
	}
}

func TestTargetTypeAndExclusion(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.IsTargetType("混合型-偏股"))
	assert.True(t, cfg.IsTargetType("QDII-股票型"))
	assert.False(t, cfg.IsTargetType("债券型-长债"))

	assert.True(t, cfg.Excluded("某某纯债债券A"))
	assert.True(t, cfg.Excluded("某某稳健混合"))
	assert.False(t, cfg.Excluded("华夏成长混合"))
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"股票型", "混合型"}, cfg.FundTypes)
	assert.Equal(t, DefaultTheme, cfg.DefaultTheme)
	assert.Equal(t, []string{"红利"}, cfg.ThemesFor("某某红利低波"))
	assert.Equal(t, []string{DefaultTheme}, cfg.ThemesFor("某某成长"))
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("fund_types: [\"股票型\"]\nfund_typo: []\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(c *Config)
		field string
	}{
		{"no fund types", func(c *Config) { c.FundTypes = nil }, "fund_types"},
		{"blank keyword", func(c *Config) { c.ExcludeKeywords = append(c.ExcludeKeywords, " ") }, "exclude_keywords[22]"},
		{"no default theme", func(c *Config) { c.DefaultTheme = "" }, "default_theme"},
		{"duplicate theme", func(c *Config) { c.Themes = append(c.Themes, c.Themes[0]) }, "themes[48].name"},
		{"theme without keywords", func(c *Config) { c.Themes[0].Keywords = nil }, "themes[0].keywords"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mut(cfg)

			err := Validate(cfg)
			var verr ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLoadAndHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, raw, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleYAML, string(raw))

	h1, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, h1, 64)

	h2, err := Hash(Default())
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	again, _ := Hash(cfg)
	assert.Equal(t, h1, again)
}

func TestLoad_Missing(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
