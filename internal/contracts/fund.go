package contracts

// Fund master data for one candidate fund
type Fund struct {
	Code   string   `json:"code" msgpack:"c"`
	Name   string   `json:"name" msgpack:"n"`
	Type   string   `json:"type" msgpack:"t"`
	Themes []string `json:"themes,omitempty" msgpack:"th"`
}

// HasTheme reports whether the fund is tagged with theme
func (f *Fund) HasTheme(theme string) bool {
	for _, t := range f.Themes {
		if t == theme {
			return true
		}
	}
	return false
}

// FilterConfig controls candidate listing
type FilterConfig struct {
	// SkipFilter returns the raw provider universe without type/keyword filtering
	SkipFilter bool `json:"skip_filter"`
}
