// Package filterconfig holds the candidate universe rules: which fund types
// are evaluated, which names are excluded, and how names map to themes.
package filterconfig

import "strings"

// DefaultTheme is assigned when no theme keyword matches
const DefaultTheme = "综合"

// Config candidate filter and theme tagging rules
// ⭐ SSOT: 후보 필터/테마 규칙은 여기서만. YAML로 교체 가능
type Config struct {
	// FundTypes loose match against the provider's type column ("混合型-偏股" matches "混合型")
	FundTypes       []string `yaml:"fund_types" json:"fund_types"`
	ExcludeKeywords []string `yaml:"exclude_keywords" json:"exclude_keywords"`
	DefaultTheme    string   `yaml:"default_theme" json:"default_theme"`
	// Themes order matters: themes are reported in this order
	Themes []Theme `yaml:"themes" json:"themes"`
}

// Theme one tagging rule
type Theme struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Default returns the built-in rules
func Default() *Config {
	return &Config{
		FundTypes: []string{"混合型", "股票型", "股票指数", "QDII-混合型", "QDII-股票型"},
		ExcludeKeywords: []string{
			"货币", "债券", "FOF", "定开", "持有", "封闭",
			"养老", "理财", "ETF联接", "联接",
			"中短债", "纯债", "增强债", "双债", "添利", "添益",
			"稳健", "安心", "安享", "月月", "季季", "年年",
		},
		DefaultTheme: DefaultTheme,
		Themes: []Theme{
			// 주요 업종
			{Name: "大消费", Keywords: []string{"消费", "商贸", "零售", "休闲", "餐饮", "乳业"}},
			{Name: "白酒", Keywords: []string{"白酒", "酒"}},
			{Name: "食品饮料", Keywords: []string{"食品", "饮料"}},
			{Name: "家电", Keywords: []string{"家电", "电器"}},
			{Name: "美妆", Keywords: []string{"美妆", "洗护", "化妆品", "个护"}},
			{Name: "旅游酒店", Keywords: []string{"酒店", "旅游"}},
			{Name: "农业养殖", Keywords: []string{"农业", "养殖", "畜牧", "猪"}},

			{Name: "科技TMT", Keywords: []string{"科技", "核心科技", "技术", "前沿", "TMT"}},
			{Name: "半导体芯片", Keywords: []string{"半导体", "芯片", "集成电路"}},
			{Name: "计算机", Keywords: []string{"计算机", "软件", "信创", "云计算", "互联网"}},
			{Name: "电子", Keywords: []string{"电子", "消费电子"}},
			{Name: "通信", Keywords: []string{"通信", "5G", "6G"}},
			{Name: "传媒游戏", Keywords: []string{"传媒", "游戏", "文化", "娱乐"}},

			{Name: "新能源", Keywords: []string{"新能源", "碳中和", "绿色", "环保"}},
			{Name: "光伏", Keywords: []string{"光伏", "太阳能"}},
			{Name: "新能源车", Keywords: []string{"新能源车", "电车", "整车", "锂", "锂电", "电池"}},
			{Name: "风电", Keywords: []string{"风电"}},
			{Name: "储能", Keywords: []string{"储能"}},

			{Name: "医药医疗", Keywords: []string{"医药", "医疗", "健康", "药", "生命"}},
			{Name: "创新药", Keywords: []string{"创新药", "生物"}},
			{Name: "医疗器械", Keywords: []string{"器械", "医疗器械"}},
			{Name: "医疗服务", Keywords: []string{"医疗服务", "CXO", "医院", "药店"}},
			{Name: "中药", Keywords: []string{"中药"}},
			{Name: "生物疫苗", Keywords: []string{"疫苗"}},

			{Name: "金融", Keywords: []string{"金融", "非银"}},
			{Name: "银行", Keywords: []string{"银行"}},
			{Name: "券商", Keywords: []string{"证券", "券商"}},
			{Name: "保险", Keywords: []string{"保险"}},
			{Name: "房地产", Keywords: []string{"地产", "房地产", "建筑", "不动产"}},

			{Name: "周期", Keywords: []string{"周期", "资源", "基础能源", "交通", "基建"}},
			{Name: "煤炭", Keywords: []string{"煤炭"}},
			{Name: "钢铁", Keywords: []string{"钢铁"}},
			{Name: "有色金属", Keywords: []string{"有色", "金属", "黄金", "铜", "铝"}},
			{Name: "化工", Keywords: []string{"化工", "石化", "炼化"}},

			{Name: "高端制造", Keywords: []string{"制造", "工业", "智造", "母机", "装备"}},
			{Name: "航天军工", Keywords: []string{"军工", "国防", "航空", "航天"}},
			{Name: "航空航天", Keywords: []string{"航空", "航天", "卫星", "大飞机"}},
			{Name: "国防军工", Keywords: []string{"国防", "军工", "武器"}},
			{Name: "机器人", Keywords: []string{"机器人", "机电", "工业母机"}},

			// 컨셉/스타일
			{Name: "红利", Keywords: []string{"红利", "高股息", "股息"}},
			{Name: "人工智能", Keywords: []string{"人工智能", "AI", "大模型", "算力", "智能"}},
			{Name: "ESG", Keywords: []string{"ESG", "社会责任", "治理"}},
			{Name: "中特估", Keywords: []string{"中特估", "央企", "国企", "特估"}},
			{Name: "出海", Keywords: []string{"出海", "跨境", "海外", "纳斯达克", "美股", "全球", "越南", "印度"}},

			// 자산 분류
			{Name: "权益类", Keywords: []string{"股票型", "混合型", "偏股"}},
			{Name: "固收类", Keywords: []string{"债券", "债", "固收", "中短债", "纯债"}},
			{Name: "商品类", Keywords: []string{"黄金ETF", "豆粕ETF", "原油", "大宗商品"}},
			{Name: "REITs", Keywords: []string{"REITs", "不动产信托", "产业园"}},
		},
	}
}

// IsTargetType reports whether a provider type column is evaluated
func (c *Config) IsTargetType(fundType string) bool {
	return containsAny(fundType, c.FundTypes)
}

// Excluded reports whether a fund name hits an exclusion keyword
func (c *Config) Excluded(name string) bool {
	return containsAny(name, c.ExcludeKeywords)
}

// ThemesFor tags a fund name with every theme whose keywords match
func (c *Config) ThemesFor(name string) []string {
	var themes []string
	for _, rule := range c.Themes {
		if containsAny(name, rule.Keywords) {
			themes = append(themes, rule.Name)
		}
	}
	if len(themes) == 0 {
		return []string{c.DefaultTheme}
	}
	return themes
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
