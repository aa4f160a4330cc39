package enums

type ArticleCategory string

const (
	ArticleCategoryFarmingTips    ArticleCategory = "farming-tips"
	ArticleCategoryMarketTrends   ArticleCategory = "market-trends"
	ArticleCategoryTechnology     ArticleCategory = "technology"
	ArticleCategorySustainability ArticleCategory = "sustainability"
	ArticleCategoryNews           ArticleCategory = "news"
	ArticleCategoryGuides         ArticleCategory = "guides"
	ArticleCategorySeasonal       ArticleCategory = "seasonal"
)

var validArticleCategories = []ArticleCategory{
	ArticleCategoryFarmingTips,
	ArticleCategoryMarketTrends,
	ArticleCategoryTechnology,
	ArticleCategorySustainability,
	ArticleCategoryNews,
	ArticleCategoryGuides,
	ArticleCategorySeasonal,
}

func (c ArticleCategory) IsValid() bool {
	return contains(validArticleCategories, c)
}

func ParseArticleCategory(value string) (ArticleCategory, error) {
	return parse(validArticleCategories, value, "article category")
}

// ArticleStatus controls public visibility. Only published articles are
// listed outside the admin surface.
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
	ArticleStatusArchived  ArticleStatus = "archived"
)

var validArticleStatuses = []ArticleStatus{
	ArticleStatusDraft,
	ArticleStatusPublished,
	ArticleStatusArchived,
}

func (s ArticleStatus) IsValid() bool {
	return contains(validArticleStatuses, s)
}

func ParseArticleStatus(value string) (ArticleStatus, error) {
	return parse(validArticleStatuses, value, "article status")
}
