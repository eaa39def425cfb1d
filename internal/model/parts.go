package model

// Ingredient — строка списка ингредиентов рецепта/черновика.
type Ingredient struct {
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	Name       string  `json:"name"`
	Notes      string  `json:"notes,omitempty"`
	GroupName  string  `json:"groupName,omitempty"`
	IsOptional bool    `json:"isOptional"`
}

// Instruction — шаг приготовления. StepNumber начинается с 1 и идёт без пропусков.
type Instruction struct {
	StepNumber  int      `json:"stepNumber"`
	Instruction string   `json:"instruction"`
	Timing      *int     `json:"timing,omitempty"` // минуты
	MediaURLs   []string `json:"mediaUrls"`
}

// Media — изображения рецепта.
type Media struct {
	MainImage        *string  `json:"mainImage"`
	AdditionalImages []string `json:"additionalImages"`
}

// URLs возвращает все ссылки на медиа (главное изображение + дополнительные).
func (m Media) URLs() []string {
	urls := make([]string, 0, len(m.AdditionalImages)+1)
	if m.MainImage != nil && *m.MainImage != "" {
		urls = append(urls, *m.MainImage)
	}
	return append(urls, m.AdditionalImages...)
}

// BasicInfo — основные поля. До публикации все поля опциональны.
type BasicInfo struct {
	Title           string `gorm:"not null;default:''" json:"title"`
	Description     string `json:"description"`
	CuisineType     string `json:"cuisineType"`
	CourseType      string `json:"courseType"`
	DifficultyLevel string `json:"difficultyLevel"`
	PrepTime        *int   `json:"prepTime"`
	CookTime        *int   `json:"cookTime"`
	Servings        *int   `json:"servings"`
	DietCategory    string `json:"dietCategory"`
}

// AdditionalInfo — дополнительная информация (советы по готовке).
type AdditionalInfo struct {
	CookingTips []string `json:"cookingTips"`
}
