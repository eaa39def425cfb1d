package model

import "time"

// Recipe — опубликованный рецепт. Меняется только явной правкой владельца
// или пересчётом пищевой ценности.
type Recipe struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID int64  `gorm:"not null;index" json:"userId"`

	BasicInfo BasicInfo `gorm:"embedded" json:"basicInfo"`

	Ingredients     []Ingredient     `gorm:"serializer:json;type:jsonb" json:"ingredients"`
	Instructions    []Instruction    `gorm:"serializer:json;type:jsonb" json:"instructions"`
	Media           Media            `gorm:"serializer:json;type:jsonb" json:"media"`
	Tags            []string         `gorm:"serializer:json;type:jsonb" json:"tags"`
	AdditionalInfo  AdditionalInfo   `gorm:"serializer:json;type:jsonb" json:"additionalInfo"`
	NutritionalInfo *NutritionalInfo `gorm:"serializer:json;type:jsonb" json:"nutritionalInfo"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Vitamins — витамины, округлены до целых.
type Vitamins struct {
	A   int `json:"a"`
	C   int `json:"c"`
	D   int `json:"d"`
	E   int `json:"e"`
	K   int `json:"k"`
	B6  int `json:"b6"`
	B12 int `json:"b12"`
}

// Minerals — минералы, округлены до целых.
type Minerals struct {
	Calcium   int `json:"calcium"`
	Iron      int `json:"iron"`
	Magnesium int `json:"magnesium"`
	Zinc      int `json:"zinc"`
}

// NutritionalInfo — рассчитанная пищевая ценность.
// IngredientVersion — отпечаток набора ингредиентов, по которому был сделан расчёт.
type NutritionalInfo struct {
	Calories          int       `json:"calories"`
	Protein           int       `json:"protein"`
	Carbs             int       `json:"carbs"`
	Fat               int       `json:"fat"`
	Fiber             int       `json:"fiber"`
	Vitamins          Vitamins  `json:"vitamins"`
	Minerals          Minerals  `json:"minerals"`
	Servings          int       `json:"servings"`
	LastCalculated    time.Time `json:"lastCalculated"`
	IngredientVersion string    `json:"ingredientVersion"`
}
