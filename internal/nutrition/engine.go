// Package nutrition считает пищевую ценность набора ингредиентов через внешний API
// и решает, актуален ли ранее сохранённый расчёт.
package nutrition

import (
	"Cookbook/internal/model"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrInvalidIngredients = errors.New("invalid ingredients")
	ErrRateLimited        = errors.New("nutrition api rate limited")
	ErrUnavailable        = errors.New("nutrition api unavailable")
)

// Item — минимальная форма ингредиента для расчёта.
type Item struct {
	Quantity float64
	Unit     string
	Name     string
}

// Analysis — ответ внешнего API: суммарные нутриенты по кодам и выход порций.
type Analysis struct {
	Yield     float64
	Nutrients map[string]float64
}

// Provider — внешний сервис расчёта. Принимает пакет строк "qty unit name" за один вызов.
type Provider interface {
	Analyze(ctx context.Context, lines []string) (*Analysis, error)
}

// Cache хранит готовые расчёты по отпечатку набора ингредиентов.
type Cache interface {
	Get(ctx context.Context, version string) (*model.NutritionalInfo, bool, error)
	Set(ctx context.Context, version string, info *model.NutritionalInfo) error
}

// Engine — расчёт пищевой ценности.
type Engine struct {
	provider Provider
	cache    Cache
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewEngine создаёт движок. cache может быть nil — тогда кэш не используется.
func NewEngine(provider Provider, cache Cache, logger *zap.SugaredLogger) *Engine {
	return &Engine{provider: provider, cache: cache, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Calculate считает пищевую ценность, используя кэш по ingredientVersion.
func (e *Engine) Calculate(ctx context.Context, items []Item) (*model.NutritionalInfo, error) {
	return e.calculate(ctx, items, true)
}

// Refresh считает заново, минуя чтение из кэша.
func (e *Engine) Refresh(ctx context.Context, items []Item) (*model.NutritionalInfo, error) {
	return e.calculate(ctx, items, false)
}

func (e *Engine) calculate(ctx context.Context, items []Item, useCache bool) (*model.NutritionalInfo, error) {
	if err := validate(items); err != nil {
		return nil, err
	}
	version := Version(items)

	if useCache && e.cache != nil {
		info, ok, err := e.cache.Get(ctx, version)
		if err != nil {
			e.logger.Warnw("nutrition cache get failed", "error", err)
		} else if ok {
			hit := *info
			hit.LastCalculated = e.now()
			return &hit, nil
		}
	}

	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, FormatLine(it))
	}
	analysis, err := e.provider.Analyze(ctx, lines)
	if err != nil {
		return nil, err
	}

	info := toInfo(analysis)
	info.LastCalculated = e.now()
	info.IngredientVersion = version

	if e.cache != nil {
		if err := e.cache.Set(ctx, version, info); err != nil {
			e.logger.Warnw("nutrition cache set failed", "error", err)
		}
	}
	return info, nil
}

// ShouldRecalculate — true, если расчёта нет или набор ингредиентов изменился.
func (e *Engine) ShouldRecalculate(r *model.Recipe) bool {
	if r.NutritionalInfo == nil {
		return true
	}
	return Version(ItemsOf(r.Ingredients)) != r.NutritionalInfo.IngredientVersion
}

// ItemsOf приводит ингредиенты к минимальной форме (без заметок, групп и опциональности).
func ItemsOf(ingredients []model.Ingredient) []Item {
	items := make([]Item, 0, len(ingredients))
	for _, ing := range ingredients {
		items = append(items, Item{Quantity: ing.Quantity, Unit: ing.Unit, Name: ing.Name})
	}
	return items
}

// FormatLine форматирует ингредиент строкой "qty unit name".
func FormatLine(it Item) string {
	return strconv.FormatFloat(it.Quantity, 'f', -1, 64) + " " + it.Unit + " " + it.Name
}

// Version — отпечаток набора ингредиентов, не зависящий от порядка.
func Version(items []Item) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, FormatLine(it))
	}
	sort.Strings(lines)
	return strings.Join(lines, "|")
}

func validate(items []Item) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: empty list", ErrInvalidIngredients)
	}
	for i, it := range items {
		if it.Quantity <= 0 || strings.TrimSpace(it.Unit) == "" || strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("%w: item %d needs quantity, unit and name", ErrInvalidIngredients, i)
		}
	}
	return nil
}

// Коды нутриентов внешнего API.
const (
	codeCalories   = "ENERC_KCAL"
	codeProtein    = "PROCNT"
	codeCarbs      = "CHOCDF"
	codeFat        = "FAT"
	codeFiber      = "FIBTG"
	codeVitaminA   = "VITA_RAE"
	codeVitaminC   = "VITC"
	codeVitaminD   = "VITD"
	codeVitaminE   = "TOCPHA"
	codeVitaminK   = "VITK1"
	codeVitaminB6  = "VITB6A"
	codeVitaminB12 = "VITB12"
	codeCalcium    = "CA"
	codeIron       = "FE"
	codeMagnesium  = "MG"
	codeZinc       = "ZN"
)

func toInfo(a *Analysis) *model.NutritionalInfo {
	n := func(code string) int { return round(a.Nutrients[code]) }
	return &model.NutritionalInfo{
		Calories: n(codeCalories),
		Protein:  n(codeProtein),
		Carbs:    n(codeCarbs),
		Fat:      n(codeFat),
		Fiber:    n(codeFiber),
		Vitamins: model.Vitamins{
			A:   n(codeVitaminA),
			C:   n(codeVitaminC),
			D:   n(codeVitaminD),
			E:   n(codeVitaminE),
			K:   n(codeVitaminK),
			B6:  n(codeVitaminB6),
			B12: n(codeVitaminB12),
		},
		Minerals: model.Minerals{
			Calcium:   n(codeCalcium),
			Iron:      n(codeIron),
			Magnesium: n(codeMagnesium),
			Zinc:      n(codeZinc),
		},
		Servings: round(a.Yield),
	}
}

// round округляет до целого; отрицательные и NaN дают 0.
func round(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return int(math.Round(v))
}
