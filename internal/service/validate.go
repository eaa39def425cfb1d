package service

import (
	"Cookbook/internal/model"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxTags             = 10
	MaxTagLength        = 20
	MaxAdditionalImages = 5
)

var tagRe = regexp.MustCompile(`^[A-Za-z0-9\s-]+$`)

// ValidateTags проверяет набор тегов целиком: количество, длину, алфавит и уникальность.
func ValidateTags(tags []string) error {
	if len(tags) > MaxTags {
		return validationError("at most %d tags allowed, got %d", MaxTags, len(tags))
	}
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return validationError("tag must not be empty")
		}
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return validationError("tag %q is longer than %d characters", tag, MaxTagLength)
		}
		if !tagRe.MatchString(tag) {
			return validationError("tag %q may contain only letters, digits, spaces and hyphens", tag)
		}
		if _, dup := seen[tag]; dup {
			return validationError("duplicate tag %q", tag)
		}
		seen[tag] = struct{}{}
	}
	return nil
}

// ValidateIngredients — имя обязательно, количество не отрицательное.
func ValidateIngredients(ingredients []model.Ingredient) error {
	for i, ing := range ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return validationError("ingredient %d: name is required", i+1)
		}
		if ing.Quantity < 0 {
			return validationError("ingredient %d: quantity must not be negative", i+1)
		}
	}
	return nil
}

// ValidateInstructions — шаги нумеруются с 1 подряд, без пропусков.
func ValidateInstructions(steps []model.Instruction) error {
	for i, step := range steps {
		if step.StepNumber != i+1 {
			return validationError("instruction %d: stepNumber must be %d, got %d", i+1, i+1, step.StepNumber)
		}
		if step.Timing != nil && *step.Timing < 0 {
			return validationError("instruction %d: timing must not be negative", i+1)
		}
	}
	return nil
}

// ValidateMedia ограничивает число дополнительных изображений.
func ValidateMedia(m model.Media) error {
	if len(m.AdditionalImages) > MaxAdditionalImages {
		return validationError("at most %d additional images allowed", MaxAdditionalImages)
	}
	return nil
}

// validateForPublish — минимальный набор полей, без которого рецепт не публикуется.
func validateForPublish(d *model.Draft) error {
	if strings.TrimSpace(d.BasicInfo.Title) == "" {
		return validationError("title is required")
	}
	if len(d.Ingredients) == 0 {
		return validationError("at least one ingredient is required")
	}
	if len(d.Instructions) == 0 {
		return validationError("at least one instruction is required")
	}
	return nil
}

// SplitCookingTips разбивает заметки по строкам, пустые строки отбрасываются.
func SplitCookingTips(notes string) []string {
	tips := []string{}
	for _, line := range strings.Split(notes, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			tips = append(tips, line)
		}
	}
	return tips
}
