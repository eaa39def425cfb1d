package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrNotFound — сущность отсутствует или принадлежит другому пользователю.
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("draft with this title already exists")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrTransactionFailed  = errors.New("publish transaction failed")
	// ErrPublishFailed — публикация не состоялась, черновик не тронут, можно повторить.
	ErrPublishFailed = errors.New("publish failed")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// validID: id черновиков и рецептов всегда UUID в каноническом виде. Колонка
// в Postgres имеет тип uuid и отвергает другие строки ошибкой, а не пустой выборкой,
// поэтому такой id считается отсутствующим ещё до запроса.
func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// notFound переводит gorm.ErrRecordNotFound в ErrNotFound, остальные ошибки не трогает.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
