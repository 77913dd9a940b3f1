package point

import "errors"

var (
	ErrNotFound       = errors.New("точка не найдена")
	ErrAlreadyDeleted = errors.New("точка уже удалена")
)
