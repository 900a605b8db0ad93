package capture

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
)

// Clipboard читает текст из системного буфера обмена
type Clipboard struct{}

func NewClipboard() *Clipboard {
	return &Clipboard{}
}

// ReadText возвращает текущее текстовое содержимое буфера обмена.
// Нетекстовое содержимое (картинки, файлы) дает пустую строку.
func (c *Clipboard) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return text, nil
}
