package bulkimport

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/agency-platform/internal/repository"
)

// Алфавит кодов без визуально двусмысленных символов (I/1/L, O/0, S/5,
// Z/2). Код всегда шесть символов, уникален в пределах агентства.
const (
	codeAlphabet    = "ABCDEFGHJKMNPQRTUVWXY346789"
	codeLength      = 6
	maxCodeAttempts = 40
)

// NormalizeCode приводит предоставленный код к канонической форме:
// выбрасывает всё, кроме букв и цифр, и поднимает регистр. Второе
// значение — true, только если осталось ровно шесть символов; любой
// другой результат означает, что код надо сгенерировать заново.
func NormalizeCode(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	code := b.String()
	return code, len(code) == codeLength
}

// CodeGenerator выдаёт свежие коды клиентов с проверкой занятости.
type CodeGenerator struct {
	clients repository.ClientRepository
}

func NewCodeGenerator(clients repository.ClientRepository) *CodeGenerator {
	return &CodeGenerator{clients: clients}
}

// Generate подбирает свободный код, делая не более maxCodeAttempts
// попыток. Исчерпание попыток возвращает ErrCodeExhausted — строка
// импорта с таким исходом отказывает.
func (g *CodeGenerator) Generate(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		taken, err := g.clients.CodeTaken(ctx, tx, agencyID, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

func randomCode() (string, error) {
	b := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Wrap(err, "random code")
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}
