// Package validators содержит проверки описания сети, выполняемые до
// запуска алгоритма. В отличие от конструктора domain.NewNetwork, который
// останавливается на первой ошибке, валидаторы собирают полные списки
// ошибок и предупреждений для ответа клиенту.
package validators

import (
	"errors"
	"fmt"
	"strings"

	"flownet/pkg/apperror"
	"flownet/pkg/domain"
)

// Level определяет глубину валидации.
type Level string

const (
	// LevelStructural только структура: узлы, рёбра, пропускные способности
	LevelStructural Level = "structural"
	// LevelPolicy структура плюс доменные ограничения на направление рёбер
	LevelPolicy Level = "policy"
	// LevelConnectivity структура плюс достижимость исток→сток
	LevelConnectivity Level = "connectivity"
	// LevelFull все проверки
	LevelFull Level = "full"
)

// ParseLevel разбирает уровень из запроса. Пустая строка означает полный
// уровень, незнакомое значение — ошибка INVALID_ARGUMENT.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return LevelFull, nil
	case LevelStructural, LevelPolicy, LevelConnectivity, LevelFull:
		return l, nil
	default:
		return "", apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("unknown validation level %q", s), "level")
	}
}

// Result итог валидации на запрошенном уровне.
type Result struct {
	Valid      bool
	Level      Level
	Errors     []*apperror.Error
	Warnings   []*apperror.Error
	Statistics *domain.NetworkStatistics
}

// Validate прогоняет описание сети через проверки запрошенного уровня.
// Структурные проверки выполняются всегда: при структурных ошибках сеть не
// построить, поэтому более глубокие уровни пропускаются, а статистика не
// вычисляется.
func Validate(spec domain.NetworkSpec, level Level) *Result {
	if level == "" {
		level = LevelFull
	}

	issues := ValidateStructure(spec)
	if issues.HasErrors() {
		return resultOf(issues, level, nil)
	}

	if level == LevelPolicy || level == LevelFull {
		issues.Merge(ValidatePolicies(spec))
	}

	n, err := domain.NewNetwork(spec)
	if err != nil {
		issues.Add(toAppError(err))
		return resultOf(issues, level, nil)
	}

	if level == LevelConnectivity || level == LevelFull {
		issues.Merge(ValidateConnectivity(n))
	}

	return resultOf(issues, level, domain.CalculateNetworkStatistics(n))
}

func resultOf(issues *apperror.ValidationErrors, level Level, stats *domain.NetworkStatistics) *Result {
	return &Result{
		Valid:      issues.IsValid(),
		Level:      level,
		Errors:     issues.Errors,
		Warnings:   issues.Warnings,
		Statistics: stats,
	}
}

func toAppError(err error) *apperror.Error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.New(apperror.CodeInvalidNetwork, err.Error())
}
