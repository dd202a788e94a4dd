package domain

import "math"

// Математические константы
const (
	Epsilon  = 1e-9
	Infinity = math.MaxFloat64
)

// Ограничения модели сети
const (
	// MaxNetworkNodes предел узлов по умолчанию (модель малых сетей)
	MaxNetworkNodes = 16

	// DefaultMaxIterations защитный лимит аугментаций
	DefaultMaxIterations = 10000
)

// Утилизация и пороги насыщения
const (
	SaturationThreshold        = 1.0
	HighUtilizationThreshold   = 0.95
	MediumUtilizationThreshold = 0.90
	LowUtilizationThreshold    = 0.80
)

// FloatEquals сравнивает два float64 с учётом Epsilon
func FloatEquals(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// FloatLess проверяет a < b с учётом Epsilon
func FloatLess(a, b float64) bool {
	return a < b-Epsilon
}

// FloatGreater проверяет a > b с учётом Epsilon
func FloatGreater(a, b float64) bool {
	return a > b+Epsilon
}

// IsZero проверяет, равно ли значение нулю
func IsZero(v float64) bool {
	return math.Abs(v) < Epsilon
}

// IsPositive проверяет, положительно ли значение
func IsPositive(v float64) bool {
	return v > Epsilon
}

// IsFinite проверяет, что значение числовое и конечное
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Min возвращает минимум двух float64
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Max возвращает максимум двух float64
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
