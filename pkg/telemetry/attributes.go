package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Сеть
	AttrNetworkNodes  = "network.nodes"
	AttrNetworkEdges  = "network.edges"
	AttrNetworkSource = "network.source"
	AttrNetworkSink   = "network.sink"
	AttrNetworkHash   = "network.hash"

	// Алгоритм
	AttrAlgorithm  = "algorithm.name"
	AttrIterations = "algorithm.iterations"
	AttrMaxFlow    = "algorithm.max_flow"
	AttrStatus     = "algorithm.status"

	// Минимальный разрез
	AttrCutCapacity = "cut.capacity"
	AttrCutEdges    = "cut.edges"

	// Валидация
	AttrValidationLevel  = "validation.level"
	AttrValidationErrors = "validation.errors"
	AttrValidationPassed = "validation.passed"

	// Кэш
	AttrCacheHit = "cache.hit"
	AttrCacheKey = "cache.key"

	// Отчёты
	AttrReportFormat = "report.format"
	AttrReportBytes  = "report.size_bytes"
)

// NetworkAttributes возвращает атрибуты сети
func NetworkAttributes(nodes, edges int, source, sink string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrNetworkNodes, nodes),
		attribute.Int(AttrNetworkEdges, edges),
		attribute.String(AttrNetworkSource, source),
		attribute.String(AttrNetworkSink, sink),
	}
}

// AlgorithmAttributes возвращает атрибуты алгоритма
func AlgorithmAttributes(name string, iterations int, maxFlow float64, status string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAlgorithm, name),
		attribute.Int(AttrIterations, iterations),
		attribute.Float64(AttrMaxFlow, maxFlow),
		attribute.String(AttrStatus, status),
	}
}

// CutAttributes возвращает атрибуты минимального разреза
func CutAttributes(capacity float64, edges int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Float64(AttrCutCapacity, capacity),
		attribute.Int(AttrCutEdges, edges),
	}
}

// ValidationAttributes возвращает атрибуты валидации
func ValidationAttributes(level string, errorsCount int, passed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrValidationLevel, level),
		attribute.Int(AttrValidationErrors, errorsCount),
		attribute.Bool(AttrValidationPassed, passed),
	}
}

// CacheAttributes возвращает атрибуты обращения к кэшу
func CacheAttributes(key string, hit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCacheKey, key),
		attribute.Bool(AttrCacheHit, hit),
	}
}

// ReportAttributes возвращает атрибуты сгенерированного отчёта
func ReportAttributes(format string, sizeBytes int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrReportFormat, format),
		attribute.Int(AttrReportBytes, sizeBytes),
	}
}
