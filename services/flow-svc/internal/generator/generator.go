// Package generator строит случайные слоистые сети для демонстрации и
// нагрузочных сценариев. Сеть собирается по слоям: исток → слои промежуточных
// узлов → сток, рёбра идут только вперёд между соседними слоями. Такая
// конструкция гарантирует доменные ограничения сама по себе: в исток ничего
// не входит, из стока ничего не выходит, прямого ребра исток→сток нет,
// встречные пары невозможны, каждый узел лежит на пути исток→сток.
package generator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"flownet/pkg/apperror"
	"flownet/pkg/config"
	"flownet/pkg/domain"
)

// Значения по умолчанию; диапазон пропускных способностей повторяет
// демонстрационные сети (4..15)
const (
	DefaultLayers           = 3
	DefaultMaxLayers        = 6
	DefaultNodesPerLayerMin = 2
	DefaultNodesPerLayerMax = 4
	DefaultCapacityMin      = 4.0
	DefaultCapacityMax      = 15.0
	DefaultDensity          = 0.3

	// SourceName и SinkName имена терминалов в сгенерированных сетях
	SourceName = "S"
	SinkName   = "T"
)

// Params параметры одной генерации. Нулевые значения заменяются настройками
// сервиса либо значениями по умолчанию.
type Params struct {
	Layers           int
	NodesPerLayerMin int
	NodesPerLayerMax int
	CapacityMin      float64
	CapacityMax      float64

	// Density вероятность дополнительного ребра между парой узлов соседних
	// слоёв, поверх гарантированного связывающего остова
	Density float64

	// Seed фиксирует генератор для воспроизводимости (0 — от времени)
	Seed int64
}

// Generator создаёт сети в пределах лимитов из конфигурации.
type Generator struct {
	cfg config.GeneratorConfig
}

// New создаёт генератор с лимитами из конфигурации.
func New(cfg config.GeneratorConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Generate строит описание случайной сети. Результат всегда проходит полную
// валидацию: структура корректна, политики соблюдены, сток достижим.
func (g *Generator) Generate(p Params) (domain.NetworkSpec, error) {
	p, err := g.withDefaults(p)
	if err != nil {
		return domain.NetworkSpec{}, err
	}

	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	layers := g.buildLayers(rng, p)
	edges := g.buildEdges(rng, p, layers)

	nodes := make([]string, 0, totalNodes(layers))
	for _, layer := range layers {
		nodes = append(nodes, layer...)
	}

	return domain.NetworkSpec{
		Nodes:  nodes,
		Edges:  edges,
		Source: SourceName,
		Sink:   SinkName,
	}, nil
}

// withDefaults подставляет значения по умолчанию и проверяет границы.
func (g *Generator) withDefaults(p Params) (Params, error) {
	maxLayers := g.cfg.MaxLayers
	if maxLayers <= 0 {
		maxLayers = DefaultMaxLayers
	}

	if p.Layers == 0 {
		p.Layers = DefaultLayers
	}
	if p.Layers < 1 || p.Layers > maxLayers {
		return p, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("layers must be between 1 and %d, got %d", maxLayers, p.Layers),
			"layers")
	}

	if p.NodesPerLayerMin == 0 {
		p.NodesPerLayerMin = DefaultNodesPerLayerMin
	}
	if p.NodesPerLayerMax == 0 {
		p.NodesPerLayerMax = DefaultNodesPerLayerMax
	}
	if p.NodesPerLayerMin < 1 {
		return p, apperror.NewWithField(apperror.CodeInvalidArgument,
			"nodes_per_layer_min must be at least 1", "nodes_per_layer_min")
	}
	if p.NodesPerLayerMax < p.NodesPerLayerMin {
		return p, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("nodes_per_layer_max %d is below nodes_per_layer_min %d",
				p.NodesPerLayerMax, p.NodesPerLayerMin),
			"nodes_per_layer_max")
	}

	if p.CapacityMin == 0 {
		p.CapacityMin = g.cfg.MinCapacity
	}
	if p.CapacityMin == 0 {
		p.CapacityMin = DefaultCapacityMin
	}
	if p.CapacityMax == 0 {
		p.CapacityMax = g.cfg.MaxCapacity
	}
	if p.CapacityMax == 0 {
		p.CapacityMax = DefaultCapacityMax
	}
	if !domain.IsFinite(p.CapacityMin) || !domain.IsFinite(p.CapacityMax) || p.CapacityMin <= 0 {
		return p, apperror.NewWithField(apperror.CodeInvalidArgument,
			"capacity bounds must be positive finite numbers", "capacity_min")
	}
	if p.CapacityMax < p.CapacityMin {
		return p, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("capacity_max %g is below capacity_min %g", p.CapacityMax, p.CapacityMin),
			"capacity_max")
	}

	if p.Density == 0 {
		p.Density = g.cfg.ExtraEdges
	}
	if p.Density == 0 {
		p.Density = DefaultDensity
	}
	if p.Density < 0 || p.Density > 1 {
		return p, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("density must be within [0, 1], got %g", p.Density), "density")
	}

	maxNodes := g.maxNodes()
	if 2+p.Layers*p.NodesPerLayerMin > maxNodes {
		return p, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("%d layers of at least %d nodes plus terminals exceed the %d node limit",
				p.Layers, p.NodesPerLayerMin, maxNodes),
			"layers")
	}

	return p, nil
}

func (g *Generator) maxNodes() int {
	maxNodes := g.cfg.MaxNodes
	if maxNodes <= 0 || maxNodes > domain.MaxNetworkNodes {
		maxNodes = domain.MaxNetworkNodes
	}
	return maxNodes
}

// buildLayers раскладывает узлы по слоям: слой 0 — исток, последний — сток.
// Размер каждого слоя случаен в заданных пределах, но суммарный бюджет узлов
// не превышается: на каждый оставшийся слой резервируется минимум.
func (g *Generator) buildLayers(rng *rand.Rand, p Params) [][]string {
	layers := make([][]string, 0, p.Layers+2)
	layers = append(layers, []string{SourceName})

	remaining := g.maxNodes() - 2
	next := 1
	for i := 0; i < p.Layers; i++ {
		reserve := (p.Layers - i - 1) * p.NodesPerLayerMin
		hi := p.NodesPerLayerMax
		if hi > remaining-reserve {
			hi = remaining - reserve
		}
		size := p.NodesPerLayerMin
		if hi > size {
			size += rng.Intn(hi - size + 1)
		}
		remaining -= size

		layer := make([]string, size)
		for j := range layer {
			layer[j] = fmt.Sprintf("N%d", next)
			next++
		}
		layers = append(layers, layer)
	}

	layers = append(layers, []string{SinkName})
	return layers
}

// buildEdges связывает соседние слои. Остов гарантирует связность: у каждого
// узла есть исходящее ребро в следующий слой и входящее из предыдущего.
// Поверх остова добавляются случайные рёбра с вероятностью Density.
func (g *Generator) buildEdges(rng *rand.Rand, p Params, layers [][]string) []domain.Edge {
	type pair struct{ from, to string }
	seen := make(map[pair]bool)
	var edges []domain.Edge

	addEdge := func(from, to string) {
		key := pair{from, to}
		if seen[key] {
			return
		}
		seen[key] = true
		edges = append(edges, domain.Edge{
			From:     from,
			To:       to,
			Capacity: randomCapacity(rng, p.CapacityMin, p.CapacityMax),
		})
	}

	for li := 0; li+1 < len(layers); li++ {
		cur, next := layers[li], layers[li+1]

		for _, from := range cur {
			addEdge(from, next[rng.Intn(len(next))])
		}
		for _, to := range next {
			addEdge(cur[rng.Intn(len(cur))], to)
		}
		for _, from := range cur {
			for _, to := range next {
				if rng.Float64() < p.Density {
					addEdge(from, to)
				}
			}
		}
	}

	return edges
}

// randomCapacity случайная пропускная способность, округлённая до сотых
func randomCapacity(rng *rand.Rand, lo, hi float64) float64 {
	return math.Round((lo+rng.Float64()*(hi-lo))*100) / 100
}

func totalNodes(layers [][]string) int {
	n := 0
	for _, layer := range layers {
		n += len(layer)
	}
	return n
}
