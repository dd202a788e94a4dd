package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownGenerator_Generate(t *testing.T) {
	g := NewMarkdownGenerator()
	data := solvedReportData(t)

	out, err := g.Generate(context.Background(), data)
	require.NoError(t, err)

	md := string(out)

	assert.Contains(t, md, "# Maximum Flow Report")
	assert.Contains(t, md, "*Run `run-0001`*")
	assert.Contains(t, md, "*Generated: 2025-03-14 10:30:00*")

	assert.Contains(t, md, "## Network")
	assert.Contains(t, md, "| Source | `A` |")
	assert.Contains(t, md, "| Sink | `D` |")
	assert.Contains(t, md, "| Total capacity | 33.00 |")
	assert.Contains(t, md, "| Connected | yes |")

	assert.Contains(t, md, "## Result")
	assert.Contains(t, md, "| **Max flow** | **13.0000** |")
	assert.Contains(t, md, "| Status | optimal |")
	assert.Contains(t, md, "| Duration | 7 ms |")
}

func TestMarkdownGenerator_Generate_Sections(t *testing.T) {
	g := NewMarkdownGenerator()
	data := solvedReportData(t)

	out, err := g.Generate(context.Background(), data)
	require.NoError(t, err)

	md := string(out)

	assert.Contains(t, md, "## Edge Flows")
	assert.Contains(t, md, "| A | B | 8.00 | 10.00 | 80.00% | no | no |")
	assert.Contains(t, md, "| B | D | 8.00 | 8.00 | 100.00% | yes | yes |")

	assert.Contains(t, md, "## Minimum Cut")
	assert.Contains(t, md, "Cut capacity: **13.0000** (equals max flow)")
	assert.Contains(t, md, "| A | C | 5.00 |")
	assert.Contains(t, md, "- Source side: `A`, `B`")
	assert.Contains(t, md, "- Sink side: `C`, `D`")

	assert.Contains(t, md, "## Summary")
	assert.Contains(t, md, "| Saturated edges | 2 of 4 |")
	assert.Contains(t, md, "| Source efficiency | 86.67% |")
	assert.Contains(t, md, "| Sink efficiency | 72.22% |")

	assert.Contains(t, md, "## Augmenting Paths")
	assert.Contains(t, md, "1. `A -> B -> D` - flow 8.00")
	assert.Contains(t, md, "2. `A -> C -> D` - flow 5.00")

	assert.Contains(t, md, "*flownet | 2025-03-14 10:30:00*")
}

func TestMarkdownGenerator_Generate_SkipsEmptySections(t *testing.T) {
	g := NewMarkdownGenerator()
	data := minimalReportData()

	out, err := g.Generate(context.Background(), data)
	require.NoError(t, err)

	md := string(out)

	assert.Contains(t, md, "## Network")
	assert.Contains(t, md, "## Result")
	assert.NotContains(t, md, "## Edge Flows")
	assert.NotContains(t, md, "## Minimum Cut")
	assert.NotContains(t, md, "## Summary")
	assert.NotContains(t, md, "## Augmenting Paths")
	assert.NotContains(t, md, "*Run ")
}

func TestCodeList(t *testing.T) {
	assert.Equal(t, "(none)", codeList(nil))
	assert.Equal(t, "`A`", codeList([]string{"A"}))
	assert.Equal(t, "`A`, `B`", codeList([]string{"A", "B"}))
}

func TestMarkdownGenerator_Metadata(t *testing.T) {
	g := NewMarkdownGenerator()

	assert.Equal(t, FormatMarkdown, g.Format())
	assert.Equal(t, "text/markdown", g.ContentType())
}
