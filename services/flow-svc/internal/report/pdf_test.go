package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFGenerator_Generate(t *testing.T) {
	g := NewPDFGenerator()
	data := solvedReportData(t)

	out, err := g.Generate(context.Background(), data)
	require.NoError(t, err)

	// Сигнатура PDF: %PDF-
	require.Greater(t, len(out), 5)
	assert.Equal(t, "%PDF-", string(out[:5]))

	// Полный отчёт заметно больше пустого каркаса
	assert.Greater(t, len(out), 1000)
}

func TestPDFGenerator_Generate_Minimal(t *testing.T) {
	g := NewPDFGenerator()
	data := minimalReportData()

	out, err := g.Generate(context.Background(), data)
	require.NoError(t, err)

	require.Greater(t, len(out), 5)
	assert.Equal(t, "%PDF-", string(out[:5]))
}

func TestPDFGenerator_Generate_CustomTitle(t *testing.T) {
	g := NewPDFGenerator()
	data := solvedReportData(t)
	data.Title = "Weekly Capacity Review"

	out, err := g.Generate(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(out[:5]))
}

func TestPDFGenerator_Metadata(t *testing.T) {
	g := NewPDFGenerator()

	assert.Equal(t, FormatPDF, g.Format())
	assert.Equal(t, "application/pdf", g.ContentType())
}
