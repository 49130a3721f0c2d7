package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/testutil"
)

func TestNativePDFParser_PagesInOrder(t *testing.T) {
	text, err := NewNativePDFParser().Parse(context.Background(), testutil.BuildPDF("Alpha", "Beta"), "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Alpha\nBeta\n", text)
}

func TestNativePDFParser_OneSegmentPerPage(t *testing.T) {
	pages := []string{"one", "two", "three", "four"}
	text, err := NewNativePDFParser().Parse(context.Background(), testutil.BuildPDF(pages...), "n.pdf")
	require.NoError(t, err)

	segments := strings.SplitAfter(text, "\n")
	// SplitAfter leaves an empty tail after the final newline.
	assert.Equal(t, "", segments[len(segments)-1])
	assert.Len(t, segments[:len(segments)-1], len(pages))
	for i, p := range pages {
		assert.Equal(t, p+"\n", segments[i])
	}
}

func TestNativePDFParser_Deterministic(t *testing.T) {
	data := testutil.BuildPDF("same", "bytes")
	p := NewNativePDFParser()

	first, err := p.Parse(context.Background(), data, "a.pdf")
	require.NoError(t, err)
	second, err := p.Parse(context.Background(), data, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNativePDFParser_RejectsGarbage(t *testing.T) {
	_, err := NewNativePDFParser().Parse(context.Background(), []byte("this is not a pdf"), "bad.pdf")
	assert.Error(t, err)

	_, err = NewNativePDFParser().Parse(context.Background(), nil, "empty.pdf")
	assert.Error(t, err)
}

func TestNativePDFParser_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewNativePDFParser().Parse(ctx, testutil.BuildPDF("Alpha"), "a.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNativePDFParser_SupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"pdf"}, NewNativePDFParser().SupportedFormats())
}
