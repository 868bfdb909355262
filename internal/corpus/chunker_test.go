package corpus

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssignsSequentialIndexes(t *testing.T) {
	chunks, err := Parse(DefaultDocument())
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, c := range chunks {
		assert.Equal(t, i, c.Metadata.ChunkIndex)
		assert.Equal(t, "chunk-"+strconv.Itoa(i), c.ID)
	}
}

func TestParseEnforcesMinimumLength(t *testing.T) {
	chunks, err := Parse(DefaultDocument())
	require.NoError(t, err)

	for _, c := range chunks {
		assert.GreaterOrEqual(t, len(c.Content), minChunkLen, "chunk %s too short", c.ID)
	}
}

func TestParseSkipsBannerAndColophon(t *testing.T) {
	doc := "# Title Banner Line That Is Definitely Longer Than Eighty Characters For This Test Case\n" +
		"---\n" +
		"## Admissions\n\nEntry to the school is by examination and interview at 4+, 7+, 11+ and 16+ each year.\n" +
		"---\n" +
		"*Dataset compiled from public information in 2025 and checked against the website for accuracy.*"

	chunks, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Admissions", chunks[0].Metadata.Source)
}

func TestParseCarriesSourceForward(t *testing.T) {
	doc := "## Fees\n\nTuition fees for the senior school are published each spring and include books and insurance.\n" +
		"---\n" +
		"Payment is due at the start of each term. A sibling discount applies from the third child onwards."

	chunks, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Fees", chunks[0].Metadata.Source)
	assert.Equal(t, "Fees", chunks[1].Metadata.Source, "source propagates forward into heading-less blocks")
	assert.Equal(t, "Fees", chunks[1].Metadata.Section)
}

func TestParseSectionFromSubheading(t *testing.T) {
	doc := "## Sport\n\n### Sport Overview\n\nSport at the school includes many co-curricular activities and all students take part every week."

	chunks, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Sport", chunks[0].Metadata.Source)
	assert.Equal(t, "Sport Overview", chunks[0].Metadata.Section)
}

func TestParseSplitsOversizedBlocks(t *testing.T) {
	filler := strings.Repeat("Lessons run through the whole day and every boy takes part in the full programme. ", 15)
	doc := "## Academic\n\n" +
		"### First Section\n\n" + filler +
		"\n\n### Second Section\n\n" + filler

	require.Greater(t, len(doc), splitBlockLen, "test document must exceed the split threshold")

	chunks, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "First Section", chunks[0].Metadata.Section)
	assert.Equal(t, "Second Section", chunks[1].Metadata.Section)
	for _, c := range chunks {
		assert.Equal(t, "Academic", c.Metadata.Source)
	}
}

func TestParsePrependsCarryOverPreamble(t *testing.T) {
	filler := strings.Repeat("Co-curricular life is a core part of the school and runs alongside the academic day. ", 15)
	doc := "## Co-Curricular\n\nA short intro line before the first heading.\n\n" +
		"### Clubs\n\n" + filler +
		"\n\n### Societies\n\n" + filler

	require.Greater(t, len(doc), splitBlockLen)

	chunks, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Content, "A short intro line", "preamble attaches to the next subsection")
	assert.Contains(t, chunks[0].Content, "### Clubs")
	assert.Equal(t, "Clubs", chunks[0].Metadata.Section)
}

func TestParseDropsShortTrailingFragment(t *testing.T) {
	doc := "## Academic\n\nThe curriculum is broad and balanced with plenty of choice at every key stage of school life.\n" +
		"---\n" +
		"A dangling short fragment."

	chunks, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.NotContains(t, chunks[0].Content, "dangling")
}

func TestParseNoHeadingsUsesDefaultSource(t *testing.T) {
	doc := "The school was founded over three hundred years ago and has occupied its current site since 1961."

	chunks, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, defaultSource, chunks[0].Metadata.Source)
	assert.Equal(t, defaultSource, chunks[0].Metadata.Section)
}

func TestParseNormalisesLineEndings(t *testing.T) {
	doc := "## Fees\r\n\r\nTuition fees are published each spring and reviewed annually by the governing body of the school.\r\n---\r\nPayment is due at the start of each term, and invoices are issued around four weeks beforehand."

	chunks, err := Parse(doc)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestParseEmptyDocument(t *testing.T) {
	_, err := Parse("   \n\n  ")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}
