package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func TestWriteLeadsXLSX_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.xlsx")

	leads := []model.Lead{
		{
			BusinessName: "Joe's Pizza", Category: "restaurant", City: "Miami", State: "FL",
			Phone: "555-0101", GoogleRating: 4.5, ReviewCount: 120,
			WebsiteQuality: model.WebsiteNone, LeadScore: 85, Status: model.StatusNew,
		},
		{
			BusinessName: "Ana's Bakery", Category: "bakery", City: "Tampa", State: "FL",
			WebsiteURL: "https://anasbakery.example.com", WebsiteQuality: model.WebsiteDecent,
			LeadScore: 40, Status: model.StatusContacted,
		},
	}
	require.NoError(t, WriteLeadsXLSX(path, leads))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Business", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Joe's Pizza", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "85", sheet.Rows[1].Cells[10].String())
	assert.Equal(t, "Ana's Bakery", sheet.Rows[2].Cells[0].String())
	assert.Equal(t, "decent", sheet.Rows[2].Cells[9].String())
}

func TestWriteLeadsXLSX_EmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteLeadsXLSX(path, nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets[0].Rows, 1)
}
