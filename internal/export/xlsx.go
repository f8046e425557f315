// Package export writes ranked lead lists to spreadsheet files for
// hand-off to callers working outside the CLI.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var leadHeader = []string{
	"Business", "Category", "City", "State", "Phone", "Email",
	"Rating", "Reviews", "Website", "Quality", "Score", "Status",
}

// WriteLeadsXLSX writes the leads, in the order given, to an XLSX file.
func WriteLeadsXLSX(path string, leads []model.Lead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range leadHeader {
		header.AddCell().SetString(h)
	}

	for _, lead := range leads {
		row := sheet.AddRow()
		row.AddCell().SetString(lead.BusinessName)
		row.AddCell().SetString(lead.Category)
		row.AddCell().SetString(lead.City)
		row.AddCell().SetString(lead.State)
		row.AddCell().SetString(lead.Phone)
		row.AddCell().SetString(lead.Email)
		row.AddCell().SetFloat(lead.GoogleRating)
		row.AddCell().SetInt(lead.ReviewCount)
		row.AddCell().SetString(lead.WebsiteURL)
		row.AddCell().SetString(string(lead.WebsiteQuality))
		row.AddCell().SetInt(lead.LeadScore)
		row.AddCell().SetString(string(lead.Status))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
