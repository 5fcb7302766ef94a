// Package receipt renders a customer's recorded sales into a paginated PDF.
package receipt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	models "storefront/model"
)

// page layout, in mm on A4 portrait
const (
	marginLeft  = 10.0
	marginTop   = 12.0
	rowHeight   = 8.0
	breakAfterY = 265.0

	colName  = 70.0
	colBrand = 35.0
	colSize  = 20.0
	colQty   = 20.0
	colTotal = 45.0
)

type Renderer struct {
	storeName string
	printer   *message.Printer
}

func NewRenderer(storeName string) *Renderer {
	return &Renderer{
		storeName: storeName,
		printer:   message.NewPrinter(language.English),
	}
}

// Render produces the receipt document. Customer name and sale date are
// taken from the first row; the item table repeats its header whenever a
// page runs out of vertical space.
func (r *Renderer) Render(rows []models.ReceiptRow, shipping models.ShippingDetails) ([]byte, error) {
	if len(rows) == 0 {
		return nil, errors.New("no rows to render")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginLeft)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(r.storeName+" receipt", false)
	// pin document dates to the sale date so repeated renders of the same
	// sales don't differ by wall-clock metadata
	pdf.SetCreationDate(rows[0].SaleDate.UTC())
	pdf.SetModificationDate(rows[0].SaleDate.UTC())
	pdf.AddPage()

	// header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, r.storeName, "", 1, "C", false, 0, "")

	first := rows[0]
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Customer: %s %s", first.CustomerName, first.CustomerSurname), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Date: "+first.SaleDate.Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// shipping block
	address := fmt.Sprintf("%s %s", shipping.Street, shipping.ExtNumber)
	if shipping.IntNumber != "" {
		address += " Int. " + shipping.IntNumber
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Shipping", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, address, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Postal code: "+shipping.PostalCode, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Payment: "+shipping.PaymentMethod, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	r.tableHeader(pdf)

	var grandTotal float64
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		if pdf.GetY()+rowHeight > breakAfterY {
			pdf.AddPage()
			r.tableHeader(pdf)
			pdf.SetFont("Helvetica", "", 10)
		}
		pdf.CellFormat(colName, rowHeight, row.ProductName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colBrand, rowHeight, row.Brand, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colSize, rowHeight, row.Size, "1", 0, "C", false, 0, "")
		pdf.CellFormat(colQty, rowHeight, fmt.Sprintf("%d", row.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colTotal, rowHeight, r.Money(row.Total), "1", 1, "R", false, 0, "")
		grandTotal += row.Total
	}

	if pdf.GetY()+rowHeight > breakAfterY {
		pdf.AddPage()
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(colName+colBrand+colSize+colQty, rowHeight, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(colTotal, rowHeight, r.Money(grandTotal), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) tableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colName, rowHeight, "Product", "1", 0, "L", false, 0, "")
	pdf.CellFormat(colBrand, rowHeight, "Brand", "1", 0, "L", false, 0, "")
	pdf.CellFormat(colSize, rowHeight, "Size", "1", 0, "C", false, 0, "")
	pdf.CellFormat(colQty, rowHeight, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(colTotal, rowHeight, "Total", "1", 1, "R", false, 0, "")
}

// Money formats a currency value with two decimals and thousands
// separators, e.g. 1234.5 -> "$1,234.50".
func (r *Renderer) Money(v float64) string {
	return r.printer.Sprintf("$%.2f", v)
}
