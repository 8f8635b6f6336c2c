package infra

// pdf.go generates the kitchen comanda: an A7 thermal-style ticket with the
// order number, fulfillment data and the line table, written to
// storagePath/comanda_{numero}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"gastropos/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateComandaPDF renders the kitchen ticket for a closed order.
// Returns the absolute path to the generated file.
func GenerateComandaPDF(pedido *model.Pedido, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("comanda_%d.pdf", pedido.Numero)
	filePath := filepath.Join(storagePath, fileName)

	// A7 size, close to thermal receipt paper.
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, "Comanda", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Pedido %s", pedido.IDTexto()), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, pedido.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	if pedido.Tipo == model.PedidoDelivery {
		pdf.CellFormat(contentW, 4, "Delivery: "+pedido.Direccion, "", 1, "L", false, 0, "")
	} else {
		pdf.CellFormat(contentW, 4, "Retiro en local", "", 1, "L", false, 0, "")
	}
	if pedido.Observaciones != "" {
		pdf.MultiCell(contentW, 4, "Obs: "+pedido.Observaciones, "", "L", false)
	}
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	col1 := contentW * 0.68
	col2 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, linea := range pedido.Lineas {
		nombre := ""
		if linea.Producto != nil {
			nombre = linea.Producto.Nombre
		}
		if len(nombre) > 28 {
			nombre = nombre[:27] + "…"
		}
		pdf.CellFormat(col1, 5, nombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", linea.Cantidad), "", 1, "C", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "$"+pedido.Total.StringFixed(2), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
