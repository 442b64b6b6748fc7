// Package contractdoc renders an issued contract as a printable bilingual PDF
// that workers can hand in as proof of employment.
package contractdoc

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/cuongbtq/farmhand/internal/domain"
)

const (
	defaultFarmName = "Agricultural Employer"
	defaultLocation = "San Quintín, Baja California"
	dateLayout      = "02 Jan 2006"

	pageMargin  = 19.0
	bodyWidth   = 215.9 - 2*pageMargin
	lineHeight  = 6.0
	labelWidth  = 80.0
	signerWidth = bodyWidth / 2
)

// Document is everything printed on a contract
type Document struct {
	Contract domain.Contract

	WorkerName  string
	WorkerPhone string
	// Location is the farm location; a default is printed when empty.
	Location string
}

var terms = []string{
	"El trabajador acepta realizar el trabajo agrícola descrito anteriormente bajo los términos acordados.",
	"The worker agrees to perform the agricultural work described above under the agreed terms.",
	"El pago se realizará según la tarifa especificada y el trabajo completado.",
	"Payment will be made according to the specified rate and completed work.",
	"Este contrato es válido para propósitos de documentación laboral y beneficios gubernamentales.",
	"This contract is valid for labor documentation and government benefits purposes.",
}

// Write renders d as a PDF into w
func Write(w io.Writer, d Document) error {
	return render(w, d, true)
}

func render(w io.Writer, d Document, compress bool) error {
	c := d.Contract
	if c.ID == "" {
		return fmt.Errorf("contract has no id")
	}

	farm := c.FarmName
	if farm == "" {
		farm = defaultFarmName
	}
	location := d.Location
	if location == "" {
		location = defaultLocation
	}
	workerName := d.WorkerName
	if workerName == "" {
		workerName = c.WorkerID
	}
	issued := c.CreatedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	date := issued.Format(dateLayout)

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle("Agricultural employment contract "+c.ID, true)
	pdf.SetCreator("farmhand", true)
	pdf.SetCreationDate(issued)
	pdf.SetModificationDate(issued)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(30, 64, 175)
	pdf.CellFormat(bodyWidth, 10, tr("CONTRATO DE TRABAJO AGRÍCOLA"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(bodyWidth, lineHeight, "AGRICULTURAL EMPLOYMENT CONTRACT", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	field := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(labelWidth, lineHeight, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(bodyWidth-labelWidth, lineHeight, tr(value), "", "L", false)
	}
	heading := func(text string) {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetTextColor(30, 64, 175)
		pdf.CellFormat(bodyWidth, 8, tr(text), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	field("Fecha / Contract Date:", date)
	field("Número / Contract Number:", c.ID)
	field("Solicitud / Application:", fmt.Sprintf("%d", c.ApplicationID))

	heading("PARTES / PARTIES")
	field("Trabajador / Worker:", workerName)
	if d.WorkerPhone != "" {
		field("Teléfono / Phone:", d.WorkerPhone)
	}
	field("ID:", c.WorkerID)
	field("Empleador / Employer:", farm)
	field("Ubicación / Location:", location)

	heading("DETALLES DEL TRABAJO / JOB DETAILS")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(229, 231, 235)
	pdf.SetDrawColor(128, 128, 128)
	pdf.CellFormat(labelWidth, 8, "Campo / Field", "1", 0, "L", true, 0, "")
	pdf.CellFormat(bodyWidth-labelWidth, 8, "Valor / Value", "1", 1, "L", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range [][2]string{
		{"Título del Trabajo / Job Title", c.JobTitle},
		{"Fecha de Inicio / Start Date", c.StartDate},
		{"Pago / Pay Rate", c.Pay},
	} {
		pdf.CellFormat(labelWidth, 8, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(bodyWidth-labelWidth, 8, tr(row[1]), "1", 1, "L", false, 0, "")
	}

	heading("TÉRMINOS Y CONDICIONES / TERMS AND CONDITIONS")
	pdf.SetFont("Helvetica", "", 11)
	for i, term := range terms {
		pdf.MultiCell(bodyWidth, lineHeight, tr(term), "", "J", false)
		if i%2 == 1 {
			pdf.Ln(2)
		}
	}

	heading("DECLARACIÓN DE ACUERDO / AGREEMENT STATEMENT")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(bodyWidth, lineHeight, tr(fmt.Sprintf(
		"%s (Trabajador / Worker) y %s (Empleador / Employer) acuerdan los términos de este contrato. "+
			"%s (Worker) and %s (Employer) agree to the terms of this contract.",
		workerName, farm, workerName, farm,
	)), "", "J", false)

	pdf.Ln(16)
	pdf.SetFont("Helvetica", "", 10)
	for _, pair := range [][2]string{
		{"_________________________", "_________________________"},
		{"Firma del Trabajador", "Firma del Empleador"},
		{"Worker Signature", "Employer Signature"},
		{"Fecha: " + date, "Fecha: " + date},
	} {
		pdf.CellFormat(signerWidth, lineHeight, tr(pair[0]), "", 0, "C", false, 0, "")
		pdf.CellFormat(signerWidth, lineHeight, tr(pair[1]), "", 1, "C", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(128, 128, 128)
	pdf.MultiCell(bodyWidth, 5, tr("Este documento es un contrato de trabajo oficial que puede ser utilizado "+
		"para documentación laboral, beneficios gubernamentales y verificación de empleo. "+
		"This document is an official employment contract for labor documentation, "+
		"government benefits and employment verification."), "", "C", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render contract %s: %w", c.ID, err)
	}
	return nil
}
