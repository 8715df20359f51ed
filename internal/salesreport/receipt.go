package salesreport

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cineconnect/cineconnect/internal/pdf/fpdfsurface"
	"github.com/cineconnect/cineconnect/internal/pdf/layout"
)

// ServiceFeeRate is the share of the subtotal charged as service fee. The
// fee is already included in a booking total.
const ServiceFeeRate = 0.05

const (
	receiptThanks  = "Gracias por su compra. ¡Disfrute de la película!"
	receiptTagline = "Sistema de Reservas de Cine"
)

var receiptTerms = []string{
	"• Los boletos no son reembolsables ni transferibles",
	"• Llegar al menos 15 minutos antes de la función",
	"• Presentar este comprobante o código QR en la entrada",
	"• No se permiten cambios después de la compra",
	"• Para asistencia, contactar: soporte@cineconnect.com",
}

var receiptContact = []string{
	"Cine Connect - Sistema de Reservas",
	"www.cineconnect.com - Tel: +502 1234-5678",
}

// Booking identifies a purchase.
type Booking struct {
	TransactionID string    `json:"transactionId" validate:"required"`
	PurchaseDate  time.Time `json:"purchaseDate" validate:"required"`
	CustomerEmail string    `json:"customerEmail" validate:"required,email"`
	CustomerPhone string    `json:"customerPhone"`
}

// Showtime describes the screening a booking is for.
type Showtime struct {
	MovieTitle string    `json:"movieTitle" validate:"required"`
	Genre      string    `json:"genre"`
	Room       string    `json:"room" validate:"required"`
	Location   string    `json:"location"`
	Date       time.Time `json:"date" validate:"required"`
	Time       string    `json:"time" validate:"required"`
}

// Seat is one reserved seat.
type Seat struct {
	Row    string `json:"row" validate:"required"`
	Number int    `json:"number" validate:"gt=0"`
	Type   string `json:"type"`
}

// Label renders the seat as row and number, e.g. "C7".
func (s Seat) Label() string {
	return fmt.Sprintf("%s%d", s.Row, s.Number)
}

// ReceiptData is the input of a purchase receipt.
type ReceiptData struct {
	Booking    Booking  `json:"booking"`
	Showtime   Showtime `json:"showtime"`
	Seats      []Seat   `json:"seats" validate:"required,min=1,dive"`
	TotalPrice float64  `json:"totalPrice" validate:"gte=0"`
}

// Validate checks the struct tags with v.
func (r ReceiptData) Validate(v *validator.Validate) error {
	return validateStruct(v, r, ErrInvalidData)
}

// ReceiptFileName is the published name of the receipt of a transaction.
func ReceiptFileName(transactionID string) string {
	return fmt.Sprintf("recibo-%s.pdf", strings.TrimSpace(transactionID))
}

// SplitServiceFee derives the subtotal and the fee contained in total.
func SplitServiceFee(total float64) (subtotal, fee float64) {
	subtotal = total / (1 + ServiceFeeRate)
	fee = subtotal * ServiceFeeRate
	return round2(subtotal), round2(fee)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SeatTypeLabel translates a seat type for display.
func SeatTypeLabel(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "standard":
		return "Estándar"
	case "premium":
		return "Premium"
	case "vip":
		return "VIP"
	default:
		return t
	}
}

// Receipt lays out and encodes the purchase receipt of a booking.
func (g *Generator) Receipt(ctx context.Context, data ReceiptData) (rep Report, err error) {
	started := time.Now()
	defer func() {
		if g.observer != nil {
			g.observer.ObserveReport("receipt", rep.Pages, time.Since(started), err)
		}
	}()
	doc, err := g.LayoutReceipt(data)
	if err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	surface := fpdfsurface.New(g.cfg.Geometry, g.cfg.Font, fpdfsurface.Info{
		Title:   "Comprobante de reserva " + data.Booking.TransactionID,
		Subject: "Comprobante de compra de boletos",
		Author:  "Cine Connect",
		Creator: "cineconnect",
		Created: data.Booking.PurchaseDate,
	})
	var buf bytes.Buffer
	if err := doc.Render(surface, &buf); err != nil {
		return Report{}, fmt.Errorf("salesreport: render receipt: %w", err)
	}
	return Report{PDF: buf.Bytes(), Pages: doc.PageCount()}, nil
}

// LayoutReceipt builds and finalizes the receipt document.
func (g *Generator) LayoutReceipt(data ReceiptData) (*layout.Document, error) {
	purchased := data.Booking.PurchaseDate
	doc, err := layout.New(g.cfg, layout.Banner{
		Brand: g.brand,
		Title: "COMPROBANTE DE RESERVA",
		Lines: []string{
			receiptTagline,
			fmt.Sprintf("Nº Transacción: %s   Fecha: %s   Hora: %s",
				data.Booking.TransactionID, purchased.Format("02/01/2006"), purchased.Format("15:04:05")),
		},
	}, layout.Footer{Disclaimer: receiptThanks, PageLabel: g.pageLabel})
	if err != nil {
		return nil, err
	}
	sections := []func(*layout.Document, ReceiptData) error{
		g.receiptShowtime,
		g.receiptSeats,
		g.receiptCustomer,
		g.receiptPayment,
		g.receiptTerms,
	}
	for _, section := range sections {
		if err := section(doc, data); err != nil {
			return nil, fmt.Errorf("salesreport: receipt layout: %w", err)
		}
	}
	if err := doc.Finalize(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (g *Generator) receiptShowtime(doc *layout.Document, d ReceiptData) error {
	if err := doc.SectionTitle("DETALLES DE LA FUNCIÓN", 60); err != nil {
		return err
	}
	s := d.Showtime
	return doc.Pairs([]layout.Pair{
		{Label: "Película", Value: s.MovieTitle},
		{Label: "Género", Value: s.Genre},
		{Label: "Sala", Value: s.Room},
		{Label: "Ubicación", Value: s.Location},
		{Label: "Fecha", Value: s.Date.Format("02/01/2006")},
		{Label: "Hora", Value: s.Time},
	})
}

func (g *Generator) receiptSeats(doc *layout.Document, d ReceiptData) error {
	if len(d.Seats) == 0 {
		return nil
	}
	if err := doc.SectionTitle("ASIENTOS RESERVADOS", 60); err != nil {
		return err
	}
	rows := make([]layout.Row, len(d.Seats))
	for i, seat := range d.Seats {
		rows[i] = layout.Row{"seat": seat.Label(), "type": SeatTypeLabel(seat.Type)}
	}
	return doc.Table(layout.TableSpec{
		Columns: []layout.Column{
			{Key: "seat", Header: "ASIENTO", Width: 247},
			{Key: "type", Header: "TIPO", Width: 248},
		},
		Rows:         rows,
		RepeatHeader: true,
	})
}

func (g *Generator) receiptCustomer(doc *layout.Document, d ReceiptData) error {
	if err := doc.SectionTitle("INFORMACIÓN DEL CLIENTE", 20); err != nil {
		return err
	}
	phone := d.Booking.CustomerPhone
	if strings.TrimSpace(phone) == "" {
		phone = "No proporcionado"
	}
	return doc.Pairs([]layout.Pair{
		{Label: "Email", Value: d.Booking.CustomerEmail},
		{Label: "Teléfono", Value: phone},
	})
}

func (g *Generator) receiptPayment(doc *layout.Document, d ReceiptData) error {
	if err := doc.SectionTitle("DESGLOSE DE PAGO", 80); err != nil {
		return err
	}
	subtotal, fee := SplitServiceFee(d.TotalPrice)
	return doc.Table(layout.TableSpec{
		Columns: []layout.Column{
			{Key: "concept", Header: "CONCEPTO", Width: 345},
			{Key: "amount", Header: "MONTO", Align: layout.AlignRight, Width: 150},
		},
		Rows: []layout.Row{
			{"concept": fmt.Sprintf("Subtotal (%d asientos)", len(d.Seats)), "amount": g.format.Money(subtotal)},
			{"concept": "Cargos por servicio (5%)", "amount": g.format.Money(fee)},
			{"concept": "TOTAL", "amount": g.format.Money(d.TotalPrice)},
		},
	})
}

func (g *Generator) receiptTerms(doc *layout.Document, _ ReceiptData) error {
	if err := doc.SectionTitle("TÉRMINOS Y CONDICIONES", 70); err != nil {
		return err
	}
	if err := doc.Paragraph(strings.Join(receiptTerms, "\n"), layout.ParagraphOptions{FontSize: 8}); err != nil {
		return err
	}
	faint := g.cfg.Palette.Faint
	return doc.Paragraph("\n"+strings.Join(receiptContact, "\n"), layout.ParagraphOptions{FontSize: 8, Align: layout.AlignCenter, Color: &faint})
}
