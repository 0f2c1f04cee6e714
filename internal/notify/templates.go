package notify

import (
	"fmt"
	"strings"

	"github.com/vetsimposio/backend/internal/models"
)

// TicketData feeds the email templates.
type TicketData struct {
	FullName     string
	DNI          string
	Email        string
	Phone        string
	Role         string
	Organization string
	TicketCode   string
	Amount       float64
	Currency     string
}

func ticketData(a *models.Attendee, amount float64, currency string) TicketData {
	return TicketData{
		FullName:     a.FullName,
		DNI:          a.DNI,
		Email:        a.Email,
		Phone:        a.Phone,
		Role:         roleLabel(a.Role),
		Organization: a.Organization,
		TicketCode:   a.TicketCode,
		Amount:       amount,
		Currency:     currency,
	}
}

func roleLabel(role string) string {
	if role == models.RoleStudent {
		return "Estudiante"
	}
	return "Profesional"
}

const eventDetailsHTML = `
      <table style="width:100%%;border-collapse:collapse;margin:16px 0;">
        <tr><td style="padding:6px 0;color:#555;">📅 Fecha</td><td style="padding:6px 0;"><strong>Sábado 16 de mayo de 2026</strong></td></tr>
        <tr><td style="padding:6px 0;color:#555;">🕗 Hora</td><td style="padding:6px 0;"><strong>8:00 AM - 6:00 PM</strong></td></tr>
        <tr><td style="padding:6px 0;color:#555;">📍 Lugar</td><td style="padding:6px 0;"><strong>Auditorio Central, Lima</strong></td></tr>
      </table>`

func layout(title, body string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html lang="es"><body style="margin:0;background:#f4f4f7;font-family:Arial,Helvetica,sans-serif;">`)
	b.WriteString(`<div style="max-width:600px;margin:0 auto;padding:24px;">`)
	b.WriteString(`<div style="background:#1e6f5c;color:#ffffff;border-radius:8px 8px 0 0;padding:24px;text-align:center;">`)
	b.WriteString(`<h1 style="margin:0;font-size:22px;">II Simposio Veterinario 2026</h1>`)
	fmt.Fprintf(&b, `<p style="margin:8px 0 0;font-size:16px;">%s</p>`, title)
	b.WriteString(`</div><div style="background:#ffffff;border-radius:0 0 8px 8px;padding:24px;color:#333333;font-size:14px;line-height:1.6;">`)
	b.WriteString(body)
	b.WriteString(`</div><p style="text-align:center;color:#999;font-size:12px;margin-top:16px;">Este es un correo automático, por favor no responder.</p>`)
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// PaymentConfirmationHTML builds the digital ticket sent after payment.
func PaymentConfirmationHTML(d TicketData) string {
	organization := d.Organization
	if organization == "" {
		organization = "-"
	}
	body := fmt.Sprintf(`
      <p>Hola <strong>%s</strong>,</p>
      <p>¡Tu pago fue procesado con éxito! Tu inscripción al simposio está confirmada.</p>
      <div style="background:#f0faf6;border:2px dashed #1e6f5c;border-radius:8px;padding:20px;text-align:center;margin:20px 0;">
        <p style="margin:0;color:#555;font-size:12px;">TU ENTRADA DIGITAL</p>
        <p style="margin:8px 0;font-size:24px;letter-spacing:2px;color:#1e6f5c;"><strong>%s</strong></p>
        <p style="margin:0;color:#555;font-size:12px;">Presenta este código al ingresar</p>
      </div>
      <table style="width:100%%;border-collapse:collapse;">
        <tr><td style="padding:4px 0;color:#555;">DNI</td><td style="padding:4px 0;"><strong>%s</strong></td></tr>
        <tr><td style="padding:4px 0;color:#555;">Categoría</td><td style="padding:4px 0;"><strong>%s</strong></td></tr>
        <tr><td style="padding:4px 0;color:#555;">Institución</td><td style="padding:4px 0;"><strong>%s</strong></td></tr>
        <tr><td style="padding:4px 0;color:#555;">Monto pagado</td><td style="padding:4px 0;"><strong>%s %.2f</strong></td></tr>
      </table>%s
      <p>¡Nos vemos pronto!</p>`,
		d.FullName, d.TicketCode, d.DNI, d.Role, organization, d.Currency, d.Amount, eventDetailsHTML)
	return layout("Registro confirmado ✅", body)
}

// PaymentRejectedHTML explains why the charge was declined and invites a retry.
func PaymentRejectedHTML(d TicketData, reason string) string {
	body := fmt.Sprintf(`
      <p>Hola <strong>%s</strong>,</p>
      <p>Lamentablemente tu pago de <strong>%s %.2f</strong> no pudo ser procesado.</p>
      <div style="background:#fdf0f0;border-left:4px solid #c0392b;padding:12px 16px;margin:16px 0;">
        <p style="margin:0;"><strong>Motivo:</strong> %s</p>
      </div>
      <p>Tu registro sigue activo. Puedes intentar nuevamente con otro medio de pago desde la página de inscripción.</p>
      <p>Si crees que esto es un error, contáctanos respondiendo a este correo.</p>`,
		d.FullName, d.Currency, d.Amount, reason)
	return layout("Pago no procesado", body)
}

// PaymentPendingHTML acknowledges a payment still in review by the processor.
func PaymentPendingHTML(d TicketData, method string) string {
	body := fmt.Sprintf(`
      <p>Hola <strong>%s</strong>,</p>
      <p>Recibimos tu intento de pago de <strong>%s %.2f</strong> vía <strong>%s</strong> y está siendo verificado por el procesador.</p>
      <p>Te enviaremos tu entrada digital apenas se confirme. Esto normalmente toma unos minutos.</p>
      <p>No necesitas hacer nada más por ahora.</p>`,
		d.FullName, d.Currency, d.Amount, method)
	return layout("Pago en verificación ⏳", body)
}

// EventReminderHTML builds the countdown reminder sent to confirmed attendees.
func EventReminderHTML(d TicketData, daysUntilEvent int) string {
	countdown := fmt.Sprintf("Faltan <strong>%d días</strong> para el simposio.", daysUntilEvent)
	if daysUntilEvent == 1 {
		countdown = "¡El simposio es <strong>mañana</strong>!"
	}
	body := fmt.Sprintf(`
      <p>Hola <strong>%s</strong>,</p>
      <p>%s</p>%s
      <div style="background:#f0faf6;border:2px dashed #1e6f5c;border-radius:8px;padding:16px;text-align:center;margin:20px 0;">
        <p style="margin:0;color:#555;font-size:12px;">TU CÓDIGO DE ENTRADA</p>
        <p style="margin:6px 0 0;font-size:20px;letter-spacing:2px;color:#1e6f5c;"><strong>%s</strong></p>
      </div>
      <p>Recuerda llegar con anticipación y traer tu DNI.</p>`,
		d.FullName, countdown, eventDetailsHTML, d.TicketCode)
	return layout("Recordatorio del evento 📅", body)
}
