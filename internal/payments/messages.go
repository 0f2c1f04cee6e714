package payments

// rejectionMessages maps gateway status_detail codes to the user-facing
// Spanish explanation shown at checkout.
var rejectionMessages = map[string]string{
	"cc_rejected_call_for_authorize":       "Debes autorizar el pago con tu banco.",
	"cc_rejected_insufficient_amount":      "Fondos insuficientes. Intenta con otro método de pago.",
	"cc_rejected_other_reason":             "Tu pago fue rechazado. Intenta con otro método.",
	"cc_rejected_card_type_not_allowed":    "Tipo de tarjeta no permitido para este pago.",
	"cc_rejected_max_attempts":             "Llegaste al límite de intentos. Usa otra tarjeta.",
	"cc_rejected_bad_filled_security_code": "Código de seguridad incorrecto.",
	"cc_rejected_form_error":               "Error en los datos de la tarjeta. Verifica e intenta de nuevo.",
	"cc_rejected_bad_filled_date":          "Fecha de vencimiento incorrecta.",
	"cc_rejected_bad_filled_other":         "Error en los datos de la tarjeta.",
	"cc_rejected_blacklist":                "No se pudo procesar con esta tarjeta. Usa otra.",
	"cc_rejected_duplicated_payment":       "Ya realizaste un pago por este monto. Si necesitas volver a pagar, usa otra tarjeta u otro método.",
	"pending_contingency":                  "Estamos procesando el pago. En menos de 2 días te informaremos por e-mail si se acreditó.",
}

const genericRejectionMessage = "No se pudo procesar el pago. Por favor intenta nuevamente."

// RejectionMessage returns the localized explanation for a gateway
// status_detail code, falling back to a generic message for unmapped codes.
func RejectionMessage(statusDetail string) string {
	if msg, ok := rejectionMessages[statusDetail]; ok {
		return msg
	}
	return genericRejectionMessage
}
