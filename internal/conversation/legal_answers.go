package conversation

import (
	"regexp"
	"strings"
)

// LegalAnswer is a canned reply to a family of legal questions.
type LegalAnswer struct {
	Topic    string
	Pattern  *regexp.Regexp
	Keywords []string // Alternative matching keywords
	Response string
}

// legalAnswers are checked in order; the first match wins.
var legalAnswers = []LegalAnswer{
	{
		Topic:    "dismissal",
		Pattern:  regexp.MustCompile(`(?i)(despid|despedid|retir).*(sin causa|injustific|sin motivo)|(sin causa|injustific).*(despid|despedid|retir)`),
		Keywords: []string{"despido", "despidieron", "trabajo", "indemnización", "finiquito", "beneficios"},
		Response: "Según la normativa laboral boliviana, el despido sin causa justificada da derecho a " +
			"indemnización por tiempo de servicio, desahucio y el pago de beneficios sociales " +
			"(aguinaldo y vacaciones proporcionales). También puedes pedir la reincorporación ante " +
			"la Jefatura Departamental de Trabajo.",
	},
	{
		Topic:    "rental",
		Pattern:  regexp.MustCompile(`(?i)(contrato|modelo).*(alquiler|arriendo|anticr)|(alquiler|arriendo|anticr).*(contrato|modelo)`),
		Keywords: []string{"alquiler", "inquilino", "propietario", "garantía", "desalojo"},
		Response: "Un contrato de alquiler debe indicar a las partes, la dirección del inmueble, el canon " +
			"mensual, la garantía y el plazo. Para anticréticos se recomienda registrarlo en Derechos " +
			"Reales. Puedo generarte un modelo de contrato ahora mismo.",
	},
	{
		Topic:    "family",
		Pattern:  regexp.MustCompile(`(?i)(divorci|asistencia familiar|pensi[oó]n alimenticia|custodia|tenencia)`),
		Keywords: []string{"esposo", "esposa", "hijos", "separación", "matrimonio"},
		Response: "En Bolivia el divorcio puede tramitarse por vía notarial si hay mutuo acuerdo y no hay " +
			"hijos menores, o por vía judicial en los demás casos. La asistencia familiar se fija " +
			"según las necesidades del menor y los ingresos del obligado.",
	},
	{
		Topic:    "inheritance",
		Pattern:  regexp.MustCompile(`(?i)(herencia|heredero|testamento|sucesi[oó]n)`),
		Keywords: []string{"fallecido", "padres", "bienes", "declaratoria"},
		Response: "Para acceder a una herencia se tramita la declaratoria de herederos, judicial o " +
			"notarial, y luego la inscripción de los bienes en Derechos Reales. Los hijos y el " +
			"cónyuge son herederos forzosos.",
	},
	{
		Topic:    "debt",
		Pattern:  regexp.MustCompile(`(?i)(deuda|préstamo|prestamo|pagaré|pagare|embargo)`),
		Keywords: []string{"debo", "cobrar", "banco", "interés", "cuotas"},
		Response: "Las deudas documentadas en un pagaré o contrato pueden cobrarse mediante proceso " +
			"ejecutivo. Antes de un embargo debe existir una sentencia o un título ejecutivo. " +
			"Conviene intentar primero una conciliación.",
	},
}

const defaultLegalAnswer = "Gracias por tu consulta. En esta demo las respuestas son referenciales: " +
	"un abogado puede revisar tu caso en detalle. Con los planes Pro y Premium el bot " +
	"redacta respuestas y documentos conforme a la ley boliviana."

// AnswerLegalQuery returns the canned answer for query and whether a topic
// matched. Unmatched queries get a generic answer.
func AnswerLegalQuery(query string) (string, bool) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return defaultLegalAnswer, false
	}

	for _, answer := range legalAnswers {
		if answer.Pattern != nil && answer.Pattern.MatchString(query) {
			return answer.Response, true
		}

		// Fall back to keyword matching (need at least 2 keywords to match)
		if len(answer.Keywords) > 0 {
			matchCount := 0
			for _, kw := range answer.Keywords {
				if strings.Contains(query, kw) {
					matchCount++
				}
			}
			if matchCount >= 2 {
				return answer.Response, true
			}
		}
	}

	return defaultLegalAnswer, false
}
