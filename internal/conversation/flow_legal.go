package conversation

import (
	"fmt"
	"strings"
)

type documentField struct {
	Key    string
	Prompt string
}

type documentTemplate struct {
	ID          string
	Title       string
	Description string
	Fields      []documentField
	Body        string
}

// documentTemplates are offered in this order. Fields are collected one per
// message in declaration order.
var documentTemplates = []documentTemplate{
	{
		ID:          "DOC_RENTAL",
		Title:       "Contrato de alquiler",
		Description: "Vivienda o local comercial",
		Fields: []documentField{
			{Key: "landlord", Prompt: "Nombre completo del propietario:"},
			{Key: "tenant", Prompt: "Nombre completo del inquilino:"},
			{Key: "address", Prompt: "Dirección del inmueble:"},
			{Key: "rent", Prompt: "Monto mensual del alquiler (Bs):"},
		},
		Body: "CONTRATO DE ALQUILER\n" +
			"Conste por el presente que {{landlord}}, en calidad de PROPIETARIO, da en alquiler a " +
			"{{tenant}}, en calidad de INQUILINO, el inmueble ubicado en {{address}}, por el canon " +
			"mensual de {{rent}} Bs.",
	},
	{
		ID:          "DOC_LABOR",
		Title:       "Contrato de trabajo",
		Description: "Contrato individual a plazo fijo",
		Fields: []documentField{
			{Key: "employer", Prompt: "Nombre o razón social del empleador:"},
			{Key: "employee", Prompt: "Nombre completo del trabajador:"},
			{Key: "position", Prompt: "Cargo a desempeñar:"},
			{Key: "salary", Prompt: "Salario mensual (Bs):"},
		},
		Body: "CONTRATO INDIVIDUAL DE TRABAJO\n" +
			"{{employer}}, en calidad de EMPLEADOR, contrata a {{employee}} para desempeñar el cargo " +
			"de {{position}}, con un salario mensual de {{salary}} Bs, conforme a la Ley General del Trabajo.",
	},
	{
		ID:          "DOC_POWER",
		Title:       "Poder notarial",
		Description: "Poder especial para trámites",
		Fields: []documentField{
			{Key: "grantor", Prompt: "Nombre completo de quien otorga el poder:"},
			{Key: "attorney", Prompt: "Nombre completo del apoderado:"},
			{Key: "powers", Prompt: "Trámites o facultades que se otorgan:"},
		},
		Body: "PODER ESPECIAL\n" +
			"Yo, {{grantor}}, otorgo poder especial, amplio y suficiente a {{attorney}} para que en mi " +
			"nombre y representación realice: {{powers}}.",
	},
}

func findDocument(id string) (documentTemplate, bool) {
	for _, doc := range documentTemplates {
		if doc.ID == id {
			return doc, true
		}
	}
	return documentTemplate{}, false
}

// render fills the template with values in field order. Missing values
// render as blanks.
func (d documentTemplate) render(values []string) string {
	pairs := make([]string, 0, 2*len(d.Fields))
	for i, field := range d.Fields {
		value := "________"
		if i < len(values) && values[i] != "" {
			value = values[i]
		}
		pairs = append(pairs, "{{"+field.Key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(d.Body)
}

func registerLegalFlow(e *Engine) {
	e.entry(IDDemoLegal, startLegal)

	e.step(FlowLegal, StepAwaitingQuery, func(*Engine, State) []Message {
		return []Message{Text{Body: legalIntro}}
	})
	e.on(FlowLegal, StepAwaitingQuery, answerQuery, KindText)

	e.step(FlowLegal, StepAnswered, func(*Engine, State) []Message {
		return []Message{Buttons{Body: nextStepsPrompt, Buttons: legalNextButtons}}
	})
	e.on(FlowLegal, StepAnswered, answerQuery, KindText)
	e.onSelection(FlowLegal, StepAnswered, chooseLegalNextStep)

	e.step(FlowLegal, StepAwaitingDocumentType, func(*Engine, State) []Message {
		return []Message{documentTypeList()}
	})
	e.onSelection(FlowLegal, StepAwaitingDocumentType, chooseDocumentType)

	e.step(FlowLegal, StepAwaitingDocumentFields, func(_ *Engine, st State) []Message {
		return documentFieldPrompt(legalData(st))
	})
	e.on(FlowLegal, StepAwaitingDocumentFields, collectDocumentField, KindText)

	e.step(FlowLegal, StepPreviewShown, func(_ *Engine, st State) []Message {
		return documentPreview(legalData(st))
	})
	e.onSelection(FlowLegal, StepPreviewShown, reviewDocument)

	e.step(FlowLegal, StepAwaitingDocumentPayment, func(e *Engine, _ State) []Message {
		return e.documentPayment()
	})
	e.onSelection(FlowLegal, StepAwaitingDocumentPayment, deliverDocument)
}

func startLegal(_ *Engine, _ State, _ Event) Decision {
	return Decision{
		Patch:    replace(StepAwaitingQuery, LegalCase{}),
		Messages: []Message{Text{Body: legalIntro}},
	}
}

func answerQuery(e *Engine, st State, ev Event) Decision {
	if ev.Text == "" {
		return e.reprompt(st)
	}
	answer, _ := AnswerLegalQuery(ev.Text)
	return Decision{
		Patch: patch(StepAnswered, LegalCase{Query: ev.Text}),
		Messages: []Message{
			Text{Body: fmt.Sprintf(legalAnswerTemplate, ev.Text, answer)},
			Buttons{Body: nextStepsPrompt, Buttons: legalNextButtons},
		},
	}
}

func chooseLegalNextStep(e *Engine, st State, ev Event) Decision {
	switch ev.ID {
	case IDLegalDoc:
		return Decision{
			Patch:    replace(StepAwaitingDocumentType, LegalCase{Query: legalData(st).Query}),
			Messages: []Message{documentTypeList()},
		}
	case IDLegalBook:
		return legalBooking.begin(e, st, ev)
	default:
		return e.reprompt(st)
	}
}

func documentTypeList() List {
	rows := make([]Row, 0, len(documentTemplates))
	for _, doc := range documentTemplates {
		rows = append(rows, Row{ID: doc.ID, Title: doc.Title, Description: doc.Description})
	}
	return List{
		Header:      "Documentos",
		Body:        legalDocTypeBody,
		ButtonLabel: "Ver documentos",
		Rows:        rows,
	}
}

func chooseDocumentType(e *Engine, st State, ev Event) Decision {
	doc, ok := findDocument(ev.ID)
	if !ok {
		return e.reprompt(st)
	}
	next := LegalCase{Query: legalData(st).Query, DocumentType: doc.ID}
	return Decision{
		Patch:    replace(StepAwaitingDocumentFields, next),
		Messages: documentFieldPrompt(next),
	}
}

func documentFieldPrompt(lc LegalCase) []Message {
	doc, ok := findDocument(lc.DocumentType)
	if !ok {
		return []Message{documentTypeList()}
	}
	idx := len(lc.DocumentFields)
	if idx >= len(doc.Fields) {
		return documentPreview(lc)
	}
	return []Message{Text{Body: fmt.Sprintf("✍️ (%d/%d) %s", idx+1, len(doc.Fields), doc.Fields[idx].Prompt)}}
}

func collectDocumentField(e *Engine, st State, ev Event) Decision {
	lc := legalData(st)
	doc, ok := findDocument(lc.DocumentType)
	if !ok {
		return Decision{
			Patch:    replace(StepAwaitingDocumentType, LegalCase{Query: lc.Query}),
			Messages: []Message{documentTypeList()},
		}
	}
	if ev.Text == "" {
		return e.reprompt(st)
	}
	fields := append(append([]string(nil), lc.DocumentFields...), ev.Text)
	lc.DocumentFields = fields
	if len(fields) < len(doc.Fields) {
		return Decision{
			Patch:    patch(StepAwaitingDocumentFields, LegalCase{DocumentFields: fields}),
			Messages: documentFieldPrompt(lc),
		}
	}
	return Decision{
		Patch:    patch(StepPreviewShown, LegalCase{DocumentFields: fields}),
		Messages: documentPreview(lc),
	}
}

func documentPreview(lc LegalCase) []Message {
	doc, ok := findDocument(lc.DocumentType)
	if !ok {
		return []Message{documentTypeList()}
	}
	return []Message{
		Text{Body: legalPreviewHeader + doc.render(lc.DocumentFields) + legalPreviewFooter},
		Buttons{Body: nextStepsPrompt, Buttons: []Button{
			{ID: IDDocPay, Title: "💳 Pagar y descargar"},
			{ID: IDDocEdit, Title: "✏️ Corregir datos"},
		}},
	}
}

func reviewDocument(e *Engine, st State, ev Event) Decision {
	lc := legalData(st)
	switch ev.ID {
	case IDDocPay:
		return Decision{
			Patch:    patch(StepAwaitingDocumentPayment, nil),
			Messages: e.documentPayment(),
		}
	case IDDocEdit:
		next := LegalCase{Query: lc.Query, DocumentType: lc.DocumentType}
		return Decision{
			Patch:    replace(StepAwaitingDocumentFields, next),
			Messages: documentFieldPrompt(next),
		}
	default:
		return e.reprompt(st)
	}
}

func (e *Engine) documentPayment() []Message {
	msgs := []Message{Text{Body: fmt.Sprintf(legalDocPayTemplate, legalDocumentPrice)}}
	return append(msgs, e.paymentMessages(legalDocPayCaption, legalDocPaidPrompt, Button{ID: IDDocPaid, Title: "✅ Ya pagué"})...)
}

func deliverDocument(e *Engine, st State, ev Event) Decision {
	if ev.ID != IDDocPaid {
		return e.reprompt(st)
	}
	link := fmt.Sprintf("%s/%s.pdf", e.cfg.DocumentBaseURL, e.cfg.NewID())
	return Decision{Clear: true, Messages: closingMessages(fmt.Sprintf(legalDeliveredBody, link))}
}

func legalData(st State) LegalCase {
	lc, _ := st.Data.(LegalCase)
	return lc
}
