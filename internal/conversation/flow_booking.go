package conversation

import (
	"fmt"
	"strconv"
	"strings"
)

type specialty struct {
	ID            string
	Title         string
	Description   string
	Professionals []string
}

// booking describes one variant of the appointment sub-machine. The steps
// and ids are shared; the catalog and the flow data container differ.
type booking struct {
	flow        Flow
	entryID     string
	noun        string
	confirmed   string
	intro       string
	listHeader  string
	listBody    string
	fee         string
	specialties []specialty
	slots       []Row

	// appointment extracts the booking fields from a state of this flow.
	appointment func(State) Appointment
	// wrap places booking fields into this flow's data for a merge patch.
	wrap func(Appointment) FlowData
	// fresh returns the data a (re)started booking begins from.
	fresh func(State) FlowData
}

var defaultSlots = []Row{
	{ID: "SLOT_MON_0900", Title: "Lunes 09:00"},
	{ID: "SLOT_MON_1500", Title: "Lunes 15:00"},
	{ID: "SLOT_TUE_1000", Title: "Martes 10:00"},
	{ID: "SLOT_WED_1630", Title: "Miércoles 16:30"},
	{ID: "SLOT_FRI_1100", Title: "Viernes 11:00"},
}

var medicalBooking = &booking{
	flow:       FlowMedical,
	entryID:    IDDemoMedi,
	noun:       "cita",
	confirmed:  "Cita",
	intro:      "🏥 *MediBot*\nAgenda tu cita médica en pocos pasos.",
	listHeader: "Especialidades",
	listBody:   "Selecciona la especialidad o escribe su nombre (ej.: Odontología).",
	fee:        "30 Bs",
	specialties: []specialty{
		{ID: "SPEC_GENERAL", Title: "Medicina general", Description: "Consulta general y chequeos", Professionals: []string{"Dr. Luis Mamani", "Dra. Ana Quispe"}},
		{ID: "SPEC_DENTAL", Title: "Odontología", Description: "Limpieza, caries y ortodoncia", Professionals: []string{"Dra. Carla Rojas", "Dr. Jorge Vargas"}},
		{ID: "SPEC_PEDIATRICS", Title: "Pediatría", Description: "Atención para niños", Professionals: []string{"Dra. Sofía Flores", "Dr. Marco Choque", "Dra. Elena Cruz"}},
		{ID: "SPEC_DERMA", Title: "Dermatología", Description: "Piel, cabello y uñas", Professionals: []string{"Dr. Raúl Gutiérrez"}},
	},
	slots: defaultSlots,
	appointment: func(st State) Appointment {
		a, _ := st.Data.(Appointment)
		return a
	},
	wrap: func(a Appointment) FlowData { return a },
	fresh: func(State) FlowData {
		return Appointment{}
	},
}

var legalBooking = &booking{
	flow:       FlowLegal,
	noun:       "consulta",
	confirmed:  "Consulta",
	intro:      "📅 Agenda una consulta con un abogado.",
	listHeader: "Áreas legales",
	listBody:   "Selecciona el área de tu caso o escribe su nombre (ej.: Derecho laboral).",
	fee:        "80 Bs",
	specialties: []specialty{
		{ID: "AREA_LABOR", Title: "Derecho laboral", Description: "Despidos, contratos y beneficios", Professionals: []string{"Abg. Patricia Limachi", "Abg. Diego Arce"}},
		{ID: "AREA_FAMILY", Title: "Derecho de familia", Description: "Divorcio, asistencia familiar", Professionals: []string{"Abg. Lucía Mendoza", "Abg. Ramiro Téllez"}},
		{ID: "AREA_CIVIL", Title: "Derecho civil", Description: "Contratos, alquileres, herencias", Professionals: []string{"Abg. Fernando Soliz"}},
		{ID: "AREA_CRIMINAL", Title: "Derecho penal", Description: "Denuncias y defensa", Professionals: []string{"Abg. Verónica Paz", "Abg. Hugo Condori"}},
	},
	slots: defaultSlots,
	appointment: func(st State) Appointment {
		return legalData(st).Consultation
	},
	wrap: func(a Appointment) FlowData { return LegalCase{Consultation: a} },
	fresh: func(st State) FlowData {
		return LegalCase{Query: legalData(st).Query}
	},
}

func registerBookingFlow(e *Engine, b *booking) {
	if b.entryID != "" {
		e.entry(b.entryID, b.begin)
	}

	e.step(b.flow, StepAwaitingSpecialty, func(*Engine, State) []Message {
		return []Message{b.specialtyList()}
	})
	e.onSelection(b.flow, StepAwaitingSpecialty, b.chooseSpecialty)
	e.on(b.flow, StepAwaitingSpecialty, b.chooseSpecialty, KindText)

	e.step(b.flow, StepAwaitingSchedule, func(_ *Engine, st State) []Message {
		return []Message{b.slotList(b.appointment(st).Specialty)}
	})
	e.onSelection(b.flow, StepAwaitingSchedule, b.chooseSlot)
	e.on(b.flow, StepAwaitingSchedule, b.chooseSlot, KindText)

	e.step(b.flow, StepAwaitingProfessionalChoice, func(_ *Engine, st State) []Message {
		appt := b.appointment(st)
		if _, ok := b.specialtyByID(appt.SpecialtyID); !ok {
			return []Message{b.specialtyList()}
		}
		return []Message{b.professionalButtons(appt)}
	})
	e.onSelection(b.flow, StepAwaitingProfessionalChoice, b.chooseProfessional)
	e.on(b.flow, StepAwaitingProfessionalChoice, b.chooseProfessional, KindText)

	e.step(b.flow, StepAwaitingConfirmation, func(_ *Engine, st State) []Message {
		c, ok := b.appointment(st).complete()
		if !ok {
			return []Message{b.specialtyList()}
		}
		return b.confirmation(c)
	})
	e.onSelection(b.flow, StepAwaitingConfirmation, b.confirm)

	e.step(b.flow, StepAwaitingPayment, func(e *Engine, _ State) []Message {
		return b.payment(e)
	})
	e.onSelection(b.flow, StepAwaitingPayment, b.confirmPayment)
}

// begin enters the sub-machine. Intro is emission-only.
func (b *booking) begin(_ *Engine, st State, _ Event) Decision {
	return Decision{
		Patch:    replace(StepAwaitingSpecialty, b.fresh(st)),
		Messages: []Message{Text{Body: b.intro}, b.specialtyList()},
	}
}

func (b *booking) chooseSpecialty(e *Engine, st State, ev Event) Decision {
	sp, ok := b.findSpecialty(ev)
	if !ok {
		return e.reprompt(st)
	}
	return Decision{
		Patch:    patch(StepAwaitingSchedule, b.wrap(Appointment{Specialty: sp.Title, SpecialtyID: sp.ID})),
		Messages: []Message{b.slotList(sp.Title)},
	}
}

func (b *booking) chooseSlot(e *Engine, st State, ev Event) Decision {
	slot, ok := matchRow(b.slots, ev)
	if !ok {
		return e.reprompt(st)
	}
	appt := b.appointment(st)
	appt.Slot, appt.SlotID = slot.Title, slot.ID
	return Decision{
		Patch:    patch(StepAwaitingProfessionalChoice, b.wrap(Appointment{Slot: slot.Title, SlotID: slot.ID})),
		Messages: []Message{b.professionalButtons(appt)},
	}
}

func (b *booking) chooseProfessional(e *Engine, st State, ev Event) Decision {
	appt := b.appointment(st)
	name, ok := b.findProfessional(appt.SpecialtyID, ev)
	if !ok {
		return e.reprompt(st)
	}
	appt.Professional = name
	c, ok := appt.complete()
	if !ok {
		return b.begin(e, st, ev)
	}
	return Decision{
		Patch:    patch(StepAwaitingConfirmation, b.wrap(Appointment{Professional: name})),
		Messages: b.confirmation(c),
	}
}

func (b *booking) confirm(e *Engine, st State, ev Event) Decision {
	switch ev.ID {
	case IDApptConfirm:
		if _, ok := b.appointment(st).complete(); !ok {
			return b.begin(e, st, ev)
		}
		return Decision{
			Patch:    patch(StepAwaitingPayment, nil),
			Messages: b.payment(e),
		}
	case IDApptEdit:
		return Decision{
			Patch:    replace(StepAwaitingSpecialty, b.fresh(st)),
			Messages: []Message{b.specialtyList()},
		}
	default:
		return e.reprompt(st)
	}
}

func (b *booking) confirmPayment(e *Engine, st State, ev Event) Decision {
	if ev.ID != IDApptPaid {
		return e.reprompt(st)
	}
	c, ok := b.appointment(st).complete()
	if !ok {
		return b.begin(e, st, ev)
	}
	body := fmt.Sprintf(bookingConfirmedTemplate, b.confirmed, c.specialty, c.slot, c.professional)
	return Decision{Clear: true, Messages: closingMessages(body)}
}

func (b *booking) specialtyList() List {
	rows := make([]Row, 0, len(b.specialties))
	for _, sp := range b.specialties {
		rows = append(rows, Row{ID: sp.ID, Title: sp.Title, Description: sp.Description})
	}
	return List{
		Header:      b.listHeader,
		Body:        b.listBody,
		ButtonLabel: "Ver opciones",
		Rows:        rows,
	}
}

func (b *booking) slotList(specialtyTitle string) List {
	return List{
		Header:      "Horarios",
		Body:        fmt.Sprintf(bookingScheduleBody, specialtyTitle),
		ButtonLabel: "Ver horarios",
		Rows:        b.slots,
	}
}

func (b *booking) professionalButtons(appt Appointment) Buttons {
	sp, _ := b.specialtyByID(appt.SpecialtyID)
	buttons := make([]Button, 0, len(sp.Professionals))
	for i, name := range sp.Professionals {
		buttons = append(buttons, Button{ID: professionalID(i), Title: name})
	}
	buttons, _ = TruncateButtons(buttons)
	return Buttons{
		Body:    fmt.Sprintf(bookingProfessionalBody, b.noun, appt.Specialty),
		Buttons: buttons,
	}
}

// confirmation requires a complete appointment, so the confirmation step
// cannot be entered with a missing field.
func (b *booking) confirmation(c completeAppointment) []Message {
	return []Message{Buttons{
		Body: fmt.Sprintf(bookingConfirmTemplate, b.noun, c.specialty, c.slot, c.professional),
		Buttons: []Button{
			{ID: IDApptConfirm, Title: "✅ Confirmar"},
			{ID: IDApptEdit, Title: "✏️ Editar"},
		},
	}}
}

func (b *booking) payment(e *Engine) []Message {
	msgs := []Message{Text{Body: fmt.Sprintf(bookingPaymentTemplate, b.noun, b.fee)}}
	return append(msgs, e.paymentMessages(bookingPaymentCaption, bookingPaidPrompt, Button{ID: IDApptPaid, Title: "✅ Ya pagué"})...)
}

func (b *booking) findSpecialty(ev Event) (specialty, bool) {
	for _, sp := range b.specialties {
		if ev.IsSelection() && ev.ID == sp.ID {
			return sp, true
		}
		if ev.Kind == KindText && sameName(ev.Text, sp.Title) {
			return sp, true
		}
	}
	return specialty{}, false
}

func (b *booking) specialtyByID(id string) (specialty, bool) {
	for _, sp := range b.specialties {
		if sp.ID == id {
			return sp, true
		}
	}
	return specialty{}, false
}

func (b *booking) findProfessional(specialtyID string, ev Event) (string, bool) {
	sp, ok := b.specialtyByID(specialtyID)
	if !ok {
		return "", false
	}
	for i, name := range sp.Professionals[:min(len(sp.Professionals), MaxButtons)] {
		if ev.IsSelection() && ev.ID == professionalID(i) {
			return name, true
		}
		if ev.Kind == KindText && sameName(ev.Text, name) {
			return name, true
		}
	}
	return "", false
}

func professionalID(i int) string {
	return "PRO_" + strconv.Itoa(i+1)
}

func matchRow(rows []Row, ev Event) (Row, bool) {
	for _, row := range rows {
		if ev.IsSelection() && ev.ID == row.ID {
			return row, true
		}
		if ev.Kind == KindText && sameName(ev.Text, row.Title) {
			return row, true
		}
	}
	return Row{}, false
}

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

// sameName compares user text with a catalog title ignoring case, accents
// and surrounding space.
func sameName(input, title string) bool {
	fold := func(s string) string {
		return accentFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
	}
	return input != "" && fold(input) == fold(title)
}
