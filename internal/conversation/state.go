package conversation

import (
	"encoding/json"
	"fmt"
	"time"
)

// Flow names the guided conversation a sender is inside.
type Flow string

const (
	FlowNone    Flow = "none"
	FlowFood    Flow = "food"
	FlowMedical Flow = "medical"
	FlowLegal   Flow = "legal"
)

// Step is the point within a flow awaiting input. It is only meaningful
// together with the flow of the state that carries it.
type Step string

const (
	StepNone Step = ""

	// Food ordering.
	StepFoodIntro                   Step = "intro"
	StepMenuShown                   Step = "menu_shown"
	StepAwaitingOrderText           Step = "awaiting_order_text"
	StepAwaitingFulfillmentChoice   Step = "awaiting_fulfillment_choice"
	StepAwaitingPickupTime          Step = "awaiting_pickup_time"
	StepAwaitingAddress             Step = "awaiting_address"
	StepAwaitingPaymentConfirmation Step = "awaiting_payment_confirmation"

	// Appointment booking, shared by the medical flow and legal consultations.
	StepAwaitingSpecialty          Step = "awaiting_specialty"
	StepAwaitingSchedule           Step = "awaiting_schedule"
	StepAwaitingProfessionalChoice Step = "awaiting_professional_choice"
	StepAwaitingConfirmation       Step = "awaiting_confirmation"
	StepAwaitingPayment            Step = "awaiting_payment"

	// Legal query and document generation.
	StepAwaitingQuery           Step = "awaiting_query"
	StepAnswered                Step = "answered"
	StepAwaitingDocumentType    Step = "awaiting_document_type"
	StepAwaitingDocumentFields  Step = "awaiting_document_fields"
	StepPreviewShown            Step = "preview_shown"
	StepAwaitingDocumentPayment Step = "awaiting_document_payment"
)

// FlowData carries the fields collected by one flow. Implementations are
// FoodOrder, Appointment and LegalCase.
type FlowData interface {
	flow() Flow
}

// FoodOrder is collected by the food ordering flow.
type FoodOrder struct {
	Order       string `json:"order,omitempty"`
	Fulfillment string `json:"fulfillment,omitempty"`
	PickupTime  string `json:"pickup_time,omitempty"`
	Address     string `json:"address,omitempty"`
}

// Appointment is collected by the booking sub-machine.
type Appointment struct {
	Specialty    string `json:"specialty,omitempty"`
	SpecialtyID  string `json:"specialty_id,omitempty"`
	Slot         string `json:"slot,omitempty"`
	SlotID       string `json:"slot_id,omitempty"`
	Professional string `json:"professional,omitempty"`
}

// LegalCase is collected by the legal flow. Consultation holds the
// booking fields when the sender books a lawyer.
type LegalCase struct {
	Query          string      `json:"query,omitempty"`
	Consultation   Appointment `json:"consultation,omitzero"`
	DocumentType   string      `json:"document_type,omitempty"`
	DocumentFields []string    `json:"document_fields,omitempty"`
}

func (FoodOrder) flow() Flow   { return FlowFood }
func (Appointment) flow() Flow { return FlowMedical }
func (LegalCase) flow() Flow   { return FlowLegal }

// completeAppointment can only be obtained from Appointment.complete, so
// code holding one knows specialty, slot and professional are all set.
type completeAppointment struct {
	specialty    string
	slot         string
	professional string
}

func (a Appointment) complete() (completeAppointment, bool) {
	if a.Specialty == "" || a.Slot == "" || a.Professional == "" {
		return completeAppointment{}, false
	}
	return completeAppointment{specialty: a.Specialty, slot: a.Slot, professional: a.Professional}, true
}

// State is the conversation state of one sender.
type State struct {
	Sender    string
	Step      Step
	Data      FlowData
	UpdatedAt time.Time
}

// Flow returns the active flow, derived from the data the state carries.
func (s State) Flow() Flow {
	return flowOf(s.Data)
}

func flowOf(data FlowData) Flow {
	data = canonicalData(data)
	if data == nil {
		return FlowNone
	}
	return data.flow()
}

// Patch is a partial update to a State.
//
// When Data belongs to a different flow than the stored state, or Replace
// is set, data and step are replaced wholesale. Otherwise non-empty fields
// of Data overwrite stored ones and a non-empty Step replaces the step.
type Patch struct {
	Step    Step
	Data    FlowData
	Replace bool
}

// ApplyPatch merges p into st and stamps UpdatedAt. Pointer variants of
// the flow data types are stored as values.
func ApplyPatch(st State, p Patch, now time.Time) State {
	st.Data = canonicalData(st.Data)
	p.Data = canonicalData(p.Data)
	switch {
	case p.Data != nil && (p.Replace || flowOf(st.Data) != p.Data.flow()):
		st.Data = p.Data
		st.Step = p.Step
	case p.Data != nil:
		st.Data = mergeData(st.Data, p.Data)
		if p.Step != StepNone {
			st.Step = p.Step
		}
	case p.Step != StepNone:
		st.Step = p.Step
	}
	st.UpdatedAt = now
	return st
}

func mergeData(base, update FlowData) FlowData {
	switch cur := base.(type) {
	case FoodOrder:
		upd := update.(FoodOrder)
		cur.Order = pick(cur.Order, upd.Order)
		cur.Fulfillment = pick(cur.Fulfillment, upd.Fulfillment)
		cur.PickupTime = pick(cur.PickupTime, upd.PickupTime)
		cur.Address = pick(cur.Address, upd.Address)
		return cur
	case Appointment:
		return mergeAppointment(cur, update.(Appointment))
	case LegalCase:
		upd := update.(LegalCase)
		cur.Query = pick(cur.Query, upd.Query)
		cur.Consultation = mergeAppointment(cur.Consultation, upd.Consultation)
		cur.DocumentType = pick(cur.DocumentType, upd.DocumentType)
		if upd.DocumentFields != nil {
			cur.DocumentFields = append([]string(nil), upd.DocumentFields...)
		}
		return cur
	default:
		return update
	}
}

// canonicalData dereferences pointer variants so every FlowData held in a
// State is one of the value types. A nil pointer becomes nil.
func canonicalData(data FlowData) FlowData {
	switch d := data.(type) {
	case *FoodOrder:
		if d == nil {
			return nil
		}
		return *d
	case *Appointment:
		if d == nil {
			return nil
		}
		return *d
	case *LegalCase:
		if d == nil {
			return nil
		}
		return *d
	}
	return data
}

func mergeAppointment(cur, upd Appointment) Appointment {
	cur.Specialty = pick(cur.Specialty, upd.Specialty)
	cur.SpecialtyID = pick(cur.SpecialtyID, upd.SpecialtyID)
	cur.Slot = pick(cur.Slot, upd.Slot)
	cur.SlotID = pick(cur.SlotID, upd.SlotID)
	cur.Professional = pick(cur.Professional, upd.Professional)
	return cur
}

func pick(cur, upd string) string {
	if upd != "" {
		return upd
	}
	return cur
}

type stateRecord struct {
	Sender      string       `json:"sender"`
	Flow        Flow         `json:"flow"`
	Step        Step         `json:"step,omitempty"`
	Food        *FoodOrder   `json:"food,omitempty"`
	Appointment *Appointment `json:"appointment,omitempty"`
	Legal       *LegalCase   `json:"legal,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// MarshalJSON encodes the state with an explicit flow tag.
func (s State) MarshalJSON() ([]byte, error) {
	rec := stateRecord{Sender: s.Sender, Flow: s.Flow(), Step: s.Step, UpdatedAt: s.UpdatedAt}
	switch data := canonicalData(s.Data).(type) {
	case nil:
	case FoodOrder:
		rec.Food = &data
	case Appointment:
		rec.Appointment = &data
	case LegalCase:
		rec.Legal = &data
	default:
		return nil, fmt.Errorf("conversation: unknown flow data %T", data)
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes a state written by MarshalJSON.
func (s *State) UnmarshalJSON(b []byte) error {
	var rec stateRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	*s = State{Sender: rec.Sender, Step: rec.Step, UpdatedAt: rec.UpdatedAt}
	switch rec.Flow {
	case FlowNone, "":
		s.Step = StepNone
	case FlowFood:
		s.Data = derefOr(rec.Food)
	case FlowMedical:
		s.Data = derefOr(rec.Appointment)
	case FlowLegal:
		s.Data = derefOr(rec.Legal)
	default:
		return fmt.Errorf("conversation: unknown flow %q", rec.Flow)
	}
	return nil
}

func derefOr[T FlowData](v *T) FlowData {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}
