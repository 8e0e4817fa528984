package conversation

import "fmt"

const (
	fulfillmentPickup   = "pickup"
	fulfillmentDelivery = "delivery"
)

func registerFoodFlow(e *Engine) {
	e.entry(IDDemoFood, startFood)

	e.step(FlowFood, StepAwaitingOrderText, func(*Engine, State) []Message {
		return []Message{Text{Body: foodMenu}}
	})
	e.on(FlowFood, StepAwaitingOrderText, takeOrder, KindText)
	e.onSelection(FlowFood, StepAwaitingOrderText, showFoodMenu)

	e.step(FlowFood, StepAwaitingFulfillmentChoice, func(_ *Engine, st State) []Message {
		return fulfillmentPrompt(foodData(st).Order)
	})
	e.onSelection(FlowFood, StepAwaitingFulfillmentChoice, chooseFulfillment)

	e.step(FlowFood, StepAwaitingPickupTime, func(*Engine, State) []Message {
		return []Message{Text{Body: foodPickupPrompt}}
	})
	e.on(FlowFood, StepAwaitingPickupTime, takePickupTime, KindText)

	e.step(FlowFood, StepAwaitingAddress, func(*Engine, State) []Message {
		return []Message{Text{Body: foodAddressPrompt}}
	})
	e.on(FlowFood, StepAwaitingAddress, takeAddress, KindText)

	e.step(FlowFood, StepAwaitingPaymentConfirmation, func(e *Engine, st State) []Message {
		return e.foodPayment(foodData(st))
	})
	e.onSelection(FlowFood, StepAwaitingPaymentConfirmation, confirmFoodPayment)
}

// startFood shows the intro and the menu; both are emission-only steps, so
// the state lands directly on the order prompt.
func startFood(_ *Engine, _ State, _ Event) Decision {
	return Decision{
		Patch:    replace(StepAwaitingOrderText, FoodOrder{}),
		Messages: []Message{Text{Body: foodIntro}, Text{Body: foodMenu}},
	}
}

func showFoodMenu(e *Engine, st State, ev Event) Decision {
	if ev.ID != IDFoodMenu {
		return e.reprompt(st)
	}
	return Decision{Messages: []Message{Text{Body: foodMenu}}}
}

func takeOrder(e *Engine, st State, ev Event) Decision {
	if ev.Text == "" {
		return e.reprompt(st)
	}
	return Decision{
		Patch:    patch(StepAwaitingFulfillmentChoice, FoodOrder{Order: ev.Text}),
		Messages: fulfillmentPrompt(ev.Text),
	}
}

func fulfillmentPrompt(order string) []Message {
	return []Message{Buttons{
		Body:    fmt.Sprintf(foodFulfillmentTemplate, order),
		Buttons: foodFulfillmentButtons,
	}}
}

func chooseFulfillment(e *Engine, st State, ev Event) Decision {
	switch ev.ID {
	case IDFoodLocal:
		return Decision{
			Patch:    patch(StepAwaitingPickupTime, FoodOrder{Fulfillment: fulfillmentPickup}),
			Messages: []Message{Text{Body: foodPickupPrompt}},
		}
	case IDFoodDelivery:
		return Decision{
			Patch:    patch(StepAwaitingAddress, FoodOrder{Fulfillment: fulfillmentDelivery}),
			Messages: []Message{Text{Body: foodAddressPrompt}},
		}
	default:
		return e.reprompt(st)
	}
}

func takePickupTime(e *Engine, st State, ev Event) Decision {
	if ev.Text == "" {
		return e.reprompt(st)
	}
	order := foodData(st)
	order.PickupTime = ev.Text
	return Decision{
		Patch:    patch(StepAwaitingPaymentConfirmation, FoodOrder{PickupTime: ev.Text}),
		Messages: e.foodPayment(order),
	}
}

func takeAddress(e *Engine, st State, ev Event) Decision {
	if ev.Text == "" {
		return e.reprompt(st)
	}
	order := foodData(st)
	order.Address = ev.Text
	return Decision{
		Patch:    patch(StepAwaitingPaymentConfirmation, FoodOrder{Address: ev.Text}),
		Messages: e.foodPayment(order),
	}
}

func (e *Engine) foodPayment(order FoodOrder) []Message {
	summary := fmt.Sprintf("🧾 *Resumen de tu pedido*\nPedido: \"%s\"\n", order.Order)
	if order.Fulfillment == fulfillmentDelivery {
		summary += fmt.Sprintf("Entrega en: %s", order.Address)
	} else {
		summary += fmt.Sprintf("Recojo a las: %s", order.PickupTime)
	}
	msgs := []Message{Text{Body: summary}}
	return append(msgs, e.paymentMessages(foodPaymentCaption, foodPaidPrompt, Button{ID: IDFoodPaid, Title: "✅ Ya pagué"})...)
}

func confirmFoodPayment(e *Engine, st State, ev Event) Decision {
	if ev.ID != IDFoodPaid {
		return e.reprompt(st)
	}
	return Decision{Clear: true, Messages: closingMessages(foodClosing)}
}

func foodData(st State) FoodOrder {
	order, _ := st.Data.(FoodOrder)
	return order
}
