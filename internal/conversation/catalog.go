package conversation

// Selection ids shared with the transport. They are part of the payloads
// sent to users and must stay stable across releases.
const (
	IDMainMenu = "MENU_MAIN"
	IDPlans    = "MENU_PLANS"
	IDDemos    = "MENU_DEMOS"
	IDAdvisor  = "MENU_ADVISOR"

	IDPlanBasic   = "PLAN_BASIC"
	IDPlanPro     = "PLAN_PRO"
	IDPlanPremium = "PLAN_PREMIUM"

	IDDemoFood  = "DEMO_FOOD"
	IDDemoMedi  = "DEMO_MEDI"
	IDDemoLegal = "DEMO_LEGAL"

	IDFoodMenu     = "FOOD_MENU"
	IDFoodLocal    = "FOOD_LOCAL"
	IDFoodDelivery = "FOOD_DELIVERY"
	IDFoodPaid     = "FOOD_PAID"

	IDApptConfirm = "APPT_CONFIRM"
	IDApptEdit    = "APPT_EDIT"
	IDApptPaid    = "APPT_PAID"

	IDLegalDoc  = "LEGAL_DOC"
	IDLegalBook = "LEGAL_BOOK"

	IDDocPay  = "DOC_PAY"
	IDDocEdit = "DOC_EDIT"
	IDDocPaid = "DOC_PAID"
)

// Legacy ids sent by older interactive messages still present in chats.
var legacyIDs = map[string]string{
	"MENU_PLANES": IDPlans,
	"MENU_ASESOR": IDAdvisor,
	// Both old food buttons closed the order.
	"FOOD_OK":    IDFoodPaid,
	"FOOD_PAGAR": IDFoodPaid,
	"MEDI_OK":    IDApptConfirm,
	"MEDI_EDIT":  IDApptEdit,
}

var resetCommands = map[string]struct{}{
	"hola":     {},
	"menu":     {},
	"menú":     {},
	"inicio":   {},
	"start":    {},
	"cancelar": {},
	"smartbot": {},
}

var backToMenuButton = Button{ID: IDMainMenu, Title: "🏠 Menú principal"}

const (
	closingMenuPrompt = "¿Quieres ver algo más?"
	nextStepsPrompt   = "¿Qué deseas hacer ahora?"
)

const mainMenuBody = "🤖 *Bienvenido a SmartBot Bolivia*\n" +
	"Descubre cómo la IA puede transformar tu negocio.\n\n" +
	"Selecciona una opción:"

var mainMenuButtons = []Button{
	{ID: IDPlans, Title: "📦 Planes"},
	{ID: IDDemos, Title: "🎬 Demos"},
	{ID: IDAdvisor, Title: "🧑‍💼 Asesor"},
}

var plansList = List{
	Header:      "📦 Planes SmartBot Bolivia",
	Body:        "Selecciona un plan para conocer sus características:",
	Footer:      "Básico | Pro | Premium",
	ButtonLabel: "Ver planes",
	Rows: []Row{
		{ID: IDPlanBasic, Title: "Plan Básico", Description: "Automatización simple y respuestas rápidas"},
		{ID: IDPlanPro, Title: "Plan Pro", Description: "IA integrada y funciones avanzadas"},
		{ID: IDPlanPremium, Title: "Plan Premium", Description: "Personalización total + IA ilimitada"},
	},
}

var planDetails = map[string]string{
	IDPlanBasic: "🔹 *Plan Básico*\n" +
		"• Respuestas automáticas 24/7\n" +
		"• Menús interactivos con botones\n" +
		"• Integración WhatsApp Business API\n" +
		"👔 Ideal para: restaurantes, tiendas, servicios personales.\n\n" +
		"💰 Precio: desde 150 Bs/mes.",
	IDPlanPro: "🔷 *Plan Pro*\n" +
		"• IA conversacional para consultas inteligentes\n" +
		"• Flujos personalizados y almacenamiento de datos\n" +
		"• Hasta 5.000 interacciones mensuales\n" +
		"🏥⚖️ Ideal para: clínicas, estudios legales, negocios medianos.\n\n" +
		"💰 Precio: desde 300 Bs/mes.",
	IDPlanPremium: "🔶 *Plan Premium*\n" +
		"• IA avanzada ilimitada con APIs externas\n" +
		"• Flujos empresariales + CRM + pagos QR\n" +
		"• Integraciones completas a medida\n" +
		"🏢 Ideal para: empresas grandes y franquicias.\n\n" +
		"💰 Precio: personalizado según proyecto.",
}

var planFollowUpButtons = []Button{
	{ID: IDDemos, Title: "🎬 Ver demos"},
	{ID: IDAdvisor, Title: "🧑‍💼 Asesor"},
	backToMenuButton,
}

var demosList = List{
	Header:      "🎬 Demos disponibles",
	Body:        "Prueba cómo responde un bot real. Selecciona una demo:",
	Footer:      "SmartBot Bolivia",
	ButtonLabel: "Ver demos",
	Rows: []Row{
		{ID: IDDemoFood, Title: "🍔 FoodBot", Description: "Pedidos, delivery y pago QR"},
		{ID: IDDemoMedi, Title: "🏥 MediBot", Description: "Citas médicas con especialistas"},
		{ID: IDDemoLegal, Title: "⚖️ LegalBot", Description: "Consultas, documentos y citas legales"},
	},
}

const advisorTemplate = "🧑‍💼 Nuestro asesor te atiende en *%s*."

// Food ordering texts.
const (
	foodIntro = "🍔 *FoodBot*\nBienvenido a la demo de pedidos. Así verían tus clientes tu menú:"
	foodMenu  = "📋 *Menú del día*\n" +
		"• Salteña de pollo: 8 Bs\n" +
		"• Salteña de carne: 8 Bs\n" +
		"• Hamburguesa clásica: 25 Bs\n" +
		"• Jugo natural: 10 Bs\n\n" +
		"✍️ Escribe tu pedido (ej.: 2 salteñas de pollo y 1 jugo)."
	foodFulfillmentTemplate = "🧾 Tu pedido: \"%s\"\n¿Cómo deseas recibirlo?"
	foodPickupPrompt        = "🕒 ¿A qué hora pasarás a recoger tu pedido? (ej.: 12:30)"
	foodAddressPrompt       = "📍 Escribe la dirección de entrega (calle, número y zona)."
	foodPaymentCaption      = "Escanea el QR para pagar tu pedido."
	foodPaidPrompt          = "Cuando completes el pago, confírmalo aquí:"
	foodClosing             = "✅ ¡Pago recibido! Tu pedido está en preparación. ¡Gracias por probar FoodBot!"
)

var foodFulfillmentButtons = []Button{
	{ID: IDFoodLocal, Title: "🏪 Recoger en local"},
	{ID: IDFoodDelivery, Title: "🛵 Delivery"},
}

// Booking texts.
const (
	bookingScheduleBody      = "📅 Elige un horario disponible para *%s*:"
	bookingProfessionalBody  = "👤 ¿Con quién deseas tu %s de *%s*?"
	bookingConfirmTemplate   = "Confirma tu %s:\n• Especialidad: *%s*\n• Horario: *%s*\n• Profesional: *%s*"
	bookingPaymentTemplate   = "💳 Para reservar tu %s paga la tarifa de %s por QR."
	bookingPaymentCaption    = "Escanea el QR para pagar tu reserva."
	bookingPaidPrompt        = "Cuando completes el pago, confírmalo aquí:"
	bookingConfirmedTemplate = "✅ %s confirmada en *%s* el *%s* con *%s*. ¡Te esperamos!"
)

// Legal texts.
const (
	legalIntro = "⚖️ *LegalBot*\nEscribe tu consulta legal. Por ejemplo: " +
		"\"¿Qué pasa si me despiden sin causa?\" o \"modelo de contrato de alquiler\"."
	legalAnswerTemplate = "🧠 *LegalBot (demo)*\nTu consulta: \"%s\"\n\n%s"
	legalDocTypeBody    = "📄 ¿Qué documento deseas generar?"
	legalPreviewHeader  = "📝 *Vista previa*\n\n"
	legalPreviewFooter  = "\n\nSi todo está correcto, paga para descargar el documento final."
	legalDocPayTemplate = "💳 El documento cuesta %s. Paga por QR para descargarlo."
	legalDocPayCaption  = "Escanea el QR para pagar tu documento."
	legalDocPaidPrompt  = "Cuando completes el pago, confírmalo aquí:"
	legalDeliveredBody  = "📄 ¡Tu documento está listo!\nDescárgalo aquí: %s"
	legalDocumentPrice  = "50 Bs"
)

var legalNextButtons = []Button{
	{ID: IDLegalDoc, Title: "📄 Generar documento"},
	{ID: IDLegalBook, Title: "📅 Agendar consulta"},
	backToMenuButton,
}
