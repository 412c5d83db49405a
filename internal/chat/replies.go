package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/gpneto/Clinica360-sub004/internal/bookings"
	"github.com/gpneto/Clinica360-sub004/internal/catalog"
	"github.com/gpneto/Clinica360-sub004/internal/schedule"
)

// User-facing copy, Portuguese like the clientele.
const (
	replyCanceled = "Operação cancelada. Se precisar de algo, é só me chamar! 👋"

	replyMenu = "Olá! 👋\n\nComo posso ajudá-lo hoje?\n\n1. *Agendar consulta*\n2. *Consultar meu agendamento*\n3. *Falar com atendente*\n\nDigite o número da opção desejada."

	replyMenuReprompt = "Por favor, escolha uma das opções:\n\n1. Agendar consulta\n2. Consultar meu agendamento\n3. Falar com atendente\n\nDigite o número da opção."

	replyManualHandoff = "Você será atendido por um de nossos atendentes em breve. Aguarde um momento, por favor.\n\n💡 *Dica:* Digite \"voltar\", \"menu\" ou \"agendar\" a qualquer momento para retornar ao menu automático."

	replyNotEligible = "Olá! O agendamento pelo WhatsApp está disponível apenas para clientes cadastrados. Por favor, entre em contato conosco para se cadastrar."

	replyNoProfessionals = "Desculpe, não há profissionais disponíveis no momento. Por favor, entre em contato conosco."

	replyNoServices = "Desculpe, não há serviços disponíveis para agendamento no momento."

	replyDateInvalid = "Data inválida. Por favor, digite a data no formato DD/MM/AAAA (ex: 25/12/2026), \"hoje\" ou \"amanhã\"."

	replyDatePast = "Não é possível agendar para datas passadas. Por favor, escolha uma data futura."

	replyDateTooFar = "Não é possível agendar com mais de 90 dias de antecedência. Por favor, escolha uma data mais próxima."

	replySlotTaken = "Este horário não está mais disponível. Por favor, escolha outro horário."

	replySlotTakenFinal = "Este horário não está mais disponível. Por favor, inicie um novo agendamento."

	replyBookingCanceled = "Agendamento cancelado. Obrigado!"

	replyConfirmReprompt = "Por favor, digite *CONFIRMAR* para confirmar o agendamento ou *CANCELAR* para cancelar."

	replyRegistrationRequired = "Você precisa estar cadastrado para agendar. Por favor, entre em contato conosco para se cadastrar."

	replyAskName = "Para finalizar o agendamento, precisamos do seu nome para criar seu cadastro.\n\nPor favor, digite seu nome completo:"

	replyAskNameForConsult = "Não encontramos seu cadastro em nosso sistema.\n\nPara consultar seus agendamentos, precisamos do seu nome para criar seu cadastro.\n\nPor favor, digite seu nome completo:"

	replyNameTooShort = "Por favor, digite um nome válido (mínimo 2 caracteres)."

	replyNoUpcomingBookings = "Você não possui agendamentos futuros no momento."

	replyGenericError = "Desculpe, ocorreu um erro. Por favor, tente novamente ou entre em contato conosco."

	// GenericErrorReply is what callers send when Process itself fails.
	GenericErrorReply = replyGenericError

	feedbackSearchingProfessionals = "⏳ Buscando profissionais disponíveis..."
	feedbackSearchingServices      = "⏳ Buscando serviços disponíveis..."
	feedbackCheckingDate           = "⏳ Verificando horários disponíveis para a data selecionada..."
	feedbackCheckingSlot           = "⏳ Verificando disponibilidade do horário..."
	feedbackProcessingBooking      = "⏳ Processando seu agendamento..."
	feedbackConsulting             = "⏳ Consultando seus agendamentos..."
	feedbackCreatingRegistration   = "⏳ Criando seu cadastro..."
)

// withExitFooter appends the standing SAIR instruction.
func withExitFooter(message string) string {
	return message + "\n\n❌ Digite *SAIR* a qualquer momento para cancelar e voltar ao menu inicial."
}

func formatPrice(cents int64) string {
	return fmt.Sprintf("R$ %.2f", float64(cents)/100)
}

func formatDateBR(t time.Time) string {
	return t.Format("02/01/2006")
}

func listProfessionals(header string, professionals []catalog.Professional) string {
	var b strings.Builder
	b.WriteString(header)
	for i, p := range professionals {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Name)
	}
	return b.String()
}

func listServices(header string, services []catalog.Service) string {
	var b strings.Builder
	b.WriteString(header)
	for i, svc := range services {
		fmt.Fprintf(&b, "%d. %s - %s (%d min)\n", i+1, svc.Name, formatPrice(svc.PriceCents), svc.Duration())
	}
	return b.String()
}

func listSlots(header string, slots []schedule.Slot) string {
	var b strings.Builder
	b.WriteString(header)
	for i, slot := range slots {
		fmt.Fprintf(&b, "%d. %s às %s\n", i+1, slot.Start, slot.End)
	}
	return b.String()
}

func datePrompt(serviceName string, today time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Serviço selecionado: *%s*\n\nPor favor, escolha uma data:\n\n", serviceName)
	b.WriteString("Digite a data no formato DD/MM/AAAA (ex: 25/12/2026)\n")
	fmt.Fprintf(&b, "ou digite \"hoje\" para hoje (%s)\n", formatDateBR(today))
	fmt.Fprintf(&b, "ou \"amanhã\" para amanhã (%s)", formatDateBR(today.AddDate(0, 0, 1)))
	return b.String()
}

func confirmationSummary(professionalName string, serviceNames []string, date time.Time, slot schedule.Slot, priceCents int64) string {
	var b strings.Builder
	b.WriteString("*Confirme os dados do agendamento:*\n\n")
	fmt.Fprintf(&b, "👤 Profissional: %s\n", professionalName)
	fmt.Fprintf(&b, "📋 Serviço(s): %s\n", strings.Join(serviceNames, ", "))
	fmt.Fprintf(&b, "📅 Data: %s\n", formatDateBR(date))
	fmt.Fprintf(&b, "🕐 Horário: %s às %s\n", slot.Start, slot.End)
	fmt.Fprintf(&b, "💰 Valor: %s\n\n", formatPrice(priceCents))
	b.WriteString("Digite *CONFIRMAR* para confirmar o agendamento ou *CANCELAR* para cancelar.")
	return b.String()
}

func bookingConfirmed(date time.Time, slot schedule.Slot) string {
	return fmt.Sprintf("✅ Agendamento confirmado para %s às %s!\n\nEnviaremos lembretes antes da sua consulta. Até lá! 👋",
		formatDateBR(date), slot.Start)
}

type bookingListing struct {
	booking          bookings.Booking
	professionalName string
	serviceName      string
}

func listBookings(items []bookingListing, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("*Seus agendamentos:*\n\n")
	for _, item := range items {
		start := item.booking.Start.In(loc)
		fmt.Fprintf(&b, "📅 %s às %s\n", formatDateBR(start), start.Format("15:04"))
		fmt.Fprintf(&b, "👤 %s\n", item.professionalName)
		fmt.Fprintf(&b, "📋 %s\n", item.serviceName)
		if item.booking.Status == bookings.StatusConfirmed {
			b.WriteString("Status: ✅ Confirmado\n\n")
		} else {
			b.WriteString("Status: ⏳ Agendado\n\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
