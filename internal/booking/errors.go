package booking

import "errors"

// FormError is a user-facing validation outcome. The text is shown verbatim.
type FormError string

func (e FormError) Error() string { return string(e) }

const (
	ErrMissingFields FormError = "Preencha nome, telefone, data e horário."
	ErrOutsidePeriod FormError = "Data fora do período de agendamento."
	ErrBlackoutDay   FormError = "Não atendemos neste dia da semana. Escolha outra data."
	ErrUnknownSlot   FormError = "Horário inválido. Escolha um dos horários oferecidos."
	ErrSlotTaken     FormError = "Este horário já está ocupado. Escolha outro."
	ErrSaveFailed    FormError = "Não foi possível salvar o agendamento. Tente novamente."
)

// Guidance shown in place of the time options.
const (
	MsgChooseDate    = "Selecione uma data para ver os horários."
	MsgOutsidePeriod = "Agendamentos disponíveis apenas no período permitido."
	MsgBlackout      = "Não há atendimento neste dia. Escolha outra data."
	MsgBooked        = "Agendamento confirmado!"
)

// outcome maps a submit result to a metric label.
func outcome(err error) string {
	var fe FormError
	if !errors.As(err, &fe) {
		if err == nil {
			return "success"
		}
		return "error"
	}
	switch fe {
	case ErrMissingFields:
		return "missing_fields"
	case ErrOutsidePeriod:
		return "outside_period"
	case ErrBlackoutDay:
		return "blackout"
	case ErrUnknownSlot:
		return "unknown_slot"
	case ErrSlotTaken:
		return "slot_taken"
	case ErrSaveFailed:
		return "save_failed"
	default:
		return "error"
	}
}
