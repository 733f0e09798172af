package app

// Mode определяет транспорт получения обновлений
type Mode int

const (
	// ModeProduction webhook и HTTP-сервер
	ModeProduction Mode = iota
	// ModeTesting long polling
	ModeTesting
)

// ModeFromDebug выбирает режим по флагу DEBUG
func ModeFromDebug(debug bool) Mode {
	if debug {
		return ModeTesting
	}
	return ModeProduction
}

func (m Mode) String() string {
	switch m {
	case ModeProduction:
		return "production"
	case ModeTesting:
		return "testing"
	default:
		return "unknown"
	}
}
