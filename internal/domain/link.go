package domain

// Link связывает бронь с квадроциклом и хранит число выданных шлемов.
type Link struct {
	ID            int64
	ReservationID int64
	QuadID        int64
	HelmetCount   int
}

// Validate проверяет поля связи; существование родителей проверяет хранилище.
func (l Link) Validate() error {
	if l.HelmetCount < 0 {
		return NewValidationError(ReasonNegativeHelmets)
	}
	return nil
}
