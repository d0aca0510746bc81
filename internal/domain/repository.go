package domain

import "context"

// QuadRepository описывает хранилище парка.
type QuadRepository interface {
	// Insert сохраняет квадроцикл и возвращает присвоенный ID; при ошибке возвращает -1.
	// Ненулевой ID трактуется как заранее заданный; повтор даёт ErrConflict.
	Insert(ctx context.Context, quad Quad) (int64, error)
	// Update заменяет все поля по ID; возвращает число затронутых строк (0 — нет записи).
	Update(ctx context.Context, quad Quad) (int64, error)
	// Delete удаляет квадроцикл вместе со связями; возвращает число затронутых строк.
	Delete(ctx context.Context, id int64) (int64, error)
	// GetByID возвращает квадроцикл или ErrNotFound.
	GetByID(ctx context.Context, id int64) (Quad, error)
	// GetAll возвращает парк, упорядоченный по номеру.
	GetAll(ctx context.Context) ([]Quad, error)
	// DeleteAll очищает таблицу; только для тестов и демо-данных.
	DeleteAll(ctx context.Context) error
}

// ReservationRepository описывает хранилище броней.
type ReservationRepository interface {
	Insert(ctx context.Context, reservation Reservation) (int64, error)
	Update(ctx context.Context, reservation Reservation) (int64, error)
	// Delete удаляет бронь вместе со связями.
	Delete(ctx context.Context, id int64) (int64, error)
	GetByID(ctx context.Context, id int64) (Reservation, error)
	// GetAll возвращает брони по возрастанию времени выдачи.
	GetAll(ctx context.Context) ([]Reservation, error)
	DeleteAll(ctx context.Context) error
}

// LinkRepository описывает хранилище связей бронь–квадроцикл.
type LinkRepository interface {
	// Insert возвращает ErrParentMissing, если бронь или квадроцикл не существуют.
	Insert(ctx context.Context, link Link) (int64, error)
	Update(ctx context.Context, link Link) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	DeleteAll(ctx context.Context) error
	GetByID(ctx context.Context, id int64) (Link, error)
	GetByReservation(ctx context.Context, reservationID int64) ([]Link, error)
	GetByQuad(ctx context.Context, quadID int64) ([]Link, error)
	// GetByReservationAndQuad возвращает первую связь пары или ErrNotFound.
	GetByReservationAndQuad(ctx context.Context, reservationID, quadID int64) (Link, error)
	DeleteByReservation(ctx context.Context, reservationID int64) (int64, error)
	DeleteByQuad(ctx context.Context, quadID int64) (int64, error)
}

// Repositories — набор репозиториев, работающих в одной транзакции.
type Repositories struct {
	Quads        QuadRepository
	Reservations ReservationRepository
	Links        LinkRepository
	Outbox       OutboxRepository
}

// UnitOfWork выполняет функцию атомарно: либо все изменения применяются, либо ни одно.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Store объединяет репозитории, транзакции и проверку доступности.
type Store interface {
	UnitOfWork
	Repositories() Repositories
	Ping(ctx context.Context) error
	Close() error
}
