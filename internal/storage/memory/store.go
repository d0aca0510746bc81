package memory

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

// state — всё содержимое in-memory базы; копируется целиком для отката транзакции.
type state struct {
	quads        map[int64]domain.Quad
	reservations map[int64]domain.Reservation
	links        map[int64]domain.Link
	outbox       map[string]outboxRecord

	quadSeq        int64
	reservationSeq int64
	linkSeq        int64
	outboxSeq      int64
}

func newState() *state {
	return &state{
		quads:        make(map[int64]domain.Quad),
		reservations: make(map[int64]domain.Reservation),
		links:        make(map[int64]domain.Link),
		outbox:       make(map[string]outboxRecord),
	}
}

func (s *state) clone() *state {
	cp := *s
	cp.quads = make(map[int64]domain.Quad, len(s.quads))
	for k, v := range s.quads {
		cp.quads[k] = v
	}
	cp.reservations = make(map[int64]domain.Reservation, len(s.reservations))
	for k, v := range s.reservations {
		cp.reservations[k] = v
	}
	cp.links = make(map[int64]domain.Link, len(s.links))
	for k, v := range s.links {
		cp.links[k] = v
	}
	cp.outbox = make(map[string]outboxRecord, len(s.outbox))
	for k, v := range s.outbox {
		cp.outbox[k] = v
	}
	return &cp
}

// Store — общая in-memory база для всех репозиториев с поддержкой транзакций.
// Каскадное удаление связей выполняется так же, как ON DELETE CASCADE в PostgreSQL.
type Store struct {
	mu sync.RWMutex
	st *state
}

// NewStore создаёт пустое хранилище для локальной разработки и тестов.
func NewStore() *Store {
	return &Store{st: newState()}
}

// session определяет, нужно ли брать блокировку: внутри WithinTx она уже захвачена.
type session struct {
	store *Store
	inTx  bool
}

func (s session) read(ctx context.Context, fn func(st *state)) error {
	if err := ctx.Err(); err != nil {
		return errors.Mark(err, domain.ErrStorageTimeout)
	}
	if !s.inTx {
		s.store.mu.RLock()
		defer s.store.mu.RUnlock()
	}
	fn(s.store.st)
	return nil
}

func (s session) write(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return errors.Mark(err, domain.ErrStorageTimeout)
	}
	if !s.inTx {
		s.store.mu.Lock()
		defer s.store.mu.Unlock()
	}
	return fn(s.store.st)
}

func (s *Store) repositories(inTx bool) domain.Repositories {
	sess := session{store: s, inTx: inTx}
	return domain.Repositories{
		Quads:        &quadRepository{sess: sess},
		Reservations: &reservationRepository{sess: sess},
		Links:        &linkRepository{sess: sess},
		Outbox:       &outboxRepository{sess: sess},
	}
}

// Repositories возвращает репозитории, работающие вне транзакции.
func (s *Store) Repositories() domain.Repositories {
	return s.repositories(false)
}

// WithinTx выполняет fn под эксклюзивной блокировкой; при ошибке состояние откатывается к снимку.
// Внутри fn нельзя вызывать методы Store: только переданные репозитории.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) (err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Mark(ctxErr, domain.ErrStorageTimeout)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	return fn(ctx, s.repositories(true))
}

// Ping всегда успешен: данные в памяти процесса.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Close ничего не освобождает; метод нужен для совместимости с domain.Store.
func (s *Store) Close() error {
	return nil
}

var _ domain.Store = (*Store)(nil)
