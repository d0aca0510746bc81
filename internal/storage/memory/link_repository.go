package memory

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

type linkRepository struct {
	sess session
}

func checkParents(st *state, link domain.Link) error {
	if _, ok := st.reservations[link.ReservationID]; !ok {
		return errors.Wrapf(domain.ErrParentMissing, "reservation %d", link.ReservationID)
	}
	if _, ok := st.quads[link.QuadID]; !ok {
		return errors.Wrapf(domain.ErrParentMissing, "quad %d", link.QuadID)
	}
	return nil
}

// Insert сохраняет связь, если обе родительские записи существуют.
// Дубликаты пары (бронь, квадроцикл) не запрещаются.
func (r *linkRepository) Insert(ctx context.Context, link domain.Link) (int64, error) {
	if err := link.Validate(); err != nil {
		return -1, err
	}
	id := int64(-1)
	err := r.sess.write(ctx, func(st *state) error {
		if err := checkParents(st, link); err != nil {
			return err
		}
		if link.ID != 0 {
			if _, exists := st.links[link.ID]; exists {
				return errors.Wrapf(domain.ErrConflict, "link %d already exists", link.ID)
			}
			if link.ID > st.linkSeq {
				st.linkSeq = link.ID
			}
		} else {
			st.linkSeq++
			link.ID = st.linkSeq
		}
		st.links[link.ID] = link
		id = link.ID
		return nil
	})
	if err != nil {
		return -1, err
	}
	return id, nil
}

func (r *linkRepository) Update(ctx context.Context, link domain.Link) (int64, error) {
	if err := link.Validate(); err != nil {
		return 0, err
	}
	var affected int64
	err := r.sess.write(ctx, func(st *state) error {
		if _, ok := st.links[link.ID]; !ok {
			return nil
		}
		if err := checkParents(st, link); err != nil {
			return err
		}
		st.links[link.ID] = link
		affected = 1
		return nil
	})
	return affected, err
}

func (r *linkRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := r.sess.write(ctx, func(st *state) error {
		if _, ok := st.links[id]; ok {
			delete(st.links, id)
			affected = 1
		}
		return nil
	})
	return affected, err
}

func (r *linkRepository) DeleteAll(ctx context.Context) error {
	return r.sess.write(ctx, func(st *state) error {
		st.links = make(map[int64]domain.Link)
		return nil
	})
}

func (r *linkRepository) GetByID(ctx context.Context, id int64) (domain.Link, error) {
	var (
		link domain.Link
		ok   bool
	)
	if err := r.sess.read(ctx, func(st *state) { link, ok = st.links[id] }); err != nil {
		return domain.Link{}, err
	}
	if !ok {
		return domain.Link{}, errors.Wrapf(domain.ErrNotFound, "link %d", id)
	}
	return link, nil
}

func (r *linkRepository) GetByReservation(ctx context.Context, reservationID int64) ([]domain.Link, error) {
	return r.filter(ctx, func(l domain.Link) bool { return l.ReservationID == reservationID })
}

func (r *linkRepository) GetByQuad(ctx context.Context, quadID int64) ([]domain.Link, error) {
	return r.filter(ctx, func(l domain.Link) bool { return l.QuadID == quadID })
}

// GetByReservationAndQuad возвращает связь с наименьшим ID для пары.
func (r *linkRepository) GetByReservationAndQuad(ctx context.Context, reservationID, quadID int64) (domain.Link, error) {
	links, err := r.filter(ctx, func(l domain.Link) bool {
		return l.ReservationID == reservationID && l.QuadID == quadID
	})
	if err != nil {
		return domain.Link{}, err
	}
	if len(links) == 0 {
		return domain.Link{}, errors.Wrapf(domain.ErrNotFound, "link reservation=%d quad=%d", reservationID, quadID)
	}
	return links[0], nil
}

func (r *linkRepository) DeleteByReservation(ctx context.Context, reservationID int64) (int64, error) {
	return r.deleteWhere(ctx, func(l domain.Link) bool { return l.ReservationID == reservationID })
}

func (r *linkRepository) DeleteByQuad(ctx context.Context, quadID int64) (int64, error) {
	return r.deleteWhere(ctx, func(l domain.Link) bool { return l.QuadID == quadID })
}

func (r *linkRepository) filter(ctx context.Context, match func(domain.Link) bool) ([]domain.Link, error) {
	result := make([]domain.Link, 0)
	err := r.sess.read(ctx, func(st *state) {
		for _, link := range st.links {
			if match(link) {
				result = append(result, link)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *linkRepository) deleteWhere(ctx context.Context, match func(domain.Link) bool) (int64, error) {
	var affected int64
	err := r.sess.write(ctx, func(st *state) error {
		for id, link := range st.links {
			if match(link) {
				delete(st.links, id)
				affected++
			}
		}
		return nil
	})
	return affected, err
}

var _ domain.LinkRepository = (*linkRepository)(nil)
