package memory

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

type quadRepository struct {
	sess session
}

// Insert сохраняет квадроцикл; ID выдаётся из монотонной последовательности и не переиспользуется.
func (r *quadRepository) Insert(ctx context.Context, quad domain.Quad) (int64, error) {
	id := int64(-1)
	err := r.sess.write(ctx, func(st *state) error {
		if quad.ID != 0 {
			if _, exists := st.quads[quad.ID]; exists {
				return errors.Wrapf(domain.ErrConflict, "quad %d already exists", quad.ID)
			}
			if quad.ID > st.quadSeq {
				st.quadSeq = quad.ID
			}
		} else {
			st.quadSeq++
			quad.ID = st.quadSeq
		}
		st.quads[quad.ID] = quad
		id = quad.ID
		return nil
	})
	if err != nil {
		return -1, err
	}
	return id, nil
}

// Update заменяет все поля квадроцикла; 0 строк означает отсутствие записи.
func (r *quadRepository) Update(ctx context.Context, quad domain.Quad) (int64, error) {
	var affected int64
	err := r.sess.write(ctx, func(st *state) error {
		if _, ok := st.quads[quad.ID]; !ok {
			return nil
		}
		st.quads[quad.ID] = quad
		affected = 1
		return nil
	})
	return affected, err
}

// Delete удаляет квадроцикл и все связи, которые на него ссылаются.
func (r *quadRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := r.sess.write(ctx, func(st *state) error {
		if _, ok := st.quads[id]; !ok {
			return nil
		}
		delete(st.quads, id)
		for linkID, link := range st.links {
			if link.QuadID == id {
				delete(st.links, linkID)
			}
		}
		affected = 1
		return nil
	})
	return affected, err
}

func (r *quadRepository) GetByID(ctx context.Context, id int64) (domain.Quad, error) {
	var (
		quad domain.Quad
		ok   bool
	)
	if err := r.sess.read(ctx, func(st *state) { quad, ok = st.quads[id] }); err != nil {
		return domain.Quad{}, err
	}
	if !ok {
		return domain.Quad{}, errors.Wrapf(domain.ErrNotFound, "quad %d", id)
	}
	return quad, nil
}

// GetAll возвращает парк по возрастанию номера.
func (r *quadRepository) GetAll(ctx context.Context) ([]domain.Quad, error) {
	var result []domain.Quad
	err := r.sess.read(ctx, func(st *state) {
		result = make([]domain.Quad, 0, len(st.quads))
		for _, quad := range st.quads {
			result = append(result, quad)
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Plate != result[j].Plate {
			return result[i].Plate < result[j].Plate
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// DeleteAll очищает парк; связи удаляются каскадно, последовательность ID сохраняется.
func (r *quadRepository) DeleteAll(ctx context.Context) error {
	return r.sess.write(ctx, func(st *state) error {
		st.quads = make(map[int64]domain.Quad)
		st.links = make(map[int64]domain.Link)
		return nil
	})
}

var _ domain.QuadRepository = (*quadRepository)(nil)
