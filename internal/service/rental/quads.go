package rental

import (
	"context"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

// CreateQuad добавляет квадроцикл в парк.
func (s *Service) CreateQuad(ctx context.Context, quad domain.Quad) (domain.Quad, error) {
	const op = "create_quad"
	quad.ID = 0
	if err := quad.Validate(); err != nil {
		return domain.Quad{}, s.rejectInvalid(op, err)
	}

	err := s.exec(ctx, op, func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
			id, err := repos.Quads.Insert(ctx, quad)
			if err != nil {
				return errors.Wrap(err, "insert quad")
			}
			quad.ID = id
			return enqueueQuadEvent(ctx, repos.Outbox, domain.EventQuadCreated, quad, 0)
		})
	})
	if err != nil {
		return domain.Quad{}, err
	}

	s.logger.WithFields(log.Fields{"quad_id": quad.ID, "plate": quad.Plate}).Info("quad created")
	return quad, nil
}

// UpdateQuad заменяет все поля квадроцикла; ErrNotFound, если его нет.
func (s *Service) UpdateQuad(ctx context.Context, quad domain.Quad) (domain.Quad, error) {
	const op = "update_quad"
	if err := quad.Validate(); err != nil {
		return domain.Quad{}, s.rejectInvalid(op, err)
	}

	err := s.exec(ctx, op, func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
			affected, err := repos.Quads.Update(ctx, quad)
			if err != nil {
				return errors.Wrap(err, "update quad")
			}
			if affected == 0 {
				return notFound("quad", quad.ID)
			}
			return enqueueQuadEvent(ctx, repos.Outbox, domain.EventQuadUpdated, quad, 0)
		})
	})
	if err != nil {
		return domain.Quad{}, err
	}
	return quad, nil
}

// DeleteQuad удаляет квадроцикл. Если на него ссылаются брони и force=false,
// возвращается ErrCascadeConflict и ничего не удаляется; с force=true связи удаляются каскадно.
func (s *Service) DeleteQuad(ctx context.Context, id int64, force bool) error {
	return s.exec(ctx, "delete_quad", func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
			quad, err := repos.Quads.GetByID(ctx, id)
			if err != nil {
				return err
			}
			links, err := repos.Links.GetByQuad(ctx, id)
			if err != nil {
				return errors.Wrap(err, "load quad links")
			}
			if len(links) > 0 && !force {
				return errors.Wrapf(domain.ErrCascadeConflict, "quad %d is used by %d reservation(s)", id, len(links))
			}

			affected, err := repos.Quads.Delete(ctx, id)
			if err != nil {
				return errors.Wrap(err, "delete quad")
			}
			if affected == 0 {
				return notFound("quad", id)
			}
			return enqueueQuadEvent(ctx, repos.Outbox, domain.EventQuadDeleted, quad, int64(len(links)))
		})
	})
}
