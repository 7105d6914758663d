package decorator

import (
	"context"
	"time"

	"github.com/architeacher/workpackages/pkg/logger"
)

type queryLoggingDecorator[Q Query, R Result] struct {
	base   QueryHandler[Q, R]
	logger logger.Logger
}

func (d queryLoggingDecorator[Q, R]) Execute(ctx context.Context, query Q) (result R, err error) {
	log := d.logger.WithContext(ctx).
		With().
		Str("query", generateActionName(query)).
		Logger()

	start := time.Now()

	log.Debug().Msg("executing query")

	defer func() {
		elapsed := time.Since(start)

		if err != nil {
			log.Warn().
				Err(err).
				Dur("duration", elapsed).
				Msg("query failed")

			return
		}

		log.Debug().
			Dur("duration", elapsed).
			Msg("query executed")
	}()

	return d.base.Execute(ctx, query)
}
