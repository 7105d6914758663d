package decorator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/architeacher/workpackages/pkg/metrics"
)

type queryMetricsDecorator[Q Query, R Result] struct {
	base   QueryHandler[Q, R]
	client metrics.Client
}

func (d queryMetricsDecorator[Q, R]) Execute(ctx context.Context, query Q) (result R, err error) {
	start := time.Now()

	actionName := strings.ToLower(generateActionName(query))

	defer func() {
		if d.client == nil {
			return
		}

		d.client.Observe(ctx, fmt.Sprintf("queries.%s.duration_seconds", actionName), time.Since(start).Seconds())

		if err == nil {
			d.client.Inc(ctx, fmt.Sprintf("queries.%s.success", actionName), 1)
		} else {
			d.client.Inc(ctx, fmt.Sprintf("queries.%s.failure", actionName), 1)
		}
	}()

	return d.base.Execute(ctx, query)
}
