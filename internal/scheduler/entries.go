package scheduler

import (
	"fmt"
	"strings"

	"github.com/shaiso/taskgraph/internal/domain"
)

// ParseEntries разбирает список расписаний из строки конфигурации.
//
// Формат: записи через ";", каждая запись "pipeline[:strategy]=cron".
// Часовой пояс задаётся префиксом "TZ=Europe/Moscow " перед выражением.
//
//	demo:kahn=*/5 * * * *;diamond=@hourly;chain=TZ=Europe/Moscow 0 9 * * *
//
// Пустая строка даёт пустой список.
func ParseEntries(s string) ([]*domain.Schedule, error) {
	var out []*domain.Schedule

	for _, raw := range strings.Split(s, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		head, expr, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("schedule entry %q: missing '='", raw)
		}

		pipeline, strategyName, _ := strings.Cut(strings.TrimSpace(head), ":")
		pipeline = strings.TrimSpace(pipeline)
		if pipeline == "" {
			return nil, fmt.Errorf("schedule entry %q: pipeline name is required", raw)
		}

		strategy, err := domain.ParseStrategy(strings.TrimSpace(strategyName))
		if err != nil {
			return nil, fmt.Errorf("schedule entry %q: %w", raw, err)
		}

		tz := "UTC"
		expr = strings.TrimSpace(expr)
		if rest, found := strings.CutPrefix(expr, "TZ="); found {
			zone, cronExpr, ok := strings.Cut(rest, " ")
			if !ok {
				return nil, fmt.Errorf("schedule entry %q: missing cron expression after timezone", raw)
			}
			tz = zone
			expr = strings.TrimSpace(cronExpr)
		}

		if err := ValidateCronExpr(expr); err != nil {
			return nil, fmt.Errorf("schedule entry %q: %w", raw, err)
		}

		out = append(out, &domain.Schedule{
			Pipeline: pipeline,
			Strategy: strategy,
			CronExpr: expr,
			Timezone: tz,
			Enabled:  true,
		})
	}

	return out, nil
}
