package slack

import "github.com/secmon-lab/plantops/pkg/domain/model"

var (
	TruncateRunes = truncateRunes
	AlertText     = alertText
)

func AlertBlockCount(alert model.HealthAlert) int {
	return len(alertBlocks(alert))
}
