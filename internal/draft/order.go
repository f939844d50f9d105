// Package draft generates the turn table a lobby walks during its draft.
package draft

import "github.com/draftnight/draftnight-server/internal/models"

// GenerateOrder expands a player order into the full pick sequence, one entry
// per pick, rosterSize rounds long. Linear repeats the order every round;
// snake reverses every odd round (0-based) so positional advantage
// alternates. Deterministic: shuffle playerIDs first if turn order should be
// random per draft.
func GenerateOrder(playerIDs []string, rosterSize int, draftType models.DraftType) []string {
	order := make([]string, 0, rosterSize*len(playerIDs))
	for round := 0; round < rosterSize; round++ {
		if draftType == models.DraftSnake && round%2 == 1 {
			for i := len(playerIDs) - 1; i >= 0; i-- {
				order = append(order, playerIDs[i])
			}
			continue
		}
		order = append(order, playerIDs...)
	}
	return order
}
