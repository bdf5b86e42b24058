package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joseph-ayodele/inventory-scanner/internal/common"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/resolver"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

// LoadInventory reads a JSON inventory snapshot, validates it and builds the
// resolver index.
func LoadInventory(path string) (*resolver.Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	var inv entity.Inventory
	if err := json.Unmarshal(b, &inv); err != nil {
		return nil, common.NewAppError("INVALID_INPUT", "inventory is not valid JSON", fmt.Errorf("%w: %w", common.ErrInvalidInput, err))
	}
	if err := common.ValidateStruct(inv); err != nil {
		return nil, err
	}
	return resolver.Build(inv.Items, inv.Transactions, inv.Partners), nil
}
