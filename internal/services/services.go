package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	learningrepo "github.com/yungbote/techlearn-backend/internal/data/repos/learning"
	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
)

func requireManager(p types.Principal) error {
	if !p.CanManage() {
		return apierr.Forbidden("access denied")
	}
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// visibleModule loads a module in the caller's organization. Learners only see
// published modules.
func visibleModule(ctx context.Context, tx *gorm.DB, modules learningrepo.ModuleRepo, p types.Principal, id uuid.UUID) (*types.LearningModule, error) {
	m, err := modules.GetInOrg(ctx, tx, p.OrganizationID, id)
	if err != nil {
		return nil, fmt.Errorf("load module: %w", err)
	}
	if m == nil || (!m.IsPublished && !p.CanManage()) {
		return nil, apierr.NotFound("module")
	}
	return m, nil
}
